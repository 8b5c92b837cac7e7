// Package thermal converts thermistor divider readings to temperatures and
// implements the overheat interlock.
package thermal

import (
	"errors"
	"fmt"
	"math"

	"github.com/chewxy/math32"
)

// FullScale is the ADC count corresponding to the reference voltage.
const FullScale = 1024

// FaultCelsius is reported for a channel whose sample cannot be converted.
// It is far above any overheat limit so a fault always trips the interlock.
const FaultCelsius = math.MaxInt16

// ErrSensorFault is returned for samples outside the convertible range
// (open or shorted thermistor, ADC failure).
var ErrSensorFault = errors.New("thermal: sensor fault")

// Model is a Steinhart–Hart model of an NTC thermistor on the low side of
// a divider with a pull-up of RFixed ohms.
type Model struct {
	RFixed float32
	A      float32
	B      float32
	C      float32
}

// DefaultModel returns the coefficients of a common 10k NTC with a 10k pull-up.
func DefaultModel() Model {
	return Model{
		RFixed: 10000,
		A:      0.001129148,
		B:      0.000234125,
		C:      0.0000000876741,
	}
}

// Resistance returns the thermistor resistance for a raw sample.
func (m Model) Resistance(raw uint16) (float32, error) {
	if raw == 0 || raw >= FullScale {
		return 0, fmt.Errorf("%w: raw %d", ErrSensorFault, raw)
	}
	return m.RFixed * (FullScale/float32(raw) - 1), nil
}

// Celsius converts a raw sample to degrees Celsius.
func (m Model) Celsius(raw uint16) (float32, error) {
	r, err := m.Resistance(raw)
	if err != nil {
		return 0, err
	}
	l := math32.Log(r)
	invT := m.A + (m.B+m.C*l*l)*l
	t := 1/invT - 273.15
	if math32.IsNaN(t) || math32.IsInf(t, 0) {
		return 0, fmt.Errorf("%w: raw %d", ErrSensorFault, raw)
	}
	return t, nil
}

// Degrees converts a raw sample to whole degrees, truncating toward zero.
// Faults yield FaultCelsius together with the error.
func (m Model) Degrees(raw uint16) (int16, error) {
	t, err := m.Celsius(raw)
	if err != nil {
		return FaultCelsius, err
	}
	switch {
	case t >= math.MaxInt16:
		return math.MaxInt16, nil
	case t <= math.MinInt16:
		return math.MinInt16, nil
	}
	return int16(t), nil
}

// Raw returns the sample the divider produces at the given temperature.
// It inverts the model and is meant for simulation; the result is clamped
// to [1, FullScale-1].
func (m Model) Raw(celsius float64) uint16 {
	a, b, c := float64(m.A), float64(m.B), float64(m.C)
	x := (a - 1/(celsius+273.15)) / c
	y := math.Sqrt(math.Pow(b/(3*c), 3) + x*x/4)
	r := math.Exp(math.Cbrt(y-x/2) - math.Cbrt(y+x/2))
	raw := math.Round(FullScale / (r/float64(m.RFixed) + 1))
	switch {
	case raw < 1:
		return 1
	case raw > FullScale-1:
		return FullScale - 1
	}
	return uint16(raw)
}
