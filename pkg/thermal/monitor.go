package thermal

import "fmt"

// Channels is the number of monitored thermistors.
const Channels = 2

// ADC reads raw 10-bit samples.
type ADC interface {
	ReadRaw(channel uint8) (uint16, error)
}

// Config configures a Monitor.
type Config struct {
	Model      Model
	Channels   [Channels]uint8 // ADC channel per sensor
	Limits     [Channels]int16 // a sensor is hot above its limit
	Oversample int             // raw reads averaged per sample
}

// DefaultConfig returns the transformer core (sensor 0) and electrode tip
// (sensor 1) limits of 45 and 40 degrees.
func DefaultConfig() Config {
	return Config{
		Model:      DefaultModel(),
		Channels:   [Channels]uint8{0, 1},
		Limits:     [Channels]int16{45, 40},
		Oversample: 1,
	}
}

// Reading is one sample of both sensors.
type Reading struct {
	Celsius    [Channels]int16
	Fault      [Channels]bool
	Overheated bool
}

// Faulted reports whether any sensor faulted.
func (r Reading) Faulted() bool {
	for _, f := range r.Fault {
		if f {
			return true
		}
	}
	return false
}

// Monitor samples the thermistors and evaluates the overheat interlock.
type Monitor struct {
	adc ADC
	cfg Config
}

// NewMonitor creates a monitor reading from adc.
func NewMonitor(adc ADC, cfg Config) *Monitor {
	if adc == nil {
		panic("thermal: nil ADC")
	}
	if cfg.Oversample < 1 {
		cfg.Oversample = 1
	}
	return &Monitor{adc: adc, cfg: cfg}
}

// Sample reads both sensors. A faulted sensor reads FaultCelsius, which
// always counts as overheated.
func (m *Monitor) Sample() Reading {
	var r Reading
	for i := range r.Celsius {
		raw, err := m.read(m.cfg.Channels[i])
		if err == nil {
			r.Celsius[i], err = m.cfg.Model.Degrees(raw)
		}
		if err != nil {
			r.Celsius[i] = FaultCelsius
			r.Fault[i] = true
		}
		if r.Celsius[i] > m.cfg.Limits[i] {
			r.Overheated = true
		}
	}
	return r
}

func (m *Monitor) read(ch uint8) (uint16, error) {
	var sum uint32
	for i := 0; i < m.cfg.Oversample; i++ {
		v, err := m.adc.ReadRaw(ch)
		if err != nil {
			return 0, fmt.Errorf("%w: channel %d: %v", ErrSensorFault, ch, err)
		}
		if v == 0 || v >= FullScale {
			// a single out-of-range read faults the sample instead of being averaged away
			return v, nil
		}
		sum += uint32(v)
	}
	return uint16(sum / uint32(m.cfg.Oversample)), nil
}
