// Package sim provides simulated welder hardware for tests and the desktop
// simulator.
package sim

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/itohio/spotweld/pkg/clock"
	"github.com/itohio/spotweld/pkg/thermal"
	"github.com/itohio/spotweld/pkg/weld"
)

var (
	_ thermal.ADC = (*ADC)(nil)
	_ weld.Output = (*Output)(nil)
)

// ErrADCBusy is returned by a channel put into the failing state.
var ErrADCBusy = errors.New("sim: adc busy")

// ADC holds one raw value per channel. Values may be changed concurrently
// with reads.
type ADC struct {
	raw  [thermal.Channels]atomic.Uint32
	fail [thermal.Channels]atomic.Bool
}

// NewADC creates an ADC with both channels at mid scale (25 C).
func NewADC() *ADC {
	a := &ADC{}
	for i := range a.raw {
		a.raw[i].Store(thermal.FullScale / 2)
	}
	return a
}

func (a *ADC) ReadRaw(ch uint8) (uint16, error) {
	if int(ch) >= len(a.raw) {
		return 0, ErrADCBusy
	}
	if a.fail[ch].Load() {
		return 0, ErrADCBusy
	}
	return uint16(a.raw[ch].Load()), nil
}

// Set sets the raw value of a channel.
func (a *ADC) Set(ch int, raw uint16) {
	a.raw[ch].Store(uint32(raw))
}

// SetCelsius sets a channel to the value m produces at celsius.
func (a *ADC) SetCelsius(ch int, m thermal.Model, celsius float64) {
	a.Set(ch, m.Raw(celsius))
}

// Fail makes reads of a channel return an error.
func (a *ADC) Fail(ch int, fail bool) {
	a.fail[ch].Store(fail)
}

// Edge is a recorded output transition.
type Edge struct {
	At time.Duration
	On bool
}

// Output records weld output transitions against a clock.
type Output struct {
	clock clock.Clock

	mu      sync.Mutex
	level   bool
	edges   []Edge
	onSince time.Duration
	onTime  time.Duration
}

// NewOutput creates an output that is off.
func NewOutput(c clock.Clock) *Output {
	return &Output{clock: c}
}

func (o *Output) Set(on bool) {
	now := o.clock.Now()
	o.mu.Lock()
	defer o.mu.Unlock()
	if on == o.level {
		return
	}
	if on {
		o.onSince = now
	} else {
		o.onTime += now - o.onSince
	}
	o.level = on
	o.edges = append(o.edges, Edge{At: now, On: on})
}

// Level returns the current output level.
func (o *Output) Level() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.level
}

// Edges returns a copy of the recorded transitions.
func (o *Output) Edges() []Edge {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Edge(nil), o.edges...)
}

// Pulses returns the on intervals of the completed pulses.
func (o *Output) Pulses() []time.Duration {
	var res []time.Duration
	var since time.Duration
	for _, e := range o.Edges() {
		if e.On {
			since = e.At
		} else {
			res = append(res, e.At-since)
		}
	}
	return res
}

// TakeOnTime returns the time the output was on since the previous call.
func (o *Output) TakeOnTime() time.Duration {
	now := o.clock.Now()
	o.mu.Lock()
	defer o.mu.Unlock()
	d := o.onTime
	if o.level {
		d += now - o.onSince
		o.onSince = now
	}
	o.onTime = 0
	return d
}

// Pin is a digital input level.
type Pin struct {
	level atomic.Bool
}

func (p *Pin) Set(high bool) { p.level.Store(high) }

func (p *Pin) Get() bool { return p.level.Load() }
