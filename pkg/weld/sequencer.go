// Package weld drives the weld output through the two-pulse train.
package weld

import (
	"time"

	"github.com/itohio/spotweld/pkg/clock"
	"github.com/itohio/spotweld/pkg/menu"
)

// Output switches the weld transformer.
type Output interface {
	Set(on bool)
}

// OutputFunc adapts a function to Output.
type OutputFunc func(on bool)

func (f OutputFunc) Set(on bool) { f(on) }

// Phase is one segment of a pulse train.
type Phase struct {
	On       bool
	Duration time.Duration
}

// PulseTrain is a sequence of output phases. The output is off before the
// first phase and after the last one.
type PulseTrain []Phase

// NewPulseTrain returns the on/off/on train for p.
func NewPulseTrain(p menu.Parameters) PulseTrain {
	return PulseTrain{
		{On: true, Duration: time.Duration(p.Pulse0) * time.Millisecond},
		{On: false, Duration: time.Duration(p.Delay) * time.Millisecond},
		{On: true, Duration: time.Duration(p.Pulse1) * time.Millisecond},
	}
}

// Duration is the total length of the train.
func (pt PulseTrain) Duration() time.Duration {
	var d time.Duration
	for _, ph := range pt {
		d += ph.Duration
	}
	return d
}

// Sequencer runs pulse trains on an output.
type Sequencer struct {
	out   Output
	clock clock.Clock
}

// NewSequencer creates a sequencer. The output is switched off.
func NewSequencer(out Output, c clock.Clock) *Sequencer {
	if out == nil || c == nil {
		panic("weld: nil output or clock")
	}
	out.Set(false)
	return &Sequencer{out: out, clock: c}
}

// Run executes the train for p and blocks until the output is off again.
// It cannot be aborted. It returns the time spent.
func (s *Sequencer) Run(p menu.Parameters) time.Duration {
	return s.RunTrain(NewPulseTrain(p))
}

// RunTrain executes an arbitrary train. Zero length phases are skipped and
// the output is only switched when its level changes.
func (s *Sequencer) RunTrain(pt PulseTrain) time.Duration {
	start := s.clock.Now()
	level := false
	for _, ph := range pt {
		if ph.Duration <= 0 {
			continue
		}
		if ph.On != level {
			s.out.Set(ph.On)
			level = ph.On
		}
		s.clock.Sleep(ph.Duration)
	}
	s.out.Set(false)
	return s.clock.Now() - start
}
