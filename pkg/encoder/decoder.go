// Package encoder decodes a two-phase rotary encoder into a bounded count.
package encoder

import "sync/atomic"

const (
	// MaxCount and MinCount bound the accumulated count.
	MaxCount = 1000
	MinCount = -1000
)

// Step is the direction decoded from one pin change.
type Step int8

const (
	None             Step = 0
	Clockwise        Step = 1
	CounterClockwise Step = -1
)

func (s Step) String() string {
	switch s {
	case Clockwise:
		return "CW"
	case CounterClockwise:
		return "CCW"
	default:
		return "None"
	}
}

// Decoder is a 2-bit gray-code quadrature decoder.
//
// Direction is taken from the order of transitions between the rest
// pattern (A=1,B=1) and the commit pattern (A=0,B=0), so a single-pin glitch
// never produces a step. Update must only be called from one context (the
// pin-change interrupt); Count and Drain may be called concurrently.
type Decoder struct {
	count atomic.Int32

	// owned by Update
	cwPending  bool
	ccwPending bool
}

// New creates a decoder with a zero count.
func New() *Decoder {
	return &Decoder{}
}

// Update feeds the current levels of pins A and B into the decoder.
func (d *Decoder) Update(a, b bool) Step {
	if a && !b && !d.ccwPending {
		d.cwPending = true
	}
	if !a && b && !d.cwPending {
		d.ccwPending = true
	}
	if a && b {
		d.cwPending = false
		d.ccwPending = false
	}

	if a || b {
		return None
	}

	switch {
	case d.cwPending:
		d.cwPending = false
		d.add(1)
		return Clockwise
	case d.ccwPending:
		d.ccwPending = false
		d.add(-1)
		return CounterClockwise
	}
	return None
}

// pending reports the decoder sub-states (clockwise, counter-clockwise).
func (d *Decoder) pending() (cw, ccw bool) {
	return d.cwPending, d.ccwPending
}

// Count returns the accumulated count.
func (d *Decoder) Count() int32 {
	return d.count.Load()
}

// Drain returns the accumulated count and resets it to zero in one atomic step.
func (d *Decoder) Drain() int32 {
	return d.count.Swap(0)
}

func (d *Decoder) add(delta int32) {
	for {
		old := d.count.Load()
		v := old + delta
		if v > MaxCount {
			v = MaxCount
		} else if v < MinCount {
			v = MinCount
		}
		if v == old || d.count.CompareAndSwap(old, v) {
			return
		}
	}
}
