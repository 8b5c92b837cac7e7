// Package input turns raw console edges into debounced, latched events.
//
// Every cell in this package has exactly one writer per word: interrupt
// handlers raise, the main loop takes. Events are latched, not queued.
package input

import (
	"sync/atomic"
	"time"
)

// Event is a single-producer/single-consumer edge latch.
//
// The producer owns raised and at, the consumer owns taken. The event is
// pending while the two sequence numbers differ.
type Event struct {
	raised atomic.Uint32
	taken  atomic.Uint32
	at     atomic.Int64
}

// Raise latches the event at time now. It returns false if an earlier event
// is still pending; that event is kept and the new one is lost.
func (e *Event) Raise(now time.Duration) bool {
	if e.Pending() {
		return false
	}
	e.at.Store(int64(now))
	e.raised.Add(1)
	return true
}

// Pending reports whether a raised event has not been taken yet.
func (e *Event) Pending() bool {
	return e.raised.Load() != e.taken.Load()
}

// At returns the time the pending (or last) event was raised.
func (e *Event) At() time.Duration {
	return time.Duration(e.at.Load())
}

// Take consumes the pending event, reporting whether there was one.
func (e *Event) Take() bool {
	r := e.raised.Load()
	if r == e.taken.Load() {
		return false
	}
	e.taken.Store(r)
	return true
}
