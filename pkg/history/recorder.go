// Package history keeps a sliding time window of welder telemetry and the
// welds detected in it.
package history

import (
	"sync"
	"time"

	"github.com/itohio/spotweld/pkg/config"
	"github.com/itohio/spotweld/pkg/menu"
	"github.com/itohio/spotweld/pkg/telemetry"
	"github.com/itohio/spotweld/pkg/welder"
)

// Weld is one completed pulse train seen in the telemetry.
type Weld struct {
	Start      time.Time // first Welding frame, or the completion frame if none was seen
	End        time.Time // frame that reported the completed weld
	Number     uint32    // device weld counter
	Parameters menu.Parameters
	Celsius    [2]int16 // temperatures just before the weld
}

// UpdateFunc receives the window contents after every frame.
type UpdateFunc func(frames []telemetry.Frame, welds []Weld)

// Recorder consumes frames and maintains the window.
type Recorder struct {
	window time.Duration

	mu      sync.RWMutex
	frames  []telemetry.Frame // ordered oldest first, removed by receive time
	welds   []Weld
	pending *Weld
	last    telemetry.Frame
	started bool

	callbacks []UpdateFunc
	cbMu      sync.RWMutex

	// Set when the input channel closes, prevents further callbacks
	shutdown bool
}

// New creates a recorder with the monitor window from cfg.
func New(cfg *config.Config) *Recorder {
	return &Recorder{
		window: time.Duration(cfg.Monitor.WindowSeconds * float64(time.Second)),
	}
}

// SetWindow changes the window length. Older frames leave on the next Add.
func (r *Recorder) SetWindow(window time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.window = window
}

// ProcessFrames consumes frames until input is closed.
func (r *Recorder) ProcessFrames(input <-chan telemetry.Frame) {
	for f := range input {
		r.Add(f)
	}
	r.mu.Lock()
	r.shutdown = true
	r.mu.Unlock()
}

// Add appends one frame and notifies the callbacks.
func (r *Recorder) Add(f telemetry.Frame) {
	r.mu.Lock()
	r.add(f)
	notify := !r.shutdown
	r.mu.Unlock()

	if notify {
		r.notifyCallbacks()
	}
}

func (r *Recorder) add(f telemetry.Frame) {
	if r.started && f.Uptime < r.last.Uptime {
		// device restarted, its weld counter starts over
		r.pending = nil
	} else if r.started {
		r.detect(f)
	}
	r.last = f
	r.started = true

	r.frames = append(r.frames, f)

	cutoff := f.Time.Add(-r.window)
	n := 0
	for n < len(r.frames) && !r.frames[n].Time.After(cutoff) {
		n++
	}
	if n > 0 {
		r.frames = append(r.frames[:0], r.frames[n:]...)
	}

	k := 0
	for k < len(r.welds) && !r.welds[k].End.After(cutoff) {
		k++
	}
	if k > 0 {
		r.welds = append(r.welds[:0], r.welds[k:]...)
	}
}

func (r *Recorder) detect(f telemetry.Frame) {
	if f.Mode == welder.Welding && r.last.Mode != welder.Welding && r.pending == nil {
		r.pending = &Weld{
			Start:      f.Time,
			Parameters: f.Parameters,
			Celsius:    r.last.Celsius,
		}
	}
	if f.Welds <= r.last.Welds {
		return
	}

	w := Weld{
		Start:      f.Time,
		Parameters: f.Parameters,
		Celsius:    r.last.Celsius,
	}
	if r.pending != nil {
		w = *r.pending
		r.pending = nil
	}
	w.End = f.Time
	w.Number = f.Welds
	r.welds = append(r.welds, w)
}

// Frames returns a copy of the frames in the window.
func (r *Recorder) Frames() []telemetry.Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]telemetry.Frame, len(r.frames))
	copy(result, r.frames)
	return result
}

// Welds returns a copy of the welds in the window.
func (r *Recorder) Welds() []Weld {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Weld, len(r.welds))
	copy(result, r.welds)
	return result
}

// Last returns the most recent frame.
func (r *Recorder) Last() (telemetry.Frame, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.started
}

// Reset clears the window, e.g. when switching devices.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = r.frames[:0]
	r.welds = r.welds[:0]
	r.pending = nil
	r.started = false
	r.last = telemetry.Frame{}
	r.shutdown = false
}

// ResetShutdown re-enables callbacks after the input channel was closed,
// so the recorder can consume a new device's frames.
func (r *Recorder) ResetShutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdown = false
}

// OnUpdate registers a callback invoked after every frame. The callback
// should copy what it needs and return quickly.
func (r *Recorder) OnUpdate(cb UpdateFunc) {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	r.callbacks = append(r.callbacks, cb)
}

// notifyCallbacks invokes all registered callbacks with copies of the window.
func (r *Recorder) notifyCallbacks() {
	frames := r.Frames()
	welds := r.Welds()

	r.cbMu.RLock()
	callbacks := make([]UpdateFunc, len(r.callbacks))
	copy(callbacks, r.callbacks)
	r.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(frames, welds)
		}
	}
}
