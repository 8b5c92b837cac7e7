package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock provides a monotonic time base and fixed-duration blocking waits.
// Now is safe to call from interrupt handlers.
type Clock interface {
	// Now returns the time elapsed since the clock was created.
	Now() time.Duration
	// Sleep blocks for d. It is not cancellable.
	Sleep(d time.Duration)
}

var (
	_ Clock = (*System)(nil)
	_ Clock = (*Fake)(nil)
)

// System is a Clock backed by the runtime monotonic clock.
type System struct {
	start time.Time
}

// NewSystem creates a System clock starting at zero.
func NewSystem() *System {
	return &System{start: time.Now()}
}

func (s *System) Now() time.Duration {
	return time.Since(s.start)
}

func (s *System) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}

// Fake is a manually driven Clock for tests and simulations.
// Sleep advances the fake time instead of blocking.
type Fake struct {
	now atomic.Int64

	mu      sync.Mutex
	onSleep []func(now time.Duration)
}

// NewFake creates a Fake clock at t=0.
func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Now() time.Duration {
	return time.Duration(f.now.Load())
}

// Sleep advances the clock by d and runs the sleep hooks.
func (f *Fake) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	now := f.Advance(d)

	f.mu.Lock()
	hooks := make([]func(time.Duration), len(f.onSleep))
	copy(hooks, f.onSleep)
	f.mu.Unlock()

	for _, h := range hooks {
		h(now)
	}
}

// Advance moves the clock forward by d and returns the new time.
func (f *Fake) Advance(d time.Duration) time.Duration {
	return time.Duration(f.now.Add(int64(d)))
}

// OnSleep registers a hook invoked after every Sleep. Tests use it to inject
// interrupts while the code under test is blocked.
func (f *Fake) OnSleep(h func(now time.Duration)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onSleep = append(f.onSleep, h)
}
