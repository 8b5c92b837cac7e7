package input

import (
	"time"

	"github.com/itohio/spotweld/pkg/clock"
)

// DefaultTriggerHold is the settle time before the trigger level is sampled.
const DefaultTriggerHold = 50 * time.Millisecond

// Gate tells the trigger whether a weld may be started.
type Gate interface {
	Armed() bool
}

// TriggerConfig configures a Trigger.
type TriggerConfig struct {
	// Hold is the time between the edge and sampling the switch level.
	Hold time.Duration
	// ActiveHigh selects the switch level that confirms the trigger.
	ActiveHigh bool
	// Level reads the trigger switch.
	Level func() bool
}

// Trigger latches weld trigger edges.
//
// Edge runs in interrupt context and only records the edge time, and only
// while the gate is armed and no menu press is pending. Poll runs in the main
// loop and resolves a recorded edge once the hold has elapsed by sampling the
// switch level.
type Trigger struct {
	clock  clock.Clock
	cfg    TriggerConfig
	gate   Gate
	button *Button

	edge Event
}

// NewTrigger creates a trigger gated by gate and by pending presses of button.
// button may be nil.
func NewTrigger(c clock.Clock, gate Gate, button *Button, cfg TriggerConfig) *Trigger {
	if c == nil || gate == nil || cfg.Level == nil {
		panic("input: trigger needs clock, gate and level")
	}
	if cfg.Hold <= 0 {
		cfg.Hold = DefaultTriggerHold
	}
	return &Trigger{
		clock:  c,
		cfg:    cfg,
		gate:   gate,
		button: button,
	}
}

// Edge records a trigger edge. It never blocks.
func (t *Trigger) Edge() {
	if !t.gate.Armed() {
		return
	}
	if t.button != nil && t.button.Pending() {
		return
	}
	t.edge.Raise(t.clock.Now())
}

// Pending reports an edge that is not resolved yet.
func (t *Trigger) Pending() bool {
	return t.edge.Pending()
}

// Poll resolves a pending edge whose hold has elapsed. It reports true when
// the switch is at its active level, i.e. a weld was requested.
func (t *Trigger) Poll() bool {
	if !t.edge.Pending() {
		return false
	}
	if t.clock.Now()-t.edge.At() < t.cfg.Hold {
		return false
	}
	t.edge.Take()
	return t.cfg.Level() == t.cfg.ActiveHigh
}

// Discard drops a pending edge.
func (t *Trigger) Discard() {
	t.edge.Take()
}
