package input

import (
	"sync/atomic"
	"time"

	"github.com/itohio/spotweld/pkg/clock"
)

// DefaultButtonHold is the contact bounce window of the menu button.
const DefaultButtonHold = 70 * time.Millisecond

// ButtonConfig configures a Button.
type ButtonConfig struct {
	// Hold is the time between the edge and sampling the button level.
	Hold time.Duration
	// ActiveHigh selects the level of a pressed button. A button pulled up
	// to the supply reads low when pressed.
	ActiveHigh bool
	// Level reads the button pin.
	Level func() bool
}

// Button debounces the menu push button.
//
// Edge runs in interrupt context and only records the edge time. Poll runs in
// the main loop and confirms the press once the hold has elapsed by sampling
// the pin. After a confirmed press the button ignores edges until the loop has
// seen it released, so bounces on release never count as another press.
type Button struct {
	clock clock.Clock
	cfg   ButtonConfig

	edge     Event
	released atomic.Bool // written by the main loop
}

// NewButton creates a button. It starts released.
func NewButton(c clock.Clock, cfg ButtonConfig) *Button {
	if c == nil || cfg.Level == nil {
		panic("input: button needs clock and level")
	}
	if cfg.Hold <= 0 {
		cfg.Hold = DefaultButtonHold
	}
	b := &Button{clock: c, cfg: cfg}
	b.released.Store(true)
	return b
}

// Edge records a button edge. It never blocks.
func (b *Button) Edge() {
	if !b.released.Load() {
		return
	}
	b.edge.Raise(b.clock.Now())
}

// Pending reports an edge that is not resolved yet (press in progress).
func (b *Button) Pending() bool {
	return b.edge.Pending()
}

// Poll resolves a pending edge whose hold has elapsed. It reports true for a
// confirmed press.
func (b *Button) Poll() bool {
	pressed := b.pressed()
	if !b.edge.Pending() || b.clock.Now()-b.edge.At() < b.cfg.Hold {
		return false
	}
	// disarm before taking so an edge in between cannot latch
	if pressed {
		b.released.Store(false)
	}
	b.edge.Take()
	return pressed
}

// Discard drops a pending edge. Release tracking goes on.
func (b *Button) Discard() {
	b.pressed()
	b.edge.Take()
}

// pressed samples the pin and re-arms the button once it reads released.
func (b *Button) pressed() bool {
	p := b.cfg.Level() == b.cfg.ActiveHigh
	if !p {
		b.released.Store(true)
	}
	return p
}
