package welder

import (
	"time"

	"github.com/itohio/spotweld/pkg/menu"
	"github.com/itohio/spotweld/pkg/thermal"
)

// Mode is what the welder is doing, as shown to the operator.
type Mode uint8

const (
	Browsing Mode = iota
	Editing
	Welding
	Settling
	Cooldown
)

func (m Mode) String() string {
	switch m {
	case Browsing:
		return "Browsing"
	case Editing:
		return "Editing"
	case Welding:
		return "Welding"
	case Settling:
		return "Settling"
	case Cooldown:
		return "Cooldown"
	default:
		return "Unknown"
	}
}

// Code is the one letter form of the mode.
func (m Mode) Code() byte {
	return "BEWSC?"[min(int(m), 5)]
}

// ParseMode is the inverse of Code.
func ParseMode(c byte) (Mode, bool) {
	for m := Browsing; m <= Cooldown; m++ {
		if m.Code() == c {
			return m, true
		}
	}
	return 0, false
}

// Snapshot is the read-only state handed to presentation sinks.
type Snapshot struct {
	Uptime     time.Duration
	Mode       Mode
	Cursor     menu.Position
	Blink      bool // cursor is in its hidden phase
	Parameters menu.Parameters
	EditValue  uint16 // value of the open edit session
	Celsius    [thermal.Channels]int16
	Fault      [thermal.Channels]bool
	Armed      bool
	Welds      uint32
}

// Equal compares snapshots ignoring Uptime.
func (s Snapshot) Equal(o Snapshot) bool {
	s.Uptime = o.Uptime
	return s == o
}

// Sink consumes snapshots. Present is called from the main loop and must not
// block for long; errors are logged and otherwise ignored.
type Sink interface {
	Present(Snapshot) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Snapshot) error

func (f SinkFunc) Present(s Snapshot) error { return f(s) }
