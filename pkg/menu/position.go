// Package menu implements the console menu: cursor navigation over the weld
// parameters and the edit session that changes them.
package menu

import "time"

// Position is a menu row.
type Position uint8

const (
	Pulse0 Position = iota
	Delay
	Pulse1
	Start
)

// Positions is the number of menu rows.
const Positions = 4

func (p Position) String() string {
	switch p {
	case Pulse0:
		return "Pulse0"
	case Delay:
		return "Delay"
	case Pulse1:
		return "Pulse1"
	case Start:
		return "Start"
	default:
		return "Unknown"
	}
}

// Code is the short form used on the telemetry line.
func (p Position) Code() string {
	switch p {
	case Pulse0:
		return "P0"
	case Delay:
		return "D"
	case Pulse1:
		return "P1"
	default:
		return "S"
	}
}

// ParsePosition is the inverse of Code.
func ParsePosition(code string) (Position, bool) {
	for p := Pulse0; p <= Start; p++ {
		if p.Code() == code {
			return p, true
		}
	}
	return 0, false
}

// Move returns the position delta rows away, wrapping around the menu.
func (p Position) Move(delta int) Position {
	n := (int(p) + delta) % Positions
	if n < 0 {
		n += Positions
	}
	return Position(n)
}

// Parameters are the weld timings in milliseconds.
type Parameters struct {
	Pulse0 uint16
	Delay  uint16
	Pulse1 uint16
}

// DefaultParameters returns 150/80/100 ms.
func DefaultParameters() Parameters {
	return Parameters{Pulse0: 150, Delay: 80, Pulse1: 100}
}

// Get returns the parameter edited at p. Start has no parameter.
func (w Parameters) Get(p Position) (uint16, bool) {
	switch p {
	case Pulse0:
		return w.Pulse0, true
	case Delay:
		return w.Delay, true
	case Pulse1:
		return w.Pulse1, true
	}
	return 0, false
}

// With returns a copy of w with the parameter at p set to v.
func (w Parameters) With(p Position, v uint16) Parameters {
	switch p {
	case Pulse0:
		w.Pulse0 = v
	case Delay:
		w.Delay = v
	case Pulse1:
		w.Pulse1 = v
	}
	return w
}

// Total is the duration of the whole pulse train.
func (w Parameters) Total() time.Duration {
	return time.Duration(w.Pulse0+w.Delay+w.Pulse1) * time.Millisecond
}
