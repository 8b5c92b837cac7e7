// Package link connects the desktop monitor to a welder: a real one over the
// USB serial console, or a simulated one running the control loop in process.
package link

import "github.com/itohio/spotweld/pkg/telemetry"

// Device defines the interface for welder devices (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Frames() <-chan telemetry.Frame
	IsConnected() bool
}

var (
	_ Device = (*Serial)(nil)
	_ Device = (*Mock)(nil)
)
