package link

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"go.bug.st/serial"

	"github.com/itohio/spotweld/pkg/telemetry"
)

// DefaultBaudRate is the console baud rate. USB CDC ignores it.
const DefaultBaudRate = 115200

// ErrNotConnected is returned by operations that need a connection.
var ErrNotConnected = errors.New("not connected")

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Serial reads telemetry from the welder console port.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	mu        sync.RWMutex
	conn      serial.Port
	frames    chan telemetry.Frame
	done      chan struct{}
	connected bool
}

// NewSerial creates a serial device for the named port.
func NewSerial(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		frames:   make(chan telemetry.Frame),
	}
}

// Connect opens the serial port and starts reading frames.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(d.port, &serial.Mode{
		BaudRate: d.baudRate,
	})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.frames = make(chan telemetry.Frame, d.bufSize)
	d.done = make(chan struct{})
	d.connected = true

	go d.readFrames(port, d.frames, d.done)

	return nil
}

func (d *Serial) readFrames(port serial.Port, frames chan<- telemetry.Frame, done chan<- struct{}) {
	defer close(done)
	if err := scanFrames(port, frames); err != nil && d.IsConnected() {
		log.Printf("Error reading from serial port: %v", err)
	}
}

// Close closes the port. The frames channel is closed once the reader exits.
func (d *Serial) Close() error {
	d.mu.Lock()
	if !d.connected {
		d.mu.Unlock()
		return nil
	}
	d.connected = false
	conn, done := d.conn, d.done
	d.conn = nil
	d.mu.Unlock()

	err := conn.Close()
	<-done
	if err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}

// Frames returns the channel of the current connection.
func (d *Serial) Frames() <-chan telemetry.Frame {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frames
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}
