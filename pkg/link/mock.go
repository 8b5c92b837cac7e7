package link

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/itohio/spotweld/pkg/clock"
	"github.com/itohio/spotweld/pkg/config"
	"github.com/itohio/spotweld/pkg/encoder"
	"github.com/itohio/spotweld/pkg/sim"
	"github.com/itohio/spotweld/pkg/telemetry"
	"github.com/itohio/spotweld/pkg/thermal"
	"github.com/itohio/spotweld/pkg/welder"
)

// Mock runs the welder control loop on simulated hardware. Its telemetry
// goes through the same line codec as a real device.
type Mock struct {
	cfg *config.Config

	mu        sync.RWMutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	pw        *io.PipeWriter
	frames    chan telemetry.Frame
	done      chan struct{}

	// console serializes the simulated interrupts; button and trigger are
	// the pushed state of the switches, not their electrical levels
	console sync.Mutex
	clock   *clock.System
	adc     *sim.ADC
	out     *sim.Output
	button  *sim.Pin
	trigger *sim.Pin
	plant   *sim.Plant
	ctl     *welder.Controller
}

// NewMock creates a simulated welder. A nil cfg uses defaults.
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Mock{
		cfg:    cfg,
		frames: make(chan telemetry.Frame),
	}
}

// PlantConfig converts the mock configuration to a thermal plant.
func PlantConfig(c config.MockConfig) sim.PlantConfig {
	return sim.PlantConfig{
		Ambient:      c.Ambient,
		Heating:      [thermal.Channels]float64{c.CoreHeating, c.TipHeating},
		TimeConstant: [thermal.Channels]time.Duration{c.CoreTimeConstant, c.TipTimeConstant},
	}
}

// Connect powers up the simulated welder.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	wcfg := m.cfg.Welder()
	m.clock = clock.NewSystem()
	m.adc = sim.NewADC()
	m.out = sim.NewOutput(m.clock)
	m.button = &sim.Pin{}
	m.trigger = &sim.Pin{}
	m.plant = sim.NewPlant(PlantConfig(m.cfg.Mock), wcfg.Thermal.Model, m.adc)

	pr, pw := io.Pipe()
	m.pw = pw
	m.ctl = welder.New(wcfg, welder.Hardware{
		Clock:        m.clock,
		ADC:          m.adc,
		Output:       m.out,
		ButtonLevel:  level(m.button, wcfg.ButtonActiveHigh),
		TriggerLevel: level(m.trigger, wcfg.TriggerActiveHigh),
	}, telemetry.NewWriter(pw, m.cfg.Telemetry.Interval))

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.frames = make(chan telemetry.Frame, DefaultBufferSize)
	m.done = make(chan struct{})
	m.connected = true

	go func(frames chan telemetry.Frame, done chan struct{}) {
		defer close(done)
		if err := scanFrames(pr, frames); err != nil {
			log.Printf("Mock telemetry: %v", err)
		}
	}(m.frames, m.done)

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		m.ctl.Run(ctx)
	}()
	go func() {
		defer m.wg.Done()
		m.simulatePlant(ctx)
	}()

	return nil
}

// level reads the electrical level of a switch wired for activeHigh.
func level(pushed *sim.Pin, activeHigh bool) func() bool {
	return func() bool {
		return pushed.Get() == activeHigh
	}
}

// simulatePlant feeds weld current into the thermal plant.
func (m *Mock) simulatePlant(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Mock.Tick)
	defer ticker.Stop()

	last := m.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := m.clock.Now()
			m.plant.Advance(now-last, m.out.TakeOnTime())
			last = now
		}
	}
}

// Close stops the control loop, letting a weld in progress finish, and then
// closes the frames channel.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.connected = false
	m.cancel()
	m.mu.Unlock()

	m.wg.Wait()
	m.pw.Close()
	<-m.done
	return nil
}

// Frames returns the channel for reading frames.
func (m *Mock) Frames() <-chan telemetry.Frame {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frames
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *Mock) withConsole(f func()) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.connected {
		return ErrNotConnected
	}
	m.console.Lock()
	defer m.console.Unlock()
	f()
	return nil
}

// Rotate turns the encoder by steps detents.
func (m *Mock) Rotate(steps int) error {
	return m.withConsole(func() {
		for _, l := range encoder.Sequence(steps) {
			m.ctl.EncoderChanged(l.A, l.B)
		}
	})
}

// Press pushes the menu button and releases it once the debounce has
// resolved the press.
func (m *Mock) Press() error {
	return m.withConsole(func() {
		m.button.Set(true)
		m.ctl.ButtonEdge()
		btn, ctl := m.button, m.ctl
		time.AfterFunc(2*m.cfg.Console.ButtonHold, func() {
			btn.Set(false)
			ctl.ButtonEdge()
		})
	})
}

// PullTrigger closes the trigger switch for hold and releases it.
func (m *Mock) PullTrigger(hold time.Duration) error {
	return m.withConsole(func() {
		m.trigger.Set(true)
		m.ctl.TriggerEdge()
		time.AfterFunc(hold, func() { m.trigger.Set(false) })
	})
}

// SetTemperature overrides a simulated sensor temperature.
func (m *Mock) SetTemperature(ch int, celsius float64) error {
	if ch < 0 || ch >= thermal.Channels {
		return fmt.Errorf("no sensor %d", ch)
	}
	return m.withConsole(func() { m.plant.Set(ch, celsius) })
}

// Temperatures returns the simulated sensor temperatures.
func (m *Mock) Temperatures() ([thermal.Channels]float64, error) {
	var t [thermal.Channels]float64
	err := m.withConsole(func() { t = m.plant.Temperatures() })
	return t, err
}
