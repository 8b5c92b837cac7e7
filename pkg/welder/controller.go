// Package welder ties the console, the thermal interlock and the weld
// sequencer into the main control loop.
package welder

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/itohio/spotweld/pkg/clock"
	"github.com/itohio/spotweld/pkg/encoder"
	"github.com/itohio/spotweld/pkg/input"
	"github.com/itohio/spotweld/pkg/menu"
	"github.com/itohio/spotweld/pkg/thermal"
	"github.com/itohio/spotweld/pkg/weld"
)

var _ input.Gate = (*Controller)(nil)

// Config configures a Controller.
type Config struct {
	Menu    menu.Config
	Thermal thermal.Config

	ButtonHold        time.Duration
	ButtonActiveHigh  bool
	TriggerHold       time.Duration
	TriggerActiveHigh bool

	Fire    time.Duration // pause between the trigger and the first pulse
	Settle  time.Duration // hold after a weld
	Loop    time.Duration // main loop period
	Startup time.Duration // splash before the loop starts
}

// DefaultConfig returns the stock welder configuration.
func DefaultConfig() Config {
	return Config{
		Menu:              menu.DefaultConfig(),
		Thermal:           thermal.DefaultConfig(),
		ButtonHold:        input.DefaultButtonHold,
		TriggerHold:       input.DefaultTriggerHold,
		TriggerActiveHigh: true,
		Fire:              10 * time.Millisecond,
		Settle:            500 * time.Millisecond,
		Loop:              time.Millisecond,
		Startup:           2 * time.Second,
	}
}

// Hardware are the collaborators of a Controller.
type Hardware struct {
	Clock        clock.Clock
	ADC          thermal.ADC
	Output       weld.Output
	ButtonLevel  func() bool
	TriggerLevel func() bool
}

// Controller is the welder main loop.
//
// EncoderChanged, ButtonEdge and TriggerEdge are called from interrupt
// handlers and never block. Everything else belongs to the goroutine that
// calls Step or Run.
type Controller struct {
	cfg   Config
	clock clock.Clock

	decoder *encoder.Decoder
	button  *input.Button
	trigger *input.Trigger
	monitor *thermal.Monitor
	menu    *menu.Machine
	seq     *weld.Sequencer

	sinks    []Sink
	sinkErrs []string

	armed   atomic.Bool
	welds   uint32
	faulted bool
}

// New creates a controller. It panics if a hardware collaborator is missing.
func New(cfg Config, hw Hardware, sinks ...Sink) *Controller {
	if hw.Clock == nil || hw.ADC == nil || hw.Output == nil || hw.ButtonLevel == nil || hw.TriggerLevel == nil {
		panic("welder: incomplete hardware")
	}
	c := &Controller{
		cfg:     cfg,
		clock:   hw.Clock,
		decoder: encoder.New(),
		button: input.NewButton(hw.Clock, input.ButtonConfig{
			Hold:       cfg.ButtonHold,
			ActiveHigh: cfg.ButtonActiveHigh,
			Level:      hw.ButtonLevel,
		}),
		monitor:  thermal.NewMonitor(hw.ADC, cfg.Thermal),
		menu:     menu.New(cfg.Menu),
		seq:      weld.NewSequencer(hw.Output, hw.Clock),
		sinks:    sinks,
		sinkErrs: make([]string, len(sinks)),
	}
	c.trigger = input.NewTrigger(hw.Clock, c, c.button, input.TriggerConfig{
		Hold:       cfg.TriggerHold,
		ActiveHigh: cfg.TriggerActiveHigh,
		Level:      hw.TriggerLevel,
	})
	return c
}

// EncoderChanged feeds the encoder pin levels after a pin change.
func (c *Controller) EncoderChanged(a, b bool) {
	c.decoder.Update(a, b)
}

// ButtonEdge is the menu button edge handler.
func (c *Controller) ButtonEdge() {
	c.button.Edge()
}

// TriggerEdge is the weld trigger edge handler.
func (c *Controller) TriggerEdge() {
	c.trigger.Edge()
}

// Armed reports whether a trigger edge may start a weld. It is updated once
// per Step.
func (c *Controller) Armed() bool {
	return c.armed.Load()
}

// Welds returns the number of completed welds.
func (c *Controller) Welds() uint32 {
	return c.welds
}

// Run shows the start-up splash and then steps the loop every Loop period
// until ctx is cancelled. A weld in progress is always completed.
func (c *Controller) Run(ctx context.Context) error {
	c.Boot()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		c.Step()
		c.clock.Sleep(c.cfg.Loop)
	}
}

// Boot presents the splash page and waits for the start-up hold.
func (c *Controller) Boot() {
	s := c.snapshot(c.clock.Now(), Settling, thermal.Reading{})
	c.present(s)
	c.clock.Sleep(c.cfg.Startup)
}

// Step runs one iteration of the main loop and returns the last snapshot
// presented.
func (c *Controller) Step() Snapshot {
	now := c.clock.Now()
	reading := c.monitor.Sample()
	if f := reading.Faulted(); f != c.faulted {
		if f {
			log.Printf("welder: sensor fault %v", reading.Fault)
		} else {
			log.Printf("welder: sensors recovered")
		}
		c.faulted = f
	}

	if reading.Overheated {
		c.armed.Store(false)
		c.decoder.Drain()
		c.button.Discard()
		c.trigger.Discard()

		s := c.snapshot(now, Cooldown, reading)
		c.present(s)
		return s
	}

	c.menu.Step(menu.Input{
		Now:     now,
		Pressed: c.button.Poll(),
		Delta:   int(c.decoder.Drain()),
	})
	armed := c.menu.Armed()
	c.armed.Store(armed)

	fire := false
	if armed {
		fire = c.trigger.Poll()
	} else {
		c.trigger.Discard()
	}

	mode := Browsing
	if c.menu.Mode() == menu.Editing {
		mode = Editing
	}
	s := c.snapshot(now, mode, reading)
	c.present(s)

	if fire {
		s = c.weld(s)
	}
	return s
}

func (c *Controller) weld(s Snapshot) Snapshot {
	params := c.menu.Parameters()
	c.armed.Store(false)
	c.clock.Sleep(c.cfg.Fire)

	s.Mode = Welding
	s.Armed = false
	s.Uptime = c.clock.Now()
	c.present(s)

	c.seq.Run(params)
	c.welds++

	s.Mode = Settling
	s.Welds = c.welds
	s.Uptime = c.clock.Now()
	c.present(s)
	c.clock.Sleep(c.cfg.Settle)

	// trigger bounces during the weld are not a new request
	c.trigger.Discard()
	return s
}

func (c *Controller) snapshot(now time.Duration, mode Mode, r thermal.Reading) Snapshot {
	s := Snapshot{
		Uptime:     now,
		Mode:       mode,
		Cursor:     c.menu.Cursor(),
		Blink:      c.menu.Blink(),
		Parameters: c.menu.Parameters(),
		Celsius:    r.Celsius,
		Fault:      r.Fault,
		Armed:      c.armed.Load(),
		Welds:      c.welds,
	}
	if sess, ok := c.menu.Session(); ok {
		s.EditValue = sess.Value
	}
	return s
}

func (c *Controller) present(s Snapshot) {
	for i, sink := range c.sinks {
		err := sink.Present(s)
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		if msg != c.sinkErrs[i] {
			if err != nil {
				log.Printf("welder: sink %d: %v", i, err)
			} else {
				log.Printf("welder: sink %d recovered", i)
			}
			c.sinkErrs[i] = msg
		}
	}
}
