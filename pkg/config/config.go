package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/itohio/spotweld/pkg/input"
	"github.com/itohio/spotweld/pkg/menu"
	"github.com/itohio/spotweld/pkg/thermal"
	"github.com/itohio/spotweld/pkg/welder"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Switch levels.
const (
	LevelHigh = "high"
	LevelLow  = "low"
)

// Config represents the application configuration.
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Weld      WeldConfig      `yaml:"weld"`
	Console   ConsoleConfig   `yaml:"console"`
	Thermal   ThermalConfig   `yaml:"thermal"`
	Timing    TimingConfig    `yaml:"timing"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Mock      MockConfig      `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// WeldConfig contains the power-on weld parameters.
type WeldConfig struct {
	Pulse0 uint16        `yaml:"pulse0_ms"`
	Delay  uint16        `yaml:"delay_ms"`
	Pulse1 uint16        `yaml:"pulse1_ms"`
	Max    uint16        `yaml:"max_ms"` // upper bound for edited values
	Settle time.Duration `yaml:"settle"` // hold after each weld
	Fire   time.Duration `yaml:"fire"`   // pause between the trigger and the first pulse
}

// ConsoleConfig contains encoder, button and trigger parameters.
type ConsoleConfig struct {
	ButtonHold   time.Duration `yaml:"button_hold"`
	ButtonLevel  string        `yaml:"button_level"` // level of a pushed button
	TriggerHold  time.Duration `yaml:"trigger_hold"`
	TriggerLevel string        `yaml:"trigger_level"` // "high" or "low"
	Blink        time.Duration `yaml:"blink"`
}

// ThermalConfig contains the thermistor model and the overheat limits.
type ThermalConfig struct {
	RFixed     float32 `yaml:"r_fixed"`
	A          float32 `yaml:"a"`
	B          float32 `yaml:"b"`
	C          float32 `yaml:"c"`
	CoreLimit  int16   `yaml:"core_limit"` // transformer core, degrees C
	TipLimit   int16   `yaml:"tip_limit"`  // electrode tip, degrees C
	Oversample int     `yaml:"oversample"`
}

// TimingConfig contains main loop timing.
type TimingConfig struct {
	Loop    time.Duration `yaml:"loop"`
	Startup time.Duration `yaml:"startup"`
}

// TelemetryConfig contains serial telemetry parameters.
type TelemetryConfig struct {
	Interval time.Duration `yaml:"interval"` // repeat period of unchanged state
}

// MonitorConfig contains desktop monitor parameters.
type MonitorConfig struct {
	WindowSeconds float64 `yaml:"window_seconds"`
}

// MockConfig contains simulated welder configuration.
type MockConfig struct {
	Ambient          float64       `yaml:"ambient"`            // degrees C
	CoreHeating      float64       `yaml:"core_heating"`       // degrees per second of weld current
	TipHeating       float64       `yaml:"tip_heating"`        // degrees per second of weld current
	CoreTimeConstant time.Duration `yaml:"core_time_constant"` // cooling
	TipTimeConstant  time.Duration `yaml:"tip_time_constant"`  // cooling
	Tick             time.Duration `yaml:"tick"`               // plant update period
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			BaudRate: 115200,
		},
		Weld: WeldConfig{
			Pulse0: 150,
			Delay:  80,
			Pulse1: 100,
			Max:    500,
			Settle: 500 * time.Millisecond,
			Fire:   10 * time.Millisecond,
		},
		Console: ConsoleConfig{
			ButtonHold:   input.DefaultButtonHold,
			ButtonLevel:  LevelLow,
			TriggerHold:  input.DefaultTriggerHold,
			TriggerLevel: LevelHigh,
			Blink:        100 * time.Millisecond,
		},
		Thermal: ThermalConfig{
			RFixed:     10000,
			A:          0.001129148,
			B:          0.000234125,
			C:          0.0000000876741,
			CoreLimit:  45,
			TipLimit:   40,
			Oversample: 1,
		},
		Timing: TimingConfig{
			Loop:    time.Millisecond,
			Startup: 2 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Interval: time.Second,
		},
		Monitor: MonitorConfig{
			WindowSeconds: 120,
		},
		Mock: MockConfig{
			Ambient:          22,
			CoreHeating:      6,
			TipHeating:       20,
			CoreTimeConstant: 120 * time.Second,
			TipTimeConstant:  30 * time.Second,
			Tick:             50 * time.Millisecond,
		},
	}
}

// Welder returns the controller configuration.
func (c *Config) Welder() welder.Config {
	return welder.Config{
		Menu: menu.Config{
			Defaults: menu.Parameters{
				Pulse0: c.Weld.Pulse0,
				Delay:  c.Weld.Delay,
				Pulse1: c.Weld.Pulse1,
			},
			Max:   c.Weld.Max,
			Blink: c.Console.Blink,
		},
		Thermal: thermal.Config{
			Model: thermal.Model{
				RFixed: c.Thermal.RFixed,
				A:      c.Thermal.A,
				B:      c.Thermal.B,
				C:      c.Thermal.C,
			},
			Channels:   [thermal.Channels]uint8{0, 1},
			Limits:     [thermal.Channels]int16{c.Thermal.CoreLimit, c.Thermal.TipLimit},
			Oversample: c.Thermal.Oversample,
		},
		ButtonHold:        c.Console.ButtonHold,
		ButtonActiveHigh:  c.Console.ButtonLevel == LevelHigh,
		TriggerHold:       c.Console.TriggerHold,
		TriggerActiveHigh: c.Console.TriggerLevel != LevelLow,
		Fire:              c.Weld.Fire,
		Settle:            c.Weld.Settle,
		Loop:              c.Timing.Loop,
		Startup:           c.Timing.Startup,
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Weld.Max == 0 || c.Weld.Max > 500 {
		return fmt.Errorf("%w: weld.max_ms %d not in (0, 500]", ErrInvalid, c.Weld.Max)
	}
	for _, p := range []struct {
		name string
		v    uint16
	}{
		{"pulse0_ms", c.Weld.Pulse0},
		{"delay_ms", c.Weld.Delay},
		{"pulse1_ms", c.Weld.Pulse1},
	} {
		if p.v > c.Weld.Max {
			return fmt.Errorf("%w: weld.%s %d above max %d", ErrInvalid, p.name, p.v, c.Weld.Max)
		}
	}
	if c.Console.ButtonLevel != LevelHigh && c.Console.ButtonLevel != LevelLow {
		return fmt.Errorf("%w: console.button_level %q", ErrInvalid, c.Console.ButtonLevel)
	}
	if c.Console.TriggerLevel != LevelHigh && c.Console.TriggerLevel != LevelLow {
		return fmt.Errorf("%w: console.trigger_level %q", ErrInvalid, c.Console.TriggerLevel)
	}
	if c.Thermal.CoreLimit <= 0 || c.Thermal.TipLimit <= 0 {
		return fmt.Errorf("%w: thermal limits must be positive", ErrInvalid)
	}
	if c.Thermal.Oversample < 1 || c.Thermal.Oversample > 64 {
		return fmt.Errorf("%w: thermal.oversample %d not in [1, 64]", ErrInvalid, c.Thermal.Oversample)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Weld.Max == 0 {
		c.Weld.Max = def.Weld.Max
	}
	if c.Weld.Settle == 0 {
		c.Weld.Settle = def.Weld.Settle
	}
	if c.Weld.Fire == 0 {
		c.Weld.Fire = def.Weld.Fire
	}

	if c.Console.ButtonHold == 0 {
		c.Console.ButtonHold = def.Console.ButtonHold
	}
	if c.Console.ButtonLevel == "" {
		c.Console.ButtonLevel = def.Console.ButtonLevel
	}
	if c.Console.TriggerHold == 0 {
		c.Console.TriggerHold = def.Console.TriggerHold
	}
	if c.Console.TriggerLevel == "" {
		c.Console.TriggerLevel = def.Console.TriggerLevel
	}
	if c.Console.Blink == 0 {
		c.Console.Blink = def.Console.Blink
	}

	if c.Thermal.RFixed == 0 {
		c.Thermal.RFixed = def.Thermal.RFixed
	}
	if c.Thermal.A == 0 && c.Thermal.B == 0 && c.Thermal.C == 0 {
		c.Thermal.A = def.Thermal.A
		c.Thermal.B = def.Thermal.B
		c.Thermal.C = def.Thermal.C
	}
	if c.Thermal.Oversample == 0 {
		c.Thermal.Oversample = def.Thermal.Oversample
	}

	if c.Timing.Loop == 0 {
		c.Timing.Loop = def.Timing.Loop
	}

	if c.Telemetry.Interval == 0 {
		c.Telemetry.Interval = def.Telemetry.Interval
	}
	if c.Monitor.WindowSeconds == 0 {
		c.Monitor.WindowSeconds = def.Monitor.WindowSeconds
	}
	if c.Mock.Tick == 0 {
		c.Mock.Tick = def.Mock.Tick
	}
}
