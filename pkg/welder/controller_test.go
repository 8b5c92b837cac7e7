package welder

import (
	"bytes"
	"context"
	"errors"
	"log"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/itohio/spotweld/pkg/clock"
	"github.com/itohio/spotweld/pkg/encoder"
	"github.com/itohio/spotweld/pkg/menu"
	"github.com/itohio/spotweld/pkg/sim"
	"github.com/itohio/spotweld/pkg/thermal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t     *testing.T
	clk   *clock.Fake
	adc   *sim.ADC
	out   *sim.Output
	pin   *sim.Pin // trigger switch, active high
	btn   *sim.Pin // menu button held
	model thermal.Model
	ctl   *Controller
	snaps []Snapshot
}

func newHarness(t *testing.T, sinks ...Sink) *harness {
	h := &harness{
		t:     t,
		clk:   clock.NewFake(),
		adc:   sim.NewADC(),
		pin:   &sim.Pin{},
		btn:   &sim.Pin{},
		model: thermal.DefaultModel(),
	}
	h.out = sim.NewOutput(h.clk)
	rec := SinkFunc(func(s Snapshot) error {
		h.snaps = append(h.snaps, s)
		return nil
	})
	h.ctl = New(DefaultConfig(), Hardware{
		Clock:        h.clk,
		ADC:          h.adc,
		Output:       h.out,
		ButtonLevel:  h.buttonLevel,
		TriggerLevel: h.pin.Get,
	}, append([]Sink{rec}, sinks...)...)
	return h
}

func (h *harness) steps(n int) Snapshot {
	var s Snapshot
	for i := 0; i < n; i++ {
		s = h.ctl.Step()
		h.checkArmed(s)
		h.clk.Sleep(time.Millisecond)
	}
	return s
}

func (h *harness) checkArmed(s Snapshot) {
	switch s.Mode {
	case Browsing, Editing:
		assert.Equal(h.t, s.Mode == Browsing && s.Cursor == menu.Start, s.Armed, "snapshot %+v", s)
	default:
		assert.False(h.t, s.Armed, "snapshot %+v", s)
	}
	assert.Equal(h.t, s.Armed, h.ctl.Armed())
}

func (h *harness) rotate(steps int) Snapshot {
	for _, l := range encoder.Sequence(steps) {
		h.ctl.EncoderChanged(l.A, l.B)
	}
	return h.steps(1)
}

// buttonLevel reads the pulled up button pin.
func (h *harness) buttonLevel() bool {
	return !h.btn.Get()
}

// hold pushes the button and waits out the debounce without stepping.
func (h *harness) hold() {
	h.btn.Set(true)
	h.ctl.ButtonEdge()
	h.clk.Advance(DefaultConfig().ButtonHold)
}

// press pushes and releases the button and returns the snapshot of the step
// that took the press.
func (h *harness) press() Snapshot {
	h.hold()
	s := h.steps(1)
	h.btn.Set(false)
	h.ctl.ButtonEdge()
	h.steps(1)
	return s
}

func (h *harness) pull() {
	h.pin.Set(true)
	h.ctl.TriggerEdge()
}

func (h *harness) setCelsius(ch int, c float64) {
	h.adc.SetCelsius(ch, h.model, c)
}

func (h *harness) modes() []Mode {
	var res []Mode
	for _, s := range h.snaps {
		if len(res) == 0 || res[len(res)-1] != s.Mode {
			res = append(res, s.Mode)
		}
	}
	return res
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestController_Initial(t *testing.T) {
	h := newHarness(t)
	s := h.steps(1)
	assert.Equal(t, Browsing, s.Mode)
	assert.Equal(t, menu.Pulse0, s.Cursor)
	assert.Equal(t, menu.DefaultParameters(), s.Parameters)
	assert.False(t, s.Armed)
	assert.InDelta(t, 25, float64(s.Celsius[0]), 1)
	assert.InDelta(t, 25, float64(s.Celsius[1]), 1)
}

func TestController_Weld(t *testing.T) {
	h := newHarness(t)
	s := h.rotate(3)
	require.Equal(t, menu.Start, s.Cursor)
	require.True(t, s.Armed)

	h.pull()
	pulledAt := h.clk.Now()
	h.steps(100)

	edges := h.out.Edges()
	require.Len(t, edges, 4)
	start := edges[0].At
	assert.GreaterOrEqual(t, start-pulledAt, DefaultConfig().TriggerHold)
	assert.Equal(t, []sim.Edge{
		{At: start, On: true},
		{At: start + ms(150), On: false},
		{At: start + ms(230), On: true},
		{At: start + ms(330), On: false},
	}, edges)
	assert.Equal(t, []time.Duration{ms(150), ms(100)}, h.out.Pulses())

	assert.Equal(t, []Mode{Browsing, Welding, Settling, Browsing}, h.modes())
	assert.Equal(t, uint32(1), h.ctl.Welds())
	last := h.snaps[len(h.snaps)-1]
	assert.Equal(t, uint32(1), last.Welds)
	assert.True(t, last.Armed)
}

func TestController_SettleHold(t *testing.T) {
	h := newHarness(t)
	h.rotate(3)
	h.pull()
	for h.ctl.Welds() == 0 {
		h.steps(1)
	}
	edges := h.out.Edges()
	// the step that welded also waited out the settle hold and one loop period
	assert.Equal(t, edges[3].At+DefaultConfig().Settle+time.Millisecond, h.clk.Now())
}

func TestController_TriggerReleasedBeforeHold(t *testing.T) {
	h := newHarness(t)
	h.rotate(3)
	h.pull()
	h.steps(10)
	h.pin.Set(false)
	h.steps(100)
	assert.Empty(t, h.out.Edges())
	assert.Zero(t, h.ctl.Welds())
}

func TestController_DisarmedTriggerIgnored(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness)
	}{
		{name: "cursor on a parameter", setup: func(h *harness) { h.rotate(1) }},
		{name: "editing", setup: func(h *harness) { h.press() }},
		{name: "start session open", setup: func(h *harness) {
			h.rotate(3)
			h.hold()
			h.steps(1)
		}},
		{name: "menu press pending", setup: func(h *harness) {
			h.rotate(3)
			h.btn.Set(true)
			h.ctl.ButtonEdge()
		}},
		{name: "overheated", setup: func(h *harness) {
			h.rotate(3)
			h.setCelsius(0, 60)
			h.steps(1)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h)
			h.pull()
			h.steps(200)
			assert.Empty(t, h.out.Edges())
			assert.Zero(t, h.ctl.Welds())
		})
	}
}

func TestController_DisarmAfterEdgeCancelsWeld(t *testing.T) {
	h := newHarness(t)
	h.rotate(3)
	h.pull()
	h.steps(10)

	h.setCelsius(1, 55)
	s := h.steps(100)
	assert.Equal(t, Cooldown, s.Mode)

	h.setCelsius(1, 25)
	s = h.steps(100)
	assert.Equal(t, Browsing, s.Mode)
	assert.True(t, s.Armed)
	assert.Empty(t, h.out.Edges(), "edge latched before the overheat must not fire")
}

func TestController_MoveAwayAfterEdgeCancelsWeld(t *testing.T) {
	h := newHarness(t)
	h.rotate(3)
	h.pull()
	h.steps(5)
	h.rotate(1)
	h.rotate(-1)
	h.steps(100)
	assert.Empty(t, h.out.Edges())
}

func TestController_EditParameters(t *testing.T) {
	h := newHarness(t)

	s := h.rotate(1)
	require.Equal(t, menu.Delay, s.Cursor)

	s = h.press()
	require.Equal(t, Editing, s.Mode)
	assert.Equal(t, uint16(80), s.EditValue)

	s = h.rotate(-30)
	assert.Equal(t, uint16(50), s.EditValue)
	assert.Equal(t, uint16(80), s.Parameters.Delay)

	h.pull()
	h.steps(60)
	assert.Empty(t, h.out.Edges())

	s = h.press()
	assert.Equal(t, Browsing, s.Mode)
	assert.Equal(t, menu.Delay, s.Cursor)
	assert.Equal(t, menu.Parameters{Pulse0: 150, Delay: 50, Pulse1: 100}, s.Parameters)

	h.rotate(2)
	h.pull()
	h.steps(100)
	assert.Equal(t, []time.Duration{ms(150), ms(100)}, h.out.Pulses())
	edges := h.out.Edges()
	require.Len(t, edges, 4)
	assert.Equal(t, ms(50), edges[2].At-edges[1].At)
}

func TestController_SensorFault(t *testing.T) {
	h := newHarness(t)
	h.rotate(3)

	h.adc.Set(1, 0)
	s := h.steps(1)
	assert.Equal(t, Cooldown, s.Mode)
	assert.Equal(t, [thermal.Channels]bool{false, true}, s.Fault)
	assert.Equal(t, int16(math.MaxInt16), s.Celsius[1])
	assert.False(t, s.Armed)

	// sensor 1 recovers while sensor 0 is hot
	h.setCelsius(1, 25)
	h.setCelsius(0, 50)
	s = h.steps(5)
	assert.Equal(t, Cooldown, s.Mode)

	h.setCelsius(0, 30)
	s = h.steps(1)
	assert.Equal(t, Browsing, s.Mode)
	assert.True(t, s.Armed)
}

func TestController_LogsFaultTransitions(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	h := newHarness(t)
	h.steps(1)
	assert.Empty(t, buf.String())

	h.adc.Set(0, 0)
	h.steps(5)
	assert.Equal(t, 1, strings.Count(buf.String(), "sensor fault [true false]"))

	h.setCelsius(0, 25)
	h.steps(5)
	assert.Equal(t, 1, strings.Count(buf.String(), "sensors recovered"))
}

func TestController_ADCErrorIsFault(t *testing.T) {
	h := newHarness(t)
	h.adc.Fail(0, true)
	s := h.steps(1)
	assert.Equal(t, Cooldown, s.Mode)
	assert.True(t, s.Fault[0])
}

func TestController_CooldownDiscardsInput(t *testing.T) {
	h := newHarness(t)
	h.setCelsius(0, 48)
	h.steps(1)

	s := h.rotate(2)
	assert.Equal(t, Cooldown, s.Mode)
	s = h.press()
	assert.Equal(t, Cooldown, s.Mode)

	h.setCelsius(0, 40)
	s = h.steps(1)
	assert.Equal(t, Browsing, s.Mode)
	assert.Equal(t, menu.Pulse0, s.Cursor)
}

func TestController_InputDuringWeld(t *testing.T) {
	h := newHarness(t)
	h.rotate(3)

	pressed := false
	h.clk.OnSleep(func(time.Duration) {
		if h.out.Level() {
			h.ctl.TriggerEdge()
			if !pressed {
				h.btn.Set(true)
				h.ctl.ButtonEdge()
				pressed = true
			}
		}
	})

	h.pull()
	for h.ctl.Welds() == 0 {
		h.steps(1)
	}
	require.True(t, pressed)

	// the press made during the weld is handled afterwards, the trigger is not
	s := h.steps(1)
	assert.Equal(t, Editing, s.Mode)
	s = h.steps(200)
	assert.Equal(t, Browsing, s.Mode)
	assert.Equal(t, uint32(1), h.ctl.Welds())
	assert.Len(t, h.out.Edges(), 4)
}

func TestController_FireDelay(t *testing.T) {
	h := newHarness(t)
	h.rotate(3)
	h.pull()
	h.steps(100)

	i := 0
	for i < len(h.snaps) && h.snaps[i].Mode != Welding {
		i++
	}
	require.Less(t, i, len(h.snaps))
	require.Positive(t, i)
	welding := h.snaps[i]
	assert.Equal(t, DefaultConfig().Fire, welding.Uptime-h.snaps[i-1].Uptime)
	assert.Equal(t, welding.Uptime, h.out.Edges()[0].At)
}

func TestController_ButtonReleaseBounce(t *testing.T) {
	h := newHarness(t)
	h.rotate(1)

	// press with contact bounce, held past the debounce
	h.btn.Set(true)
	h.ctl.ButtonEdge()
	h.btn.Set(false)
	h.ctl.ButtonEdge()
	h.btn.Set(true)
	h.ctl.ButtonEdge()
	s := h.steps(100)
	require.Equal(t, Editing, s.Mode)

	// release with bounce
	for _, held := range []bool{false, true, false, true, false} {
		h.btn.Set(held)
		h.ctl.ButtonEdge()
		h.steps(1)
	}
	s = h.steps(200)
	assert.Equal(t, Editing, s.Mode, "release bounce must not close the session")
	assert.Equal(t, menu.Delay, s.Cursor)

	s = h.press()
	assert.Equal(t, Browsing, s.Mode)
}

func TestController_RepeatedWelds(t *testing.T) {
	h := newHarness(t)
	h.rotate(3)
	for i := 0; i < 3; i++ {
		h.pull()
		h.steps(60)
		h.pin.Set(false)
		h.steps(10)
	}
	assert.Equal(t, uint32(3), h.ctl.Welds())
	assert.Len(t, h.out.Pulses(), 6)
}

func TestController_SinkErrors(t *testing.T) {
	calls := 0
	failing := SinkFunc(func(Snapshot) error {
		calls++
		if calls < 5 {
			return errors.New("i2c nack")
		}
		return nil
	})
	h := newHarness(t, failing)
	h.steps(10)
	assert.Equal(t, 10, calls)
	assert.Len(t, h.snaps, 10)
}

func TestController_Run(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sleeps := 0
	h.clk.OnSleep(func(time.Duration) {
		sleeps++
		if sleeps == 20 {
			cancel()
		}
	})

	err := h.ctl.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotEmpty(t, h.snaps)
	assert.Equal(t, Settling, h.snaps[0].Mode)
	assert.Len(t, h.snaps, 20)
	assert.Equal(t, DefaultConfig().Startup+ms(19), h.clk.Now())
}

func TestController_NewPanics(t *testing.T) {
	assert.Panics(t, func() { New(DefaultConfig(), Hardware{}) })
}

func TestMode_Codes(t *testing.T) {
	for m := Browsing; m <= Cooldown; m++ {
		got, ok := ParseMode(m.Code())
		assert.True(t, ok)
		assert.Equal(t, m, got)
	}
	_, ok := ParseMode('x')
	assert.False(t, ok)
	assert.Equal(t, byte('?'), Mode(42).Code())
}

func TestSnapshot_Equal(t *testing.T) {
	a := Snapshot{Uptime: ms(1), Mode: Editing, EditValue: 3}
	b := a
	b.Uptime = ms(7)
	assert.True(t, a.Equal(b))
	b.EditValue = 4
	assert.False(t, a.Equal(b))
}
