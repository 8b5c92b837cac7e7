package menu

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type driver struct {
	m   *Machine
	now time.Duration
}

func newDriver() *driver {
	return &driver{m: New(DefaultConfig())}
}

func (d *driver) step(pressed bool, delta int) {
	d.now += time.Millisecond
	d.m.Step(Input{Now: d.now, Pressed: pressed, Delta: delta})
}

func (d *driver) rotate(delta int) { d.step(false, delta) }
func (d *driver) press()           { d.step(true, 0) }

func TestMachine_Initial(t *testing.T) {
	m := New(DefaultConfig())
	assert.Equal(t, Browsing, m.Mode())
	assert.Equal(t, Pulse0, m.Cursor())
	assert.False(t, m.Armed())
	assert.Equal(t, DefaultParameters(), m.Parameters())
	_, ok := m.Session()
	assert.False(t, ok)
}

func TestMachine_ThirtyStepsLandOnPulse1(t *testing.T) {
	d := newDriver()
	visited := []Position{}
	for i := 0; i < 30; i++ {
		d.rotate(1)
		visited = append(visited, d.m.Cursor())
	}
	assert.Equal(t, Pulse1, d.m.Cursor())
	assert.Equal(t, []Position{Delay, Pulse1, Start, Pulse0}, visited[:4])

	d2 := newDriver()
	d2.rotate(30)
	assert.Equal(t, Pulse1, d2.m.Cursor())
}

func TestMachine_EditCommit(t *testing.T) {
	tests := []struct {
		name   string
		cursor int
		deltas []int
		want   Parameters
	}{
		{
			name:   "increase pulse0",
			deltas: []int{5, 5},
			want:   Parameters{Pulse0: 160, Delay: 80, Pulse1: 100},
		},
		{
			name:   "decrease delay",
			cursor: 1,
			deltas: []int{-30},
			want:   Parameters{Pulse0: 150, Delay: 50, Pulse1: 100},
		},
		{
			name:   "clamp at zero",
			cursor: 2,
			deltas: []int{-60, -60},
			want:   Parameters{Pulse0: 150, Delay: 80, Pulse1: 0},
		},
		{
			name:   "clamp at max does not wrap",
			deltas: []int{1000, 1},
			want:   Parameters{Pulse0: 500, Delay: 80, Pulse1: 100},
		},
		{
			name:   "recover from clamp",
			cursor: 1,
			deltas: []int{-1000, 20},
			want:   Parameters{Pulse0: 150, Delay: 20, Pulse1: 100},
		},
		{
			name:   "no motion keeps value",
			cursor: 2,
			want:   DefaultParameters(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDriver()
			d.rotate(tt.cursor)
			cursor := d.m.Cursor()

			d.press()
			require.Equal(t, Editing, d.m.Mode())
			s, ok := d.m.Session()
			require.True(t, ok)
			want, _ := DefaultParameters().Get(cursor)
			assert.Equal(t, want, s.Value, "session starts from the committed value")

			for _, delta := range tt.deltas {
				d.rotate(delta)
				assert.Equal(t, DefaultParameters(), d.m.Parameters(), "nothing is committed while editing")
			}
			d.press()

			assert.Equal(t, Browsing, d.m.Mode())
			assert.Equal(t, cursor, d.m.Cursor())
			assert.Equal(t, tt.want, d.m.Parameters())
		})
	}
}

func TestMachine_PressDropsMotionOfSameStep(t *testing.T) {
	d := newDriver()
	d.step(true, 3)
	assert.Equal(t, Editing, d.m.Mode())
	s, _ := d.m.Session()
	assert.Equal(t, Session{Target: Pulse0, Value: 150}, s)
}

func TestMachine_PressAndMotionWhileEditing(t *testing.T) {
	d := newDriver()
	d.press()
	d.step(true, 7)
	assert.Equal(t, Browsing, d.m.Mode())
	assert.Equal(t, uint16(157), d.m.Parameters().Pulse0)
}

func TestMachine_PressAtStart(t *testing.T) {
	d := newDriver()
	d.rotate(3)
	require.Equal(t, Start, d.m.Cursor())
	require.True(t, d.m.Armed())

	d.press()
	assert.Equal(t, Editing, d.m.Mode())
	assert.False(t, d.m.Armed())

	d.rotate(5)
	assert.Equal(t, Browsing, d.m.Mode(), "start session closes on the next step")
	assert.Equal(t, Start, d.m.Cursor())
	assert.True(t, d.m.Armed())
	assert.Equal(t, DefaultParameters(), d.m.Parameters())
}

func TestMachine_ArmedInvariant(t *testing.T) {
	d := newDriver()
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20000; i++ {
		d.step(rng.Intn(5) == 0, rng.Intn(9)-4)

		_, editing := d.m.Session()
		assert.Equal(t, editing, d.m.Mode() == Editing)
		assert.Equal(t, d.m.Cursor() == Start && !editing, d.m.Armed())

		p := d.m.Parameters()
		require.LessOrEqual(t, p.Pulse0, uint16(500))
		require.LessOrEqual(t, p.Delay, uint16(500))
		require.LessOrEqual(t, p.Pulse1, uint16(500))
	}
}

func TestMachine_Blink(t *testing.T) {
	m := New(DefaultConfig())
	step := func(at time.Duration, delta int) {
		m.Step(Input{Now: at * time.Millisecond, Delta: delta})
	}

	step(50, 0)
	assert.False(t, m.Blink())
	step(100, 0)
	assert.True(t, m.Blink())
	step(150, 0)
	assert.True(t, m.Blink())
	step(200, 0)
	assert.False(t, m.Blink())
	step(300, 0)
	assert.True(t, m.Blink())

	// rotation shows the cursor and restarts the cadence
	step(310, 1)
	assert.False(t, m.Blink())
	step(400, 0)
	assert.False(t, m.Blink())
	step(410, 0)
	assert.True(t, m.Blink())

	m.Step(Input{Now: 420 * time.Millisecond, Pressed: true})
	assert.False(t, m.Blink(), "cursor is steady while editing")
}

func TestMachine_DefaultsClamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Defaults.Delay = 900
	m := New(cfg)
	assert.Equal(t, uint16(500), m.Parameters().Delay)

	m = New(Config{})
	assert.Equal(t, Parameters{}, m.Parameters())
}
