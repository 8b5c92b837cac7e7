package link

import (
	"strings"
	"testing"
	"time"

	"github.com/itohio/spotweld/pkg/config"
	"github.com/itohio/spotweld/pkg/menu"
	"github.com/itohio/spotweld/pkg/telemetry"
	"github.com/itohio/spotweld/pkg/welder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanFrames(t *testing.T) {
	input := strings.Join([]string{
		"spotweld: boot",
		"",
		"100,S,P0,0,150,80,100,0,0,0,00,0,0",
		"2100,B,P0,0,150,80,100,0,25,24,00,0,0",
		"garbage,line",
		"2200,B,D,1,150,80,100,0,25,24,00,0,0\r",
	}, "\n")

	frames := make(chan telemetry.Frame, 10)
	err := scanFrames(strings.NewReader(input), frames)
	require.NoError(t, err)

	var got []telemetry.Frame
	for f := range frames {
		got = append(got, f)
	}
	require.Len(t, got, 3)
	assert.Equal(t, welder.Settling, got[0].Mode)
	assert.Equal(t, 2100*time.Millisecond, got[1].Uptime)
	assert.Equal(t, menu.Delay, got[2].Cursor)
	assert.True(t, got[2].Blink)
	assert.False(t, got[2].Time.IsZero())
}

func TestScanFrames_DropsWhenFull(t *testing.T) {
	line := "1,B,P0,0,150,80,100,0,25,24,00,0,0\n"
	frames := make(chan telemetry.Frame, 2)
	require.NoError(t, scanFrames(strings.NewReader(strings.Repeat(line, 5)), frames))

	n := 0
	for range frames {
		n++
	}
	assert.Equal(t, 2, n)
}

func TestSerial_NotConnected(t *testing.T) {
	d := NewSerial("/dev/does-not-exist", 0, 0)
	assert.False(t, d.IsConnected())
	assert.NoError(t, d.Close())
	assert.Error(t, d.Connect())
	assert.False(t, d.IsConnected())
}

func mockConfig() *config.Config {
	cfg := config.Default()
	cfg.Timing.Startup = 10 * time.Millisecond
	cfg.Telemetry.Interval = 20 * time.Millisecond
	cfg.Weld.Settle = 50 * time.Millisecond
	cfg.Mock.Tick = 5 * time.Millisecond
	return cfg
}

// waitFrame reads frames until pred holds or the timeout expires.
func waitFrame(t *testing.T, frames <-chan telemetry.Frame, timeout time.Duration, pred func(telemetry.Frame) bool) telemetry.Frame {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case f, ok := <-frames:
			require.True(t, ok, "frames channel closed")
			if pred(f) {
				return f
			}
		case <-deadline:
			require.FailNow(t, "no matching frame")
			return telemetry.Frame{}
		}
	}
}

func TestMock_Console(t *testing.T) {
	m := NewMock(mockConfig())
	require.NoError(t, m.Connect())
	defer m.Close()
	frames := m.Frames()

	waitFrame(t, frames, 2*time.Second, func(f telemetry.Frame) bool { return f.Mode == welder.Browsing })

	require.NoError(t, m.Rotate(3))
	f := waitFrame(t, frames, 2*time.Second, func(f telemetry.Frame) bool { return f.Cursor == menu.Start })
	assert.True(t, f.Armed)

	require.NoError(t, m.PullTrigger(200*time.Millisecond))
	waitFrame(t, frames, 2*time.Second, func(f telemetry.Frame) bool { return f.Mode == welder.Welding })
	f = waitFrame(t, frames, 2*time.Second, func(f telemetry.Frame) bool { return f.Mode == welder.Browsing })
	assert.Equal(t, uint32(1), f.Welds)

	require.NoError(t, m.Rotate(-1))
	waitFrame(t, frames, 2*time.Second, func(f telemetry.Frame) bool { return f.Cursor == menu.Pulse1 })
	require.NoError(t, m.Press())
	f = waitFrame(t, frames, 2*time.Second, func(f telemetry.Frame) bool { return f.Mode == welder.Editing })
	assert.Equal(t, menu.Pulse1, f.Cursor)
	assert.Equal(t, uint16(100), f.EditValue)
}

func TestMock_Overheat(t *testing.T) {
	m := NewMock(mockConfig())
	require.NoError(t, m.Connect())
	defer m.Close()
	frames := m.Frames()

	require.NoError(t, m.SetTemperature(1, 70))
	f := waitFrame(t, frames, 2*time.Second, func(f telemetry.Frame) bool { return f.Mode == welder.Cooldown })
	assert.InDelta(t, 70, float64(f.Celsius[1]), 1)
	assert.False(t, f.Armed)

	require.NoError(t, m.SetTemperature(1, 25))
	waitFrame(t, frames, 2*time.Second, func(f telemetry.Frame) bool { return f.Mode == welder.Browsing })

	assert.Error(t, m.SetTemperature(2, 25))
}

func TestMock_WeldHeatsPlant(t *testing.T) {
	cfg := mockConfig()
	cfg.Mock.TipHeating = 100
	m := NewMock(cfg)
	require.NoError(t, m.Connect())
	defer m.Close()
	frames := m.Frames()

	before, err := m.Temperatures()
	require.NoError(t, err)

	require.NoError(t, m.Rotate(3))
	waitFrame(t, frames, 2*time.Second, func(f telemetry.Frame) bool { return f.Armed })
	require.NoError(t, m.PullTrigger(100*time.Millisecond))
	waitFrame(t, frames, 2*time.Second, func(f telemetry.Frame) bool { return f.Welds == 1 })
	time.Sleep(3 * cfg.Mock.Tick)

	after, err := m.Temperatures()
	require.NoError(t, err)
	// 250 ms of current at 100 C/s, minus a little cooling
	assert.InDelta(t, before[1]+25, after[1], 2)
	assert.Greater(t, after[0], before[0])
}

func TestMock_NotConnected(t *testing.T) {
	m := NewMock(nil)
	assert.ErrorIs(t, m.Rotate(1), ErrNotConnected)
	assert.ErrorIs(t, m.Press(), ErrNotConnected)
	assert.ErrorIs(t, m.PullTrigger(time.Millisecond), ErrNotConnected)
	_, err := m.Temperatures()
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NoError(t, m.Close())
}

func TestMock_DoubleConnect(t *testing.T) {
	m := NewMock(mockConfig())
	require.NoError(t, m.Connect())
	defer m.Close()
	assert.Error(t, m.Connect())
	assert.True(t, m.IsConnected())
}

func TestPlantConfig(t *testing.T) {
	p := PlantConfig(config.Default().Mock)
	assert.Equal(t, float64(22), p.Ambient)
	assert.Equal(t, [2]float64{6, 20}, p.Heating)
	assert.Equal(t, [2]time.Duration{120 * time.Second, 30 * time.Second}, p.TimeConstant)
}
