package thermal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeADC struct {
	raw  [Channels]uint16
	err  [Channels]error
	seq  [Channels][]uint16
	read [Channels]int
}

func (a *fakeADC) ReadRaw(ch uint8) (uint16, error) {
	a.read[ch]++
	if a.err[ch] != nil {
		return 0, a.err[ch]
	}
	if len(a.seq[ch]) > 0 {
		v := a.seq[ch][0]
		a.seq[ch] = a.seq[ch][1:]
		return v, nil
	}
	return a.raw[ch], nil
}

func TestMonitor_Sample(t *testing.T) {
	m := DefaultModel()
	tests := []struct {
		name       string
		raw        [Channels]uint16
		err        [Channels]error
		fault      [Channels]bool
		overheated bool
	}{
		{
			name: "both cool",
			raw:  [Channels]uint16{m.Raw(25), m.Raw(25)},
		},
		{
			name: "at the limits is not hot",
			raw:  [Channels]uint16{m.Raw(45.3), m.Raw(40.3)},
		},
		{
			name:       "core hot",
			raw:        [Channels]uint16{m.Raw(50), m.Raw(25)},
			overheated: true,
		},
		{
			name:       "tip hot below core limit",
			raw:        [Channels]uint16{m.Raw(25), m.Raw(43)},
			overheated: true,
		},
		{
			name:       "tip shorted",
			raw:        [Channels]uint16{m.Raw(25), 0},
			fault:      [Channels]bool{false, true},
			overheated: true,
		},
		{
			name:       "core open",
			raw:        [Channels]uint16{FullScale, m.Raw(25)},
			fault:      [Channels]bool{true, false},
			overheated: true,
		},
		{
			name:       "adc error",
			raw:        [Channels]uint16{m.Raw(25), m.Raw(25)},
			err:        [Channels]error{errors.New("busy"), nil},
			fault:      [Channels]bool{true, false},
			overheated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adc := &fakeADC{raw: tt.raw, err: tt.err}
			mon := NewMonitor(adc, DefaultConfig())
			r := mon.Sample()
			assert.Equal(t, tt.fault, r.Fault)
			assert.Equal(t, tt.overheated, r.Overheated)
			assert.Equal(t, tt.fault[0] || tt.fault[1], r.Faulted())
			for i, f := range tt.fault {
				if f {
					assert.Equal(t, int16(FaultCelsius), r.Celsius[i])
				}
			}
		})
	}
}

func TestMonitor_Oversample(t *testing.T) {
	m := DefaultModel()
	cfg := DefaultConfig()
	cfg.Oversample = 4

	adc := &fakeADC{}
	adc.seq[0] = []uint16{510, 514, 510, 514}
	adc.raw[1] = m.Raw(20)
	r := NewMonitor(adc, cfg).Sample()
	assert.Equal(t, 4, adc.read[0])
	assert.Equal(t, 4, adc.read[1])
	assert.InDelta(t, 25, float64(r.Celsius[0]), 1)
	assert.False(t, r.Overheated)

	adc = &fakeADC{}
	adc.seq[0] = []uint16{512, 0, 512, 512}
	adc.raw[1] = m.Raw(20)
	r = NewMonitor(adc, cfg).Sample()
	assert.True(t, r.Fault[0])
	assert.True(t, r.Overheated)
}

func TestMonitor_ZeroOversampleReadsOnce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Oversample = 0
	adc := &fakeADC{raw: [Channels]uint16{512, 512}}
	NewMonitor(adc, cfg).Sample()
	assert.Equal(t, [Channels]int{1, 1}, adc.read)
}
