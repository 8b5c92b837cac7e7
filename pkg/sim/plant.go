package sim

import (
	"math"
	"sync"
	"time"

	"github.com/itohio/spotweld/pkg/thermal"
)

// PlantConfig describes the thermal behaviour of the welder.
type PlantConfig struct {
	Ambient float64
	// Heating is the temperature rise per second of weld current.
	Heating [thermal.Channels]float64
	// TimeConstant of the exponential cooling towards ambient.
	TimeConstant [thermal.Channels]time.Duration
}

// Plant integrates weld heating and cooling and drives the simulated ADC.
type Plant struct {
	cfg   PlantConfig
	model thermal.Model
	adc   *ADC

	mu   sync.Mutex
	temp [thermal.Channels]float64
}

// NewPlant creates a plant at ambient temperature.
func NewPlant(cfg PlantConfig, model thermal.Model, adc *ADC) *Plant {
	p := &Plant{cfg: cfg, model: model, adc: adc}
	for i := range p.temp {
		p.temp[i] = cfg.Ambient
	}
	p.publish()
	return p
}

// Advance moves the plant forward by dt, during which the weld current was
// on for on.
func (p *Plant) Advance(dt, on time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.temp {
		p.temp[i] += p.cfg.Heating[i] * on.Seconds()
		if tc := p.cfg.TimeConstant[i]; tc > 0 && dt > 0 {
			k := math.Exp(-dt.Seconds() / tc.Seconds())
			p.temp[i] = p.cfg.Ambient + (p.temp[i]-p.cfg.Ambient)*k
		}
	}
	p.publish()
}

// Set forces a sensor temperature.
func (p *Plant) Set(ch int, celsius float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.temp[ch] = celsius
	p.publish()
}

// Temperatures returns the simulated temperatures.
func (p *Plant) Temperatures() [thermal.Channels]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.temp
}

func (p *Plant) publish() {
	for i, t := range p.temp {
		p.adc.SetCelsius(i, p.model, t)
	}
}
