// Package scope is a Fyne widget plotting welder temperatures over time.
package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/spotweld/pkg/config"
	"github.com/itohio/spotweld/pkg/history"
	"github.com/itohio/spotweld/pkg/telemetry"
	"github.com/itohio/spotweld/pkg/thermal"
)

// ScopeWidget is a custom Fyne widget that displays oscilloscope-style temperature graphs.
type ScopeWidget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu     sync.RWMutex
	frames []telemetry.Frame
	welds  []history.Weld

	// Display buffer (reused for downsampling)
	displayFrames []telemetry.Frame

	// Auto-scaling
	yMin, yMax float64
	xMin, xMax time.Time

	maxDisplayPoints int
}

// New creates a new ScopeWidget instance.
func New(cfg *config.Config) *ScopeWidget {
	s := &ScopeWidget{
		cfg:              cfg,
		displayFrames:    make([]telemetry.Frame, 0, 1000),
		maxDisplayPoints: 1000,
	}
	s.ExtendBaseWidget(s)
	s.Refresh()
	return s
}

// UpdateData replaces the plotted window.
// This should be called from the history callback using fyne.Do().
func (s *ScopeWidget) UpdateData(frames []telemetry.Frame, welds []history.Weld) {
	s.mu.Lock()
	s.displayFrames = history.Downsample(s.displayFrames, frames, s.maxDisplayPoints)
	s.frames = frames
	s.welds = welds
	s.updateAutoScale(time.Now())
	s.mu.Unlock()

	// Refresh outside the lock, the renderer takes it
	s.Refresh()
}

// limits returns the configured core and tip limits.
func (s *ScopeWidget) limits() [thermal.Channels]float64 {
	return [thermal.Channels]float64{
		float64(s.cfg.Thermal.CoreLimit),
		float64(s.cfg.Thermal.TipLimit),
	}
}

// updateAutoScale calculates axis ranges from the display buffer. Limit lines
// are always in range, faulted readings are not.
func (s *ScopeWidget) updateAutoScale(now time.Time) {
	window := time.Duration(s.cfg.Monitor.WindowSeconds * float64(time.Second))
	limits := s.limits()

	s.yMin = min(limits[0], limits[1])
	s.yMax = max(limits[0], limits[1])
	for _, f := range s.displayFrames {
		for ch, c := range f.Celsius {
			if f.Fault[ch] {
				continue
			}
			s.yMin = min(s.yMin, float64(c))
			s.yMax = max(s.yMax, float64(c))
		}
	}

	// Add 10% margin
	span := s.yMax - s.yMin
	if span == 0 {
		span = 1.0
	}
	margin := span * 0.1
	s.yMin -= margin
	s.yMax += margin

	if len(s.displayFrames) == 0 {
		s.xMin = now
		s.xMax = now.Add(window)
		return
	}
	s.xMin = s.displayFrames[0].Time
	s.xMax = s.displayFrames[len(s.displayFrames)-1].Time
	// Ensure minimum window
	if s.xMax.Sub(s.xMin) < window {
		s.xMax = s.xMin.Add(window)
	}
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}) // Dark background
	return &scopeRenderer{
		scope:   s,
		grid:    grid,
		objects: []fyne.CanvasObject{grid},
	}
}
