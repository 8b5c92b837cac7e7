package scope

import (
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/spotweld/pkg/history"
	"github.com/itohio/spotweld/pkg/telemetry"
	"github.com/itohio/spotweld/pkg/thermal"
)

var (
	gridColor  = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	weldColor  = color.RGBA{R: 0, G: 100, B: 200, A: 255}

	// core is orange, tip light blue
	channelColors = [thermal.Channels]color.RGBA{
		{R: 255, G: 165, B: 0, A: 255},
		{R: 100, G: 200, B: 255, A: 255},
	}
	limitColors = [thermal.Channels]color.RGBA{
		{R: 160, G: 60, B: 0, A: 255},
		{R: 40, G: 90, B: 140, A: 255},
	}
	channelNames = [thermal.Channels]string{"T", "S"}
)

// plotArea maps data coordinates to widget positions.
type plotArea struct {
	x, y, width, height float32
	yMin, yMax          float64
	xMin, xMax          time.Time
}

func (p plotArea) posX(t time.Time) float32 {
	span := p.xMax.Sub(p.xMin).Seconds()
	if span <= 0 {
		return p.x
	}
	return p.x + float32(t.Sub(p.xMin).Seconds()/span)*p.width
}

func (p plotArea) posY(v float64) float32 {
	span := p.yMax - p.yMin
	if span <= 0 {
		return p.y + p.height
	}
	return p.y + p.height - float32((v-p.yMin)/span)*p.height
}

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	// Background
	grid *canvas.Rectangle

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	frames := r.scope.displayFrames
	welds := r.scope.welds
	limits := r.scope.limits()
	area := plotArea{
		yMin: r.scope.yMin,
		yMax: r.scope.yMax,
		xMin: r.scope.xMin,
		xMax: r.scope.xMax,
	}
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.grid}

	const (
		marginLeft   = 60
		marginRight  = 20
		marginTop    = 20
		marginBottom = 40
	)
	area.x = marginLeft
	area.y = marginTop
	area.width = size.Width - marginLeft - marginRight
	area.height = size.Height - marginTop - marginBottom

	r.drawGrid(area)
	for ch := range thermal.Channels {
		r.drawLimit(area, ch, limits[ch])
	}
	r.drawWelds(area, welds)
	for ch := range thermal.Channels {
		r.drawChannel(area, ch, frames)
	}
	r.drawLegend(area, frames)
}

// drawGrid draws the oscilloscope-style grid.
func (r *scopeRenderer) drawGrid(area plotArea) {
	// Horizontal grid lines (temperature)
	numHLines := 8
	for i := range numHLines + 1 {
		y := area.y + float32(i)*area.height/float32(numHLines)
		r.line(gridColor, 1, fyne.NewPos(area.x, y), fyne.NewPos(area.x+area.width, y))

		value := area.yMax - float64(i)*(area.yMax-area.yMin)/float64(numHLines)
		r.text(formatCelsius(value), labelColor, 10, fyne.TextAlignTrailing, fyne.NewPos(area.x-5, y-6))
	}

	// Vertical grid lines (time)
	numVLines := 10
	span := area.xMax.Sub(area.xMin)
	for i := range numVLines + 1 {
		x := area.x + float32(i)*area.width/float32(numVLines)
		r.line(gridColor, 1, fyne.NewPos(x, area.y), fyne.NewPos(x, area.y+area.height))

		offset := span * time.Duration(i) / time.Duration(numVLines)
		r.text(formatTime(offset), labelColor, 10, fyne.TextAlignCenter, fyne.NewPos(x-20, area.y+area.height+5))
	}
}

// drawLimit draws the overheat limit of a channel as a horizontal line.
func (r *scopeRenderer) drawLimit(area plotArea, ch int, limit float64) {
	y := area.posY(limit)
	r.line(limitColors[ch], 1, fyne.NewPos(area.x, y), fyne.NewPos(area.x+area.width, y))
}

// drawChannel draws one temperature curve. Faulted readings break the line.
func (r *scopeRenderer) drawChannel(area plotArea, ch int, frames []telemetry.Frame) {
	var prev fyne.Position
	connected := false
	for _, f := range frames {
		if f.Fault[ch] {
			connected = false
			continue
		}
		p := fyne.NewPos(area.posX(f.Time), area.posY(float64(f.Celsius[ch])))
		if connected {
			r.line(channelColors[ch], 1.5, prev, p)
		}
		prev = p
		connected = true
	}
}

// drawWelds marks each weld with a vertical line and its pulse settings.
func (r *scopeRenderer) drawWelds(area plotArea, welds []history.Weld) {
	for _, w := range welds {
		if w.End.Before(area.xMin) || w.Start.After(area.xMax) {
			continue
		}
		x := area.posX(w.Start)
		r.line(weldColor, 1, fyne.NewPos(x, area.y), fyne.NewPos(x, area.y+area.height))

		p := w.Parameters
		label := "#" + strconv.FormatUint(uint64(w.Number), 10) + " " + formatPulses(p.Pulse0, p.Delay, p.Pulse1)
		r.text(label, weldColor, 10, fyne.TextAlignLeading, fyne.NewPos(x+3, area.y+2))
	}
}

// drawLegend shows the latest reading of every channel.
func (r *scopeRenderer) drawLegend(area plotArea, frames []telemetry.Frame) {
	if len(frames) == 0 {
		return
	}
	last := frames[len(frames)-1]
	for ch := range thermal.Channels {
		value := "ERR"
		if !last.Fault[ch] {
			value = formatCelsius(float64(last.Celsius[ch]))
		}
		pos := fyne.NewPos(area.x+10+float32(ch)*90, area.y+area.height-20)
		r.text(channelNames[ch]+"="+value, channelColors[ch], 11, fyne.TextAlignLeading, pos)
	}
}

func (r *scopeRenderer) line(c color.Color, width float32, from, to fyne.Position) {
	line := canvas.NewLine(c)
	line.Position1 = from
	line.Position2 = to
	line.StrokeWidth = width
	r.objects = append(r.objects, line)
}

func (r *scopeRenderer) text(s string, c color.Color, size float32, align fyne.TextAlign, pos fyne.Position) {
	text := canvas.NewText(s, c)
	text.TextSize = size
	text.Alignment = align
	text.Move(pos)
	r.objects = append(r.objects, text)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {
	// Cleanup handled by Fyne
}

// Helper functions for formatting

func formatCelsius(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "C"
}

func formatTime(d time.Duration) string {
	if d < time.Second {
		return strconv.FormatFloat(d.Seconds(), 'f', 2, 64) + "s"
	}
	return strconv.FormatFloat(d.Seconds(), 'f', 1, 64) + "s"
}

func formatPulses(pulse0, delay, pulse1 uint16) string {
	return strconv.Itoa(int(pulse0)) + "/" + strconv.Itoa(int(delay)) + "/" + strconv.Itoa(int(pulse1)) + "ms"
}
