// Package display renders welder snapshots on a 128x64 monochrome screen.
package display

import (
	"fmt"
	"image/color"
	"strconv"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"github.com/itohio/spotweld/pkg/menu"
	"github.com/itohio/spotweld/pkg/thermal"
	"github.com/itohio/spotweld/pkg/welder"
)

var _ welder.Sink = (*Display)(nil)

// Screen is a buffered display such as ssd1306.Device.
type Screen interface {
	drivers.Displayer
	ClearBuffer()
}

var white = color.RGBA{255, 255, 255, 255}

const (
	// baseline offset of the font from the top of a row
	ascent = 10
	indent = 13
)

var rows = [...]struct {
	pos   menu.Position
	label string
	y     int16
}{
	{menu.Pulse0, "Pulse0", 15},
	{menu.Delay, "Delay", 30},
	{menu.Pulse1, "Pulse1", 45},
}

// Display is a welder.Sink drawing the operator pages. The screen is only
// redrawn when the snapshot changes.
type Display struct {
	screen Screen
	font   tinyfont.Fonter

	last  welder.Snapshot
	drawn bool
}

// New creates a display sink on screen.
func New(screen Screen) *Display {
	return &Display{
		screen: screen,
		font:   &proggy.TinySZ8pt7b,
	}
}

func (d *Display) Present(s welder.Snapshot) error {
	if d.drawn && s.Equal(d.last) {
		return nil
	}

	d.screen.ClearBuffer()
	switch s.Mode {
	case welder.Welding:
		d.text(20, 27, "Welding...")
	case welder.Settling:
		d.text(25, 27, "Wait...")
	case welder.Cooldown:
		d.cooldown(s)
	default:
		d.menu(s)
	}

	if err := d.flush(); err != nil {
		return err
	}
	d.last = s
	d.drawn = true
	return nil
}

func (d *Display) flush() error {
	if err := d.screen.Display(); err != nil {
		d.drawn = false
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

func (d *Display) menu(s welder.Snapshot) {
	d.temperatures(0, s)

	editing := s.Mode == welder.Editing
	for _, r := range rows {
		x := int16(0)
		if r.pos == s.Cursor {
			x = indent
			if editing || !s.Blink {
				d.text(0, r.y, "->")
			}
		}
		v, _ := s.Parameters.Get(r.pos)
		if editing && r.pos == s.Cursor {
			v = s.EditValue
		}
		d.text(x, r.y, r.label)
		d.text(55+x, r.y, ":")
		d.text(62+x, r.y, strconv.Itoa(int(v))+" ms")
	}

	if s.Armed {
		d.text(40, 56, "READY")
	}
}

func (d *Display) cooldown(s welder.Snapshot) {
	d.text(0, 0, "Cooling...")
	d.text(0, 15, "OverHeated !!!")
	d.text(0, 27, "Wait until it")
	d.text(0, 37, "cools down.")
	d.temperatures(52, s)
}

func (d *Display) temperatures(y int16, s welder.Snapshot) {
	d.text(0, y, "T="+celsius(s.Celsius[0], s.Fault[0]))
	d.text(65, y, "S="+celsius(s.Celsius[1], s.Fault[1]))
}

func celsius(c int16, fault bool) string {
	if fault || c == thermal.FaultCelsius {
		return "ERR"
	}
	return strconv.Itoa(int(c)) + "C"
}

// text draws str with its top edge at y.
func (d *Display) text(x, y int16, str string) {
	tinyfont.WriteLine(d.screen, d.font, x, y+ascent, str, white)
}
