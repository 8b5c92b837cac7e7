package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/spotweld/pkg/history"
	"github.com/itohio/spotweld/pkg/telemetry"
	"github.com/itohio/spotweld/pkg/welder"
)

// statusPanel shows the latest welder state next to the scope.
type statusPanel struct {
	mode     *widget.Label
	params   *widget.Label
	core     *widget.Label
	tip      *widget.Label
	armed    *widget.Label
	welds    *widget.Label
	lastWeld *widget.Label
	box      *fyne.Container
}

func newStatusPanel() *statusPanel {
	p := &statusPanel{
		mode:     widget.NewLabel("-"),
		params:   widget.NewLabel("-"),
		core:     widget.NewLabel("-"),
		tip:      widget.NewLabel("-"),
		armed:    widget.NewLabel("-"),
		welds:    widget.NewLabel("0"),
		lastWeld: widget.NewLabel("-"),
	}
	form := widget.NewForm(
		widget.NewFormItem("Mode", p.mode),
		widget.NewFormItem("Pulses", p.params),
		widget.NewFormItem("Core", p.core),
		widget.NewFormItem("Tip", p.tip),
		widget.NewFormItem("Trigger", p.armed),
		widget.NewFormItem("Welds", p.welds),
		widget.NewFormItem("Last weld", p.lastWeld),
	)
	p.box = container.NewVBox(widget.NewLabelWithStyle("Welder", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}), form)
	return p
}

// Container returns the panel contents.
func (p *statusPanel) Container() fyne.CanvasObject {
	return p.box
}

// Update shows the last frame of the window. Must run on the main thread.
func (p *statusPanel) Update(frames []telemetry.Frame, welds []history.Weld) {
	if len(frames) == 0 {
		return
	}
	f := frames[len(frames)-1]

	mode := f.Mode.String()
	if f.Mode == welder.Browsing || f.Mode == welder.Editing {
		mode += " " + f.Cursor.String()
	}
	if f.Mode == welder.Editing {
		mode += fmt.Sprintf(" = %d ms", f.EditValue)
	}
	p.mode.SetText(mode)
	p.params.SetText(fmt.Sprintf("%d / %d / %d ms (%v)", f.Parameters.Pulse0, f.Parameters.Delay, f.Parameters.Pulse1, f.Parameters.Total()))
	p.core.SetText(celsius(f, 0))
	p.tip.SetText(celsius(f, 1))
	if f.Armed {
		p.armed.SetText("READY")
	} else {
		p.armed.SetText("disarmed")
	}
	p.welds.SetText(fmt.Sprintf("%d", f.Welds))

	if len(welds) > 0 {
		w := welds[len(welds)-1]
		p.lastWeld.SetText(fmt.Sprintf("#%d at %s, %d/%d/%d ms", w.Number, w.End.Format("15:04:05"),
			w.Parameters.Pulse0, w.Parameters.Delay, w.Parameters.Pulse1))
	}
}

func celsius(f telemetry.Frame, ch int) string {
	if f.Fault[ch] {
		return "sensor fault"
	}
	return fmt.Sprintf("%d °C", f.Celsius[ch])
}
