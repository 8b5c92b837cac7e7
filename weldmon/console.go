package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/spotweld/pkg/thermal"
)

// consolePanel drives the simulated welder's encoder, button, trigger and sensors.
type consolePanel struct {
	state   *appState
	buttons []*widget.Button
	sliders [thermal.Channels]*widget.Slider
	box     *fyne.Container
}

func newConsolePanel(state *appState) *consolePanel {
	p := &consolePanel{state: state}

	left := widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() {
		p.do("rotate", func() error { return state.mock.Rotate(-1) })
	})
	right := widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() {
		p.do("rotate", func() error { return state.mock.Rotate(1) })
	})
	press := widget.NewButton("Press", func() {
		p.do("press", func() error { return state.mock.Press() })
	})
	trigger := widget.NewButtonWithIcon("Weld", theme.MediaPlayIcon(), func() {
		// hold well past the debounce so the weld fires
		hold := 2 * state.cfg.Console.TriggerHold
		p.do("trigger", func() error { return state.mock.PullTrigger(hold) })
	})
	trigger.Importance = widget.HighImportance
	p.buttons = []*widget.Button{left, right, press, trigger}

	labels := [thermal.Channels]string{"Core", "Tip"}
	var sensors []fyne.CanvasObject
	for ch := range thermal.Channels {
		value := widget.NewLabel("")
		slider := widget.NewSlider(0, 120)
		slider.Step = 1
		slider.OnChangeEnded = func(c float64) {
			value.SetText(fmt.Sprintf("%.0f °C", c))
			p.do("set temperature", func() error { return state.mock.SetTemperature(ch, c) })
		}
		slider.SetValue(state.cfg.Mock.Ambient)
		value.SetText(fmt.Sprintf("%.0f °C", state.cfg.Mock.Ambient))
		p.sliders[ch] = slider
		sensors = append(sensors, widget.NewLabel(labels[ch]), container.NewGridWrap(fyne.NewSize(200, slider.MinSize().Height), slider), value)
	}

	p.box = container.NewHBox(append([]fyne.CanvasObject{left, right, press, trigger, widget.NewSeparator()}, sensors...)...)
	p.SetEnabled(false)
	return p
}

// Container returns the panel contents.
func (p *consolePanel) Container() fyne.CanvasObject {
	return p.box
}

// SetEnabled enables the console while a simulated welder is running. The
// sliders are reset to the plant's current temperatures.
func (p *consolePanel) SetEnabled(enabled bool) {
	for _, b := range p.buttons {
		if enabled {
			b.Enable()
		} else {
			b.Disable()
		}
	}
	for _, s := range p.sliders {
		if enabled {
			s.Enable()
		} else {
			s.Disable()
		}
	}
	if !enabled || p.state.mock == nil {
		return
	}
	temps, err := p.state.mock.Temperatures()
	if err != nil {
		return
	}
	for ch, s := range p.sliders {
		s.Value = temps[ch]
		s.Refresh()
	}
}

func (p *consolePanel) do(what string, f func() error) {
	if p.state.mock == nil {
		return
	}
	if err := f(); err != nil {
		dialog.ShowError(fmt.Errorf("failed to %s: %w", what, err), p.state.window)
	}
}
