package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/spotweld/pkg/config"
	"github.com/itohio/spotweld/pkg/link"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createWeldTab(state),
		createThermalTab(state),
		createMonitorTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// saveConfig applies changes to a copy of the configuration and saves it if
// it validates. It reports whether the configuration changed.
func saveConfig(state *appState, apply func(c *config.Config)) bool {
	next := *state.cfg
	apply(&next)
	if err := next.Validate(); err != nil {
		dialog.ShowError(err, state.window)
		return false
	}
	*state.cfg = next
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
	return true
}

// setUint16 parses a non-negative integer entry into v.
func setUint16(v *uint16, text string) {
	if n, err := strconv.ParseUint(text, 10, 16); err == nil {
		*v = uint16(n)
	}
}

func setDuration(v *time.Duration, text string) {
	if d, err := time.ParseDuration(text); err == nil {
		*v = d
	}
}

func setFloat(v *float64, text string) {
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		*v = f
	}
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := link.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // display name to port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			selectedPort := state.cfg.Serial.Port
			if portSelect.Selected != "" {
				selectedPort = portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected
				}
			}
			old := state.cfg.Serial

			if !saveConfig(state, func(c *config.Config) {
				c.Serial.Port = selectedPort
				if baud, err := strconv.Atoi(baudEntry.Text); err == nil {
					c.Serial.BaudRate = baud
				}
			}) {
				return
			}

			// Reconnect a serial device to the new port
			wasConnected := state.device != nil && state.device.IsConnected()
			if old != state.cfg.Serial && wasConnected && !state.useMock {
				disconnect(state)
				handleConnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createWeldTab creates the weld parameters tab. These are the power-on
// values of the simulated welder.
func createWeldTab(state *appState) *container.TabItem {
	w := state.cfg.Weld
	pulse0Entry := widget.NewEntry()
	pulse0Entry.SetText(strconv.Itoa(int(w.Pulse0)))
	delayEntry := widget.NewEntry()
	delayEntry.SetText(strconv.Itoa(int(w.Delay)))
	pulse1Entry := widget.NewEntry()
	pulse1Entry.SetText(strconv.Itoa(int(w.Pulse1)))
	maxEntry := widget.NewEntry()
	maxEntry.SetText(strconv.Itoa(int(w.Max)))
	settleEntry := widget.NewEntry()
	settleEntry.SetText(w.Settle.String())
	fireEntry := widget.NewEntry()
	fireEntry.SetText(w.Fire.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "First Pulse (ms)", Widget: pulse0Entry},
			{Text: "Delay (ms)", Widget: delayEntry},
			{Text: "Second Pulse (ms)", Widget: pulse1Entry},
			{Text: "Maximum (ms)", Widget: maxEntry},
			{Text: "Settle", Widget: settleEntry},
			{Text: "Fire Delay", Widget: fireEntry},
		},
		OnSubmit: func() {
			saveConfig(state, func(c *config.Config) {
				setUint16(&c.Weld.Pulse0, pulse0Entry.Text)
				setUint16(&c.Weld.Delay, delayEntry.Text)
				setUint16(&c.Weld.Pulse1, pulse1Entry.Text)
				setUint16(&c.Weld.Max, maxEntry.Text)
				setDuration(&c.Weld.Settle, settleEntry.Text)
				setDuration(&c.Weld.Fire, fireEntry.Text)
			})
		},
	}

	return container.NewTabItem("Weld", form)
}

// createThermalTab creates the thermistor and overheat limit tab.
func createThermalTab(state *appState) *container.TabItem {
	th := state.cfg.Thermal
	coreEntry := widget.NewEntry()
	coreEntry.SetText(strconv.Itoa(int(th.CoreLimit)))
	tipEntry := widget.NewEntry()
	tipEntry.SetText(strconv.Itoa(int(th.TipLimit)))
	rFixedEntry := widget.NewEntry()
	rFixedEntry.SetText(fmt.Sprintf("%.0f", th.RFixed))
	oversampleEntry := widget.NewEntry()
	oversampleEntry.SetText(strconv.Itoa(th.Oversample))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Core Limit (°C)", Widget: coreEntry},
			{Text: "Tip Limit (°C)", Widget: tipEntry},
			{Text: "Fixed Resistor (Ω)", Widget: rFixedEntry},
			{Text: "Oversample", Widget: oversampleEntry},
		},
		OnSubmit: func() {
			saveConfig(state, func(c *config.Config) {
				if n, err := strconv.ParseInt(coreEntry.Text, 10, 16); err == nil {
					c.Thermal.CoreLimit = int16(n)
				}
				if n, err := strconv.ParseInt(tipEntry.Text, 10, 16); err == nil {
					c.Thermal.TipLimit = int16(n)
				}
				if r, err := strconv.ParseFloat(rFixedEntry.Text, 32); err == nil {
					c.Thermal.RFixed = float32(r)
				}
				if n, err := strconv.Atoi(oversampleEntry.Text); err == nil {
					c.Thermal.Oversample = n
				}
			})
		},
	}

	return container.NewTabItem("Thermal", form)
}

// createMonitorTab creates the scope window tab.
func createMonitorTab(state *appState) *container.TabItem {
	windowEntry := widget.NewEntry()
	windowEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Monitor.WindowSeconds))
	intervalEntry := widget.NewEntry()
	intervalEntry.SetText(state.cfg.Telemetry.Interval.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window (seconds)", Widget: windowEntry},
			{Text: "Telemetry Interval", Widget: intervalEntry},
		},
		OnSubmit: func() {
			if saveConfig(state, func(c *config.Config) {
				setFloat(&c.Monitor.WindowSeconds, windowEntry.Text)
				setDuration(&c.Telemetry.Interval, intervalEntry.Text)
			}) {
				state.recorder.SetWindow(time.Duration(state.cfg.Monitor.WindowSeconds * float64(time.Second)))
			}
		},
	}

	return container.NewTabItem("Monitor", form)
}

// createMockTab creates the simulated welder tab.
func createMockTab(state *appState) *container.TabItem {
	m := state.cfg.Mock
	ambientEntry := widget.NewEntry()
	ambientEntry.SetText(fmt.Sprintf("%.1f", m.Ambient))
	coreHeatingEntry := widget.NewEntry()
	coreHeatingEntry.SetText(fmt.Sprintf("%.2f", m.CoreHeating))
	tipHeatingEntry := widget.NewEntry()
	tipHeatingEntry.SetText(fmt.Sprintf("%.2f", m.TipHeating))
	coreTauEntry := widget.NewEntry()
	coreTauEntry.SetText(m.CoreTimeConstant.String())
	tipTauEntry := widget.NewEntry()
	tipTauEntry.SetText(m.TipTimeConstant.String())
	tickEntry := widget.NewEntry()
	tickEntry.SetText(m.Tick.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Ambient (°C)", Widget: ambientEntry},
			{Text: "Core Heating (°C/s)", Widget: coreHeatingEntry},
			{Text: "Tip Heating (°C/s)", Widget: tipHeatingEntry},
			{Text: "Core Cooling", Widget: coreTauEntry},
			{Text: "Tip Cooling", Widget: tipTauEntry},
			{Text: "Tick", Widget: tickEntry},
		},
		OnSubmit: func() {
			saveConfig(state, func(c *config.Config) {
				setFloat(&c.Mock.Ambient, ambientEntry.Text)
				setFloat(&c.Mock.CoreHeating, coreHeatingEntry.Text)
				setFloat(&c.Mock.TipHeating, tipHeatingEntry.Text)
				setDuration(&c.Mock.CoreTimeConstant, coreTauEntry.Text)
				setDuration(&c.Mock.TipTimeConstant, tipTauEntry.Text)
				setDuration(&c.Mock.Tick, tickEntry.Text)
			})
		},
	}

	return container.NewTabItem("Mock", form)
}
