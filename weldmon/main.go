package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/spotweld/pkg/config"
	"github.com/itohio/spotweld/pkg/history"
	"github.com/itohio/spotweld/pkg/link"
	"github.com/itohio/spotweld/pkg/scope"
	"github.com/itohio/spotweld/pkg/telemetry"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use simulated welder instead of serial port")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	application := app.NewWithID("com.itohio.spotweld")

	window := application.NewWindow("Spot Welder Monitor")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		recorder:   history.New(cfg),
		window:     window,
		useMock:    *mockFlag,
	}

	toolbar := createToolbar(state)

	state.scopeWidget = scope.New(cfg)
	state.status = newStatusPanel()
	state.console = newConsolePanel(state)

	// Throttle scope updates to ~60 FPS
	const updateInterval = 16 * time.Millisecond
	state.recorder.OnUpdate(func(frames []telemetry.Frame, welds []history.Weld) {
		state.updateMu.Lock()
		now := time.Now()
		if now.Sub(state.lastUpdateTime) < updateInterval {
			state.updateMu.Unlock()
			return
		}
		state.lastUpdateTime = now
		state.updateMu.Unlock()

		UpdateWidgetOnMainThread(func() {
			state.scopeWidget.UpdateData(frames, welds)
			state.status.Update(frames, welds)
		})
	})

	var bottom fyne.CanvasObject
	if state.useMock {
		bottom = state.console.Container()
	}

	content := container.NewBorder(
		toolbar,
		bottom,
		nil,
		state.status.Container(),
		state.scopeWidget,
	)

	window.SetContent(content)
	window.SetOnClosed(func() {
		closeChain(state.chain)
	})
	window.ShowAndRun()
}

// chain tracks the device and the goroutine recording its frames.
type chain struct {
	device   link.Device
	recorded chan struct{} // closed when the recorder goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	configPath  string
	device      link.Device
	mock        *link.Mock // set while connected to the simulator
	recorder    *history.Recorder
	scopeWidget *scope.ScopeWidget
	status      *statusPanel
	console     *consolePanel
	window      fyne.Window
	connectBtn  *widget.Button
	useMock     bool
	chain       *chain

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the toolbar with Connect and Settings buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	return container.NewHBox(connectBtn, settingsBtn)
}

// closeChain closes the device and waits until the recorder drained its frames.
func closeChain(c *chain) {
	if c == nil {
		return
	}
	if c.device != nil {
		if err := c.device.Close(); err != nil {
			log.Printf("Failed to close device: %v", err)
		}
	}
	if c.recorded != nil {
		<-c.recorded
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		disconnect(state)
		return
	}

	var device link.Device
	if state.useMock {
		state.mock = link.NewMock(state.cfg)
		device = state.mock
	} else {
		baud := state.cfg.Serial.BaudRate
		if baud == 0 {
			baud = link.DefaultBaudRate
		}
		device = link.NewSerial(state.cfg.Serial.Port, baud, link.DefaultBufferSize)
	}

	if err := device.Connect(); err != nil {
		state.mock = nil
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to start simulated welder: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	state.device = device
	if state.useMock {
		fmt.Println("Connected to simulated welder")
	} else {
		fmt.Printf("Connected to serial port: %s\n", state.cfg.Serial.Port)
	}
	state.connectBtn.SetIcon(theme.LogoutIcon())
	state.console.SetEnabled(state.mock != nil)

	// New device, new history
	state.recorder.Reset()

	recorded := make(chan struct{})
	go func() {
		defer close(recorded)
		state.recorder.ProcessFrames(device.Frames())
	}()

	state.chain = &chain{
		device:   device,
		recorded: recorded,
	}
}

func disconnect(state *appState) {
	closeChain(state.chain)
	state.chain = nil
	state.device = nil
	state.mock = nil
	state.connectBtn.SetIcon(theme.LoginIcon())
	state.console.SetEnabled(false)
	if state.useMock {
		fmt.Println("Disconnected from simulated welder")
	} else {
		fmt.Println("Disconnected from serial port")
	}
}
