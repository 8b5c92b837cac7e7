//go:build tinygo

//go:generate tinygo flash -target=pico

package main

import (
	"context"
	"errors"
	"machine"
	"time"

	"github.com/itohio/spotweld/pkg/clock"
	"github.com/itohio/spotweld/pkg/config"
	"github.com/itohio/spotweld/pkg/display"
	"github.com/itohio/spotweld/pkg/telemetry"
	"github.com/itohio/spotweld/pkg/welder"
	"tinygo.org/x/drivers/ssd1306"
)

var errNoChannel = errors.New("no such ADC channel")

// adc maps thermal channels to the thermistor inputs.
type adc []machine.ADC

func (a adc) ReadRaw(ch uint8) (uint16, error) {
	if int(ch) >= len(a) {
		return 0, errNoChannel
	}
	return a[ch].Get() >> ADC_SHIFT, nil
}

func main() {
	cfg := config.Default().Welder()

	PIN_WELD.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_WELD.Low()

	PIN_ENCODER_A.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	PIN_ENCODER_B.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	PIN_BUTTON.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	if cfg.TriggerActiveHigh {
		PIN_TRIGGER.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	} else {
		PIN_TRIGGER.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}

	machine.InitADC()
	sensors := adc{{Pin: PIN_NTC_CORE}, {Pin: PIN_NTC_TIP}}
	for i := range sensors {
		sensors[i].Configure(machine.ADCConfig{})
	}

	machine.I2C0.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz})
	// cold boot needs a moment before the display accepts commands
	time.Sleep(100 * time.Millisecond)
	screen := ssd1306.NewI2C(machine.I2C0)
	screen.Configure(ssd1306.Config{Width: 128, Height: 64, Address: 0x3C, VccState: ssd1306.SWITCHCAPVCC})
	screen.ClearDisplay()

	machine.Watchdog.Configure(machine.WatchdogConfig{
		TimeoutMillis: WATCHDOG_TIMEOUT_MS,
	})

	ctl := welder.New(cfg, welder.Hardware{
		Clock:        clock.NewSystem(),
		ADC:          sensors,
		Output:       PIN_WELD,
		ButtonLevel:  PIN_BUTTON.Get,
		TriggerLevel: PIN_TRIGGER.Get,
	},
		display.New(&screen),
		telemetry.NewWriter(machine.Serial, telemetry.DefaultInterval),
		// every loop iteration presents, including the settle hold
		welder.SinkFunc(func(welder.Snapshot) error {
			machine.Watchdog.Update()
			return nil
		}),
	)

	encoderChanged := func(machine.Pin) {
		ctl.EncoderChanged(PIN_ENCODER_A.Get(), PIN_ENCODER_B.Get())
	}
	must(PIN_ENCODER_A.SetInterrupt(machine.PinToggle, encoderChanged))
	must(PIN_ENCODER_B.SetInterrupt(machine.PinToggle, encoderChanged))
	must(PIN_BUTTON.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		ctl.ButtonEdge()
	}))
	triggerEdge := machine.PinFalling
	if cfg.TriggerActiveHigh {
		triggerEdge = machine.PinRising
	}
	must(PIN_TRIGGER.SetInterrupt(triggerEdge, func(machine.Pin) {
		ctl.TriggerEdge()
	}))

	machine.Watchdog.Start()
	println("spotweld: running")
	if err := ctl.Run(context.Background()); err != nil {
		println("spotweld:", err.Error())
	}
}

func must(err error) {
	if err != nil {
		println("spotweld:", err.Error())
		for {
			time.Sleep(time.Second)
		}
	}
}
