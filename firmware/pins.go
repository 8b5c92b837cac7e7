//go:build tinygo

package main

import "machine"

const (
	// Rotary encoder and its push button, pulled up
	PIN_ENCODER_A = machine.GP10
	PIN_ENCODER_B = machine.GP11
	PIN_BUTTON    = machine.GP12

	// Weld trigger switch (foot pedal or handle)
	PIN_TRIGGER = machine.GP13

	// Gate of the weld current switch
	PIN_WELD = machine.GP15

	// Thermistor dividers: ADC0 transformer core, ADC1 electrode tip.
	// The display sits on I2C0 default pins GP4/GP5.
	PIN_NTC_CORE = machine.ADC0
	PIN_NTC_TIP  = machine.ADC1

	// RP2040 ADC readings are scaled to 16 bits, the thermistor model expects 10
	ADC_SHIFT = 6

	WATCHDOG_TIMEOUT_MS = 3000
)
