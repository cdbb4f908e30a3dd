//go:build rp2040

package main

import (
	"machine"

	"rangefinder/core"
)

// Raspberry Pi Pico wiring. The HC-SR04 echo is 5V and must go through a divider.
const (
	pinTrigger = machine.GPIO2
	pinEcho    = machine.GPIO3

	pinLCDRS = machine.GPIO10
	pinLCDEN = machine.GPIO11

	pinBuzzer = machine.GPIO20

	pinDebugTX = machine.GPIO0
	pinDebugRX = machine.GPIO1
	debugBaud  = 115200

	// PIO0 state machine that times the trigger pulse
	triggerSM = 0

	// Echo wait bound in microseconds; 0 waits forever. Set to
	// core.SensorMaxEchoUS to show " No echo" instead of hanging on a dead sensor.
	echoTimeoutUS = 0
)

var (
	pinLCDData = [4]machine.Pin{machine.GPIO6, machine.GPIO7, machine.GPIO8, machine.GPIO9}
	pinLEDs    = []machine.Pin{machine.GPIO12, machine.GPIO13, machine.GPIO14, machine.GPIO15}
)

// boardConfig maps the wiring above onto the controller config
func boardConfig() core.Config {
	ranger := core.DefaultRangerConfig(core.GPIOPin(pinTrigger), core.GPIOPin(pinEcho))
	ranger.EchoTimeoutUS = echoTimeoutUS

	var data [4]core.GPIOPin
	for i, p := range pinLCDData {
		data[i] = core.GPIOPin(p)
	}
	leds := make([]core.GPIOPin, len(pinLEDs))
	for i, p := range pinLEDs {
		leds[i] = core.GPIOPin(p)
	}

	return core.Config{
		Ranger: ranger,
		LCD:    core.LCDConfig{Data: data, RS: core.GPIOPin(pinLCDRS), EN: core.GPIOPin(pinLCDEN)},
		Alarm:  core.AlarmConfig{LEDs: leds, Buzzer: core.GPIOPin(pinBuzzer)},
	}
}
