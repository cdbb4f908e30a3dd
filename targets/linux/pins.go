//go:build linux

package main

import "rangefinder/core"

// Raspberry Pi BCM numbering. The HC-SR04 echo is 5V and must go through a divider.
const (
	pinTrigger core.GPIOPin = 23
	pinEcho    core.GPIOPin = 24

	pinLCDRS core.GPIOPin = 25
	pinLCDEN core.GPIOPin = 8

	pinBuzzer core.GPIOPin = 18

	// BCM2835 family exposes GPIO0-GPIO53
	maxBCMPin core.GPIOPin = 53
)

var (
	pinLCDData = [4]core.GPIOPin{7, 12, 16, 20}
	pinLEDs    = []core.GPIOPin{5, 6, 13, 19}
)

// boardConfig maps the wiring above onto the controller config
func boardConfig(echoTimeoutUS uint32) core.Config {
	ranger := core.DefaultRangerConfig(pinTrigger, pinEcho)
	ranger.EchoTimeoutUS = echoTimeoutUS

	return core.Config{
		Ranger: ranger,
		LCD:    core.LCDConfig{Data: pinLCDData, RS: pinLCDRS, EN: pinLCDEN},
		Alarm:  core.AlarmConfig{LEDs: pinLEDs, Buzzer: pinBuzzer},
	}
}
