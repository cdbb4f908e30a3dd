//go:build rp2040

package main

import (
	"machine"

	"rangefinder/core"
)

// RPGPIODriver implements core.GPIODriver over TinyGo's machine package
type RPGPIODriver struct {
	// Track configured pins to prevent conflicts
	configuredPins map[core.GPIOPin]machine.Pin
}

// NewRPGPIODriver creates a new RP2040 GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

// ConfigureOutput configures a pin as a digital output
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if err := checkPin(pin); err != nil {
		return err
	}
	machinePin := machine.Pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.configuredPins[pin] = machinePin
	return nil
}

// ConfigureInputPullDown configures a pin as an input with the pull-down enabled
func (d *RPGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	if err := checkPin(pin); err != nil {
		return err
	}
	machinePin := machine.Pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	d.configuredPins[pin] = machinePin
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		return core.ErrPinNotConfigured
	}
	machinePin.Set(value)
	return nil
}

// GetPin reads the current pin state
func (d *RPGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		return false, core.ErrPinNotConfigured
	}
	return machinePin.Get(), nil
}

// RP2040 has GPIO0-GPIO29
func checkPin(pin core.GPIOPin) error {
	if pin > 29 {
		return core.ErrInvalidPin
	}
	return nil
}
