//go:build linux && !periph

package main

import (
	"fmt"

	"rangefinder/core"

	"github.com/stianeikeland/go-rpio/v4"
)

// rpioDriver implements core.GPIODriver through /dev/gpiomem register access
type rpioDriver struct {
	configuredPins map[core.GPIOPin]rpio.Pin
}

// openGPIO maps the GPIO registers. The returned func releases them.
func openGPIO() (core.GPIODriver, func() error, error) {
	if err := rpio.Open(); err != nil {
		return nil, nil, fmt.Errorf("rpio: %w", err)
	}
	d := &rpioDriver{configuredPins: make(map[core.GPIOPin]rpio.Pin)}
	return d, rpio.Close, nil
}

func (d *rpioDriver) ConfigureOutput(pin core.GPIOPin) error {
	if pin > maxBCMPin {
		return core.ErrInvalidPin
	}
	p := rpio.Pin(pin)
	p.Output()
	d.configuredPins[pin] = p
	return nil
}

func (d *rpioDriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	if pin > maxBCMPin {
		return core.ErrInvalidPin
	}
	p := rpio.Pin(pin)
	p.Input()
	p.PullDown()
	d.configuredPins[pin] = p
	return nil
}

func (d *rpioDriver) SetPin(pin core.GPIOPin, value bool) error {
	p, ok := d.configuredPins[pin]
	if !ok {
		return core.ErrPinNotConfigured
	}
	if value {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

func (d *rpioDriver) GetPin(pin core.GPIOPin) (bool, error) {
	p, ok := d.configuredPins[pin]
	if !ok {
		return false, core.ErrPinNotConfigured
	}
	return p.Read() == rpio.High, nil
}
