//go:build linux && periph

package main

import (
	"fmt"
	"strconv"

	"rangefinder/core"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// periphDriver implements core.GPIODriver through periph.io's pin registry
type periphDriver struct {
	configuredPins map[core.GPIOPin]gpio.PinIO
}

// openGPIO loads the periph host drivers. Nothing needs releasing.
func openGPIO() (core.GPIODriver, func() error, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("periph: %w", err)
	}
	d := &periphDriver{configuredPins: make(map[core.GPIOPin]gpio.PinIO)}
	return d, func() error { return nil }, nil
}

func (d *periphDriver) lookup(pin core.GPIOPin) (gpio.PinIO, error) {
	if pin > maxBCMPin {
		return nil, core.ErrInvalidPin
	}
	p := gpioreg.ByName("GPIO" + strconv.Itoa(int(pin)))
	if p == nil {
		return nil, fmt.Errorf("periph: GPIO%d: %w", pin, core.ErrInvalidPin)
	}
	return p, nil
}

func (d *periphDriver) ConfigureOutput(pin core.GPIOPin) error {
	p, err := d.lookup(pin)
	if err != nil {
		return err
	}
	if err := p.Out(gpio.Low); err != nil {
		return err
	}
	d.configuredPins[pin] = p
	return nil
}

func (d *periphDriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	p, err := d.lookup(pin)
	if err != nil {
		return err
	}
	if err := p.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return err
	}
	d.configuredPins[pin] = p
	return nil
}

func (d *periphDriver) SetPin(pin core.GPIOPin, value bool) error {
	p, ok := d.configuredPins[pin]
	if !ok {
		return core.ErrPinNotConfigured
	}
	return p.Out(gpio.Level(value))
}

func (d *periphDriver) GetPin(pin core.GPIOPin) (bool, error) {
	p, ok := d.configuredPins[pin]
	if !ok {
		return false, core.ErrPinNotConfigured
	}
	return bool(p.Read()), nil
}
