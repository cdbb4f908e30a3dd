package core

import "errors"

var (
	// ErrInvalidPin is returned for a pin number the platform does not have
	ErrInvalidPin = errors.New("gpio: invalid pin")

	// ErrPinNotConfigured is returned when a pin is used before being configured
	ErrPinNotConfigured = errors.New("gpio: pin not configured")
)

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output
	// Returns error if pin is invalid or already in use
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullDown configures a pin as a digital input with pull-down resistor
	ConfigureInputPullDown(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin state
	GetPin(pin GPIOPin) (bool, error)
}

// configureOutputs configures every pin in pins as a low output.
func configureOutputs(gpio GPIODriver, pins ...GPIOPin) error {
	for _, pin := range pins {
		if err := gpio.ConfigureOutput(pin); err != nil {
			return err
		}
		if err := gpio.SetPin(pin, false); err != nil {
			return err
		}
	}
	return nil
}
