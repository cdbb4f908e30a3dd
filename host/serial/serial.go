package serial

import (
	"errors"
	"io"
)

// Port is the read side of the firmware's log UART.
// Native ports use github.com/tarm/serial; tests substitute a reader.
type Port interface {
	io.ReadCloser

	// Flush discards anything the driver buffered before we started reading
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate of the firmware debug UART
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultBaud matches the firmware debug UART
const DefaultBaud = 115200

var (
	ErrNoDevice = errors.New("serial: no device given")
	ErrBadBaud  = errors.New("serial: baud rate must be positive")
)

// DefaultConfig returns the configuration the firmware log UART expects
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100,
	}
}

// Validate reports the first unusable field
func (c *Config) Validate() error {
	if c.Device == "" {
		return ErrNoDevice
	}
	if c.Baud <= 0 {
		return ErrBadBaud
	}
	return nil
}
