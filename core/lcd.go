// Character LCD support
// Drives an HD44780-compatible 16x2 display over a 4-bit parallel bus.
// The bus is write-only: busy time is budgeted with fixed settle delays.
package core

import "fmt"

// HD44780 commands
const (
	LCDCmdClear      = 0x01
	LCDCmdEntryMode  = 0x06 // increment, no shift
	LCDCmdDisplayOn  = 0x0C // display on, cursor off, blink off
	LCDCmdSetDDRAM   = 0x80
	LCDLineTwoOffset = 0x40 // DDRAM address of line 2
)

// Bus timing in microseconds
const (
	StrobeWidthUS  = 5    // EN high time
	NibbleSettleUS = 100  // after EN falls, controller latches the nibble
	CharSettleUS   = 50   // after each data byte
	ClearSettleUS  = 2000 // clear/home is the slowest instruction
	InitSettleUS   = 5000 // after each bring-up command
)

// initSequence is the bring-up command sequence. The leading 3s resync the
// controller into 8-bit mode from any state before 2 switches it to 4-bit.
var initSequence = [...]byte{3, 3, 3, 2, 2, LCDCmdClear, LCDCmdEntryMode, LCDCmdDisplayOn, LCDCmdSetDDRAM}

// InitSequence returns a copy of the bring-up command sequence
func InitSequence() [len(initSequence)]byte {
	return initSequence
}

// LCDConfig holds display wiring
type LCDConfig struct {
	// Data pins D4..D7; nibble bit i goes to Data[i]
	Data [4]GPIOPin

	// RS selects command (low) or data (high)
	RS GPIOPin

	// EN latches the nibble on its falling edge
	EN GPIOPin
}

// LCD is a 4-bit HD44780 driver
type LCD struct {
	gpio GPIODriver
	tb   *TimeBase
	cfg  LCDConfig

	// Current register-select level (true = data)
	rsData bool
}

// NewLCD creates a display driver; call Configure then Initialize before use
func NewLCD(gpio GPIODriver, tb *TimeBase, cfg LCDConfig) *LCD {
	return &LCD{gpio: gpio, tb: tb, cfg: cfg}
}

// SplitNibbles splits b into its high and low 4-bit halves, in transfer order
func SplitNibbles(b byte) (hi, lo byte) {
	return b >> 4, b & 0x0F
}

// Configure sets all bus pins as low outputs
func (l *LCD) Configure() error {
	d := l.cfg.Data
	if err := configureOutputs(l.gpio, d[0], d[1], d[2], d[3], l.cfg.RS, l.cfg.EN); err != nil {
		return fmt.Errorf("lcd: configure: %w", err)
	}
	l.rsData = false
	return nil
}

// Initialize sends the fixed bring-up sequence
func (l *LCD) Initialize() error {
	for _, cmd := range initSequence {
		if err := l.WriteCommand(cmd); err != nil {
			return fmt.Errorf("lcd: init 0x%02x: %w", cmd, err)
		}
		l.tb.DelayMicroseconds(InitSettleUS)
	}
	return nil
}

// WriteCommand sends b with RS low
func (l *LCD) WriteCommand(b byte) error {
	l.rsData = false
	return l.writeByte(b)
}

// WriteChar sends b with RS high
func (l *LCD) WriteChar(b byte) error {
	l.rsData = true
	if err := l.writeByte(b); err != nil {
		return err
	}
	l.tb.DelayMicroseconds(CharSettleUS)
	return nil
}

// Clear blanks the display and homes the cursor
func (l *LCD) Clear() error {
	if err := l.WriteCommand(LCDCmdClear); err != nil {
		return err
	}
	l.tb.DelayMicroseconds(ClearSettleUS)
	return nil
}

// SetCursor moves the write position to line, column
func (l *LCD) SetCursor(line, column uint8) error {
	if line >= LCDRows {
		line = LCDRows - 1
	}
	if column >= LCDColumns {
		column = LCDColumns - 1
	}
	return l.WriteCommand(LCDCmdSetDDRAM | (line*LCDLineTwoOffset + column))
}

// WriteText clears the display and writes text, wrapping onto line 2
// after 16 characters and dropping anything past 32
func (l *LCD) WriteText(text string) error {
	label := NewLabel(text)
	return l.WriteLabel(&label)
}

// WriteLabel clears the display and writes each line of the label
func (l *LCD) WriteLabel(label *Label) error {
	if err := l.Clear(); err != nil {
		return err
	}
	for row := 0; row < LCDRows; row++ {
		line := label.Line(row)
		if len(line) == 0 {
			break
		}
		if row > 0 {
			if err := l.SetCursor(uint8(row), 0); err != nil {
				return err
			}
		}
		for _, c := range line {
			if c < 0x20 || c > 0x7E {
				c = '?'
			}
			if err := l.WriteChar(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeByte transfers b as two nibbles, high first
func (l *LCD) writeByte(b byte) error {
	hi, lo := SplitNibbles(b)
	if err := l.write4Bits(hi); err != nil {
		return err
	}
	return l.write4Bits(lo)
}

func (l *LCD) write4Bits(nibble byte) error {
	for i, pin := range l.cfg.Data {
		if err := l.gpio.SetPin(pin, nibble&(1<<uint(i)) != 0); err != nil {
			return err
		}
	}
	if err := l.gpio.SetPin(l.cfg.RS, l.rsData); err != nil {
		return err
	}
	return l.strobe()
}

func (l *LCD) strobe() error {
	if err := l.gpio.SetPin(l.cfg.EN, true); err != nil {
		return err
	}
	l.tb.DelayMicroseconds(StrobeWidthUS)
	if err := l.gpio.SetPin(l.cfg.EN, false); err != nil {
		return err
	}
	l.tb.DelayMicroseconds(NibbleSettleUS)
	return nil
}
