package core

import "strconv"

// Display geometry
const (
	LCDColumns = 16
	LCDRows    = 2

	// LabelCapacity is the most text the display can hold at once
	LabelCapacity = LCDColumns * LCDRows
)

const (
	distancePrefix = " Distance: "
	noEchoText     = " No echo"
	faultText      = " Sensor fault"
)

// Label is a bounded piece of display text.
// Appends past LabelCapacity are dropped and reported via Truncated.
type Label struct {
	buf       [LabelCapacity]byte
	n         int
	truncated bool
}

// NewLabel builds a label from s, truncating at LabelCapacity
func NewLabel(s string) Label {
	var l Label
	l.AppendString(s)
	return l
}

// AppendString appends s, keeping only what fits
func (l *Label) AppendString(s string) {
	for i := 0; i < len(s); i++ {
		l.AppendByte(s[i])
	}
}

// AppendByte appends a single byte if there is room
func (l *Label) AppendByte(b byte) {
	if l.n >= LabelCapacity {
		l.truncated = true
		return
	}
	l.buf[l.n] = b
	l.n++
}

// Len returns the number of bytes held
func (l *Label) Len() int {
	return l.n
}

// Truncated reports whether any append was dropped
func (l *Label) Truncated() bool {
	return l.truncated
}

// Bytes returns the label contents
func (l *Label) Bytes() []byte {
	return l.buf[:l.n]
}

// String returns the label contents as a string
func (l *Label) String() string {
	return string(l.buf[:l.n])
}

// Line returns the part of the label shown on display row i
func (l *Label) Line(i int) []byte {
	lo := i * LCDColumns
	if i < 0 || lo >= l.n {
		return nil
	}
	hi := lo + LCDColumns
	if hi > l.n {
		hi = l.n
	}
	return l.buf[lo:hi]
}

// FormatDistance renders d as " Distance: %.3f" into a label
func FormatDistance(d Distance) Label {
	var num [24]byte
	l := NewLabel(distancePrefix)
	for _, b := range strconv.AppendFloat(num[:0], float64(d), 'f', 3, 64) {
		l.AppendByte(b)
	}
	return l
}

// NoEchoLabel is shown when a bounded echo wait expires
func NoEchoLabel() Label {
	return NewLabel(noEchoText)
}

// FaultLabel is shown when the sensor pins could not be driven or read
func FaultLabel() Label {
	return NewLabel(faultText)
}
