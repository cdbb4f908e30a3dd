//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x24 // Raw timer high word, no latch
	timerTIMERAWL = timerBase + 0x28 // Raw timer low word, no latch
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// hardwareCounter reads the free-running 1MHz RP2040 timer.
// It satisfies core.Counter.
type hardwareCounter struct{}

// Ticks returns the low 32 bits of the microsecond counter
func (hardwareCounter) Ticks() uint32 {
	return timerRAWL.Get()
}

// uptime reads the full 64-bit timer
func uptime() uint64 {
	// Read high, low, high again to detect a rollover between the reads
	for {
		high1 := timerRAWH.Get()
		low := timerRAWL.Get()
		high2 := timerRAWH.Get()
		if high1 == high2 {
			return (uint64(high1) << 32) | uint64(low)
		}
	}
}
