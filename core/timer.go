package core

import (
	"errors"
	"time"
)

// Timer frequency of the microsecond counter
const (
	TimerFreq = 1000000 // 1MHz, 1 tick = 1us
)

var (
	// ErrStopwatchArmed is returned when the stopwatch is started twice
	ErrStopwatchArmed = errors.New("stopwatch already running")

	// ErrStopwatchIdle is returned when stopping a stopwatch that was never started
	ErrStopwatchIdle = errors.New("stopwatch not running")
)

// Counter is a free-running microsecond counter.
// It wraps modulo 2^32; callers only ever use differences.
type Counter interface {
	Ticks() uint32
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return uint32(uint64(us) * TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return uint32(uint64(ticks) * 1000000 / TimerFreq)
}

// SystemCounter derives ticks from the runtime's monotonic clock.
// Used on hosted targets and wherever no hardware timer is exposed.
type SystemCounter struct {
	epoch time.Time
}

// NewSystemCounter returns a counter starting at zero now
func NewSystemCounter() *SystemCounter {
	return &SystemCounter{epoch: time.Now()}
}

// Ticks returns microseconds since the counter was created
func (c *SystemCounter) Ticks() uint32 {
	return uint32(time.Since(c.epoch).Microseconds())
}

// TimeBase provides busy-wait delays and a single stopwatch over one counter.
// Not safe for concurrent use: there is one stopwatch and it is used serially.
type TimeBase struct {
	counter Counter

	start uint32
	armed bool
}

// NewTimeBase creates a time base reading from counter
func NewTimeBase(counter Counter) *TimeBase {
	return &TimeBase{counter: counter}
}

// Now returns the current counter value in ticks
func (tb *TimeBase) Now() uint32 {
	return tb.counter.Ticks()
}

// DelayMicroseconds spins until at least us microseconds have elapsed
func (tb *TimeBase) DelayMicroseconds(us uint32) {
	if us == 0 {
		return
	}
	ticks := TimerFromUS(us)
	begin := tb.counter.Ticks()
	for tb.counter.Ticks()-begin < ticks {
	}
}

// DelayMilliseconds spins for ms milliseconds
func (tb *TimeBase) DelayMilliseconds(ms uint32) {
	// Split so ms*1000 never overflows the counter range
	const chunk = 1000000
	for ms > chunk {
		tb.DelayMicroseconds(chunk * 1000)
		ms -= chunk
	}
	tb.DelayMicroseconds(ms * 1000)
}

// StartStopwatch resets and arms the stopwatch
func (tb *TimeBase) StartStopwatch() error {
	if tb.armed {
		return ErrStopwatchArmed
	}
	tb.start = tb.counter.Ticks()
	tb.armed = true
	return nil
}

// Elapsed returns ticks since StartStopwatch without stopping it
func (tb *TimeBase) Elapsed() uint32 {
	if !tb.armed {
		return 0
	}
	return tb.counter.Ticks() - tb.start
}

// StopStopwatch disarms the stopwatch and returns the elapsed ticks
func (tb *TimeBase) StopStopwatch() (uint32, error) {
	if !tb.armed {
		return 0, ErrStopwatchIdle
	}
	ticks := tb.counter.Ticks() - tb.start
	tb.armed = false
	tb.start = 0
	return ticks, nil
}

// Armed reports whether the stopwatch is running
func (tb *TimeBase) Armed() bool {
	return tb.armed
}
