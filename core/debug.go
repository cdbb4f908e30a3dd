package core

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// DebugWriter is a function type for writing debug messages.
// It satisfies io.Writer so a platform line sink (UART, USB) can back a logger.
type DebugWriter func(string)

// Write passes p to the sink without its trailing newline
func (w DebugWriter) Write(p []byte) (int, error) {
	w(strings.TrimRight(string(p), "\r\n"))
	return len(p), nil
}

// NewLogger returns a text logger writing to w
func NewLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// TimingEvent captures a timing-critical event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Clock     uint32 // Counter value at event
	Value     uint32 // Context-dependent value
}

// Event type codes
const (
	EvtTrigger  = 1 // Trigger pulse sent (value: width us)
	EvtEchoRise = 2 // Echo went high, stopwatch armed
	EvtEchoFall = 3 // Echo went low (value: width us)
	EvtNoEcho   = 4 // Edge wait expired (value: awaited level)
	EvtDisplay  = 5 // Label written (value: length)
	EvtAlert    = 6 // Outputs driven (value: AlertState)
)

const (
	TimingRingSize = 32 // Keep last 32 events for post-mortem
)

// TimingRing keeps the most recent timing events
type TimingRing struct {
	events [TimingRingSize]TimingEvent
	head   uint8 // Next write position
}

// Record captures an event, overwriting the oldest when full
func (r *TimingRing) Record(eventType uint8, clock, value uint32) {
	r.events[r.head] = TimingEvent{
		EventType: eventType,
		Clock:     clock,
		Value:     value,
	}
	r.head = (r.head + 1) % TimingRingSize
}

// Events returns recorded events from oldest to newest
func (r *TimingRing) Events() []TimingEvent {
	out := make([]TimingEvent, 0, TimingRingSize)
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := r.events[(r.head+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		out = append(out, evt)
	}
	return out
}

// Clear empties the ring
func (r *TimingRing) Clear() {
	*r = TimingRing{}
}

// Dump logs the ring contents at level, oldest first.
// Pass the level of the record that prompted the dump so both reach the sink.
func (r *TimingRing) Dump(ctx context.Context, log *slog.Logger, level slog.Level) {
	if log == nil {
		return
	}
	for _, evt := range r.Events() {
		log.LogAttrs(ctx, level, "timing",
			slog.String("event", eventName(evt.EventType)),
			slog.Uint64("clock", uint64(evt.Clock)),
			slog.Uint64("value", uint64(evt.Value)),
		)
	}
}

func eventName(evt uint8) string {
	switch evt {
	case EvtTrigger:
		return "TRIGGER"
	case EvtEchoRise:
		return "ECHO_RISE"
	case EvtEchoFall:
		return "ECHO_FALL"
	case EvtNoEcho:
		return "NO_ECHO!"
	case EvtDisplay:
		return "DISPLAY"
	case EvtAlert:
		return "ALERT"
	default:
		return "UNKNOWN"
	}
}
