package core

import (
	"errors"
	"math"
	"testing"

	"tinygo.org/x/drivers"
)

func newTestRanger(t *testing.T, cfg RangerConfig) (*Ranger, *rig) {
	t.Helper()
	r := newRig(1)
	ranger := NewRanger(r.gpio, NewTimeBase(r.clock), cfg)
	if err := ranger.Configure(); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	return ranger, r
}

func TestEchoToDistance(t *testing.T) {
	tests := []struct {
		echoUS   uint32
		expected float64
	}{
		{0, 0},
		{583, 0.99984},
		{5830, 9.99845},
		{11660, 19.9969},
		{23324, 40.00066},
	}

	for _, tt := range tests {
		got := float64(EchoToDistance(tt.echoUS))
		if math.Abs(got-tt.expected) > 1e-3 {
			t.Errorf("EchoToDistance(%d) = %v, expected %v", tt.echoUS, got, tt.expected)
		}
	}
}

func TestMeasureDistanceEndToEnd(t *testing.T) {
	// 0.00343 cm/us round trip puts the 10 cm and 20 cm boundaries at
	// 5830.9 us and 11661.8 us, so 5830 and 11660 still fall just short.
	tests := []struct {
		echoUS   uint32
		label    string
		expected AlertState
	}{
		{583, " Distance: 1.000", AlertDanger},
		{5830, " Distance: 9.998", AlertDanger},
		{5831, " Distance: 10.000", AlertCaution},
		{11660, " Distance: 19.997", AlertCaution},
		{11662, " Distance: 20.000", AlertClear},
	}

	for _, tt := range tests {
		ranger, r := newTestRanger(t, DefaultRangerConfig(pinTrigger, pinEcho))
		r.sensor.echoUS = tt.echoUS

		d, us, err := ranger.MeasureDistance()
		if err != nil {
			t.Fatalf("echo %dus: MeasureDistance failed: %v", tt.echoUS, err)
		}
		if us != tt.echoUS {
			t.Errorf("echo %dus: measured %dus", tt.echoUS, us)
		}
		if d != EchoToDistance(tt.echoUS) {
			t.Errorf("echo %dus: distance %v, expected %v", tt.echoUS, d, EchoToDistance(tt.echoUS))
		}
		label := FormatDistance(d)
		if label.String() != tt.label {
			t.Errorf("echo %dus: label %q, expected %q", tt.echoUS, label.String(), tt.label)
		}
		if got := Classify(d); got != tt.expected {
			t.Errorf("echo %dus: state %v, expected %v", tt.echoUS, got, tt.expected)
		}
	}
}

func TestTriggerPulse(t *testing.T) {
	ranger, r := newTestRanger(t, DefaultRangerConfig(pinTrigger, pinEcho))
	r.sensor.echoUS = 583

	if _, _, err := ranger.MeasureDistance(); err != nil {
		t.Fatalf("MeasureDistance failed: %v", err)
	}

	writes := r.gpio.writesTo(pinTrigger)
	// Configure drives low, then the pulse goes high and low
	if len(writes) != 3 || writes[0] || !writes[1] || writes[2] {
		t.Errorf("Unexpected trigger writes: %v", writes)
	}
	width := r.sensor.triggerLow - r.sensor.triggerHigh
	if width < TriggerPulseUS || width > TriggerPulseUS+3 {
		t.Errorf("Trigger pulse width %dus, expected %dus", width, TriggerPulseUS)
	}
	if !r.gpio.outputs[pinTrigger] || !r.gpio.inputs[pinEcho] {
		t.Error("Expected trigger output and echo input to be configured")
	}
}

func TestMeasureDistanceOrdering(t *testing.T) {
	ranger, r := newTestRanger(t, DefaultRangerConfig(pinTrigger, pinEcho))
	var ring TimingRing
	ranger.SetTimingRing(&ring)
	r.sensor.echoUS = 1000

	if _, _, err := ranger.MeasureDistance(); err != nil {
		t.Fatalf("MeasureDistance failed: %v", err)
	}

	events := ring.Events()
	expected := []uint8{EvtTrigger, EvtEchoRise, EvtEchoFall}
	if len(events) != len(expected) {
		t.Fatalf("Expected %d events, got %+v", len(expected), events)
	}
	for i, evt := range events {
		if evt.EventType != expected[i] {
			t.Errorf("Event %d = %s, expected %s", i, eventName(evt.EventType), eventName(expected[i]))
		}
		if i > 0 && evt.Clock <= events[i-1].Clock {
			t.Errorf("Event %d clock %d not after %d", i, evt.Clock, events[i-1].Clock)
		}
	}
	if events[0].Clock > r.sensor.riseAt {
		t.Error("Trigger recorded after the echo rose")
	}
	if events[2].Value != 1000 {
		t.Errorf("Echo fall recorded width %d, expected 1000", events[2].Value)
	}
}

func TestEchoTimeoutWithoutRise(t *testing.T) {
	cfg := DefaultRangerConfig(pinTrigger, pinEcho)
	cfg.EchoTimeoutUS = 2000
	ranger, r := newTestRanger(t, cfg)
	var ring TimingRing
	ranger.SetTimingRing(&ring)
	r.sensor.echoUS = 0

	start := r.clock.total
	_, _, err := ranger.MeasureDistance()
	if !errors.Is(err, ErrNoEcho) {
		t.Fatalf("Expected ErrNoEcho, got %v", err)
	}
	if r.clock.total-start < 2000 {
		t.Errorf("Gave up after %d ticks, expected at least 2000", r.clock.total-start)
	}
	if ranger.tb.Armed() {
		t.Error("Stopwatch left armed")
	}

	events := ring.Events()
	last := events[len(events)-1]
	if last.EventType != EvtNoEcho || last.Value != 1 {
		t.Errorf("Expected NO_ECHO waiting for high, got %+v", last)
	}
}

func TestEchoTimeoutStuckHigh(t *testing.T) {
	cfg := DefaultRangerConfig(pinTrigger, pinEcho)
	cfg.EchoTimeoutUS = SensorMaxEchoUS
	ranger, r := newTestRanger(t, cfg)
	r.sensor.stuck = true

	_, _, err := ranger.MeasureDistance()
	if !errors.Is(err, ErrNoEcho) {
		t.Fatalf("Expected ErrNoEcho, got %v", err)
	}
	if ranger.tb.Armed() {
		t.Error("Stopwatch left armed after falling-edge timeout")
	}

	// Next attempt starts a fresh stopwatch
	r.sensor.stuck = false
	r.sensor.echoUS = 583
	if _, _, err := ranger.MeasureDistance(); err != nil {
		t.Errorf("Measurement after timeout failed: %v", err)
	}
}

func TestUpdateNeverReusesStaleReading(t *testing.T) {
	cfg := DefaultRangerConfig(pinTrigger, pinEcho)
	cfg.EchoTimeoutUS = 1000
	ranger, r := newTestRanger(t, cfg)

	r.sensor.echoUS = 500
	if err := ranger.Update(drivers.Distance); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if ranger.Distance() == 0 || ranger.EchoMicroseconds() == 0 {
		t.Fatalf("Expected a cached reading, got %v / %dus", ranger.Distance(), ranger.EchoMicroseconds())
	}

	r.sensor.echoUS = 0
	if err := ranger.Update(drivers.Distance); !errors.Is(err, ErrNoEcho) {
		t.Fatalf("Expected ErrNoEcho, got %v", err)
	}
	if ranger.Distance() != 0 || ranger.EchoMicroseconds() != 0 {
		t.Errorf("Stale reading kept after failure: %v / %dus", ranger.Distance(), ranger.EchoMicroseconds())
	}
}

func TestUpdateIgnoresOtherMeasurements(t *testing.T) {
	ranger, r := newTestRanger(t, DefaultRangerConfig(pinTrigger, pinEcho))
	r.gpio.writes = nil

	if err := ranger.Update(drivers.Temperature | drivers.Humidity); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(r.gpio.writes) != 0 {
		t.Errorf("Expected no pin activity, got %v", r.gpio.writes)
	}
}

func TestMeasureDistancePinErrors(t *testing.T) {
	errPin := errors.New("pin fault")

	ranger, r := newTestRanger(t, DefaultRangerConfig(pinTrigger, pinEcho))
	r.gpio.getErr = errPin
	_, _, err := ranger.MeasureDistance()
	if !errors.Is(err, errPin) || errors.Is(err, ErrNoEcho) {
		t.Errorf("Expected wrapped pin fault, got %v", err)
	}

	ranger, r = newTestRanger(t, DefaultRangerConfig(pinTrigger, pinEcho))
	r.gpio.setErr[pinTrigger] = errPin
	if _, _, err := ranger.MeasureDistance(); !errors.Is(err, errPin) {
		t.Errorf("Expected wrapped trigger fault, got %v", err)
	}
}

type countingPulser struct {
	configured int
	widths     []uint32
}

func (p *countingPulser) Configure() error {
	p.configured++
	return nil
}

func (p *countingPulser) Pulse(widthUS uint32) error {
	p.widths = append(p.widths, widthUS)
	return nil
}

func TestSetPulser(t *testing.T) {
	cfg := DefaultRangerConfig(pinTrigger, pinEcho)
	cfg.EchoTimeoutUS = 500
	r := newRig(1)
	ranger := NewRanger(r.gpio, NewTimeBase(r.clock), cfg)

	p := &countingPulser{}
	ranger.SetPulser(p)
	if err := ranger.Configure(); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}
	if p.configured != 1 {
		t.Errorf("Expected the pulser to be configured once, got %d", p.configured)
	}
	if r.gpio.outputs[pinTrigger] {
		t.Error("Trigger pin claimed as GPIO output despite a custom pulser")
	}
	if _, _, err := ranger.MeasureDistance(); !errors.Is(err, ErrNoEcho) {
		t.Errorf("Expected ErrNoEcho with a pulser that never reaches the sensor, got %v", err)
	}
	if len(p.widths) != 1 || p.widths[0] != TriggerPulseUS {
		t.Errorf("Expected one %dus pulse, got %v", TriggerPulseUS, p.widths)
	}
}
