// Ultrasonic ranging support
// Measures the echo pulse of an HC-SR04 class sensor and converts it to distance
package core

import (
	"errors"
	"fmt"

	"tinygo.org/x/drivers"
)

// Distance is a measured distance in centimeters
type Distance float64

const (
	// TriggerPulseUS is the trigger high time the sensor needs to fire a burst
	TriggerPulseUS = 10

	// SpeedOfSoundCMPerUS is the speed of sound in cm per microsecond
	SpeedOfSoundCMPerUS = 0.00343

	// SensorMaxEchoUS is the echo width an HC-SR04 reports when nothing answers.
	// A sensible value for RangerConfig.EchoTimeoutUS.
	SensorMaxEchoUS = 38000
)

// ErrNoEcho is returned when a bounded edge wait expires
var ErrNoEcho = errors.New("no echo")

// EchoToDistance converts a round-trip echo width to distance
func EchoToDistance(echoUS uint32) Distance {
	return Distance(SpeedOfSoundCMPerUS * float64(echoUS) / 2)
}

// TriggerPulser emits a single active-high pulse on the trigger line
type TriggerPulser interface {
	// Configure claims the trigger pin and leaves it low
	Configure() error

	Pulse(widthUS uint32) error
}

// GPIOPulser bit-bangs the trigger pulse with a busy-wait hold
type GPIOPulser struct {
	gpio GPIODriver
	tb   *TimeBase
	pin  GPIOPin
}

// NewGPIOPulser creates a pulser on pin
func NewGPIOPulser(gpio GPIODriver, tb *TimeBase, pin GPIOPin) *GPIOPulser {
	return &GPIOPulser{gpio: gpio, tb: tb, pin: pin}
}

// Configure sets the trigger pin as a low output
func (p *GPIOPulser) Configure() error {
	return configureOutputs(p.gpio, p.pin)
}

// Pulse drives the pin high for widthUS then low
func (p *GPIOPulser) Pulse(widthUS uint32) error {
	if err := p.gpio.SetPin(p.pin, true); err != nil {
		return err
	}
	p.tb.DelayMicroseconds(widthUS)
	return p.gpio.SetPin(p.pin, false)
}

// RangerConfig holds sensor wiring
type RangerConfig struct {
	Trigger GPIOPin
	Echo    GPIOPin

	// EchoTimeoutUS bounds each echo edge wait. Zero waits forever, which
	// hangs the loop if the sensor never answers.
	EchoTimeoutUS uint32
}

// DefaultRangerConfig returns a config with unbounded echo waits
func DefaultRangerConfig(trigger, echo GPIOPin) RangerConfig {
	return RangerConfig{
		Trigger: trigger,
		Echo:    echo,
	}
}

// Ranger runs the pulse-echo measurement.
// It satisfies drivers.Sensor for the drivers.Distance measurement.
type Ranger struct {
	gpio   GPIODriver
	tb     *TimeBase
	cfg    RangerConfig
	pulser TriggerPulser
	ring   *TimingRing

	// Result of the last Update; zero when it failed
	distance Distance
	echoUS   uint32
}

var _ drivers.Sensor = (*Ranger)(nil)

// NewRanger creates a ranger that bit-bangs its trigger pulse
func NewRanger(gpio GPIODriver, tb *TimeBase, cfg RangerConfig) *Ranger {
	return &Ranger{
		gpio:   gpio,
		tb:     tb,
		cfg:    cfg,
		pulser: NewGPIOPulser(gpio, tb, cfg.Trigger),
	}
}

// SetPulser replaces the trigger pulse generator (e.g. a PIO state machine).
// Call before Configure.
func (r *Ranger) SetPulser(p TriggerPulser) {
	r.pulser = p
}

// SetTimingRing records trigger and echo edges into ring
func (r *Ranger) SetTimingRing(ring *TimingRing) {
	r.ring = ring
}

// Configure prepares the trigger pulser and sets echo as an input
func (r *Ranger) Configure() error {
	if err := r.pulser.Configure(); err != nil {
		return fmt.Errorf("ranger: trigger pin: %w", err)
	}
	if err := r.gpio.ConfigureInputPullDown(r.cfg.Echo); err != nil {
		return fmt.Errorf("ranger: echo pin: %w", err)
	}
	return nil
}

// MeasureDistance fires one trigger pulse and times the echo.
// Returns the distance and the raw echo width in microseconds.
func (r *Ranger) MeasureDistance() (Distance, uint32, error) {
	if err := r.pulser.Pulse(TriggerPulseUS); err != nil {
		return 0, 0, fmt.Errorf("ranger: trigger: %w", err)
	}
	r.record(EvtTrigger, TriggerPulseUS)

	// Keep interrupt handlers from stretching the measured echo on MCUs
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if err := r.waitEcho(true); err != nil {
		return 0, 0, err
	}
	if err := r.tb.StartStopwatch(); err != nil {
		return 0, 0, fmt.Errorf("ranger: %w", err)
	}
	r.record(EvtEchoRise, 0)

	if err := r.waitEcho(false); err != nil {
		_, _ = r.tb.StopStopwatch()
		return 0, 0, err
	}
	ticks, err := r.tb.StopStopwatch()
	if err != nil {
		return 0, 0, fmt.Errorf("ranger: %w", err)
	}

	echoUS := TimerToUS(ticks)
	r.record(EvtEchoFall, echoUS)
	return EchoToDistance(echoUS), echoUS, nil
}

// Update performs a measurement if which includes drivers.Distance.
// A failed measurement clears the previous result.
func (r *Ranger) Update(which drivers.Measurement) error {
	if which&drivers.Distance == 0 {
		return nil
	}
	r.distance, r.echoUS = 0, 0
	d, us, err := r.MeasureDistance()
	if err != nil {
		return err
	}
	r.distance, r.echoUS = d, us
	return nil
}

// Distance returns the distance from the last successful Update
func (r *Ranger) Distance() Distance {
	return r.distance
}

// EchoMicroseconds returns the echo width from the last successful Update
func (r *Ranger) EchoMicroseconds() uint32 {
	return r.echoUS
}

// waitEcho spins until the echo pin reads level
func (r *Ranger) waitEcho(level bool) error {
	begin := r.tb.Now()
	for {
		v, err := r.gpio.GetPin(r.cfg.Echo)
		if err != nil {
			return fmt.Errorf("ranger: echo read: %w", err)
		}
		if v == level {
			return nil
		}
		if r.cfg.EchoTimeoutUS != 0 && r.tb.Now()-begin >= TimerFromUS(r.cfg.EchoTimeoutUS) {
			r.record(EvtNoEcho, boolToU32(level))
			return ErrNoEcho
		}
	}
}

func (r *Ranger) record(evt uint8, value uint32) {
	if r.ring != nil {
		r.ring.Record(evt, r.tb.Now(), value)
	}
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
