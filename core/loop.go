// Ranging and display control loop
// Init once, then Measure -> Format -> Display -> Classify -> Drive -> Cooldown forever.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
)

// Loop timing in milliseconds
const (
	CooldownMS          = 5000 // between cycles
	PostDisplaySettleMS = 100  // after the label is written
)

// Config holds the wiring of every peripheral the loop drives
type Config struct {
	Ranger RangerConfig
	LCD    LCDConfig
	Alarm  AlarmConfig
}

// Fault records which stages of a cycle failed
type Fault uint8

const (
	FaultRanging Fault = 1 << iota // no measurement this cycle
	FaultDisplay                   // label not shown; measurement still valid
	FaultAlarm                     // outputs not driven; measurement still valid
)

// String joins the failed stage names with '+', empty for none
func (f Fault) String() string {
	var b []byte
	for _, s := range []struct {
		bit  Fault
		name string
	}{{FaultRanging, "ranging"}, {FaultDisplay, "display"}, {FaultAlarm, "alarm"}} {
		if f&s.bit == 0 {
			continue
		}
		if len(b) > 0 {
			b = append(b, '+')
		}
		b = append(b, s.name...)
	}
	return string(b)
}

// Reading is the outcome of one loop cycle
type Reading struct {
	EchoUS   uint32
	Distance Distance
	State    AlertState
	Label    Label

	// Err is nil for a clean cycle; ErrNoEcho when a bounded wait expired
	Err   error
	Fault Fault
}

// Controller owns the peripherals and runs the control loop.
// It must be driven from a single goroutine.
type Controller struct {
	tb     *TimeBase
	ranger *Ranger
	lcd    *LCD
	alarm  *Alarm
	log    *slog.Logger
	ring   TimingRing

	cycles uint32
}

// NewController wires the peripherals to one pin driver and one counter
func NewController(gpio GPIODriver, counter Counter, cfg Config, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	tb := NewTimeBase(counter)
	c := &Controller{
		tb:     tb,
		ranger: NewRanger(gpio, tb, cfg.Ranger),
		lcd:    NewLCD(gpio, tb, cfg.LCD),
		alarm:  NewAlarm(gpio, cfg.Alarm),
		log:    log,
	}
	c.ranger.SetTimingRing(&c.ring)
	return c
}

// Ranger exposes the ranger so targets can swap its trigger pulser
func (c *Controller) Ranger() *Ranger {
	return c.ranger
}

// TimingRing returns the controller's timing event ring
func (c *Controller) TimingRing() *TimingRing {
	return &c.ring
}

// Cycles returns the number of completed cycles
func (c *Controller) Cycles() uint32 {
	return c.cycles
}

// Init configures every pin, brings up the display and clears the outputs
func (c *Controller) Init() error {
	if err := c.ranger.Configure(); err != nil {
		return err
	}
	if err := c.lcd.Configure(); err != nil {
		return err
	}
	if err := c.alarm.Configure(); err != nil {
		return err
	}
	if err := c.lcd.Initialize(); err != nil {
		return err
	}
	if err := c.alarm.Drive(AlertClear); err != nil {
		return err
	}
	return nil
}

// Cycle runs one measure-display-alert iteration
func (c *Controller) Cycle(ctx context.Context) Reading {
	var r Reading

	d, echoUS, err := c.ranger.MeasureDistance()
	switch {
	case err == nil:
		r.EchoUS = echoUS
		r.Distance = d
		r.Label = FormatDistance(d)
		r.State = Classify(d)
	case errors.Is(err, ErrNoEcho):
		r.Err = err
		r.Fault = FaultRanging
		r.Label = NoEchoLabel()
		r.State = AlertClear
	default:
		r.Err = err
		r.Fault = FaultRanging
		r.Label = FaultLabel()
		r.State = AlertClear
	}

	if err := c.lcd.WriteLabel(&r.Label); err != nil {
		r.Err = errors.Join(r.Err, err)
		r.Fault |= FaultDisplay
	}
	c.ring.Record(EvtDisplay, c.tb.Now(), uint32(r.Label.Len()))
	c.tb.DelayMilliseconds(PostDisplaySettleMS)

	if err := c.alarm.Drive(r.State); err != nil {
		r.Err = errors.Join(r.Err, err)
		r.Fault |= FaultAlarm
	}
	c.ring.Record(EvtAlert, c.tb.Now(), uint32(r.State))

	c.cycles++
	c.logReading(ctx, &r)
	return r
}

// Run initializes the peripherals and cycles until ctx is done.
// ctx is only checked between cycles.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.Init(); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	c.log.LogAttrs(ctx, slog.LevelInfo, "ready",
		slog.Int("cooldown_ms", CooldownMS),
		slog.Bool("echo_timeout", c.ranger.cfg.EchoTimeoutUS != 0),
	)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.Cycle(ctx)
		c.tb.DelayMilliseconds(CooldownMS)
	}
}

func (c *Controller) logReading(ctx context.Context, r *Reading) {
	attrs := []slog.Attr{
		slog.Uint64("cycle", uint64(c.cycles)),
		slog.Uint64("echo_us", uint64(r.EchoUS)),
		slog.String("distance_cm", strconv.FormatFloat(float64(r.Distance), 'f', 3, 64)),
		slog.String("state", r.State.String()),
	}
	if r.Err == nil {
		c.log.LogAttrs(ctx, slog.LevelInfo, "cycle", attrs...)
		return
	}
	attrs = append(attrs, slog.String("fault", r.Fault.String()), slog.Any("err", r.Err))
	if r.Fault == FaultRanging && errors.Is(r.Err, ErrNoEcho) {
		c.log.LogAttrs(ctx, slog.LevelWarn, "cycle", attrs...)
		return
	}
	c.log.LogAttrs(ctx, slog.LevelError, "cycle", attrs...)
	c.ring.Dump(ctx, c.log, slog.LevelError)
}
