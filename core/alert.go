package core

import "fmt"

// AlertState is the proximity alert level
type AlertState uint8

const (
	AlertClear AlertState = iota
	AlertCaution
	AlertDanger
)

// Thresholds in centimeters
const (
	DangerBelowCM  = 10.0
	CautionBelowCM = 20.0
)

func (s AlertState) String() string {
	switch s {
	case AlertClear:
		return "clear"
	case AlertCaution:
		return "caution"
	case AlertDanger:
		return "danger"
	default:
		return "unknown"
	}
}

// Classify maps a distance to an alert state.
// No hysteresis: every call depends only on d.
func Classify(d Distance) AlertState {
	switch {
	case d < DangerBelowCM:
		return AlertDanger
	case d < CautionBelowCM:
		return AlertCaution
	default:
		return AlertClear
	}
}

// Outputs returns the indicator levels for the state
func (s AlertState) Outputs() (visual, audible bool) {
	switch s {
	case AlertDanger:
		return true, true
	case AlertCaution:
		return true, false
	default:
		return false, false
	}
}

// AlarmConfig holds indicator wiring
type AlarmConfig struct {
	// LEDs are driven together as one bank, active-high
	LEDs []GPIOPin

	// Buzzer is active-high
	Buzzer GPIOPin
}

// Alarm drives the LED bank and buzzer
type Alarm struct {
	gpio GPIODriver
	cfg  AlarmConfig
}

// NewAlarm creates an alarm output driver
func NewAlarm(gpio GPIODriver, cfg AlarmConfig) *Alarm {
	return &Alarm{gpio: gpio, cfg: cfg}
}

// Configure sets every indicator pin as a low output
func (a *Alarm) Configure() error {
	if err := configureOutputs(a.gpio, a.cfg.LEDs...); err != nil {
		return fmt.Errorf("alarm: led: %w", err)
	}
	if err := configureOutputs(a.gpio, a.cfg.Buzzer); err != nil {
		return fmt.Errorf("alarm: buzzer: %w", err)
	}
	return nil
}

// Drive writes every indicator for state, so none is left at a stale level
func (a *Alarm) Drive(state AlertState) error {
	visual, audible := state.Outputs()
	for _, pin := range a.cfg.LEDs {
		if err := a.gpio.SetPin(pin, visual); err != nil {
			return fmt.Errorf("alarm: led %d: %w", pin, err)
		}
	}
	if err := a.gpio.SetPin(a.cfg.Buzzer, audible); err != nil {
		return fmt.Errorf("alarm: buzzer: %w", err)
	}
	return nil
}
