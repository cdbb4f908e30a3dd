//go:build rp2040

package pio

// PIO trigger pulser using tinygo-org/pio
// The state machine times the trigger high phase so the pulse width does not
// depend on how long the CPU spends between two GPIO writes.

import (
	"errors"
	"machine"

	"rangefinder/core"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// PIO program for a single trigger pulse, clocked at 1 cycle per microsecond.
// Command word: high time in cycles minus two (the two SET instructions).
func buildTriggerProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}

	return []uint16{
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestX, 32).Encode(),   // 1: out x, 32 (hold cycles)
		asm.Set(rp2pio.SetDestPins, 1).Encode(), // 2: set pins, 1
		asm.Jmp(3, rp2pio.JmpXNZeroDec).Encode(), // 3: jmp x--, 3
		asm.Set(rp2pio.SetDestPins, 0).Encode(), // 4: set pins, 0
		// .wrap
	}
}

const triggerPIOOrigin = 0 // Load at offset 0 for correct jump addresses

// ErrNoStateMachine is returned when the requested state machine is taken
var ErrNoStateMachine = errors.New("pio: state machine already claimed")

// Trigger drives the ranger trigger line from a PIO state machine.
// It satisfies core.TriggerPulser.
type Trigger struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pin    machine.Pin
	tb     *core.TimeBase
	offset uint8
	loaded bool
}

var _ core.TriggerPulser = (*Trigger)(nil)

// NewTrigger creates a pulser on pin using state machine smNum of PIO0.
// tb is used to wait out each pulse so callers see it finished.
func NewTrigger(pin machine.Pin, smNum uint8, tb *core.TimeBase) *Trigger {
	return &Trigger{
		pio: rp2pio.PIO0,
		sm:  rp2pio.PIO0.StateMachine(smNum),
		pin: pin,
		tb:  tb,
	}
}

// Configure claims the state machine and hands the pin to PIO.
// Safe to call again after a restart; the program is loaded once.
func (t *Trigger) Configure() error {
	if !t.loaded {
		if !t.sm.TryClaim() {
			return ErrNoStateMachine
		}
		offset, err := t.pio.AddProgram(buildTriggerProgram(), triggerPIOOrigin)
		if err != nil {
			return err
		}
		t.offset = offset
		t.loaded = true
	}

	t.pin.Configure(machine.PinConfig{Mode: t.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(t.pin, 1)
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(t.offset+uint8(len(buildTriggerProgram()))-1, t.offset)

	// One PIO cycle per microsecond
	cfg.SetClkDivIntFrac(uint16(machine.CPUFrequency()/core.TimerFreq), 0)

	// Init must come before pin directions
	t.sm.SetEnabled(false)
	t.sm.Init(t.offset, cfg)
	t.sm.SetPindirsConsecutive(t.pin, 1, true)
	t.sm.SetPinsConsecutive(t.pin, 1, false)
	t.sm.SetEnabled(true)
	return nil
}

// Pulse queues one pulse of widthUS and waits until it has ended
func (t *Trigger) Pulse(widthUS uint32) error {
	if !t.loaded {
		return errors.New("pio: trigger not configured")
	}
	hold := uint32(0)
	if widthUS > 2 {
		hold = widthUS - 2
	}
	for t.sm.IsTxFIFOFull() {
	}
	t.sm.TxPut(hold)

	// Pull and out take two cycles before the pin rises
	t.tb.DelayMicroseconds(widthUS + 2)
	return nil
}
