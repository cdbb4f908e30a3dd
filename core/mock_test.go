package core

import "math"

// Wiring used by the tests, matching the LPC1768 board the loop was first built for
const (
	pinTrigger GPIOPin = 15
	pinEcho    GPIOPin = 16
	pinBuzzer  GPIOPin = 22
	pinRS      GPIOPin = 27
	pinEN      GPIOPin = 28
)

var (
	pinsData = [4]GPIOPin{23, 24, 25, 26}
	pinsLED  = []GPIOPin{4, 5, 6, 7, 8, 9, 10, 11}
)

func testConfig() Config {
	return Config{
		Ranger: DefaultRangerConfig(pinTrigger, pinEcho),
		LCD:    LCDConfig{Data: pinsData, RS: pinRS, EN: pinEN},
		Alarm:  AlarmConfig{LEDs: pinsLED, Buzzer: pinBuzzer},
	}
}

// simClock advances by step on every read
type simClock struct {
	now   uint32
	step  uint32
	total uint64
}

func (c *simClock) Ticks() uint32 {
	c.now += c.step
	c.total += uint64(c.step)
	return c.now
}

type pinWrite struct {
	pin   GPIOPin
	value bool
}

// mockGPIO records writes and serves reads from levels or hooks
type mockGPIO struct {
	outputs map[GPIOPin]bool
	inputs  map[GPIOPin]bool
	levels  map[GPIOPin]bool
	writes  []pinWrite

	setHook func(pin GPIOPin, value bool)
	getHook func(pin GPIOPin) (bool, bool)

	setErr map[GPIOPin]error
	getErr error
}

func newMockGPIO() *mockGPIO {
	return &mockGPIO{
		outputs: make(map[GPIOPin]bool),
		inputs:  make(map[GPIOPin]bool),
		levels:  make(map[GPIOPin]bool),
		setErr:  make(map[GPIOPin]error),
	}
}

func (m *mockGPIO) ConfigureOutput(pin GPIOPin) error {
	m.outputs[pin] = true
	return nil
}

func (m *mockGPIO) ConfigureInputPullDown(pin GPIOPin) error {
	m.inputs[pin] = true
	return nil
}

func (m *mockGPIO) SetPin(pin GPIOPin, value bool) error {
	if err := m.setErr[pin]; err != nil {
		return err
	}
	prev := m.levels[pin]
	m.levels[pin] = value
	m.writes = append(m.writes, pinWrite{pin, value})
	if m.setHook != nil && prev != value {
		m.setHook(pin, value)
	}
	return nil
}

func (m *mockGPIO) GetPin(pin GPIOPin) (bool, error) {
	if m.getErr != nil {
		return false, m.getErr
	}
	if m.getHook != nil {
		if v, ok := m.getHook(pin); ok {
			return v, nil
		}
	}
	return m.levels[pin], nil
}

// writesTo returns the values written to pin, in order
func (m *mockGPIO) writesTo(pin GPIOPin) []bool {
	var out []bool
	for _, w := range m.writes {
		if w.pin == pin {
			out = append(out, w.value)
		}
	}
	return out
}

// busByte is one decoded transfer on the LCD bus
type busByte struct {
	data  bool // RS high
	value byte
}

// lcdBus decodes nibbles latched on each EN falling edge
type lcdBus struct {
	gpio    *mockGPIO
	nibbles []busByte
}

func (b *lcdBus) latch() {
	var v byte
	for i, pin := range pinsData {
		if b.gpio.levels[pin] {
			v |= 1 << uint(i)
		}
	}
	b.nibbles = append(b.nibbles, busByte{data: b.gpio.levels[pinRS], value: v})
}

// bytes pairs nibbles into bytes, high nibble first
func (b *lcdBus) bytes() []busByte {
	out := make([]busByte, 0, len(b.nibbles)/2)
	for i := 0; i+1 < len(b.nibbles); i += 2 {
		hi, lo := b.nibbles[i], b.nibbles[i+1]
		out = append(out, busByte{data: hi.data, value: hi.value<<4 | lo.value})
	}
	return out
}

func (b *lcdBus) reset() {
	b.nibbles = nil
}

// sensor answers trigger pulses with an echo of width echoUS.
// echoUS == 0 never answers; stuck holds echo high forever.
type sensor struct {
	clock     *simClock
	echoUS    uint32
	riseDelay uint32
	stuck     bool

	fired          bool
	riseAt, fallAt uint32
	triggerHigh    uint32
	triggerLow     uint32
	onRead         func()
}

func (s *sensor) trigger(high bool) {
	if high {
		s.triggerHigh = s.clock.now
		s.fired = false
		return
	}
	s.triggerLow = s.clock.now
	if s.echoUS == 0 && !s.stuck {
		return
	}
	s.fired = true
	s.riseAt = s.clock.now + s.riseDelay
	s.fallAt = s.riseAt + s.echoUS
	if s.stuck {
		s.fallAt = math.MaxUint32
	}
}

func (s *sensor) level() bool {
	now := s.clock.Ticks()
	if s.onRead != nil {
		s.onRead()
	}
	return s.fired && now >= s.riseAt && now < s.fallAt
}

// rig wires a mock pin driver, a simulated clock, a sensor and an LCD decoder
type rig struct {
	clock  *simClock
	gpio   *mockGPIO
	sensor *sensor
	bus    *lcdBus
}

func newRig(step uint32) *rig {
	clock := &simClock{step: step}
	gpio := newMockGPIO()
	r := &rig{
		clock:  clock,
		gpio:   gpio,
		sensor: &sensor{clock: clock, riseDelay: 50},
		bus:    &lcdBus{gpio: gpio},
	}
	gpio.setHook = func(pin GPIOPin, value bool) {
		switch {
		case pin == pinTrigger:
			r.sensor.trigger(value)
		case pin == pinEN && !value:
			r.bus.latch()
		}
	}
	gpio.getHook = func(pin GPIOPin) (bool, bool) {
		if pin == pinEcho {
			return r.sensor.level(), true
		}
		return false, false
	}
	return r
}
