// Package monitor follows the firmware's log stream on the host.
// Lines are log/slog text records; cycle records become Readings.
package monitor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"rangefinder/core"

	"github.com/google/shlex"
)

var (
	// ErrNotRecord is returned for lines that are not slog text records
	ErrNotRecord = errors.New("monitor: not a log record")

	// ErrNotCycle is returned by Reading for records other than msg=cycle
	ErrNotCycle = errors.New("monitor: not a cycle record")
)

// Attr is one key=value pair of a record, in line order
type Attr struct {
	Key   string
	Value string
}

// Record is one parsed log line
type Record struct {
	Time  string
	Level string
	Msg   string
	Attrs []Attr

	// Raw holds the line as received
	Raw string
}

// ParseLine splits a slog text line into a Record.
// Quoted values (e.g. err="ranger: no echo") are unquoted.
func ParseLine(line string) (Record, error) {
	rec := Record{Raw: line}

	fields, err := shlex.Split(line)
	if err != nil {
		return rec, fmt.Errorf("%w: %v", ErrNotRecord, err)
	}
	for _, f := range fields {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return rec, ErrNotRecord
		}
		switch key {
		case "time":
			rec.Time = value
		case "level":
			rec.Level = value
		case "msg":
			rec.Msg = value
		default:
			rec.Attrs = append(rec.Attrs, Attr{Key: key, Value: value})
		}
	}
	if rec.Level == "" || rec.Msg == "" {
		return rec, ErrNotRecord
	}
	return rec, nil
}

// Get returns the value of the first attr named key
func (r Record) Get(key string) (string, bool) {
	for _, a := range r.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Reading is one control loop cycle as seen from the host
type Reading struct {
	Cycle      uint64
	EchoUS     uint32
	DistanceCM float64
	State      core.AlertState

	// Err is the firmware's error text; empty for a clean cycle
	Err string

	// Fault names the failed stages ("ranging", "display+alarm", ...)
	Fault string
}

// Reading decodes a msg=cycle record
func (r Record) Reading() (Reading, error) {
	var rd Reading
	if r.Msg != "cycle" {
		return rd, ErrNotCycle
	}

	cycle, err := r.getUint("cycle", 64)
	if err != nil {
		return rd, err
	}
	echo, err := r.getUint("echo_us", 32)
	if err != nil {
		return rd, err
	}
	dist, err := r.getFloat("distance_cm")
	if err != nil {
		return rd, err
	}
	name, _ := r.Get("state")
	state, err := ParseState(name)
	if err != nil {
		return rd, err
	}

	rd.Cycle = cycle
	rd.EchoUS = uint32(echo)
	rd.DistanceCM = dist
	rd.State = state
	rd.Err, _ = r.Get("err")
	rd.Fault, _ = r.Get("fault")
	return rd, nil
}

// RangingFailed reports whether the cycle produced no measurement.
// A display or alarm fault alone keeps the echo, distance and state valid.
// Records without a fault attr fall back to a zero echo width.
func (rd Reading) RangingFailed() bool {
	if rd.Err == "" {
		return false
	}
	if rd.Fault == "" {
		return rd.EchoUS == 0
	}
	for _, f := range strings.Split(rd.Fault, "+") {
		if f == "ranging" {
			return true
		}
	}
	return false
}

// Consistent re-derives the alert state from the raw echo width and reports
// whether the firmware agreed. Cycles without a measurement always report Clear.
func (rd Reading) Consistent() bool {
	if rd.RangingFailed() {
		return rd.State == core.AlertClear
	}
	return core.Classify(core.EchoToDistance(rd.EchoUS)) == rd.State
}

// ParseState maps a state name back to its AlertState
func ParseState(name string) (core.AlertState, error) {
	for _, s := range []core.AlertState{core.AlertClear, core.AlertCaution, core.AlertDanger} {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("monitor: unknown state %q", name)
}

func (r Record) getUint(key string, bits int) (uint64, error) {
	v, ok := r.Get(key)
	if !ok {
		return 0, fmt.Errorf("monitor: missing %s", key)
	}
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("monitor: %s: %w", key, err)
	}
	return n, nil
}

func (r Record) getFloat(key string) (float64, error) {
	v, ok := r.Get(key)
	if !ok {
		return 0, fmt.Errorf("monitor: missing %s", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("monitor: %s: %w", key, err)
	}
	return f, nil
}
