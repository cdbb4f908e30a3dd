package monitor

import (
	"fmt"
	"math"

	"rangefinder/core"
)

// Stats summarises the readings seen in one session
type Stats struct {
	Cycles   int
	Failed   int // no measurement
	Faulted  int // measured, but the display or outputs failed
	ByState  [3]int
	Nearest  float64
	Farthest float64
}

// Add folds one reading into the summary
func (s *Stats) Add(rd Reading) {
	if s.Cycles == 0 {
		s.Nearest = math.Inf(1)
		s.Farthest = math.Inf(-1)
	}
	s.Cycles++
	if rd.RangingFailed() {
		s.Failed++
		return
	}
	if rd.Err != "" {
		s.Faulted++
	}
	if int(rd.State) < len(s.ByState) {
		s.ByState[rd.State]++
	}
	s.Nearest = math.Min(s.Nearest, rd.DistanceCM)
	s.Farthest = math.Max(s.Farthest, rd.DistanceCM)
}

func (s *Stats) String() string {
	head := fmt.Sprintf("%d cycles, %d failed", s.Cycles, s.Failed)
	if s.Faulted > 0 {
		head += fmt.Sprintf(", %d output faults", s.Faulted)
	}
	if s.Cycles == s.Failed {
		return head
	}
	return fmt.Sprintf("%s, %d %s / %d %s / %d %s, nearest %.3f cm, farthest %.3f cm",
		head,
		s.ByState[core.AlertDanger], core.AlertDanger,
		s.ByState[core.AlertCaution], core.AlertCaution,
		s.ByState[core.AlertClear], core.AlertClear,
		s.Nearest, s.Farthest)
}
