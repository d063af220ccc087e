package jump

import (
	"fmt"

	"jumpbot/pkg/geometry"
)

// Outcome is the result of reviewing the previous jump.
type Outcome int

const (
	// ReviewSkipped means prerequisite data was missing (first turn, origin
	// tile not found). Nothing is recorded.
	ReviewSkipped Outcome = iota
	// ReviewRecorded means a calibration record was produced.
	ReviewRecorded
	// ReviewUnhandled means the landing is inconsistent with a jump onto the
	// intended tile (for example an overshoot onto a third tile). Nothing is
	// recorded.
	ReviewUnhandled
)

func (o Outcome) String() string {
	switch o {
	case ReviewSkipped:
		return "skipped"
	case ReviewRecorded:
		return "recorded"
	case ReviewUnhandled:
		return "unhandled"
	default:
		return "unknown"
	}
}

// Calibration is the corrected record for the previous jump: the distance
// the press actually covered and the duration that produced it.
type Calibration struct {
	ActualDistance  float64
	Duration        int
	OnCenter        bool
	PlannedDistance float64
	Offset          float64
	Landing         Landing
}

// Line renders the record in dataset format.
func (c Calibration) Line() string {
	return fmt.Sprintf("%v %d %t", c.ActualDistance, c.Duration, c.OnCenter)
}

// Review is the reviewer's verdict.
type Review struct {
	Outcome     Outcome
	Calibration Calibration
	Reason      string
}

// Recorded reports whether the review produced a calibration record.
func (r Review) Recorded() bool {
	return r.Outcome == ReviewRecorded
}

// ReviewLastJump reconciles where the piece landed (piece, on the tile
// centered at origin) with the previous turn's plan. An undershoot means the
// press covered less than planned by the offset; an overshoot, more.
func ReviewLastJump(prev PreviousTurn, origin geometry.OptPoint, piece geometry.Point, onCenter bool) Review {
	if !prev.Valid || prev.Distance <= 0 || prev.Duration <= 0 {
		return Review{Outcome: ReviewSkipped, Reason: "no previous jump"}
	}
	start, ok := origin.Get()
	if !ok {
		return Review{Outcome: ReviewSkipped, Reason: "origin tile unknown"}
	}

	d := ProjectDistance(start, piece, prev.JumpRight)
	landing := ClassifyLanding(start, piece, prev.JumpRight)

	actual := prev.Distance
	switch landing {
	case LandedShort:
		actual = prev.Distance - d
	case LandedLong:
		actual = prev.Distance + d
	}

	cal := Calibration{
		ActualDistance:  actual,
		Duration:        prev.Duration,
		OnCenter:        onCenter,
		PlannedDistance: prev.Distance,
		Offset:          d,
		Landing:         landing,
	}

	if d > prev.Distance || actual <= 0 {
		return Review{
			Outcome:     ReviewUnhandled,
			Calibration: cal,
			Reason:      fmt.Sprintf("offset %.1f inconsistent with planned distance %.1f", d, prev.Distance),
		}
	}
	return Review{Outcome: ReviewRecorded, Calibration: cal}
}
