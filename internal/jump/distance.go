// Package jump turns located landmarks into jump parameters, reviews the
// previous jump against where the piece actually landed, and sequences the
// per-turn pipeline.
package jump

import (
	"math"

	"jumpbot/pkg/geometry"
)

var sqrt3 = math.Sqrt(3)

// ProjectDistance measures a to b along the board's 30 degree travel axis
// instead of straight-line. Noise perpendicular to travel drops out since
// the piece never leaves the axis mid-jump.
func ProjectDistance(a, b geometry.Point, jumpRight bool) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	if jumpRight {
		return math.Abs(dy - dx/sqrt3)
	}
	return math.Abs(dy + dx/sqrt3)
}

// Landing classifies where a piece sits relative to the tile line through
// the origin center.
type Landing int

const (
	// LandedExact means the piece lies on the line.
	LandedExact Landing = iota
	// LandedShort means the piece lies below the line (undershoot).
	LandedShort
	// LandedLong means the piece lies above the line (overshoot).
	LandedLong
)

func (l Landing) String() string {
	switch l {
	case LandedExact:
		return "exact"
	case LandedShort:
		return "short"
	case LandedLong:
		return "long"
	default:
		return "unknown"
	}
}

// ClassifyLanding compares piece against the line through origin with slope
// +1/sqrt(3) when the jump went right and -1/sqrt(3) when it went left.
// Image y grows downward, so "below" is the larger y.
func ClassifyLanding(origin, piece geometry.Point, jumpRight bool) Landing {
	k := 1 / sqrt3
	if !jumpRight {
		k = -k
	}
	lineY := k*float64(piece.X-origin.X) + float64(origin.Y)
	py := float64(piece.Y)
	switch {
	case py > lineY:
		return LandedShort
	case py < lineY:
		return LandedLong
	default:
		return LandedExact
	}
}
