package locate

import (
	"math"

	"jumpbot/internal/frame"
	"jumpbot/internal/vision"
	"jumpbot/pkg/geometry"

	"gocv.io/x/gocv"
)

// LocateOrigin finds the tile the piece is standing on by matching last
// turn's target crop against the new frame. The crop is anchored at the
// tile's widest row, so the tile center is the matched top row at half the
// crop width. A match farther than the proximity gate from the piece is
// discarded. A nil crop (first turn) yields NotFound. NotFound only
// disables calibration for this turn.
func (l *Locator) LocateOrigin(f *frame.Frame, prevCrop *gocv.Mat, piece geometry.Point) geometry.OptPoint {
	if prevCrop == nil || prevCrop.Empty() {
		return geometry.NotFound
	}

	corner, score := vision.Match(f.Gray, *prevCrop, l.params.OriginThreshold)
	c, ok := corner.Get()
	if !ok {
		locLog.Debug().Err(ErrOriginNotFound).Float64("score", score).Msg("Origin tile did not match")
		return geometry.NotFound
	}

	start := geometry.Point{X: c.X + prevCrop.Cols()/2, Y: c.Y}
	gate := l.res.ScalePixels(l.params.OriginGate)
	if !withinGate(start, piece, gate) {
		locLog.Debug().
			Err(ErrOriginNotFound).
			Stringer("match", start).
			Stringer("piece", piece).
			Int("gate", gate).
			Msg("Origin tile match too far from piece")
		return geometry.NotFound
	}
	return geometry.Some(start)
}

func withinGate(a, b geometry.Point, gate int) bool {
	d := a.Sub(b)
	return math.Abs(float64(d.X)) < float64(gate) && math.Abs(float64(d.Y)) < float64(gate)
}
