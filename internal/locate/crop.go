package locate

import (
	"math"

	"jumpbot/internal/frame"
	"jumpbot/pkg/geometry"

	"gocv.io/x/gocv"
)

// CropBounds returns the region kept as the origin-tile template for the
// next turn: from the tile's widest row (its center) down past the base,
// spanning the tile's full width.
func (l *Locator) CropBounds(t Target) (geometry.RectInt, bool) {
	halfHeight := t.Center.Y - t.Apex.Y
	if halfHeight <= 0 {
		return geometry.RectInt{}, false
	}
	halfWidth := int(math.Round(float64(halfHeight) * math.Sqrt(3)))
	depth := l.res.ScalePixels(l.params.CropDepth)
	pad := l.params.CropPad

	r := geometry.RectFromCorners(
		t.Center.X-halfWidth-pad, t.Center.Y,
		t.Center.X+halfWidth+pad, t.Center.Y+halfHeight+depth,
	).Clamp(l.res.Width, l.res.Height)
	if r.Empty() {
		return geometry.RectInt{}, false
	}
	return r, true
}

// CropTarget copies the target tile region out of the frame. The returned
// Mat owns its pixels and outlives the frame; the caller closes it.
func (l *Locator) CropTarget(f *frame.Frame, t Target) (gocv.Mat, bool) {
	r, ok := l.CropBounds(t)
	if !ok {
		locLog.Debug().Stringer("center", t.Center).Stringer("apex", t.Apex).Msg("Target crop is empty")
		return gocv.Mat{}, false
	}
	region := f.Gray.Region(r.Image())
	defer region.Close()
	return region.Clone(), true
}
