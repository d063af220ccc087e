package locate

import (
	"fmt"
	"image"
	"math"
	"sync"

	"jumpbot/internal/frame"
	"jumpbot/pkg/geometry"

	"gocv.io/x/gocv"
)

// Target is the located landing tile.
type Target struct {
	Center   geometry.Point
	Apex     geometry.Point // Top vertex of the tile
	OnCenter bool           // Center dot matched: the previous jump hit dead center
}

// edgeMap is a read-only view of a Canny edge image with one rectangle
// treated as empty.
type edgeMap struct {
	pix        []byte
	cols, rows int
	mask       geometry.RectInt
}

func newEdgeMap(edges gocv.Mat, mask geometry.RectInt) edgeMap {
	return edgeMap{
		pix:  edges.ToBytes(),
		cols: edges.Cols(),
		rows: edges.Rows(),
		mask: mask,
	}
}

func (e edgeMap) at(x, y int) bool {
	if x < 0 || y < 0 || x >= e.cols || y >= e.rows {
		return false
	}
	if e.mask.Contains(geometry.Point{X: x, Y: y}) {
		return false
	}
	return e.pix[y*e.cols+x] != 0
}

// rowMean returns the mean column of edge pixels in row y.
func (e edgeMap) rowMean(y int) (float64, bool) {
	sum, n := 0, 0
	for x := 0; x < e.cols; x++ {
		if e.at(x, y) {
			sum += x
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

// scanApex returns the first row in [yStart, yStop) holding any edge pixel,
// with x at the mean column of that row's edge pixels. The tile is
// symmetric, so the mean is its center column. Ties round to even.
func (e edgeMap) scanApex(yStart, yStop int) (geometry.Point, error) {
	yStart = max(yStart, 0)
	yStop = min(yStop, e.rows)
	for y := yStart; y < yStop; y++ {
		if mean, ok := e.rowMean(y); ok {
			return geometry.Point{X: int(math.RoundToEven(mean)), Y: y}, nil
		}
	}
	return geometry.Point{}, fmt.Errorf("%w: no apex in rows %d-%d", ErrTargetNotFound, yStart, yStop)
}

// scanBase returns the first row in [yStart, yStop) where column x, or the
// column to its left, holds an edge pixel.
func (e edgeMap) scanBase(x, yStart, yStop int) (int, error) {
	yStop = min(yStop, e.rows)
	for y := max(yStart, 0); y < yStop; y++ {
		if e.at(x, y) || e.at(x-1, y) {
			return y, nil
		}
	}
	return 0, fmt.Errorf("%w: no base below row %d in column %d", ErrTargetNotFound, yStart, x)
}

// pieceMask is the rectangle erased around the piece before scanning. The
// piece can be taller than the target tile and would otherwise be taken for
// the apex.
func (l *Locator) pieceMask(piece geometry.Point) geometry.RectInt {
	d := l.tpl.Piece.Delta
	m := l.params.MaskMargin
	return geometry.RectFromCorners(
		piece.X-d.X-m, piece.Y-d.Y-m,
		piece.X+d.X+m, piece.Y+m,
	).Clamp(l.res.Width, l.res.Height)
}

// Edges computes the blurred Canny edge image of a frame.
func Edges(gray gocv.Mat) gocv.Mat {
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: 5, Y: 5}, 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	gocv.Canny(blurred, &edges, 1, 10)
	return edges
}

// matchCenter tries the dark and light center-dot templates in turn.
func (l *Locator) matchCenter(gray gocv.Mat) geometry.OptPoint {
	for _, tpl := range l.tpl.Centers() {
		if pos, score := tpl.Locate(gray, l.params.CenterThreshold); pos.Valid() {
			if p := pos.MustGet(); l.res.Contains(p) {
				locLog.Debug().Str("template", tpl.Name).Float64("score", score).Msg("Center dot matched")
				return pos
			}
		}
	}
	return geometry.NotFound
}

// LocateTarget finds the target tile's center and top vertex. The center
// comes from the center-dot template when it is visible, and otherwise from
// the midpoint of the tile's top and bottom vertices in the edge image.
func (l *Locator) LocateTarget(f *frame.Frame, piece geometry.Point) (Target, error) {
	// Center matching and edge extraction read the same frame independently.
	var (
		wg     sync.WaitGroup
		center geometry.OptPoint
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		center = l.matchCenter(f.Gray)
	}()
	edges := Edges(f.Gray)
	defer edges.Close()
	wg.Wait()

	em := newEdgeMap(edges, l.pieceMask(piece))
	return l.scanTarget(em, center)
}

func (l *Locator) scanTarget(em edgeMap, center geometry.OptPoint) (Target, error) {
	yStart, yStop := l.scanBand()
	apex, err := em.scanApex(yStart, yStop)
	if err != nil {
		return Target{}, err
	}

	if c, ok := center.Get(); ok {
		t := Target{Center: c, Apex: apex, OnCenter: true}
		locLog.Debug().Stringer("center", c).Stringer("apex", apex).Msg("Target located by center dot")
		return t, nil
	}

	// Tiles with concentric rings show a spurious edge just below the apex.
	skip := l.res.ScalePixels(l.params.ApexSkip)
	bottom, err := em.scanBase(apex.X, apex.Y+skip, yStop)
	if err != nil {
		return Target{}, err
	}

	c := geometry.Point{X: apex.X, Y: (apex.Y + bottom) / 2}
	locLog.Debug().Stringer("center", c).Stringer("apex", apex).Int("base_y", bottom).Msg("Target located by edges")
	return Target{Center: c, Apex: apex}, nil
}
