// Package testutil provides synthetic image fixtures for the vision tests.
package testutil

import (
	"math"
	"math/rand"
	"testing"

	"gocv.io/x/gocv"
)

// Canvas is a Go-side 8-bit grayscale buffer that is turned into a Mat once
// drawing is done. Drawing through cgo pixel by pixel is far slower.
type Canvas struct {
	Pix        []byte
	Cols, Rows int
}

// NewCanvas returns a canvas filled with value.
func NewCanvas(cols, rows int, value byte) *Canvas {
	c := &Canvas{Pix: make([]byte, cols*rows), Cols: cols, Rows: rows}
	if value != 0 {
		for i := range c.Pix {
			c.Pix[i] = value
		}
	}
	return c
}

// NoiseCanvas returns a canvas of deterministic pseudo-random texture.
func NoiseCanvas(cols, rows int, seed int64) *Canvas {
	c := NewCanvas(cols, rows, 0)
	r := rand.New(rand.NewSource(seed))
	r.Read(c.Pix)
	return c
}

// Set writes a pixel, ignoring coordinates outside the canvas.
func (c *Canvas) Set(x, y int, v byte) {
	if x < 0 || y < 0 || x >= c.Cols || y >= c.Rows {
		return
	}
	c.Pix[y*c.Cols+x] = v
}

// At reads a pixel.
func (c *Canvas) At(x, y int) byte {
	return c.Pix[y*c.Cols+x]
}

// Paste copies src onto c with its top-left corner at (x, y).
func (c *Canvas) Paste(src *Canvas, x, y int) {
	for sy := 0; sy < src.Rows; sy++ {
		for sx := 0; sx < src.Cols; sx++ {
			c.Set(x+sx, y+sy, src.At(sx, sy))
		}
	}
}

// FillRect sets every pixel of [x0,x1) x [y0,y1).
func (c *Canvas) FillRect(x0, y0, x1, y1 int, v byte) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			c.Set(x, y, v)
		}
	}
}

// Crop returns a copy of [x0,x1) x [y0,y1).
func (c *Canvas) Crop(x0, y0, x1, y1 int) *Canvas {
	out := NewCanvas(x1-x0, y1-y0, 0)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			out.Set(x-x0, y-y0, c.At(x, y))
		}
	}
	return out
}

// DiamondHalfWidth is the half width of an isometric tile of the given half
// height (tile edges at 30 degrees from horizontal).
func DiamondHalfWidth(halfHeight int) int {
	return int(math.Round(float64(halfHeight) * math.Sqrt(3)))
}

// DiamondOutline draws a one-pixel isometric diamond outline with its top
// vertex at (cx, top) and bottom vertex at (cx, bottom). The vertex rows hold
// exactly one pixel, in column cx.
func (c *Canvas) DiamondOutline(cx, top, bottom int, v byte) {
	hh := float64(bottom-top) / 2
	hw := float64(DiamondHalfWidth(int(hh)))
	mid := float64(top+bottom) / 2
	for y := top; y <= bottom; y++ {
		w := int(math.Round(hw * (1 - math.Abs(float64(y)-mid)/hh)))
		c.Set(cx-w, y, v)
		c.Set(cx+w, y, v)
	}
}

// FilledDiamond draws a solid isometric diamond between the two vertices.
func (c *Canvas) FilledDiamond(cx, top, bottom int, v byte) {
	hh := float64(bottom-top) / 2
	hw := float64(DiamondHalfWidth(int(hh)))
	mid := float64(top+bottom) / 2
	for y := top; y <= bottom; y++ {
		w := int(math.Round(hw * (1 - math.Abs(float64(y)-mid)/hh)))
		for x := cx - w; x <= cx+w; x++ {
			c.Set(x, y, v)
		}
	}
}

// Mat converts the canvas into a CV_8U Mat. The Mat is closed when the test
// ends.
func (c *Canvas) Mat(t testing.TB) gocv.Mat {
	t.Helper()
	m, err := gocv.NewMatFromBytes(c.Rows, c.Cols, gocv.MatTypeCV8U, c.Pix)
	if err != nil {
		t.Fatalf("NewMatFromBytes: %v", err)
	}
	out := m.Clone()
	m.Close()
	t.Cleanup(func() { out.Close() })
	return out
}

// OwnedMat converts the canvas into a Mat the caller must close.
func (c *Canvas) OwnedMat(t testing.TB) gocv.Mat {
	t.Helper()
	m, err := gocv.NewMatFromBytes(c.Rows, c.Cols, gocv.MatTypeCV8U, c.Pix)
	if err != nil {
		t.Fatalf("NewMatFromBytes: %v", err)
	}
	defer m.Close()
	return m.Clone()
}
