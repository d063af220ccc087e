// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"fmt"
	"image"
	"math"
)

// Point represents a pixel coordinate in screen space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(other Point) float64 {
	dx := float64(p.X - other.X)
	dy := float64(p.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Image converts to an image.Point for gocv calls.
func (p Point) Image() image.Point {
	return image.Point{X: p.X, Y: p.Y}
}

// FromImage converts an image.Point.
func FromImage(p image.Point) Point {
	return Point{X: p.X, Y: p.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// OptPoint is a Point that may be undetermined. The zero value is NotFound,
// so a real detection at (0,0) is still distinguishable from no detection.
type OptPoint struct {
	pt    Point
	valid bool
}

// Found wraps a determined coordinate.
func Found(x, y int) OptPoint {
	return OptPoint{pt: Point{X: x, Y: y}, valid: true}
}

// Some wraps an existing Point.
func Some(p Point) OptPoint {
	return OptPoint{pt: p, valid: true}
}

// NotFound is the undetermined position.
var NotFound = OptPoint{}

// Get returns the point and whether it is determined.
func (o OptPoint) Get() (Point, bool) {
	return o.pt, o.valid
}

// Valid reports whether the position has been determined.
func (o OptPoint) Valid() bool {
	return o.valid
}

// MustGet returns the point and panics when it is undetermined.
func (o OptPoint) MustGet() Point {
	if !o.valid {
		panic("geometry: MustGet on undetermined point")
	}
	return o.pt
}

func (o OptPoint) String() string {
	if !o.valid {
		return "none"
	}
	return o.pt.String()
}

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RectFromCorners builds a rectangle spanning [x0,x1) x [y0,y1).
func RectFromCorners(x0, y0, x1, y1 int) RectInt {
	return RectInt{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Empty reports whether the rectangle covers no pixels.
func (r RectInt) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Clamp returns the intersection of r with the [0,w) x [0,h) frame.
func (r RectInt) Clamp(w, h int) RectInt {
	x0 := max(r.X, 0)
	y0 := max(r.Y, 0)
	x1 := min(r.X+r.Width, w)
	y1 := min(r.Y+r.Height, h)
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return RectInt{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Contains returns true if the point is inside the rectangle.
func (r RectInt) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width &&
		p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Image converts to an image.Rectangle for gocv calls.
func (r RectInt) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Resolution is the device screen size in pixels. It is fixed for a session.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ReferenceWidth is the screen width the pixel constants are tuned for.
const ReferenceWidth = 1080

// Scale returns the factor converting reference-resolution pixel distances
// to this resolution.
func (r Resolution) Scale() float64 {
	if r.Width <= 0 {
		return 1
	}
	return float64(r.Width) / ReferenceWidth
}

// ScalePixels converts a reference-resolution distance to this resolution.
func (r Resolution) ScalePixels(px int) int {
	return int(math.Round(float64(px) * r.Scale()))
}

// At returns the point at the given fractions of width and height.
func (r Resolution) At(fx, fy float64) Point {
	return Point{X: int(float64(r.Width) * fx), Y: int(float64(r.Height) * fy)}
}

// Center returns the middle of the screen.
func (r Resolution) Center() Point {
	return Point{X: r.Width / 2, Y: r.Height / 2}
}

// Contains reports whether p lies within the screen.
func (r Resolution) Contains(p Point) bool {
	return p.X >= 0 && p.X < r.Width && p.Y >= 0 && p.Y < r.Height
}

// Key returns the "WxH" form used for per-resolution asset directories.
func (r Resolution) Key() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

func (r Resolution) String() string {
	return r.Key()
}
