// Package colorutil provides the overlay palette and small color helpers.
package colorutil

import (
	"image"
	"image/color"
)

// Overlay colors.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red     = color.RGBA{R: 230, G: 30, B: 30, A: 255}
	Blue    = color.RGBA{R: 30, G: 60, B: 230, A: 255}
	Green   = color.RGBA{R: 0, G: 200, B: 0, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
)

// Luma returns the Rec. 601 luma of c in 0-255.
func Luma(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257
}

// TextOn returns black or white, whichever reads better on bg.
func TextOn(bg color.Color) color.RGBA {
	if Luma(bg) > 140 {
		return Black
	}
	return White
}

// MeanColor averages the pixels of img inside r.
func MeanColor(img image.Image, r image.Rectangle) color.RGBA {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return Black
	}
	var sr, sg, sb, n uint64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			sr += uint64(cr >> 8)
			sg += uint64(cg >> 8)
			sb += uint64(cb >> 8)
			n++
		}
	}
	return color.RGBA{R: uint8(sr / n), G: uint8(sg / n), B: uint8(sb / n), A: 255}
}
