// Package overlay draws located landmarks and the last jump's numbers onto
// a screenshot for debugging and the preview window.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"jumpbot/internal/jump"
	"jumpbot/pkg/colorutil"
	"jumpbot/pkg/geometry"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Marks is what gets drawn: full-frame cross-hairs through each known
// point and a text block in the top-left corner.
type Marks struct {
	Piece  geometry.OptPoint
	Target geometry.OptPoint
	Apex   geometry.OptPoint
	Origin geometry.OptPoint
	Lines  []string
}

// FromTurn builds the marks for a turn. The text block describes the
// previous jump as reviewed this turn, plus this turn's plan.
func FromTurn(s *jump.TurnState) Marks {
	m := Marks{Piece: s.Piece, Target: s.Target, Apex: s.Apex, Origin: s.Origin}
	r := s.Review
	m.Lines = append(m.Lines, fmt.Sprintf("turn %d", s.Turn))
	if r.Outcome == jump.ReviewSkipped {
		m.Lines = append(m.Lines, "last jump: "+r.Reason)
	} else {
		c := r.Calibration
		m.Lines = append(m.Lines,
			fmt.Sprintf("last jump: %s (%s)", c.Landing, r.Outcome),
			fmt.Sprintf("planned %.1f actual %.1f", c.PlannedDistance, c.ActualDistance),
			fmt.Sprintf("press %d ms", c.Duration),
		)
	}
	if s.OnCenterSet {
		m.Lines = append(m.Lines, fmt.Sprintf("on center: %t", s.OnCenter))
	}
	if s.Computed {
		dir := "left"
		if s.JumpRight {
			dir = "right"
		}
		m.Lines = append(m.Lines, fmt.Sprintf("next: %s %.1f px, %d ms", dir, s.Distance, s.Duration))
	}
	return m
}

// Annotate returns a copy of img with m drawn on it.
func Annotate(img image.Image, m Marks) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)

	crossHair(dst, m.Origin, colorutil.Black)
	crossHair(dst, m.Target, colorutil.Blue)
	crossHair(dst, m.Piece, colorutil.Red)
	if p, ok := m.Apex.Get(); ok {
		dot(dst, p, 4, colorutil.Green)
	}
	if len(m.Lines) > 0 {
		textBlock(dst, m.Lines, image.Pt(20, 20))
	}
	return dst
}

func crossHair(dst *image.RGBA, at geometry.OptPoint, c color.RGBA) {
	p, ok := at.Get()
	if !ok {
		return
	}
	b := dst.Bounds()
	if p.Y >= b.Min.Y && p.Y < b.Max.Y {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetRGBA(x, p.Y, c)
		}
	}
	if p.X >= b.Min.X && p.X < b.Max.X {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			dst.SetRGBA(p.X, y, c)
		}
	}
}

func dot(dst *image.RGBA, p geometry.Point, r int, c color.RGBA) {
	rect := image.Rect(p.X-r, p.Y-r, p.X+r+1, p.Y+r+1)
	draw.Draw(dst, rect, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// textBlock renders lines with the fixed 7x13 face, scaled up to stay
// legible on full-resolution screenshots.
func textBlock(dst *image.RGBA, lines []string, at image.Point) {
	face := basicfont.Face7x13
	lineH := face.Metrics().Height.Ceil()
	width := 0
	for _, l := range lines {
		width = max(width, font.MeasureString(face, l).Ceil())
	}
	pad := 3
	small := image.NewRGBA(image.Rect(0, 0, width+2*pad, lineH*len(lines)+2*pad))

	scale := max(1, dst.Bounds().Dx()/360)
	target := image.Rect(at.X, at.Y, at.X+small.Bounds().Dx()*scale, at.Y+small.Bounds().Dy()*scale)

	bg := colorutil.MeanColor(dst, target)
	draw.Draw(small, small.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  small,
		Src:  image.NewUniform(colorutil.TextOn(bg)),
		Face: face,
	}
	for i, l := range lines {
		d.Dot = fixed.P(pad, pad+face.Metrics().Ascent.Ceil()+i*lineH)
		d.DrawString(l)
	}

	draw.NearestNeighbor.Scale(dst, target, small, small.Bounds(), draw.Src, nil)
}

// SavePNG writes img to path, creating parent directories.
func SavePNG(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// TurnFile names the annotated image for a turn.
func TurnFile(dir, run string, turn int) string {
	run = strings.ReplaceAll(run, "-", "")
	if len(run) > 8 {
		run = run[:8]
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%04d.png", run, turn))
}
