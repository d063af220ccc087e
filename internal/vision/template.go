package vision

import (
	"fmt"
	"os"
	"path/filepath"

	"jumpbot/pkg/geometry"

	"gocv.io/x/gocv"
)

// Asset file names inside a template directory.
const (
	PieceFile       = "piece.png"
	CenterDarkFile  = "center_black.png"
	CenterLightFile = "center_white.png"
)

// Template is a grayscale reference image plus the offset from its matched
// top-left corner to the landmark it marks (the piece's contact point, the
// center dot).
type Template struct {
	Name  string
	Mat   gocv.Mat
	Delta geometry.Point
}

// NewTemplate wraps a grayscale Mat. The Template takes ownership.
func NewTemplate(name string, mat gocv.Mat, delta geometry.Point) (Template, error) {
	if mat.Empty() {
		return Template{}, fmt.Errorf("template %s is empty", name)
	}
	if mat.Channels() != 1 {
		return Template{}, fmt.Errorf("template %s: expected 1 channel, got %d", name, mat.Channels())
	}
	return Template{Name: name, Mat: mat, Delta: delta}, nil
}

// LoadTemplate reads a template image from disk as grayscale.
func LoadTemplate(path string, delta geometry.Point) (Template, error) {
	if _, err := os.Stat(path); err != nil {
		return Template{}, fmt.Errorf("template %s: %w", path, err)
	}
	mat := gocv.IMRead(path, gocv.IMReadGrayScale)
	if mat.Empty() {
		return Template{}, fmt.Errorf("failed to read template %s", path)
	}
	return NewTemplate(filepath.Base(path), mat, delta)
}

// Width returns the template width in pixels.
func (t Template) Width() int { return t.Mat.Cols() }

// Height returns the template height in pixels.
func (t Template) Height() int { return t.Mat.Rows() }

// Locate matches the template and returns the anchor point (matched corner
// plus Delta).
func (t Template) Locate(img gocv.Mat, threshold float64) (geometry.OptPoint, float64) {
	corner, score := Match(img, t.Mat, threshold)
	p, ok := corner.Get()
	if !ok {
		return geometry.NotFound, score
	}
	return geometry.Some(p.Add(t.Delta)), score
}

// Close releases the native Mat.
func (t Template) Close() error {
	return t.Mat.Close()
}

// Deltas are the anchor offsets for the piece and center-dot templates.
type Deltas struct {
	Piece  geometry.Point
	Center geometry.Point
}

// DefaultDeltas are the offsets for the 1080-wide asset set.
func DefaultDeltas() Deltas {
	return Deltas{
		Piece:  geometry.Pt(38, 186),
		Center: geometry.Pt(19, 15),
	}
}

// TemplateSet is the full set of landmark templates for one resolution.
// Templates are resolution-dependent; a new set must be loaded if the
// device resolution changes.
type TemplateSet struct {
	Resolution  geometry.Resolution
	Piece       Template
	CenterDark  Template // Center dot rendered on a dark tile
	CenterLight Template // Center dot rendered on a light tile
}

// Centers returns the center-dot variants in match order.
func (s *TemplateSet) Centers() []Template {
	return []Template{s.CenterDark, s.CenterLight}
}

// LoadTemplateSet loads templates for res from dir. A resolution-specific
// subdirectory ("1080x1920") is preferred; dir itself is the fallback.
func LoadTemplateSet(dir string, res geometry.Resolution, deltas Deltas) (*TemplateSet, error) {
	base := dir
	if sub := filepath.Join(dir, res.Key()); isDir(sub) {
		base = sub
	}

	piece, err := LoadTemplate(filepath.Join(base, PieceFile), deltas.Piece)
	if err != nil {
		return nil, err
	}
	dark, err := LoadTemplate(filepath.Join(base, CenterDarkFile), deltas.Center)
	if err != nil {
		piece.Close()
		return nil, err
	}
	light, err := LoadTemplate(filepath.Join(base, CenterLightFile), deltas.Center)
	if err != nil {
		piece.Close()
		dark.Close()
		return nil, err
	}

	return &TemplateSet{
		Resolution:  res,
		Piece:       piece,
		CenterDark:  dark,
		CenterLight: light,
	}, nil
}

// Close releases all template Mats.
func (s *TemplateSet) Close() error {
	s.Piece.Close()
	s.CenterDark.Close()
	return s.CenterLight.Close()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
