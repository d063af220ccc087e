// Package locate finds the game landmarks in a screenshot: the piece, the
// target tile (center and top vertex), and the tile the piece now stands on.
package locate

import (
	"errors"
	"fmt"

	"jumpbot/internal/logging"
	"jumpbot/internal/vision"
	"jumpbot/pkg/geometry"

	"github.com/rs/zerolog"
)

var locLog zerolog.Logger = logging.Module("locate")

// ErrLandmarkNotFound is the root of every fatal locate failure.
var ErrLandmarkNotFound = errors.New("landmark not found")

var (
	// ErrPieceNotFound means the piece template did not match.
	ErrPieceNotFound = fmt.Errorf("piece: %w", ErrLandmarkNotFound)
	// ErrTargetNotFound means a tile vertex scan exhausted its band.
	ErrTargetNotFound = fmt.Errorf("target: %w", ErrLandmarkNotFound)
	// ErrOriginNotFound is informational; callers treat the origin as unknown.
	ErrOriginNotFound = errors.New("origin tile not found")
)

// Params holds thresholds and pixel constants. Pixel values are given at
// the 1080-wide reference resolution and scaled to the device.
type Params struct {
	PieceThreshold  float64
	CenterThreshold float64
	OriginThreshold float64

	ApexSkip   int // Rows skipped below the apex before looking for the base
	OriginGate int // Max distance between origin tile and piece, per axis
	MaskMargin int // Extra pixels erased around the piece silhouette
	CropDepth  int // Rows kept below the widest row when cropping the target
	CropPad    int // Columns added on each side of the crop
}

// DefaultParams returns parameters tuned for the stock game assets.
func DefaultParams() Params {
	return Params{
		PieceThreshold:  0.7,
		CenterThreshold: 0.85,
		OriginThreshold: 0.7,
		ApexSkip:        40,
		OriginGate:      100,
		MaskMargin:      2,
		CropDepth:       100,
		CropPad:         3,
	}
}

// Locator runs the landmark searches for one device resolution.
type Locator struct {
	res    geometry.Resolution
	tpl    *vision.TemplateSet
	params Params
}

// New creates a Locator. The template set must match res.
func New(res geometry.Resolution, tpl *vision.TemplateSet, params Params) *Locator {
	return &Locator{res: res, tpl: tpl, params: params}
}

// Resolution returns the resolution the Locator was built for.
func (l *Locator) Resolution() geometry.Resolution {
	return l.res
}

// Params returns the active parameters.
func (l *Locator) Params() Params {
	return l.params
}

// scanBand returns the rows searched for the tile apex. The top third holds
// the score readout and the bottom third holds the piece's own tile.
func (l *Locator) scanBand() (int, int) {
	return l.res.Height / 3, l.res.Height * 2 / 3
}
