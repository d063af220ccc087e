package jump

import (
	"jumpbot/pkg/geometry"

	"gocv.io/x/gocv"
)

// TurnState is everything derived from one frame. Positions start
// undetermined and are filled in pipeline order: piece, target (with apex),
// origin, target crop.
type TurnState struct {
	Turn int

	Piece  geometry.OptPoint
	Target geometry.OptPoint
	Apex   geometry.OptPoint
	Origin geometry.OptPoint

	// OnCenter is set once target location has run: true when the
	// center-dot template matched.
	OnCenter    bool
	OnCenterSet bool

	// JumpRight is meaningful whenever Piece is valid.
	JumpRight bool

	Distance float64
	Duration int // Press duration in milliseconds
	Computed bool

	// Calibration of the previous jump, when it could be reviewed.
	Review Review

	targetImg *gocv.Mat
}

// TargetImage returns the crop of this turn's target tile, or nil.
func (s *TurnState) TargetImage() *gocv.Mat {
	return s.targetImg
}

// setTargetImage takes ownership of crop.
func (s *TurnState) setTargetImage(crop gocv.Mat) {
	s.Close()
	s.targetImg = &crop
}

// Close releases the target crop. Safe on a nil state.
func (s *TurnState) Close() {
	if s == nil || s.targetImg == nil {
		return
	}
	s.targetImg.Close()
	s.targetImg = nil
}

// PreviousTurn is the one-turn lookback the reviewer is allowed to see.
type PreviousTurn struct {
	Distance  float64
	Duration  int
	JumpRight bool
	Valid     bool // False before the first completed jump
}

// Previous extracts the lookback from a completed turn.
func (s *TurnState) Previous() PreviousTurn {
	if s == nil || !s.Computed || !s.Piece.Valid() {
		return PreviousTurn{}
	}
	return PreviousTurn{
		Distance:  s.Distance,
		Duration:  s.Duration,
		JumpRight: s.JumpRight,
		Valid:     true,
	}
}
