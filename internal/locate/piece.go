package locate

import (
	"fmt"

	"jumpbot/internal/frame"
	"jumpbot/pkg/geometry"
)

// Piece is the located player piece.
type Piece struct {
	Pos       geometry.Point // Contact point at the base of the piece
	JumpRight bool
	Score     float64
}

// JumpRight reports the jump direction for a piece at p. The piece always
// stands in the half of the screen opposite the jump. The comparison is done
// against the exact midpoint, so for odd widths the pixel straddling it
// counts as "right".
func JumpRight(p geometry.Point, res geometry.Resolution) bool {
	return float64(p.X) < float64(res.Width)/2
}

// LocatePiece finds the piece's contact point by template matching.
func (l *Locator) LocatePiece(f *frame.Frame) (Piece, error) {
	anchor, score := l.tpl.Piece.Locate(f.Gray, l.params.PieceThreshold)
	pos, ok := anchor.Get()
	if !ok {
		return Piece{}, fmt.Errorf("%w (best score %.3f < %.2f)", ErrPieceNotFound, score, l.params.PieceThreshold)
	}
	if !l.res.Contains(pos) {
		return Piece{}, fmt.Errorf("%w (anchor %s outside %s)", ErrPieceNotFound, pos, l.res)
	}

	piece := Piece{Pos: pos, JumpRight: JumpRight(pos, l.res), Score: score}
	locLog.Debug().
		Stringer("pos", pos).
		Bool("jump_right", piece.JumpRight).
		Float64("score", score).
		Msg("Piece located")
	return piece, nil
}
