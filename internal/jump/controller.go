package jump

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"jumpbot/internal/frame"
	"jumpbot/internal/locate"
	"jumpbot/internal/logging"
	"jumpbot/pkg/geometry"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

var jumpLog zerolog.Logger = logging.Module("jump")

// ErrBadDuration means the model predicted a press that cannot be dispatched.
var ErrBadDuration = errors.New("predicted duration not positive")

// Phase is a step of the per-turn pipeline.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseLocatePiece
	PhaseLocateTarget
	PhaseLocateOrigin
	PhaseCropTargetImage
	PhaseReviewLastJump
	PhaseComputeAndAct
)

var phaseNames = [...]string{
	PhaseInit:            "init",
	PhaseLocatePiece:     "locate_piece",
	PhaseLocateTarget:    "locate_target",
	PhaseLocateOrigin:    "locate_origin",
	PhaseCropTargetImage: "crop_target_image",
	PhaseReviewLastJump:  "review_last_jump",
	PhaseComputeAndAct:   "compute_and_act",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Locator finds the landmarks of one frame. *locate.Locator implements it.
type Locator interface {
	Resolution() geometry.Resolution
	LocatePiece(f *frame.Frame) (locate.Piece, error)
	LocateTarget(f *frame.Frame, piece geometry.Point) (locate.Target, error)
	LocateOrigin(f *frame.Frame, prevCrop *gocv.Mat, piece geometry.Point) geometry.OptPoint
	CropTarget(f *frame.Frame, t locate.Target) (gocv.Mat, bool)
}

// Model maps a distance to a press duration in milliseconds.
type Model interface {
	Predict(distance float64) float64
}

// Presser dispatches a timed press on the device.
type Presser interface {
	LongPress(ctx context.Context, at geometry.Point, d time.Duration) error
}

// RecordSink receives calibration records.
type RecordSink interface {
	Record(c Calibration) error
}

// Controller sequences one turn at a time and owns the only TurnState
// carried between turns.
type Controller struct {
	loc     Locator
	model   Model
	presser Presser
	sink    RecordSink

	phase Phase
	turn  int
	prev  *TurnState
}

// NewController creates a Controller. sink may be nil, in which case
// calibration records are only logged.
func NewController(loc Locator, model Model, presser Presser, sink RecordSink) *Controller {
	return &Controller{loc: loc, model: model, presser: presser, sink: sink}
}

// Phase returns the phase the last turn reached.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Last returns the most recent completed turn, or nil.
func (c *Controller) Last() *TurnState {
	return c.prev
}

func (c *Controller) enter(p Phase, turn int) {
	c.phase = p
	jumpLog.Trace().Int("turn", turn).Stringer("phase", p).Msg("Phase")
}

// Turn runs the whole pipeline on f and dispatches the press. A piece or
// target failure aborts the turn with an error wrapping
// locate.ErrLandmarkNotFound; the returned state then holds only what was
// located before the failure. On success the state becomes the lookback
// for the next turn.
func (c *Controller) Turn(ctx context.Context, f *frame.Frame) (*TurnState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &TurnState{Turn: c.turn + 1}
	c.enter(PhaseInit, s.Turn)
	prev := c.prev.Previous()
	var prevCrop *gocv.Mat
	if c.prev != nil {
		prevCrop = c.prev.TargetImage()
	}

	c.enter(PhaseLocatePiece, s.Turn)
	piece, err := c.loc.LocatePiece(f)
	if err != nil {
		jumpLog.Error().Err(err).Int("turn", s.Turn).Msg("Piece not found")
		return s, fmt.Errorf("turn %d: %w", s.Turn, err)
	}
	s.Piece = geometry.Some(piece.Pos)
	s.JumpRight = piece.JumpRight

	c.enter(PhaseLocateTarget, s.Turn)
	target, err := c.loc.LocateTarget(f, piece.Pos)
	if err != nil {
		jumpLog.Error().Err(err).Int("turn", s.Turn).Stringer("piece", piece.Pos).Msg("Target not found")
		return s, fmt.Errorf("turn %d: %w", s.Turn, err)
	}
	s.Target = geometry.Some(target.Center)
	s.Apex = geometry.Some(target.Apex)
	s.OnCenter = target.OnCenter
	s.OnCenterSet = true

	c.enter(PhaseLocateOrigin, s.Turn)
	s.Origin = c.loc.LocateOrigin(f, prevCrop, piece.Pos)

	c.enter(PhaseCropTargetImage, s.Turn)
	if crop, ok := c.loc.CropTarget(f, target); ok {
		s.setTargetImage(crop)
	} else {
		jumpLog.Warn().Int("turn", s.Turn).Stringer("target", target.Center).Msg("Target crop empty, next origin lookup disabled")
	}

	c.enter(PhaseReviewLastJump, s.Turn)
	s.Review = ReviewLastJump(prev, s.Origin, piece.Pos, s.OnCenter)
	c.handleReview(s)

	c.enter(PhaseComputeAndAct, s.Turn)
	s.Distance = ProjectDistance(piece.Pos, target.Center, s.JumpRight)
	s.Duration = int(math.Round(c.model.Predict(s.Distance)))
	s.Computed = true
	if s.Duration <= 0 {
		c.drop(s)
		return s, fmt.Errorf("turn %d: distance %.1f: %w", s.Turn, s.Distance, ErrBadDuration)
	}

	at := c.loc.Resolution().Center()
	jumpLog.Info().
		Int("turn", s.Turn).
		Stringer("piece", piece.Pos).
		Stringer("target", target.Center).
		Bool("right", s.JumpRight).
		Bool("on_center", s.OnCenter).
		Float64("distance", s.Distance).
		Int("duration_ms", s.Duration).
		Msg("Jump")
	if err := c.presser.LongPress(ctx, at, time.Duration(s.Duration)*time.Millisecond); err != nil {
		c.drop(s)
		return s, fmt.Errorf("turn %d: press: %w", s.Turn, err)
	}

	c.prev.Close()
	c.prev = s
	c.turn = s.Turn
	return s, nil
}

// drop ends a turn that was reviewed but not pressed. The previous turn has
// been consumed by the review, so nothing is carried.
func (c *Controller) drop(s *TurnState) {
	s.Close()
	c.prev.Close()
	c.prev = nil
	c.turn = s.Turn
}

func (c *Controller) handleReview(s *TurnState) {
	r := s.Review
	switch r.Outcome {
	case ReviewSkipped:
		jumpLog.Debug().Int("turn", s.Turn).Str("reason", r.Reason).Msg("Calibration skipped")
	case ReviewUnhandled:
		jumpLog.Warn().
			Int("turn", s.Turn).
			Str("reason", r.Reason).
			Stringer("landing", r.Calibration.Landing).
			Msg("Calibration unhandled, no record written")
	case ReviewRecorded:
		cal := r.Calibration
		jumpLog.Info().
			Int("turn", s.Turn).
			Stringer("landing", cal.Landing).
			Float64("planned", cal.PlannedDistance).
			Float64("actual", cal.ActualDistance).
			Int("duration_ms", cal.Duration).
			Bool("on_center", cal.OnCenter).
			Msg("Calibration")
		if c.sink == nil {
			return
		}
		if err := c.sink.Record(cal); err != nil {
			jumpLog.Warn().Err(err).Int("turn", s.Turn).Msg("Failed to write calibration record")
		}
	}
}

// Reset forgets the previous turn, e.g. after the game restarts.
func (c *Controller) Reset() {
	c.prev.Close()
	c.prev = nil
	c.phase = PhaseInit
}

// Close releases the carried target crop.
func (c *Controller) Close() error {
	c.Reset()
	return nil
}
