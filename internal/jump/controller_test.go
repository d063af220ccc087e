package jump

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"jumpbot/internal/frame"
	"jumpbot/internal/locate"
	"jumpbot/pkg/geometry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// step is what the fake locator reports for one frame.
type step struct {
	piece    locate.Piece
	pieceErr error
	target   locate.Target
	tgtErr   error
	origin   geometry.OptPoint
}

type fakeLocator struct {
	res   geometry.Resolution
	steps []step
	call  int

	targetCalls int
	prevCrops   []*gocv.Mat
}

func (l *fakeLocator) cur() step { return l.steps[l.call] }

func (l *fakeLocator) Resolution() geometry.Resolution { return l.res }

func (l *fakeLocator) LocatePiece(*frame.Frame) (locate.Piece, error) {
	s := l.cur()
	if s.pieceErr != nil {
		l.call++
		return locate.Piece{}, s.pieceErr
	}
	return s.piece, nil
}

func (l *fakeLocator) LocateTarget(_ *frame.Frame, _ geometry.Point) (locate.Target, error) {
	l.targetCalls++
	s := l.cur()
	if s.tgtErr != nil {
		l.call++
		return locate.Target{}, s.tgtErr
	}
	return s.target, nil
}

func (l *fakeLocator) LocateOrigin(_ *frame.Frame, prevCrop *gocv.Mat, _ geometry.Point) geometry.OptPoint {
	l.prevCrops = append(l.prevCrops, prevCrop)
	return l.cur().origin
}

func (l *fakeLocator) CropTarget(*frame.Frame, locate.Target) (gocv.Mat, bool) {
	l.call++
	return gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8U), true
}

type linearModel struct{ slope, intercept float64 }

func (m linearModel) Predict(d float64) float64 { return m.slope*d + m.intercept }

type press struct {
	at geometry.Point
	d  time.Duration
}

type fakePresser struct {
	presses []press
	err     error
}

func (p *fakePresser) LongPress(_ context.Context, at geometry.Point, d time.Duration) error {
	if p.err != nil {
		return p.err
	}
	p.presses = append(p.presses, press{at: at, d: d})
	return nil
}

type fakeSink struct{ records []Calibration }

func (s *fakeSink) Record(c Calibration) error {
	s.records = append(s.records, c)
	return nil
}

var res1080 = geometry.Resolution{Width: 1080, Height: 1920}

func firstStep() step {
	return step{
		piece:  locate.Piece{Pos: geometry.Pt(538, 986), JumpRight: true, Score: 0.93},
		target: locate.Target{Center: geometry.Pt(600, 810), Apex: geometry.Pt(600, 720)},
		origin: geometry.NotFound,
	}
}

func TestControllerTurn(t *testing.T) {
	loc := &fakeLocator{res: res1080, steps: []step{firstStep()}}
	model := linearModel{slope: 1.37, intercept: 12.4}
	presser := &fakePresser{}
	sink := &fakeSink{}

	c := NewController(loc, model, presser, sink)
	defer c.Close()

	s, err := c.Turn(context.Background(), &frame.Frame{})
	require.NoError(t, err)

	wantDistance := 176 + 62/math.Sqrt(3)
	wantDuration := int(math.Round(model.Predict(wantDistance)))

	assert.Equal(t, geometry.Found(538, 986), s.Piece)
	assert.Equal(t, geometry.Found(600, 810), s.Target)
	assert.Equal(t, geometry.Found(600, 720), s.Apex)
	assert.False(t, s.Origin.Valid())
	assert.True(t, s.JumpRight)
	assert.True(t, s.OnCenterSet)
	assert.False(t, s.OnCenter)
	assert.InDelta(t, wantDistance, s.Distance, 1e-9)
	assert.Equal(t, wantDuration, s.Duration)
	assert.True(t, s.Computed)
	assert.NotNil(t, s.TargetImage())
	assert.Equal(t, ReviewSkipped, s.Review.Outcome)

	require.Len(t, presser.presses, 1)
	assert.Equal(t, press{at: geometry.Pt(540, 960), d: time.Duration(wantDuration) * time.Millisecond}, presser.presses[0])
	assert.Empty(t, sink.records)
	assert.Equal(t, PhaseComputeAndAct, c.Phase())
	assert.Same(t, s, c.Last())
	assert.Equal(t, []*gocv.Mat{nil}, loc.prevCrops, "first turn has no origin crop")
}

func TestControllerPieceNotFound(t *testing.T) {
	loc := &fakeLocator{res: res1080, steps: []step{{pieceErr: locate.ErrPieceNotFound}}}
	presser := &fakePresser{}
	c := NewController(loc, linearModel{slope: 1}, presser, nil)

	s, err := c.Turn(context.Background(), &frame.Frame{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, locate.ErrLandmarkNotFound))
	assert.True(t, errors.Is(err, locate.ErrPieceNotFound))
	if diff := cmp.Diff(&TurnState{Turn: 1}, s, cmp.AllowUnexported(TurnState{}, geometry.OptPoint{})); diff != "" {
		t.Errorf("state written past the piece (-want +got):\n%s", diff)
	}
	assert.Zero(t, loc.targetCalls)
	assert.Empty(t, presser.presses)
	assert.Equal(t, PhaseLocatePiece, c.Phase())
	assert.Nil(t, c.Last())
}

func TestControllerTargetNotFound(t *testing.T) {
	st := firstStep()
	st.tgtErr = locate.ErrTargetNotFound
	loc := &fakeLocator{res: res1080, steps: []step{st}}
	presser := &fakePresser{}
	c := NewController(loc, linearModel{slope: 1}, presser, nil)

	s, err := c.Turn(context.Background(), &frame.Frame{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, locate.ErrLandmarkNotFound))
	assert.Equal(t, geometry.Found(538, 986), s.Piece)
	assert.False(t, s.Target.Valid())
	assert.False(t, s.Computed)
	assert.Empty(t, presser.presses)
}

func TestControllerReviewsPreviousJump(t *testing.T) {
	second := step{
		// The piece landed exactly on the tile targeted last turn.
		piece:  locate.Piece{Pos: geometry.Pt(600, 810), JumpRight: false},
		target: locate.Target{Center: geometry.Pt(380, 690), Apex: geometry.Pt(380, 610), OnCenter: true},
		origin: geometry.Found(600, 810),
	}
	loc := &fakeLocator{res: res1080, steps: []step{firstStep(), second}}
	model := linearModel{slope: 1.5}
	presser := &fakePresser{}
	sink := &fakeSink{}
	c := NewController(loc, model, presser, sink)
	defer c.Close()

	first, err := c.Turn(context.Background(), &frame.Frame{})
	require.NoError(t, err)
	firstCrop := first.TargetImage()

	s, err := c.Turn(context.Background(), &frame.Frame{})
	require.NoError(t, err)

	assert.Equal(t, 2, s.Turn)
	require.Len(t, loc.prevCrops, 2)
	assert.Same(t, firstCrop, loc.prevCrops[1], "origin lookup uses last turn's crop")
	assert.Nil(t, first.TargetImage(), "carried crop released once superseded")

	require.Len(t, sink.records, 1)
	want := Calibration{
		ActualDistance:  first.Distance,
		Duration:        first.Duration,
		OnCenter:        true,
		PlannedDistance: first.Distance,
		Landing:         LandedExact,
	}
	if diff := cmp.Diff(want, sink.records[0]); diff != "" {
		t.Errorf("calibration record (-want +got):\n%s", diff)
	}
	assert.Len(t, presser.presses, 2)
}

func TestControllerPressFailure(t *testing.T) {
	loc := &fakeLocator{res: res1080, steps: []step{firstStep()}}
	boom := errors.New("device offline")
	c := NewController(loc, linearModel{slope: 1}, &fakePresser{err: boom}, nil)

	s, err := c.Turn(context.Background(), &frame.Frame{})

	require.ErrorIs(t, err, boom)
	assert.True(t, s.Computed)
	assert.Nil(t, s.TargetImage())
	assert.Nil(t, c.Last(), "failed press is not carried")
}

func TestControllerPressFailureDropsLookback(t *testing.T) {
	landed := step{
		piece:  locate.Piece{Pos: geometry.Pt(600, 810), JumpRight: false},
		target: locate.Target{Center: geometry.Pt(380, 690), Apex: geometry.Pt(380, 610)},
		origin: geometry.Found(600, 810),
	}
	loc := &fakeLocator{res: res1080, steps: []step{firstStep(), landed, landed}}
	presser := &fakePresser{}
	sink := &fakeSink{}
	c := NewController(loc, linearModel{slope: 1.5}, presser, sink)
	defer c.Close()

	_, err := c.Turn(context.Background(), &frame.Frame{})
	require.NoError(t, err)

	presser.err = errors.New("device offline")
	second, err := c.Turn(context.Background(), &frame.Frame{})
	require.Error(t, err)
	assert.Equal(t, ReviewRecorded, second.Review.Outcome)
	assert.Nil(t, c.Last())

	// The piece has not moved; the same jump must not be recorded again.
	presser.err = nil
	third, err := c.Turn(context.Background(), &frame.Frame{})
	require.NoError(t, err)
	assert.Equal(t, 3, third.Turn)
	assert.Equal(t, ReviewSkipped, third.Review.Outcome)
	require.Len(t, loc.prevCrops, 3)
	assert.Nil(t, loc.prevCrops[2])
	assert.Len(t, sink.records, 1)
}

func TestControllerBadDurationDropsLookback(t *testing.T) {
	loc := &fakeLocator{res: res1080, steps: []step{firstStep(), firstStep()}}
	model := &switchModel{linearModel{slope: 1}}
	c := NewController(loc, model, &fakePresser{}, nil)
	defer c.Close()

	first, err := c.Turn(context.Background(), &frame.Frame{})
	require.NoError(t, err)
	require.NotNil(t, first.TargetImage())

	model.m = linearModel{intercept: -1}
	_, err = c.Turn(context.Background(), &frame.Frame{})
	require.ErrorIs(t, err, ErrBadDuration)
	assert.Nil(t, c.Last())
	assert.Nil(t, first.TargetImage(), "superseded crop released")
}

type switchModel struct{ m linearModel }

func (s *switchModel) Predict(d float64) float64 { return s.m.Predict(d) }

func TestControllerRejectsNonPositiveDuration(t *testing.T) {
	loc := &fakeLocator{res: res1080, steps: []step{firstStep()}}
	presser := &fakePresser{}
	c := NewController(loc, linearModel{slope: 0, intercept: -3}, presser, nil)

	_, err := c.Turn(context.Background(), &frame.Frame{})

	require.ErrorIs(t, err, ErrBadDuration)
	assert.Empty(t, presser.presses)
}

func TestControllerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewController(&fakeLocator{res: res1080}, linearModel{}, &fakePresser{}, nil)

	_, err := c.Turn(ctx, &frame.Frame{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "review_last_jump", PhaseReviewLastJump.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
