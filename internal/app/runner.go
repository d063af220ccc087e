// Package app runs the play loop: capture a frame, run one controller turn,
// record what happened, wait for the landing, repeat.
package app

import (
	"context"
	"errors"
	"image"
	"time"

	"jumpbot/internal/frame"
	"jumpbot/internal/history"
	"jumpbot/internal/jump"
	"jumpbot/internal/locate"
	"jumpbot/internal/logging"
	"jumpbot/internal/overlay"
	"jumpbot/pkg/geometry"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

var appLog zerolog.Logger = logging.Module("app")

// Button positions as fractions of the screen.
var (
	StartButton = [2]float64{0.5, 0.67}
	AgainButton = [2]float64{0.62, 0.79}
	BackButton  = [2]float64{0.07, 0.87}
)

// Stop reasons stored with a run.
const (
	StopMaxTurns    = "max_turns"
	StopPieceLost   = "piece_not_found"
	StopTargetLost  = "target_not_found"
	StopInterrupted = "interrupted"
	StopError       = "error"
)

// Device captures the screen and taps buttons. *adb.Client implements it.
type Device interface {
	Capture(ctx context.Context) (*frame.Frame, error)
	Tap(ctx context.Context, p geometry.Point) error
}

// Turner runs one perception-and-act turn. *jump.Controller implements it.
type Turner interface {
	Turn(ctx context.Context, f *frame.Frame) (*jump.TurnState, error)
	Reset()
}

// ScoreReader reads the on-screen score. *ocr.Engine implements it.
type ScoreReader interface {
	ReadScore(gray gocv.Mat) (int, error)
}

// Recorder persists runs and turns. *history.DB implements it.
type Recorder interface {
	StartRun(ctx context.Context, r history.Run) error
	RecordTurn(ctx context.Context, runID string, s *jump.TurnState, score int) error
	EndRun(ctx context.Context, id string, turns, score int, reason string) error
}

// Viewer displays annotated frames.
type Viewer interface {
	Show(img image.Image)
}

// Options controls the loop.
type Options struct {
	Resolution  geometry.Resolution
	JumpDelay   time.Duration // Added to every post-press wait
	MaxTurns    int           // 0 = unbounded
	AutoRestart bool
	TapStart    bool
	AnnotateDir string
	Model       string // Recorded with the run
}

// Result summarizes a finished run.
type Result struct {
	RunID    string
	Turns    int
	Restarts int
	Score    int // Last score read, -1 if none
	Reason   string
}

// Runner drives the game. Score, History and Viewer are optional.
type Runner struct {
	dev  Device
	ctl  Turner
	opts Options

	Score   ScoreReader
	History Recorder
	Viewer  Viewer

	// Sleep waits for d or until ctx is done. Replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error
	// NewID names each run.
	NewID func() string
}

// NewRunner creates a Runner.
func NewRunner(dev Device, ctl Turner, opts Options) *Runner {
	return &Runner{
		dev:   dev,
		ctl:   ctl,
		opts:  opts,
		Sleep: sleepContext,
		NewID: uuid.NewString,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// LandingWait is how long to wait after a press of the given duration for
// the piece to land and the camera to settle.
func LandingWait(durationMs int, delay time.Duration) time.Duration {
	return time.Duration(durationMs)*time.Second/5000 + delay
}

func (r *Runner) tap(ctx context.Context, at [2]float64) error {
	p := r.opts.Resolution.At(at[0], at[1])
	appLog.Debug().Stringer("at", p).Msg("Tap")
	return r.dev.Tap(ctx, p)
}

// Restart leaves the leaderboard and starts a new game.
func (r *Runner) Restart(ctx context.Context) error {
	if err := r.tap(ctx, BackButton); err != nil {
		return err
	}
	if err := r.Sleep(ctx, r.opts.JumpDelay); err != nil {
		return err
	}
	if err := r.tap(ctx, AgainButton); err != nil {
		return err
	}
	r.ctl.Reset()
	return r.Sleep(ctx, r.opts.JumpDelay)
}

// Run plays until the turn limit, a missing landmark without auto restart,
// a device error, or ctx cancellation. Cancellation and game over are not
// errors.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: r.NewID(), Score: -1}
	log := appLog.With().Str("run", res.RunID).Logger()

	if r.History != nil {
		err := r.History.StartRun(ctx, history.Run{
			ID:         res.RunID,
			StartedAt:  time.Now(),
			Resolution: r.opts.Resolution,
			Model:      r.opts.Model,
		})
		if err != nil {
			return res, err
		}
	}
	log.Info().Stringer("resolution", r.opts.Resolution).Int("max_turns", r.opts.MaxTurns).Msg("Run started")

	err := r.loop(ctx, &res)
	switch {
	case err == nil:
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		res.Reason = StopInterrupted
		err = nil
	default:
		res.Reason = StopError
	}

	if r.History != nil {
		// The run context may already be cancelled.
		endCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		if herr := r.History.EndRun(endCtx, res.RunID, res.Turns, res.Score, res.Reason); herr != nil {
			log.Warn().Err(herr).Msg("Failed to close run record")
		}
		cancel()
	}

	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Int("turns", res.Turns).Int("restarts", res.Restarts).Int("score", res.Score).Str("reason", res.Reason).Msg("Run finished")
	return res, err
}

func (r *Runner) loop(ctx context.Context, res *Result) error {
	if r.opts.TapStart {
		if err := r.tap(ctx, StartButton); err != nil {
			return err
		}
		if err := r.Sleep(ctx, r.opts.JumpDelay); err != nil {
			return err
		}
	}

	for {
		if r.opts.MaxTurns > 0 && res.Turns >= r.opts.MaxTurns {
			res.Reason = StopMaxTurns
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		s, err := r.step(ctx, res)
		if err == nil {
			res.Turns++
			if err := r.Sleep(ctx, LandingWait(s.Duration, r.opts.JumpDelay)); err != nil {
				return err
			}
			continue
		}

		if !errors.Is(err, locate.ErrLandmarkNotFound) {
			return err
		}
		reason := StopTargetLost
		if errors.Is(err, locate.ErrPieceNotFound) {
			reason = StopPieceLost
		}
		if !r.opts.AutoRestart {
			res.Reason = reason
			appLog.Info().Err(err).Msg("Landmark lost, assuming game over")
			return nil
		}
		appLog.Info().Err(err).Int("score", res.Score).Msg("Landmark lost, restarting")
		if err := r.Restart(ctx); err != nil {
			return err
		}
		res.Restarts++
	}
}

// step captures one frame and runs a turn on it. The frame is released
// before returning.
func (r *Runner) step(ctx context.Context, res *Result) (*jump.TurnState, error) {
	f, err := r.dev.Capture(ctx)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, turnErr := r.ctl.Turn(ctx, f)
	if s == nil {
		return nil, turnErr
	}

	score := -1
	if r.Score != nil && !f.Gray.Empty() {
		if v, err := r.Score.ReadScore(f.Gray); err == nil {
			score = v
			res.Score = v
		} else {
			appLog.Debug().Err(err).Int("turn", s.Turn).Msg("Score unreadable")
		}
	}

	if r.History != nil {
		if err := r.History.RecordTurn(ctx, res.RunID, s, score); err != nil {
			appLog.Warn().Err(err).Int("turn", s.Turn).Msg("Failed to record turn")
		}
	}

	r.show(f, s, res.RunID)
	return s, turnErr
}

func (r *Runner) show(f *frame.Frame, s *jump.TurnState, runID string) {
	if f.RGB == nil || (r.opts.AnnotateDir == "" && r.Viewer == nil) {
		return
	}
	img := overlay.Annotate(f.RGB, overlay.FromTurn(s))
	if r.opts.AnnotateDir != "" {
		path := overlay.TurnFile(r.opts.AnnotateDir, runID, s.Turn)
		if err := overlay.SavePNG(img, path); err != nil {
			appLog.Warn().Err(err).Str("path", path).Msg("Failed to save annotated frame")
		}
	}
	if r.Viewer != nil {
		r.Viewer.Show(img)
	}
}
