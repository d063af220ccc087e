// Package main provides the entry point for jumpbot.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"jumpbot/internal/adb"
	"jumpbot/internal/app"
	"jumpbot/internal/config"
	"jumpbot/internal/history"
	"jumpbot/internal/jump"
	"jumpbot/internal/locate"
	"jumpbot/internal/logging"
	"jumpbot/internal/model"
	"jumpbot/internal/ocr"
	"jumpbot/internal/press"
	"jumpbot/internal/version"
	"jumpbot/internal/vision"
	"jumpbot/pkg/geometry"
	"jumpbot/ui/preview"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to the JSON config file")
	start := flag.Bool("start", false, "Tap the start button before the first turn")
	turns := flag.Int("turns", -1, "Stop after this many turns (overrides max_turns)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jumpbot: %v\n", err)
		os.Exit(1)
	}
	if *start {
		cfg.TapStart = true
	}
	if *turns >= 0 {
		cfg.MaxTurns = *turns
	}
	cfg.Debug = cfg.Debug || *debug

	logCloser, err := logging.Init(logging.Options{Debug: cfg.Debug, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "jumpbot: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	log.Info().Str("version", version.Version).Str("config", *configPath).Msg("Starting jumpbot")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("jumpbot stopped")
		logCloser.Close()
		os.Exit(1)
	}
}

// loadConfig reads path, falling back to defaults when the default config
// file does not exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && path == config.DefaultPath {
		return config.Default(), nil
	}
	return cfg, err
}

// session holds everything opened for one run, so it can be released in
// one place.
type session struct {
	closers []io.Closer
}

func (s *session) add(c io.Closer) {
	s.closers = append(s.closers, c)
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			log.Warn().Err(err).Msg("Close failed")
		}
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	var sess session
	defer sess.Close()

	samples, err := model.LoadDataset(cfg.DatasetPath)
	if err != nil {
		return fmt.Errorf("training set: %w", err)
	}
	reg, err := model.Train(cfg.ModelKind(), cfg.Degree, samples)
	if err != nil {
		return fmt.Errorf("training: %w", err)
	}
	log.Info().Int("samples", reg.Samples()).Stringer("model", reg).Float64("rms", reg.RMS()).Msg("Model trained")

	device := adb.NewClient(cfg.ADBPath, cfg.DeviceSerial)
	if cfg.Connect != "" {
		if err := device.Connect(ctx, cfg.Connect); err != nil {
			return err
		}
	}
	res, err := device.Resolution(ctx)
	if err != nil {
		return fmt.Errorf("screen size: %w", err)
	}
	log.Info().Stringer("resolution", res).Msg("Device ready")

	tpl, err := vision.LoadTemplateSet(cfg.AssetsDir, res, vision.DefaultDeltas())
	if err != nil {
		return err
	}
	sess.add(tpl)
	loc := locate.New(res, tpl, cfg.LocateParams())

	var presser jump.Presser = device
	if cfg.Presser == config.PresserSerial {
		rig, err := press.Open(cfg.SerialPort, cfg.SerialBaud)
		if err != nil {
			return err
		}
		sess.add(rig)
		presser = rig
	}

	calib, err := model.OpenAppender(cfg.CalibrationLog)
	if err != nil {
		return err
	}
	sess.add(calib)

	ctl := jump.NewController(loc, reg, presser, calib)
	sess.add(ctl)

	runner := app.NewRunner(device, ctl, app.Options{
		Resolution:  res,
		JumpDelay:   cfg.JumpDelayDuration(),
		MaxTurns:    cfg.MaxTurns,
		AutoRestart: cfg.AutoRestart,
		TapStart:    cfg.TapStart,
		AnnotateDir: cfg.AnnotateDir,
		Model:       reg.String(),
	})

	if cfg.HistoryDB != "" {
		db, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return err
		}
		sess.add(db)
		runner.History = db
	}

	if cfg.OCR {
		engine, err := ocr.NewEngine()
		if err != nil {
			return err
		}
		sess.add(engine)
		runner.Score = engine
	}

	if !cfg.Preview {
		_, err := runner.Run(ctx)
		return err
	}
	return runWithPreview(ctx, runner, res)
}

// runWithPreview plays in the background while the preview window owns the
// main goroutine. Closing the window stops the run.
func runWithPreview(ctx context.Context, runner *app.Runner, res geometry.Resolution) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a := fyneapp.NewWithID("com.github.jumpbot")
	win := preview.New(a, res)
	win.SetOnClosed(cancel)
	runner.Viewer = win

	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		result, err := runner.Run(ctx)
		runErr = err
		if ctx.Err() != nil {
			a.Quit()
			return
		}
		win.SetStatus(fmt.Sprintf("Finished: %d turns, %s", result.Turns, result.Reason))
	}()

	win.ShowAndRun()
	cancel()
	<-done
	return runErr
}
