// Package logging owns the global zerolog logger. Packages take their
// module sub-logger from Module at init time; Init later redirects every
// sub-logger by swapping the writer underneath them.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type switchWriter struct {
	mu sync.RWMutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

var (
	out  = &switchWriter{w: console(os.Stderr)}
	root = newRoot()
)

func newRoot() zerolog.Logger {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}

func console(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
}

// Module returns a sub-logger tagged with module=name.
func Module(name string) zerolog.Logger {
	return root.With().Str("module", name).Logger()
}

// Options configure Init.
type Options struct {
	Debug   bool      // Debug level instead of Info
	File    string    // Optional JSON log file, appended to
	Console io.Writer // Human-readable output; nil means stderr
}

// Init configures output and level. The returned closer releases the log
// file, if any.
func Init(opts Options) (io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	con := opts.Console
	if con == nil {
		con = os.Stderr
	}
	writers := []io.Writer{console(con)}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, f)
		closer = f
	}

	out.set(zerolog.MultiLevelWriter(writers...))
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
