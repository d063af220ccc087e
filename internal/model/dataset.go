package model

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"jumpbot/internal/jump"
)

// Sample is one logged jump: the distance covered, the press that covered
// it, and whether the piece landed on the tile center.
type Sample struct {
	Distance  float64
	Duration  int
	HitCenter bool
}

func (s Sample) String() string {
	return fmt.Sprintf("%v %d %t", s.Distance, s.Duration, s.HitCenter)
}

// ParseDataset reads "<distance> <duration> [hit_center]" lines. Blank lines
// are skipped; the third column is optional and defaults to false.
func ParseDataset(r io.Reader) ([]Sample, error) {
	var samples []Sample
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		s, err := parseSample(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

func parseSample(text string) (Sample, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 || len(fields) > 3 {
		return Sample{}, fmt.Errorf("want 2 or 3 fields, got %d", len(fields))
	}

	var s Sample
	var err error
	if s.Distance, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return Sample{}, fmt.Errorf("distance: %w", err)
	}
	if s.Duration, err = strconv.Atoi(fields[1]); err != nil {
		// Older logs wrote the rounded duration as a float.
		f, ferr := strconv.ParseFloat(fields[1], 64)
		if ferr != nil {
			return Sample{}, fmt.Errorf("duration: %w", err)
		}
		s.Duration = int(math.Round(f))
	}
	if len(fields) == 3 {
		if s.HitCenter, err = strconv.ParseBool(fields[2]); err != nil {
			return Sample{}, fmt.Errorf("hit_center: %w", err)
		}
	}
	return s, nil
}

// LoadDataset reads a sample log from disk.
func LoadDataset(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	samples, err := ParseDataset(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// Appender appends calibration records to a sample log. It implements
// jump.RecordSink.
type Appender struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// OpenAppender opens path for appending, creating it if needed.
func OpenAppender(path string) (*Appender, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open sample log: %w", err)
	}
	return &Appender{path: path, f: f}, nil
}

// Path returns the log file path.
func (a *Appender) Path() string { return a.path }

// Record appends c as a sample line.
func (a *Appender) Record(c jump.Calibration) error {
	return a.Append(Sample{Distance: c.ActualDistance, Duration: c.Duration, HitCenter: c.OnCenter})
}

// Append writes one sample line.
func (a *Appender) Append(s Sample) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.f == nil {
		return os.ErrClosed
	}
	_, err := fmt.Fprintln(a.f, s.String())
	return err
}

// Close closes the log file.
func (a *Appender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.f == nil {
		return nil
	}
	err := a.f.Close()
	a.f = nil
	return err
}
