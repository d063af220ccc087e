// Package adb drives an Android device through the adb command line:
// screen size, screenshots, taps and timed presses.
package adb

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"jumpbot/internal/frame"
	"jumpbot/internal/logging"
	"jumpbot/pkg/geometry"

	"github.com/rs/zerolog"
)

var adbLog zerolog.Logger = logging.Module("adb")

// Runner executes a command and returns its stdout.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the local host.
type ExecRunner struct{}

// Run executes name with args. A failed command's stderr is folded into
// the error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Client talks to one device.
type Client struct {
	path   string
	serial string
	runner Runner
}

// NewClient creates a client using the adb binary at path (looked up in
// PATH when bare). serial selects a device when several are attached; empty
// means the only one.
func NewClient(path, serial string) *Client {
	if path == "" {
		path = "adb"
	}
	return &Client{path: path, serial: serial, runner: ExecRunner{}}
}

// WithRunner replaces the command runner.
func (c *Client) WithRunner(r Runner) *Client {
	c.runner = r
	return c
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	if c.serial != "" {
		args = append([]string{"-s", c.serial}, args...)
	}
	adbLog.Trace().Strs("args", args).Msg("adb")
	return c.runner.Run(ctx, c.path, args...)
}

// Connect attaches a device over TCP (host:port).
func (c *Client) Connect(ctx context.Context, addr string) error {
	out, err := c.runner.Run(ctx, c.path, "connect", addr)
	if err != nil {
		return err
	}
	msg := strings.TrimSpace(string(out))
	if !strings.Contains(msg, "connected") || strings.Contains(msg, "cannot") {
		return fmt.Errorf("adb connect %s: %s", addr, msg)
	}
	adbLog.Info().Str("addr", addr).Msg("Connected")
	if c.serial == "" {
		c.serial = addr
	}
	return nil
}

// Resolution queries the physical screen size.
func (c *Client) Resolution(ctx context.Context) (geometry.Resolution, error) {
	out, err := c.run(ctx, "shell", "wm", "size")
	if err != nil {
		return geometry.Resolution{}, err
	}
	return ParseWMSize(string(out))
}

var wmSizeRe = regexp.MustCompile(`Physical size:\s*(\d+)x(\d+)`)

// ParseWMSize parses `wm size` output ("Physical size: 1080x1920").
func ParseWMSize(out string) (geometry.Resolution, error) {
	m := wmSizeRe.FindStringSubmatch(out)
	if m == nil {
		return geometry.Resolution{}, fmt.Errorf("unexpected wm size output %q", strings.TrimSpace(out))
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	if w <= 0 || h <= 0 {
		return geometry.Resolution{}, fmt.Errorf("invalid screen size %dx%d", w, h)
	}
	return geometry.Resolution{Width: w, Height: h}, nil
}

// Screencap returns the current screen as PNG bytes.
func (c *Client) Screencap(ctx context.Context) ([]byte, error) {
	out, err := c.run(ctx, "exec-out", "screencap", "-p")
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("screencap returned no data")
	}
	return out, nil
}

// Capture takes a screenshot and decodes it.
func (c *Client) Capture(ctx context.Context) (*frame.Frame, error) {
	data, err := c.Screencap(ctx)
	if err != nil {
		return nil, err
	}
	return frame.Decode(data)
}

// Tap taps once at p.
func (c *Client) Tap(ctx context.Context, p geometry.Point) error {
	_, err := c.run(ctx, "shell", "input", "tap", strconv.Itoa(p.X), strconv.Itoa(p.Y))
	return err
}

// LongPress holds at p for d, expressed as a zero-length swipe.
func (c *Client) LongPress(ctx context.Context, p geometry.Point, d time.Duration) error {
	x, y := strconv.Itoa(p.X), strconv.Itoa(p.Y)
	ms := strconv.FormatInt(d.Milliseconds(), 10)
	_, err := c.run(ctx, "shell", "input", "swipe", x, y, x, y, ms)
	return err
}
