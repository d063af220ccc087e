// Package press drives an external stylus rig over a serial line, as an
// alternative to adb input events for devices that throttle them.
//
// Protocol: the host writes "P <x> <y> <ms>\n"; the rig presses and answers
// "OK\n" once the stylus has lifted, or "ERR <reason>\n".
package press

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"jumpbot/internal/logging"
	"jumpbot/pkg/geometry"

	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

var pressLog zerolog.Logger = logging.Module("press")

// DefaultBaudRate matches the rig firmware.
const DefaultBaudRate = 115200

// Port is the part of serial.Port the presser uses.
type Port interface {
	io.ReadWriteCloser
}

type readTimeouter interface {
	SetReadTimeout(t time.Duration) error
}

// Serial dispatches presses to a stylus rig. It implements jump.Presser.
type Serial struct {
	mu     sync.Mutex
	port   Port
	reader *bufio.Reader
	// Slack added to the press duration when waiting for the reply.
	replySlack time.Duration
}

// Open opens the rig's serial port at 8N1.
func Open(path string, baud int) (*Serial, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	pressLog.Info().Str("port", path).Int("baud", baud).Msg("Stylus rig connected")
	return New(port), nil
}

// New wraps an open port.
func New(port Port) *Serial {
	return &Serial{port: port, reader: bufio.NewReader(port), replySlack: 2 * time.Second}
}

// Command formats the press command line.
func Command(p geometry.Point, d time.Duration) string {
	return fmt.Sprintf("P %d %d %d\n", p.X, p.Y, d.Milliseconds())
}

// LongPress presses at p for d and waits for the rig to acknowledge.
func (s *Serial) LongPress(ctx context.Context, p geometry.Point, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if rt, ok := s.port.(readTimeouter); ok {
		if err := rt.SetReadTimeout(d + s.replySlack); err != nil {
			return fmt.Errorf("set read timeout: %w", err)
		}
	}

	if _, err := io.WriteString(s.port, Command(p, d)); err != nil {
		return fmt.Errorf("write press: %w", err)
	}

	line, err := s.reader.ReadString('\n')
	reply := strings.TrimSpace(line)
	if err != nil && reply == "" {
		return fmt.Errorf("read reply: %w", err)
	}
	switch {
	case reply == "OK":
		return nil
	case strings.HasPrefix(reply, "ERR"):
		return fmt.Errorf("rig: %s", strings.TrimSpace(strings.TrimPrefix(reply, "ERR")))
	default:
		return fmt.Errorf("rig: unexpected reply %q", reply)
	}
}

// Close closes the port.
func (s *Serial) Close() error {
	return s.port.Close()
}
