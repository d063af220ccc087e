package press

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"jumpbot/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockPort replays canned replies and records writes.
type mockPort struct {
	replies *strings.Reader
	written bytes.Buffer
	timeout time.Duration
	closed  bool
}

func newMockPort(replies string) *mockPort {
	return &mockPort{replies: strings.NewReader(replies)}
}

func (m *mockPort) Read(p []byte) (int, error)  { return m.replies.Read(p) }
func (m *mockPort) Write(p []byte) (int, error) { return m.written.Write(p) }
func (m *mockPort) Close() error                { m.closed = true; return nil }

func (m *mockPort) SetReadTimeout(t time.Duration) error {
	m.timeout = t
	return nil
}

func TestCommand(t *testing.T) {
	assert.Equal(t, "P 540 960 318\n", Command(geometry.Pt(540, 960), 318*time.Millisecond))
}

func TestLongPress(t *testing.T) {
	port := newMockPort("OK\nOK\n")
	s := New(port)

	require.NoError(t, s.LongPress(context.Background(), geometry.Pt(540, 960), 318*time.Millisecond))
	require.NoError(t, s.LongPress(context.Background(), geometry.Pt(360, 640), 512*time.Millisecond))

	assert.Equal(t, "P 540 960 318\nP 360 640 512\n", port.written.String())
	assert.Equal(t, 512*time.Millisecond+2*time.Second, port.timeout)

	require.NoError(t, s.Close())
	assert.True(t, port.closed)
}

func TestLongPressErrors(t *testing.T) {
	ctx := context.Background()

	err := New(newMockPort("ERR servo stalled\n")).LongPress(ctx, geometry.Pt(1, 1), time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "servo stalled")

	err = New(newMockPort("BUSY\n")).LongPress(ctx, geometry.Pt(1, 1), time.Millisecond)
	assert.ErrorContains(t, err, "unexpected reply")

	err = New(newMockPort("")).LongPress(ctx, geometry.Pt(1, 1), time.Millisecond)
	assert.ErrorContains(t, err, "read reply")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	port := newMockPort("OK\n")
	assert.ErrorIs(t, New(port).LongPress(cancelled, geometry.Pt(1, 1), time.Millisecond), context.Canceled)
	assert.Zero(t, port.written.Len())
}
