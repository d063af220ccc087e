package adb

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"jumpbot/pkg/geometry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls []call
	out   []byte
	err   error
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, call{name: name, args: args})
	return r.out, r.err
}

func TestParseWMSize(t *testing.T) {
	res, err := ParseWMSize("Physical size: 1080x1920\n")
	require.NoError(t, err)
	assert.Equal(t, geometry.Resolution{Width: 1080, Height: 1920}, res)

	res, err = ParseWMSize("Physical size: 720x1280\r\nOverride size: 540x960\r\n")
	require.NoError(t, err)
	assert.Equal(t, geometry.Resolution{Width: 720, Height: 1280}, res)

	for _, bad := range []string{"", "error: no devices/emulators found", "Physical size: 0x1920"} {
		_, err := ParseWMSize(bad)
		assert.Error(t, err, bad)
	}
}

func TestCommands(t *testing.T) {
	ctx := context.Background()
	r := &fakeRunner{}
	c := NewClient("/opt/adb", "emulator-5554").WithRunner(r)

	require.NoError(t, c.Tap(ctx, geometry.Pt(540, 1286)))
	require.NoError(t, c.LongPress(ctx, geometry.Pt(540, 960), 318*time.Millisecond))

	want := []call{
		{"/opt/adb", []string{"-s", "emulator-5554", "shell", "input", "tap", "540", "1286"}},
		{"/opt/adb", []string{"-s", "emulator-5554", "shell", "input", "swipe", "540", "960", "540", "960", "318"}},
	}
	if diff := cmp.Diff(want, r.calls, cmp.AllowUnexported(call{})); diff != "" {
		t.Errorf("commands (-want +got):\n%s", diff)
	}
}

func TestResolutionWithoutSerial(t *testing.T) {
	r := &fakeRunner{out: []byte("Physical size: 1080x2340\n")}
	c := NewClient("", "").WithRunner(r)

	res, err := c.Resolution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, geometry.Resolution{Width: 1080, Height: 2340}, res)
	require.Len(t, r.calls, 1)
	assert.Equal(t, "adb", r.calls[0].name)
	assert.Equal(t, []string{"shell", "wm", "size"}, r.calls[0].args)
}

func TestConnect(t *testing.T) {
	r := &fakeRunner{out: []byte("connected to 192.168.1.20:5555\n")}
	c := NewClient("adb", "").WithRunner(r)

	require.NoError(t, c.Connect(context.Background(), "192.168.1.20:5555"))
	require.NoError(t, c.Tap(context.Background(), geometry.Pt(1, 2)))
	assert.Equal(t, []string{"-s", "192.168.1.20:5555", "shell", "input", "tap", "1", "2"}, r.calls[1].args)

	r.out = []byte("cannot connect to 10.0.0.9:5555: Connection refused\n")
	assert.Error(t, c.Connect(context.Background(), "10.0.0.9:5555"))
}

func TestCapture(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 36, 64))
	img.SetGray(10, 20, color.Gray{Y: 200})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	c := NewClient("adb", "").WithRunner(&fakeRunner{out: buf.Bytes()})
	f, err := c.Capture(context.Background())
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, geometry.Resolution{Width: 36, Height: 64}, f.Resolution())
	assert.Equal(t, uint8(200), f.PixelAt(10, 20).Y)
}

func TestScreencapErrors(t *testing.T) {
	boom := errors.New("device offline")
	c := NewClient("adb", "").WithRunner(&fakeRunner{err: boom})
	_, err := c.Screencap(context.Background())
	assert.ErrorIs(t, err, boom)

	c = NewClient("adb", "").WithRunner(&fakeRunner{})
	_, err = c.Screencap(context.Background())
	assert.Error(t, err)
}
