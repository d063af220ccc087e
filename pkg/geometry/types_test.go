package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptPointZeroValueIsNotFound(t *testing.T) {
	var o OptPoint
	assert.False(t, o.Valid())
	assert.Equal(t, NotFound, o)

	origin := Found(0, 0)
	require.True(t, origin.Valid())
	p, ok := origin.Get()
	assert.True(t, ok)
	assert.Equal(t, Pt(0, 0), p)
	assert.NotEqual(t, NotFound, origin)
}

func TestOptPointMustGetPanics(t *testing.T) {
	assert.Panics(t, func() { NotFound.MustGet() })
	assert.Equal(t, Pt(3, 4), Some(Pt(3, 4)).MustGet())
}

func TestRectClamp(t *testing.T) {
	tests := []struct {
		name string
		in   RectInt
		want RectInt
	}{
		{"inside", RectInt{10, 10, 5, 5}, RectInt{10, 10, 5, 5}},
		{"negative origin", RectFromCorners(-4, -2, 6, 8), RectInt{0, 0, 6, 8}},
		{"overflow", RectFromCorners(95, 45, 120, 70), RectInt{95, 45, 5, 5}},
		{"outside", RectFromCorners(200, 200, 210, 210), RectInt{100, 50, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Clamp(100, 50))
		})
	}
	assert.True(t, RectFromCorners(200, 200, 210, 210).Clamp(100, 50).Empty())
}

func TestResolutionScale(t *testing.T) {
	ref := Resolution{Width: 1080, Height: 1920}
	assert.InDelta(t, 1.0, ref.Scale(), 1e-12)
	assert.Equal(t, 40, ref.ScalePixels(40))

	hd := Resolution{Width: 720, Height: 1280}
	assert.Equal(t, 27, hd.ScalePixels(40))
	assert.Equal(t, 67, hd.ScalePixels(100))

	assert.Equal(t, Pt(540, 960), ref.Center())
	assert.Equal(t, Pt(540, 1286), ref.At(0.5, 0.67))
	assert.Equal(t, "1080x1920", ref.Key())
	assert.True(t, ref.Contains(Pt(1079, 1919)))
	assert.False(t, ref.Contains(Pt(1080, 0)))
}
