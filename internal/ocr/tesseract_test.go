package ocr

import (
	"errors"
	"testing"

	"jumpbot/internal/testutil"
	"jumpbot/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestParseScore(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"0", 0},
		{"128", 128},
		{" 42 ", 42},
		{"1 7", 1},
		{"score 305\n", 305},
	}
	for _, tt := range tests {
		got, err := ParseScore(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseScore("")
	assert.True(t, errors.Is(err, ErrNoScore))
	_, err = ParseScore("---")
	assert.True(t, errors.Is(err, ErrNoScore))
}

func TestScoreBand(t *testing.T) {
	r := ScoreBand(geometry.Resolution{Width: 1080, Height: 1920})
	assert.Equal(t, geometry.RectInt{X: 32, Y: 115, Width: 508, Height: 211}, r)

	small := ScoreBand(geometry.Resolution{Width: 720, Height: 1280})
	assert.Less(t, small.X+small.Width, 720)
	assert.Less(t, small.Y+small.Height, 1280/3, "stays above the tile scan band")
}

func TestPreprocessDarkGlyphsOnLight(t *testing.T) {
	// Light glyph on a dark band, as the readout draws over a dark sky.
	c := testutil.NewCanvas(60, 30, 20)
	c.FillRect(20, 5, 30, 25, 230)
	region := c.Mat(t)

	out := preprocessForOCR(region)
	defer out.Close()

	assert.Equal(t, 150, out.Rows(), "upscaled to the minimum height")
	assert.Equal(t, 300, out.Cols())
	assert.Equal(t, gocv.MatTypeCV8U, out.Type())
	assert.Equal(t, uint8(255), out.GetUCharAt(2, 2), "background ends up light")
	assert.Equal(t, uint8(0), out.GetUCharAt(75, 125), "glyph ends up dark")
}
