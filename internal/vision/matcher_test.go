package vision

import (
	"testing"

	"jumpbot/internal/testutil"
	"jumpbot/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchFindsPastedPatch(t *testing.T) {
	patch := testutil.NoiseCanvas(24, 30, 7)
	scene := testutil.NoiseCanvas(320, 240, 1)
	scene.Paste(patch, 150, 90)

	loc, score := Match(scene.Mat(t), patch.Mat(t), 0.8)

	p, ok := loc.Get()
	require.True(t, ok, "score %.3f", score)
	assert.Equal(t, geometry.Pt(150, 90), p)
	assert.InDelta(t, 1.0, score, 1e-3)
}

func TestMatchBelowThreshold(t *testing.T) {
	patch := testutil.NoiseCanvas(24, 30, 7)
	scene := testutil.NoiseCanvas(320, 240, 1)

	loc, score := Match(scene.Mat(t), patch.Mat(t), 0.8)

	assert.False(t, loc.Valid())
	assert.Less(t, score, 0.8)
}

func TestMatchTemplateLargerThanImage(t *testing.T) {
	small := testutil.NoiseCanvas(10, 10, 2)
	big := testutil.NoiseCanvas(20, 20, 3)

	loc, score := Match(small.Mat(t), big.Mat(t), 0.1)

	assert.False(t, loc.Valid())
	assert.Zero(t, score)
}

func TestTemplateLocateAppliesDelta(t *testing.T) {
	patch := testutil.NoiseCanvas(40, 60, 11)
	scene := testutil.NoiseCanvas(400, 300, 5)
	scene.Paste(patch, 12, 200)

	tpl, err := NewTemplate("piece", patch.OwnedMat(t), geometry.Pt(20, 55))
	require.NoError(t, err)
	defer tpl.Close()

	anchor, _ := tpl.Locate(scene.Mat(t), 0.7)
	assert.Equal(t, geometry.Found(32, 255), anchor)
	assert.Equal(t, 40, tpl.Width())
	assert.Equal(t, 60, tpl.Height())
}

func TestLoadTemplateMissingFile(t *testing.T) {
	_, err := LoadTemplate(t.TempDir()+"/nope.png", geometry.Point{})
	assert.Error(t, err)
}

func TestDefaultDeltas(t *testing.T) {
	d := DefaultDeltas()
	assert.Equal(t, geometry.Pt(38, 186), d.Piece)
	assert.Equal(t, geometry.Pt(19, 15), d.Center)
}
