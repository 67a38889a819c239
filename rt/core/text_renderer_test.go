package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextRendererAtlas(t *testing.T) {
	tr, err := NewDefaultTextRenderer(16)
	require.NoError(t, err)

	for r := rune('!'); r < 127; r++ {
		_, ok := tr.Glyphs[r]
		assert.True(t, ok, "missing glyph %q", r)
	}
	assert.Equal(t, 512, tr.AtlasImage.Bounds().Dx())
}

func TestTextRendererBuildVertices(t *testing.T) {
	tr, err := NewDefaultTextRenderer(16)
	require.NoError(t, err)

	items := []TextItem{
		{Text: "FPS", Position: [2]float32{10, 10}, Scale: 1, Color: [4]float32{1, 1, 0, 1}},
		{Text: "a\nb", Position: [2]float32{10, 40}, Scale: 1, Color: [4]float32{1, 1, 1, 1}},
	}
	verts := tr.BuildVertices(items, 640, 480)

	// Six vertices per glyph, newlines emit nothing
	assert.Len(t, verts, 5*6)
	for _, v := range verts {
		assert.GreaterOrEqual(t, v.Pos[0], float32(-1))
		assert.LessOrEqual(t, v.Pos[0], float32(1))
		assert.GreaterOrEqual(t, v.Pos[1], float32(-1))
		assert.LessOrEqual(t, v.Pos[1], float32(1))
	}
	assert.Equal(t, [4]float32{1, 1, 0, 1}, verts[0].Color)

	assert.Nil(t, tr.BuildVertices(items, 0, 480))
}

func TestTextRendererMeasure(t *testing.T) {
	tr, err := NewDefaultTextRenderer(16)
	require.NoError(t, err)

	w1, h1 := tr.MeasureText("abc", 1)
	w2, h2 := tr.MeasureText("abc\nabc", 1)
	assert.InDelta(t, w1, w2, 1e-4)
	assert.InDelta(t, 2*h1, h2, 1e-4)

	// Monospace: three glyphs are three advances
	wa, _ := tr.MeasureText("a", 1)
	assert.InDelta(t, 3*wa, w1, 1e-4)

	var nilRenderer *TextRenderer
	w, h := nilRenderer.MeasureText("abc", 1)
	assert.Zero(t, w)
	assert.Zero(t, h)
}
