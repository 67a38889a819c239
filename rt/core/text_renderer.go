package core

import (
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TextVertex matches the vertex layout of text.wgsl.
type TextVertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [4]float32
}

type TextItem struct {
	Text     string
	Position [2]float32 // pixels from the top-left corner
	Scale    float32
	Color    [4]float32
}

type GlyphInfo struct {
	UVMin [2]float32
	UVMax [2]float32
	Size  [2]float32
	Off   [2]float32
	Adv   float32
}

const (
	atlasSize    = 512
	glyphPadding = 4
	firstGlyph   = rune(32)
	lastGlyph    = rune(126)
)

// TextRenderer rasterises printable ASCII into a single-channel atlas and
// turns text items into screen-space quads.
type TextRenderer struct {
	AtlasImage *image.Alpha
	Glyphs     map[rune]GlyphInfo
	Face       font.Face
}

// NewDefaultTextRenderer uses the Go Mono font bundled with x/image.
func NewDefaultTextRenderer(fontSize float64) (*TextRenderer, error) {
	return NewTextRenderer(gomono.TTF, fontSize)
}

func NewTextRenderer(fontBytes []byte, fontSize float64) (*TextRenderer, error) {
	f, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}

	atlas, glyphs := packGlyphs(face)
	return &TextRenderer{
		AtlasImage: atlas,
		Glyphs:     glyphs,
		Face:       face,
	}, nil
}

// packGlyphs draws every printable ASCII glyph into rows of the atlas.
// Glyphs that no longer fit are skipped.
func packGlyphs(face font.Face) (*image.Alpha, map[rune]GlyphInfo) {
	atlas := image.NewAlpha(image.Rect(0, 0, atlasSize, atlasSize))
	glyphs := make(map[rune]GlyphInfo, lastGlyph-firstGlyph+1)

	cursor := image.Pt(glyphPadding/2, glyphPadding/2)
	rowHeight := 0

	for r := firstGlyph; r <= lastGlyph; r++ {
		bounds, mask, maskPt, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		size := bounds.Size()

		if cursor.X+size.X >= atlasSize {
			cursor = image.Pt(glyphPadding/2, cursor.Y+rowHeight+glyphPadding)
			rowHeight = 0
		}
		if cursor.Y+size.Y >= atlasSize {
			break
		}

		dst := image.Rectangle{Min: cursor, Max: cursor.Add(size)}
		draw.Draw(atlas, dst, mask, maskPt, draw.Src)

		glyphs[r] = GlyphInfo{
			UVMin: [2]float32{float32(dst.Min.X) / atlasSize, float32(dst.Min.Y) / atlasSize},
			UVMax: [2]float32{float32(dst.Max.X) / atlasSize, float32(dst.Max.Y) / atlasSize},
			Size:  [2]float32{float32(size.X), float32(size.Y)},
			Off:   [2]float32{float32(bounds.Min.X), float32(bounds.Min.Y)},
			Adv:   float32(adv) / 64, // 26.6 fixed point
		}

		cursor.X += size.X + glyphPadding
		rowHeight = max(rowHeight, size.Y)
	}
	return atlas, glyphs
}

// BuildVertices emits two triangles per visible glyph in normalised device
// coordinates for a screenW x screenH target.
func (tr *TextRenderer) BuildVertices(items []TextItem, screenW, screenH int) []TextVertex {
	if tr == nil || screenW <= 0 || screenH <= 0 {
		return nil
	}
	vertices := make([]TextVertex, 0, len(items)*6)

	toNDC := func(x, y float32) [2]float32 {
		return [2]float32{x/float32(screenW)*2 - 1, 1 - y/float32(screenH)*2}
	}
	metrics := tr.Face.Metrics()
	ascent := float32(metrics.Ascent.Ceil())
	lineHeight := float32(metrics.Height.Ceil())

	for _, item := range items {
		x := item.Position[0]
		y := item.Position[1] + ascent*item.Scale

		for _, r := range item.Text {
			if r == '\n' {
				x = item.Position[0]
				y += lineHeight * item.Scale
				continue
			}
			g, ok := tr.Glyphs[r]
			if !ok {
				continue
			}

			topLeft := toNDC(x+g.Off[0]*item.Scale, y+g.Off[1]*item.Scale)
			bottomRight := toNDC(x+(g.Off[0]+g.Size[0])*item.Scale, y+(g.Off[1]+g.Size[1])*item.Scale)
			vertices = appendQuad(vertices, topLeft, bottomRight, g, item.Color)

			x += g.Adv * item.Scale
		}
	}
	return vertices
}

func appendQuad(dst []TextVertex, tl, br [2]float32, g GlyphInfo, color [4]float32) []TextVertex {
	v := func(px, py, u, w float32) TextVertex {
		return TextVertex{Pos: [2]float32{px, py}, UV: [2]float32{u, w}, Color: color}
	}
	return append(dst,
		v(tl[0], tl[1], g.UVMin[0], g.UVMin[1]),
		v(br[0], tl[1], g.UVMax[0], g.UVMin[1]),
		v(tl[0], br[1], g.UVMin[0], g.UVMax[1]),
		v(br[0], tl[1], g.UVMax[0], g.UVMin[1]),
		v(br[0], br[1], g.UVMax[0], g.UVMax[1]),
		v(tl[0], br[1], g.UVMin[0], g.UVMax[1]),
	)
}

// MeasureText returns the width of the widest line and the total height.
func (tr *TextRenderer) MeasureText(text string, scale float32) (float32, float32) {
	if tr == nil {
		return 0, 0
	}

	var widest, current float32
	lines := 1
	for _, r := range text {
		if r == '\n' {
			widest = max(widest, current)
			current = 0
			lines++
			continue
		}
		if g, ok := tr.Glyphs[r]; ok {
			current += g.Adv * scale
		}
	}
	widest = max(widest, current)

	lineHeight := float32(tr.Face.Metrics().Height.Ceil())
	return widest, lineHeight * scale * float32(lines)
}
