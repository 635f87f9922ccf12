package font

import (
	"image"

	shinyfont "golang.org/x/exp/shiny/font"
	"golang.org/x/image/math/fixed"

	gofixed "github.com/vectorfont/engine/fixed"
)

// ShinyFace adapts a Face onto golang.org/x/exp/shiny/font.Face, so
// existing text-layout code written against the shiny font package can
// use this engine as a drop-in rasterizer. Grounded on truetype/face.go's
// own same-interface adapter (NewFace/Glyph/GlyphBounds/GlyphAdvance).
type ShinyFace struct {
	f *Face
}

// NewShinyFace wraps f for use via the shiny font.Face interface.
func NewShinyFace(f *Face) *ShinyFace { return &ShinyFace{f: f} }

var _ shinyfont.Face = (*ShinyFace)(nil)

// Close satisfies font.Face; this engine holds no OS resources per face.
func (s *ShinyFace) Close() error { return nil }

// Kern satisfies font.Face. The engine's sfnt loader only reads the
// legacy 'kern' table, not GPOS; faces without a kern table report zero
// kerning.
func (s *ShinyFace) Kern(r0, r1 rune) fixed.Int26_6 {
	kt, err := s.f.sfntFont.Kerning()
	if err != nil {
		return 0
	}
	return fixed.Int26_6(kt.Lookup(s.f.Index(r0), s.f.Index(r1)))
}

// Glyph satisfies font.Face: renders the glyph for r at dot, returning
// the image mask to composite and the next pen position.
func (s *ShinyFace) Glyph(dot fixed.Point26_6, r rune) (
	newDot fixed.Point26_6, dr image.Rectangle, mask image.Image, maskp image.Point, ok bool) {

	originX := gofixed.Int26_6(dot.X & 0x3f)
	originY := gofixed.Int26_6(dot.Y & 0x3f)
	slot, err := s.f.LoadGlyph(s.f.Index(r), originX, originY)
	if err != nil || slot.Bitmap == nil {
		return fixed.Point26_6{}, image.Rectangle{}, nil, image.Point{}, false
	}

	ix := int(dot.X >> 6)
	iy := int(dot.Y >> 6)
	dr = image.Rect(ix+slot.Left, iy+slot.Top, ix+slot.Left+slot.Bitmap.Width, iy+slot.Top+slot.Bitmap.Height)

	img := &image.Alpha{
		Pix:    slot.Bitmap.Pix,
		Stride: slot.Bitmap.Stride,
		Rect:   image.Rect(0, 0, slot.Bitmap.Width, slot.Bitmap.Height),
	}

	newDot = fixed.Point26_6{X: dot.X + fixed.Int26_6(slot.Metrics.AdvanceX), Y: dot.Y}
	return newDot, dr, img, image.Point{}, true
}

// GlyphBounds satisfies font.Face: the glyph's unrotated ink-box bounds
// and advance, without rendering.
func (s *ShinyFace) GlyphBounds(r rune) (bounds fixed.Rectangle26_6, advance fixed.Int26_6, ok bool) {
	slot, err := s.f.LoadGlyph(s.f.Index(r), 0, 0)
	if err != nil {
		return fixed.Rectangle26_6{}, 0, false
	}
	m := slot.Metrics
	return fixed.Rectangle26_6{
		Min: fixed.Point26_6{X: fixed.Int26_6(m.BearingX), Y: fixed.Int26_6(m.BearingY - m.Height)},
		Max: fixed.Point26_6{X: fixed.Int26_6(m.BearingX + m.Width), Y: fixed.Int26_6(m.BearingY)},
	}, fixed.Int26_6(m.AdvanceX), true
}

// GlyphAdvance satisfies font.Face.
func (s *ShinyFace) GlyphAdvance(r rune) (advance fixed.Int26_6, ok bool) {
	slot, err := s.f.LoadGlyph(s.f.Index(r), 0, 0)
	if err != nil {
		return 0, false
	}
	return fixed.Int26_6(slot.Metrics.AdvanceX), true
}
