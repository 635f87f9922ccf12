package font

import "github.com/vectorfont/engine/raster"

// GlyphImage is an independent glyph snapshot, decoupled from a Face's
// internal arena: Snapshot copies a GlyphSlot's bitmap into its own
// storage so it survives subsequent LoadGlyph calls. Grounded on
// original_source/src/base/ftglyph.c's FT_Glyph/FT_BitmapGlyph family
// (ft_prepare_glyph copies the slot's metrics; FT_Get_Glyph_Bitmap
// converts and owns a bitmap independent of the face's glyph slot).
type GlyphImage struct {
	Metrics   GlyphMetrics
	Pix       []byte
	Stride    int
	Width     int
	Height    int
	Mode      raster.Mode
	Left, Top int
}

// Snapshot copies slot into a new GlyphImage with its own backing
// array, safe to retain across further LoadGlyph calls on the Face that
// produced slot (whose GlyphSlot.Bitmap would otherwise be overwritten
// by the Face's arena on the next load).
func Snapshot(slot *GlyphSlot) *GlyphImage {
	g := &GlyphImage{
		Metrics: slot.Metrics,
		Left:    slot.Left,
		Top:     slot.Top,
	}
	if slot.Bitmap == nil {
		return g
	}
	b := slot.Bitmap
	g.Stride, g.Width, g.Height, g.Mode = b.Stride, b.Width, b.Height, b.Mode
	g.Pix = append([]byte(nil), b.Pix...)
	return g
}

// Translate shifts the snapshot's placement by (dx, dy) integer pixels,
// without touching its pixel data — the ftglyph.c analog of applying a
// pure-translation FT_Glyph_Transform without re-rendering.
func (g *GlyphImage) Translate(dx, dy int) {
	g.Left += dx
	g.Top += dy
}
