// Package font ties the sfnt/cff/truetype/raster packages into the
// engine's public surface: a Face loaded from font bytes, the glyph
// transform and metrics pipeline, and a golang.org/x/exp/shiny/font.Face
// adapter so callers with existing text layout code can use this engine
// as a drop-in rasterizer.
package font

import (
	"github.com/vectorfont/engine/cff"
	gofixed "github.com/vectorfont/engine/fixed"
	"github.com/vectorfont/engine/outline"
	"github.com/vectorfont/engine/raster"
	"github.com/vectorfont/engine/sfnt"
	"github.com/vectorfont/engine/truetype"
)

// outlineSource abstracts over the TrueType and CFF glyph loaders so Face
// doesn't need to branch on format past construction time. load returns
// glyph i's outline already scaled to 26.6 pixels at the given scale
// (ppem<<6), Y increasing upward, plus its scaled horizontal advance.
type outlineSource interface {
	load(i int, scale int32) (*outline.Outline, gofixed.Int26_6, error)
}

type truetypeSource struct {
	f      *sfnt.Font
	hinter *truetype.Hinter
	buf    truetype.GlyphBuf
}

func (s *truetypeSource) load(i int, scale int32) (*outline.Outline, gofixed.Int26_6, error) {
	if err := s.buf.Load(s.f, scale, i, s.hinter); err != nil {
		if s.hinter != nil {
			// A hint program failure is recovered, not fatal: fall
			// back to the unhinted outline and trace it.
			tracef("truetype: hinting glyph %d failed, falling back to unhinted: %v", i, err)
			if err2 := s.buf.Load(s.f, scale, i, nil); err2 == nil {
				return &s.buf.Out, s.buf.AdvanceWidth, nil
			}
		}
		return nil, 0, err
	}
	return &s.buf.Out, s.buf.AdvanceWidth, nil
}

type cffSource struct {
	f          *cff.Font
	unitsPerEm int
	embolden   gofixed.Int26_6 // pixel-space synthetic-bold amount, from Options.Embolden
}

func (s *cffSource) load(i int, scale int32) (*outline.Outline, gofixed.Int26_6, error) {
	upem := s.unitsPerEm
	if upem == 0 {
		upem = 1000
	}
	// CFF faces have no bytecode hinting program; stem darkening plus
	// synthetic emboldening, applied together in this one pass, takes
	// its place unconditionally (see Options.Hinting's doc comment).
	embolden := designUnitsFromPixels(s.embolden, upem, scale)
	dark := &cff.DarkenConfig{
		Params:     cff.DefaultDarkenParams,
		EmboldenX:  embolden,
		EmboldenY:  embolden,
		Darkened:   true,
		PPEM:       int(scale >> 6),
		UnitsPerEm: upem,
	}
	o, width, err := s.f.RunCharstring(i, dark)
	if err != nil {
		return nil, 0, err
	}
	for j := range o.Points {
		o.Points[j].X = scaleDesignUnits(scale, upem, int32(o.Points[j].X))
		o.Points[j].Y = scaleDesignUnits(scale, upem, int32(o.Points[j].Y))
	}
	advance := scaleDesignUnits(scale, upem, int32(width.Float64()+0.5))
	return o, advance, nil
}

// scaleDesignUnits scales a raw font design-unit coordinate to a 26.6
// pixel value at the given scale (ppem<<6), rounding to nearest. This is
// the same rounding-division truetype/glyph.go's scaleFUnits performs,
// duplicated here since CFF outlines (design units, not FUnits, but the
// same scaling arithmetic) aren't loaded through GlyphBuf.
func scaleDesignUnits(scale int32, unitsPerEm int, x int32) gofixed.Int26_6 {
	neg := x < 0
	if neg {
		x = -x
	}
	v := int64(scale) * int64(x)
	v = (v + int64(unitsPerEm)/2) / int64(unitsPerEm)
	if neg {
		v = -v
	}
	return gofixed.Int26_6(v)
}

// designUnitsFromPixels converts a pixel-space amount (26.6, at the
// given scale) into font design units (16.16), the inverse of
// scaleDesignUnits: the unit space Options.Embolden is specified in
// doesn't match the font design units cff.DarkenConfig's stem math
// needs, since a synthetic-bold amount is meant to stay a constant pixel
// width across sizes rather than a constant fraction of the em.
func designUnitsFromPixels(px gofixed.Int26_6, unitsPerEm int, scale int32) gofixed.Int16_16 {
	if scale == 0 || px == 0 {
		return 0
	}
	v := (int64(px)*int64(unitsPerEm)<<16 + int64(scale)/2) / int64(scale)
	return gofixed.Int16_16(v)
}

// Face is a loaded, sized font ready to render glyphs. Unlike
// truetype/face.go's same-named type it is format-agnostic (TrueType
// glyf or CFF CharStrings) and exposes the full transform pipeline
// instead of baking in a single hinting mode.
type Face struct {
	sfntFont *sfnt.Font
	src      outlineSource

	ppem      int32 // scale: 26.6 units per em (ppem<<6)
	transform outline.Transform2x2

	mode raster.Mode
	r    *raster.Rasterizer
	buf  arena
}

// Options configures NewFace.
type Options struct {
	// PixelsPerEm is the glyph size in device pixels. A zero value means
	// 12.
	PixelsPerEm float64
	// Hinting enables the TrueType bytecode interpreter for glyf-outline
	// faces; it has no effect on CFF faces, where stem darkening
	// substitutes for hinting.
	Hinting bool
	// Embolden adds a synthetic-bold amount, in pixels at the face's
	// current size, to every CFF stem before stem darkening widens it
	// further; it has no effect on TrueType glyf faces.
	Embolden gofixed.Int26_6
	// Mode selects the rasterizer's output pixel format.
	Mode raster.Mode
}

func (o *Options) pixelsPerEm() float64 {
	if o != nil && o.PixelsPerEm > 0 {
		return o.PixelsPerEm
	}
	return 12
}

// NewFace parses raw SFNT/OpenType font data and returns a ready-to-use
// Face for face index faceIndex (0 for non-collection files).
func NewFace(raw []byte, faceIndex int, opts *Options) (*Face, error) {
	sf, err := sfnt.Parse(raw, faceIndex)
	if err != nil {
		return nil, err
	}
	face := &Face{
		sfntFont:  sf,
		transform: outline.Identity2x2,
	}

	if sf.Directory().Format == sfnt.FormatOpenTypeCFF {
		cffBytes, err := sf.Directory().Table("CFF ")
		if err != nil {
			return nil, err
		}
		cf, err := cff.Parse(cffBytes)
		if err != nil {
			return nil, err
		}
		cs := &cffSource{f: cf, unitsPerEm: 1000}
		if m := cf.Top.FontMatrix; m[0] != 0 {
			cs.unitsPerEm = int(1/m[0] + 0.5)
		}
		if opts != nil {
			cs.embolden = opts.Embolden
		}
		face.src = cs
	} else {
		ts := &truetypeSource{f: sf}
		if opts != nil && opts.Hinting && sf.HasHinting() {
			ts.hinter = &truetype.Hinter{}
		}
		face.src = ts
	}

	mode := raster.Gray
	if opts != nil {
		mode = opts.Mode
	}
	face.mode = mode
	face.r = raster.NewRasterizer(1, 1)

	face.SetPixelsPerEm(opts.pixelsPerEm())
	return face, nil
}

// SetPixelsPerEm changes the face's rendering size.
func (f *Face) SetPixelsPerEm(ppem float64) {
	f.ppem = int32(ppem*64 + 0.5)
}

// SetTransform installs an arbitrary 2x2 matrix applied to every glyph's
// outline before rasterization. It does not affect the
// metrics LoadGlyph reports, which always describe the glyph in
// unrotated design/pixel space so callers can do their own typesetting
// math.
func (f *Face) SetTransform(t outline.Transform2x2) { f.transform = t }

// Index returns the glyph index for codepoint, or 0 (the .notdef glyph)
// if the face has no cmap or no mapping for it.
func (f *Face) Index(r rune) int {
	if f.sfntFont.Cmap == nil {
		return 0
	}
	return f.sfntFont.Cmap.Lookup(r)
}

// GlyphMetrics describes one glyph's placement and dimensions, in 26.6
// pixels, unrotated. AdvanceY is synthesized per the engine's
// vertical-metrics fallback (no vmtx/vhea support): the glyph's ink
// height as the vertical advance.
type GlyphMetrics struct {
	AdvanceX, AdvanceY gofixed.Int26_6
	BearingX, BearingY gofixed.Int26_6
	Width, Height      gofixed.Int26_6
}

// GlyphSlot is one rendered glyph: its metrics and coverage bitmap, with
// the bitmap's top-left corner placed at (Left, Top) relative to the pen
// origin (integer pixels; any sub-pixel phase has already been baked
// into the bitmap itself). Bitmap.Pix is backed by the Face's internal
// arena and is only valid until the next LoadGlyph call on the same
// Face overwrites it — the same "slot is overwritten on every load"
// contract FreeType's FT_GlyphSlot carries. Call Snapshot to retain a
// glyph independently of subsequent loads.
type GlyphSlot struct {
	Metrics   GlyphMetrics
	Bitmap    *raster.Bitmap
	Left, Top int
}

// LoadGlyph loads, transforms and rasterizes glyph index i, placing the
// glyph's origin at the sub-pixel phase (originX, originY) — both
// fractional pen-position remainders in [0, 64), 1/64-pixel units. The
// integer part of the pen position becomes the bitmap's placement; the
// fractional part is baked into the rendered coverage.
func (f *Face) LoadGlyph(i int, originX, originY gofixed.Int26_6) (*GlyphSlot, error) {
	o, advanceX, err := f.src.load(i, f.ppem)
	if err != nil {
		return nil, err
	}

	// Raw, unrotated metrics are computed before the transform is
	// applied: metrics are always reported in unrotated design/pixel
	// space.
	xMin, yMin, xMax, yMax := o.ControlBox()
	metrics := GlyphMetrics{
		AdvanceX: advanceX,
		AdvanceY: yMax - yMin,
		BearingX: xMin,
		BearingY: yMax,
		Width:    xMax - xMin,
		Height:   yMax - yMin,
	}

	o.Transform(f.transform)

	// Rendering space is Y-down; design space above was Y-up. Flip
	// before handing the outline to the rasterizer.
	for j := range o.Points {
		o.Points[j].Y = -o.Points[j].Y
	}

	rxMin, ryMin, rxMax, ryMax := o.ControlBox()
	rxMin += originX
	rxMax += originX
	ryMin += originY
	ryMax += originY

	left := int(gofixed.Floor(rxMin)) >> 6
	top := int(gofixed.Floor(ryMin)) >> 6
	width := int(gofixed.Ceil(rxMax))>>6 - left
	height := int(gofixed.Ceil(ryMax))>>6 - top
	if width <= 0 || height <= 0 {
		return &GlyphSlot{Metrics: metrics}, nil
	}

	o.Translate(originX-gofixed.Int26_6(left<<6), originY-gofixed.Int26_6(top<<6))

	f.r.Reset(width, height)
	// width*height*3 is a conservative upper bound covering every mode's
	// stride (LCD is the widest, at 3 bytes/pixel), so the same arena
	// buffer serves Mono/Gray/LCD without per-mode bookkeeping.
	dst := raster.NewBitmapWith(f.buf.bytes(width*height*3), width, height, f.mode)
	f.r.Rasterize(o, dst)

	return &GlyphSlot{Metrics: metrics, Bitmap: dst, Left: left, Top: top}, nil
}
