// Package truetype implements TrueType glyph outline loading and
// bytecode hinting: the `glyf`-table counterpart to the cff package's
// Type 2 charstring interpreter.
package truetype

import (
	"errors"

	gofixed "github.com/vectorfont/engine/fixed"
	"github.com/vectorfont/engine/outline"
	"github.com/vectorfont/engine/sfnt"
)

// scaleFUnits scales a raw font-design-units quantity x by scale (pixels
// per em, 26.6) / unitsPerEm, rounding to nearest. Shared by the hinter's
// CVT/metric scaling and the outline loader's point scaling.
func scaleFUnits(scale int32, unitsPerEm int, x int32) int32 {
	if unitsPerEm == 0 {
		return 0
	}
	n := int64(scale) * int64(x)
	upm := int64(unitsPerEm)
	if n >= 0 {
		return int32((n + upm/2) / upm)
	}
	return int32(-((-n + upm/2) / upm))
}

// Bounds is a design-space or scaled coordinate range, endpoints inclusive.
type Bounds struct {
	XMin, YMin, XMax, YMax gofixed.Int26_6
}

// Temporary, decode-only flag bits packed into outline.Point.Flag
// alongside the four bits outline/outline.go already defines (FlagOnCurve,
// FlagCubic, FlagTouchedX, FlagTouchedY). TrueType's on-curve bit is bit
// 0, the same bit position as outline.FlagOnCurve, so it survives
// unchanged; these four live in the upper nibble and are cleared once
// coordinate decoding for a glyph is done.
const (
	glyfXShortVector         = 1 << 4
	glyfYShortVector         = 1 << 5
	glyfPositiveXShortVector = 1 << 6
	glyfPositiveYShortVector = 1 << 7
	glyfRepeat               = 1 << 3 // only ever read within the flag-decode loop itself

	glyfThisXIsSame = glyfPositiveXShortVector
	glyfThisYIsSame = glyfPositiveYShortVector

	glyfDecodeMask = glyfXShortVector | glyfYShortVector |
		glyfPositiveXShortVector | glyfPositiveYShortVector
)

// GlyphBuf holds one glyph's contours, loaded and optionally hinted from
// a Font. A GlyphBuf can be reused across glyphs: Load resets it in
// place.
type GlyphBuf struct {
	// Out is the glyph's outline, in 26.6 pixels, Y increasing upward.
	Out outline.Outline
	// B is the glyph's bounding box, scaled to 26.6 pixels.
	B Bounds
	// AdvanceWidth is the horizontal advance, scaled to 26.6 pixels.
	AdvanceWidth gofixed.Int26_6

	font   *sfnt.Font
	hinter *Hinter
	scale  int32

	// unhinted and inFontUnits mirror Out.Points before hinting and
	// before hinting+scaling, respectively; only populated when hinter
	// is non-nil.
	unhinted    []outline.Point
	inFontUnits []outline.Point

	// pp1x is the X coordinate of the first phantom point, used to
	// re-origin the glyph so the left sidebearing point sits at x=0.
	pp1x gofixed.Int26_6
	// metricsSet is whether the glyph's metrics have been set yet. For a
	// composite glyph, a sub-glyph may override the outer glyph's
	// metrics (flagUseMyMetrics).
	metricsSet bool
	// tmp is a scratch buffer for composite glyph hinting.
	tmp []outline.Point
}

// Load loads glyph i's contours from f, overwriting any previously loaded
// contours. scale is the number of 26.6 fixed-point units in 1 em
// (ppem<<6). h is optional; if non-nil the glyph is hinted by the font's
// bytecode instructions.
func (g *GlyphBuf) Load(f *sfnt.Font, scale int32, i int, h *Hinter) error {
	g.Out.Reset()
	g.unhinted = g.unhinted[:0]
	g.inFontUnits = g.inFontUnits[:0]
	g.B = Bounds{}
	g.font = f
	g.hinter = h
	g.scale = scale
	g.pp1x = 0
	g.metricsSet = false

	if h != nil {
		if err := h.init(f, scale); err != nil {
			return err
		}
	}
	if err := g.load(0, i, true); err != nil {
		return err
	}
	if g.pp1x != 0 {
		for j := range g.Out.Points {
			g.Out.Points[j].X -= g.pp1x
		}
	}
	return nil
}

func (g *GlyphBuf) load(recursion int, i int, useMyMetrics bool) error {
	// Arbitrary but generous recursion limit, defending against cyclic
	// or malformed composite glyphs.
	if recursion >= 32 {
		return errors.New("truetype: excessive composite glyph recursion")
	}
	glyf := g.font.Glyf(i)
	if len(glyf) == 0 {
		return nil
	}
	ne := int(int16(u16(glyf, 0)))
	b := Bounds{
		XMin: gofixed.Int26_6(int16(u16(glyf, 2))),
		YMin: gofixed.Int26_6(int16(u16(glyf, 4))),
		XMax: gofixed.Int26_6(int16(u16(glyf, 6))),
		YMax: gofixed.Int26_6(int16(u16(glyf, 8))),
	}
	uhm := g.font.HMetrics(i)
	var pp1x gofixed.Int26_6
	if ne < 0 {
		if ne != -1 {
			return errors.New("truetype: negative contour count")
		}
		pp1x = gofixed.Int26_6(scaleFUnits(g.scale, g.font.UnitsPerEm(),
			int32(b.XMin)-int32(uhm.LeftSideBearing)))
		if err := g.loadCompound(recursion, b, uhm, i, glyf, useMyMetrics); err != nil {
			return err
		}
	} else {
		np0, ne0 := len(g.Out.Points), len(g.Out.Ends)
		program := g.loadSimple(glyf, ne)
		g.addPhantomsAndScale(b, uhm, np0, true)
		pp1x = g.Out.Points[len(g.Out.Points)-4].X
		if g.hinter != nil {
			if len(program) != 0 {
				err := g.hinter.run(
					program,
					g.Out.Points[np0:],
					g.unhinted[np0:],
					g.inFontUnits[np0:],
					g.Out.Ends[ne0:],
				)
				if err != nil {
					return err
				}
			}
			g.inFontUnits = g.inFontUnits[:len(g.inFontUnits)-4]
			g.unhinted = g.unhinted[:len(g.unhinted)-4]
		}
		g.Out.Points = g.Out.Points[:len(g.Out.Points)-4]
		if np0 != 0 {
			// The hinting program expects End values relative to the
			// inner glyph; delay the np0 offset until after hinting.
			for j := ne0; j < len(g.Out.Ends); j++ {
				g.Out.Ends[j] += np0
			}
		}
	}
	if useMyMetrics && !g.metricsSet {
		g.metricsSet = true
		sc := func(v gofixed.Int26_6) gofixed.Int26_6 {
			return gofixed.Int26_6(scaleFUnits(g.scale, g.font.UnitsPerEm(), int32(v)))
		}
		g.B.XMin, g.B.YMin = sc(b.XMin), sc(b.YMin)
		g.B.XMax, g.B.YMax = sc(b.XMax), sc(b.YMax)
		g.AdvanceWidth = sc(gofixed.Int26_6(uhm.AdvanceWidth))
		g.pp1x = pp1x
	}
	return nil
}

// loadOffset is the byte offset of the first contour-end index: the
// first 10 bytes are the contour count and the bounding box.
const loadOffset = 10

func (g *GlyphBuf) loadSimple(glyf []byte, ne int) (program []byte) {
	offset := loadOffset
	for i := 0; i < ne; i++ {
		g.Out.Ends = append(g.Out.Ends, int(u16(glyf, offset)))
		offset += 2
	}

	instrLen := int(u16(glyf, offset))
	offset += 2
	program = glyf[offset : offset+instrLen]
	offset += instrLen

	np0 := len(g.Out.Points)
	np1 := np0
	if len(g.Out.Ends) != 0 {
		np1 = np0 + g.Out.Ends[len(g.Out.Ends)-1] + 1
	}

	// Decode the flags, expanding run-length repeats. Raw glyf flag bits
	// (on-curve=0x01, xShort=0x02, yShort=0x04, repeat=0x08,
	// positiveXShort/sameX=0x10, positiveYShort/sameY=0x20) are remapped
	// into outline.Point.Flag's layout: on-curve keeps bit 0, the rest
	// move up into the decode-only nibble (bits 4-7) defined above.
	for i := np0; i < np1; {
		c := glyf[offset]
		offset++
		flag := c & outline.FlagOnCurve
		if c&0x02 != 0 {
			flag |= glyfXShortVector
		}
		if c&0x04 != 0 {
			flag |= glyfYShortVector
		}
		if c&0x10 != 0 {
			flag |= glyfPositiveXShortVector
		}
		if c&0x20 != 0 {
			flag |= glyfPositiveYShortVector
		}
		g.Out.Points = append(g.Out.Points, outline.Point{Flag: flag})
		i++
		if c&glyfRepeat != 0 {
			count := glyf[offset]
			offset++
			for ; count > 0; count-- {
				g.Out.Points = append(g.Out.Points, outline.Point{Flag: flag})
				i++
			}
		}
	}

	// Decode the X coordinates.
	var x int16
	for i := np0; i < np1; i++ {
		f := g.Out.Points[i].Flag
		if f&glyfXShortVector != 0 {
			dx := int16(glyf[offset])
			offset++
			if f&glyfPositiveXShortVector == 0 {
				x -= dx
			} else {
				x += dx
			}
		} else if f&glyfThisXIsSame == 0 {
			x += int16(u16(glyf, offset))
			offset += 2
		}
		g.Out.Points[i].X = gofixed.Int26_6(x)
	}
	// Decode the Y coordinates.
	var y int16
	for i := np0; i < np1; i++ {
		f := g.Out.Points[i].Flag
		if f&glyfYShortVector != 0 {
			dy := int16(glyf[offset])
			offset++
			if f&glyfPositiveYShortVector == 0 {
				y -= dy
			} else {
				y += dy
			}
		} else if f&glyfThisYIsSame == 0 {
			y += int16(u16(glyf, offset))
			offset += 2
		}
		g.Out.Points[i].Y = gofixed.Int26_6(y)
		g.Out.Points[i].Flag &^= glyfDecodeMask
	}

	return program
}

func (g *GlyphBuf) loadCompound(recursion int, b Bounds, uhm sfnt.HMetric, i int,
	glyf []byte, useMyMetrics bool) error {

	// Flags for decoding a composite glyph, documented at
	// developer.apple.com/fonts/TTRefMan/RM06/Chap6glyf.html.
	const (
		flagArg1And2AreWords = 1 << iota
		flagArgsAreXYValues
		flagRoundXYToGrid
		flagWeHaveAScale
		flagUnused
		flagMoreComponents
		flagWeHaveAnXAndYScale
		flagWeHaveATwoByTwo
		flagWeHaveInstructions
		flagUseMyMetrics
		flagOverlapCompound
	)
	np0, ne0 := len(g.Out.Points), len(g.Out.Ends)
	offset := loadOffset
	for {
		flags := u16(glyf, offset)
		component := int(u16(glyf, offset+2))
		var dx, dy int32
		var transform [4]int32
		hasTransform := false
		if flags&flagArg1And2AreWords != 0 {
			dx = int32(int16(u16(glyf, offset+4)))
			dy = int32(int16(u16(glyf, offset+6)))
			offset += 8
		} else {
			dx = int32(int16(int8(glyf[offset+4])))
			dy = int32(int16(int8(glyf[offset+5])))
			offset += 6
		}
		if flags&flagArgsAreXYValues == 0 {
			return errors.New("truetype: unsupported composite glyph point-matching transform")
		}
		if flags&(flagWeHaveAScale|flagWeHaveAnXAndYScale|flagWeHaveATwoByTwo) != 0 {
			hasTransform = true
			switch {
			case flags&flagWeHaveAScale != 0:
				transform[0] = int32(int16(u16(glyf, offset+0)))
				transform[3] = transform[0]
				offset += 2
			case flags&flagWeHaveAnXAndYScale != 0:
				transform[0] = int32(int16(u16(glyf, offset+0)))
				transform[3] = int32(int16(u16(glyf, offset+2)))
				offset += 4
			case flags&flagWeHaveATwoByTwo != 0:
				transform[0] = int32(int16(u16(glyf, offset+0)))
				transform[1] = int32(int16(u16(glyf, offset+2)))
				transform[2] = int32(int16(u16(glyf, offset+4)))
				transform[3] = int32(int16(u16(glyf, offset+6)))
				offset += 8
			}
		}
		npc := len(g.Out.Points)
		componentUMM := useMyMetrics && (flags&flagUseMyMetrics != 0)
		if err := g.load(recursion+1, component, componentUMM); err != nil {
			return err
		}
		if hasTransform {
			for j := npc; j < len(g.Out.Points); j++ {
				p := &g.Out.Points[j]
				newX := int32((int64(p.X)*int64(transform[0])+1<<13)>>14) +
					int32((int64(p.Y)*int64(transform[2])+1<<13)>>14)
				newY := int32((int64(p.X)*int64(transform[1])+1<<13)>>14) +
					int32((int64(p.Y)*int64(transform[3])+1<<13)>>14)
				p.X, p.Y = gofixed.Int26_6(newX), gofixed.Int26_6(newY)
			}
		}
		sdx := gofixed.Int26_6(scaleFUnits(g.scale, g.font.UnitsPerEm(), dx))
		sdy := gofixed.Int26_6(scaleFUnits(g.scale, g.font.UnitsPerEm(), dy))
		if flags&flagRoundXYToGrid != 0 {
			sdx = (sdx + 32) &^ 63
			sdy = (sdy + 32) &^ 63
		}
		for j := npc; j < len(g.Out.Points); j++ {
			g.Out.Points[j].X += sdx
			g.Out.Points[j].Y += sdy
		}
		if flags&flagMoreComponents == 0 {
			break
		}
	}

	// Hint the composite glyph as a whole.
	if g.hinter == nil || offset+2 > len(glyf) {
		return nil
	}
	instrLen := int(u16(glyf, offset))
	offset += 2
	if instrLen == 0 {
		return nil
	}
	program := glyf[offset : offset+instrLen]
	g.addPhantomsAndScale(b, uhm, len(g.Out.Points), false)
	points, ends := g.Out.Points[np0:], g.Out.Ends[ne0:]
	g.Out.Points = g.Out.Points[:len(g.Out.Points)-4]
	for j := range points {
		points[j].Flag &^= outline.FlagTouchedX | outline.FlagTouchedY
	}
	if np0 != 0 {
		for j := range ends {
			ends[j] -= np0
		}
	}
	// A composite's own hinting instructions only see its already-hinted
	// subglyphs: unhinted and inFontUnits both alias the current points.
	g.tmp = append(g.tmp[:0], points...)
	if err := g.hinter.run(program, points, g.tmp, g.tmp, ends); err != nil {
		return err
	}
	if np0 != 0 {
		for j := range ends {
			ends[j] += np0
		}
	}
	return nil
}

func (g *GlyphBuf) addPhantomsAndScale(b Bounds, uhm sfnt.HMetric, np0 int, simple bool) {
	ascender, descender := int32(g.font.Ascender()), int32(g.font.Descender())
	height := ascender - descender
	if height <= 0 {
		height = int32(g.font.UnitsPerEm())
	}
	topSideBearing := ascender - int32(b.YMax)

	g.Out.Points = append(g.Out.Points,
		outline.Point{X: b.XMin - gofixed.Int26_6(uhm.LeftSideBearing)},
		outline.Point{X: b.XMin - gofixed.Int26_6(uhm.LeftSideBearing) + gofixed.Int26_6(uhm.AdvanceWidth)},
		outline.Point{X: gofixed.Int26_6(uhm.AdvanceWidth) / 2, Y: b.YMax + gofixed.Int26_6(topSideBearing)},
		outline.Point{X: gofixed.Int26_6(uhm.AdvanceWidth) / 2, Y: b.YMax + gofixed.Int26_6(topSideBearing) - gofixed.Int26_6(height)},
	)
	if simple && g.hinter != nil {
		g.inFontUnits = append(g.inFontUnits, g.Out.Points[np0:]...)
	}
	for i := np0; i < len(g.Out.Points); i++ {
		p := &g.Out.Points[i]
		p.X = gofixed.Int26_6(scaleFUnits(g.scale, g.font.UnitsPerEm(), int32(p.X)))
		p.Y = gofixed.Int26_6(scaleFUnits(g.scale, g.font.UnitsPerEm(), int32(p.Y)))
	}
	if simple && g.hinter != nil {
		// Round the 1st phantom point to the grid, shifting the rest
		// of this glyph's points equally.
		pp1x := g.Out.Points[len(g.Out.Points)-4].X
		if dx := ((pp1x + 32) &^ 63) - pp1x; dx != 0 {
			for i := np0; i < len(g.Out.Points); i++ {
				g.Out.Points[i].X += dx
			}
		}
		g.unhinted = append(g.unhinted, g.Out.Points[np0:]...)
	}
	// Round the 2nd and 4th phantom points to the grid.
	p := &g.Out.Points[len(g.Out.Points)-3]
	p.X = (p.X + 32) &^ 63
	p = &g.Out.Points[len(g.Out.Points)-1]
	p.Y = (p.Y + 32) &^ 63
}

func u16(b []byte, i int) uint16 {
	return uint16(b[i])<<8 | uint16(b[i+1])
}
