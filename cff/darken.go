package cff

import (
	gofixed "github.com/vectorfont/engine/fixed"
	"github.com/vectorfont/engine/outline"
)

// DarkenParams is the 8-parameter piecewise-linear stem-darkening curve,
// expressed as four (x, y) breakpoints in milli-pixel space: x is scaled
// stem width * 1000, y is darkening amount in thousandths of a pixel.
//
// Grounded on original_source/src/cff/cf2font.c's cf2_computeDarkening,
// including its default breakpoints and its "use half the amount on each
// side" convention.
type DarkenParams struct {
	X1, Y1 int
	X2, Y2 int
	X3, Y3 int
	X4, Y4 int
}

// DefaultDarkenParams is cf2font.c's documented default curve:
// (500,400) (1000,275) (1667,275) (2333,0).
var DefaultDarkenParams = DarkenParams{
	X1: 500, Y1: 400,
	X2: 1000, Y2: 275,
	X3: 1667, Y3: 275,
	X4: 2333, Y4: 0,
}

// StemDarkenAmount returns half the total darkening/emboldening amount to
// add to each side of a stem of the given width (in font design units),
// at the given ppem and units-per-em, following cf2_computeDarkening.
// embolden is a synthetic-bold amount in font design units, added
// unconditionally; darkened selects whether the piecewise curve itself
// also contributes, applied only when the "darkened" rendering flag is
// set.
//
// The result is monotonically non-increasing in stemWidth and continuous
// at each breakpoint, since the curve is linear between consecutive
// breakpoints and flat beyond the first and last.
func StemDarkenAmount(p DarkenParams, stemWidth, embolden gofixed.Int16_16, darkened bool, ppem, unitsPerEm int) gofixed.Int16_16 {
	if embolden == 0 && !darkened {
		return 0
	}
	if ppem <= 0 || unitsPerEm <= 0 {
		return embolden / 2
	}
	emRatio := gofixed.Int16_16(ppem<<16) / gofixed.Int16_16(unitsPerEm)
	if emRatio < gofixed.Int16_16(0.01*65536) {
		return embolden / 2
	}

	var amount gofixed.Int16_16
	if darkened {
		ppemFixed := gofixed.Int16_16(ppem << 16)
		stemWidthPer1000 := (stemWidth + embolden).Mul(emRatio)
		scaledStem := stemWidthPer1000.Mul(ppemFixed)
		fy := func(y int) gofixed.Int16_16 { return gofixed.Int16_16(y << 16).Div(ppemFixed) }

		switch {
		case scaledStem < gofixed.Int16_16(p.X1<<16):
			amount = fy(p.Y1)
		case scaledStem < gofixed.Int16_16(p.X2<<16):
			amount = lerpSegment(stemWidthPer1000, p.X1, p.Y1, p.X2, p.Y2, ppemFixed)
		case scaledStem < gofixed.Int16_16(p.X3<<16):
			amount = lerpSegment(stemWidthPer1000, p.X2, p.Y2, p.X3, p.Y3, ppemFixed)
		case scaledStem < gofixed.Int16_16(p.X4<<16):
			amount = lerpSegment(stemWidthPer1000, p.X3, p.Y3, p.X4, p.Y4, ppemFixed)
		default:
			amount = fy(p.Y4)
		}
		amount = amount.Div(2 * emRatio)
	}
	return amount + embolden/2
}

func lerpSegment(stemWidthPer1000 gofixed.Int16_16, x0, y0, x1, y1 int, ppemFixed gofixed.Int16_16) gofixed.Int16_16 {
	xdelta, ydelta := x1-x0, y1-y0
	if xdelta == 0 {
		return gofixed.Int16_16(y0 << 16).Div(ppemFixed)
	}
	x := stemWidthPer1000 - gofixed.Int16_16(x0<<16).Div(ppemFixed)
	return x.Mul(gofixed.Int16_16(ydelta << 16)).Div(gofixed.Int16_16(xdelta<<16)) + gofixed.Int16_16(y0<<16).Div(ppemFixed)
}

// DarkenConfig carries the per-face, per-size state cf2font.c's
// cf2_font_setup/cf2_getGlyphOutline thread into the charstring
// interpreter: the darkening curve, the synthetic-bold amount on each
// axis, whether the curve itself is active, and the scale it should be
// evaluated at.
type DarkenConfig struct {
	Params               DarkenParams
	EmboldenX, EmboldenY gofixed.Int16_16
	Darkened             bool
	PPEM, UnitsPerEm     int
}

// applyStemDarkening widens every retained stem hint's edges by half the
// darkening/emboldening amount on each side (cf2_getGlyphOutline: stem
// darkening moves each edge of a stem zone outward by
// cf2_computeDarkening's half-amount), then corrects any contour whose
// winding direction the widening flipped.
//
// cf2font.c's own two-pass scheme re-interprets the whole charstring a
// second time with its darkenX/darkenY sign inverted whenever the
// resulting outline's windingMomentum comes out clockwise, because its
// hint-replacement renderer only ever knows a stem's relative position
// within the active hint zone, not absolute outline coordinates. This
// interpreter builds absolute coordinates directly, so there is nothing
// to re-interpret: instead each contour's signed area is taken before
// and after widening, and the contour is reversed if widening flipped
// its sign, which is the same nonzero-fill correction cf2font.c's
// re-render is chasing.
func applyStemDarkening(out *outline.Outline, hstems, vstems []stemHint, cfg *DarkenConfig) {
	if cfg == nil || (!cfg.Darkened && cfg.EmboldenX == 0 && cfg.EmboldenY == 0) {
		return
	}

	before := make([]bool, out.NumContours())
	for c := range before {
		before[c] = signedArea(out.Contour(c)) >= 0
	}

	widenStemAxis(out, vstems, cfg.EmboldenX, cfg, true)
	widenStemAxis(out, hstems, cfg.EmboldenY, cfg, false)

	for c := range before {
		pts := out.Contour(c)
		if (signedArea(pts) >= 0) != before[c] {
			reverseContour(pts)
		}
	}
}

// widenStemAxis pushes every point lying on one of stems' near or far
// edge outward by that stem's own darkening amount: near-edge points
// move away from the stem (-amount), far-edge points move away on the
// other side (+amount). Darkening amount depends on the individual
// stem's width, so it is recomputed per stem rather than once per axis.
func widenStemAxis(out *outline.Outline, stems []stemHint, embolden gofixed.Int16_16, cfg *DarkenConfig, vertical bool) {
	for _, stem := range stems {
		amount := StemDarkenAmount(cfg.Params, stem.width, embolden, cfg.Darkened, cfg.PPEM, cfg.UnitsPerEm)
		off := fixedToDesignUnit(amount)
		if off == 0 {
			continue
		}
		lo := fixedToDesignUnit(stem.pos)
		hi := fixedToDesignUnit(stem.pos + stem.width)
		for i := range out.Points {
			coord := &out.Points[i].Y
			if vertical {
				coord = &out.Points[i].X
			}
			switch *coord {
			case lo:
				*coord -= off
			case hi:
				*coord += off
			}
		}
	}
}

func fixedToDesignUnit(v gofixed.Int16_16) gofixed.Int26_6 {
	return gofixed.Int26_6((int64(v) + 1<<15) >> 16)
}

// signedArea returns twice the shoelace-formula signed area of one
// contour, in raw design-unit coordinates: positive for counter-
// clockwise, negative for clockwise, the same sign convention CFF's
// nonzero winding fill rule expects for an outer contour.
func signedArea(pts []outline.Point) int64 {
	var sum int64
	n := len(pts)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += int64(pts[i].X)*int64(pts[j].Y) - int64(pts[j].X)*int64(pts[i].Y)
	}
	return sum
}

func reverseContour(pts []outline.Point) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}
