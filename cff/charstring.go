package cff

import (
	gofixed "github.com/vectorfont/engine/fixed"
	"github.com/vectorfont/engine/outline"
)

// Type 2 charstring operators (5177.Type2.pdf Appendix A). Two-byte
// operators are escaped by opEscape (12), mirroring the DICT encoding's
// escape-byte convention this package already uses for Top/Private DICTs.
const (
	t2HStem       = 1
	t2VStem       = 3
	t2VMoveto     = 4
	t2RLineto     = 5
	t2HLineto     = 6
	t2VLineto     = 7
	t2RRCurveto   = 8
	t2CallSubr    = 10
	t2Return      = 11
	t2Escape      = 12
	t2Endchar     = 14
	t2HStemHM     = 18
	t2HintMask    = 19
	t2CntrMask    = 20
	t2RMoveto     = 21
	t2HMoveto     = 22
	t2VStemHM     = 23
	t2RCurveLine  = 24
	t2RLineCurve  = 25
	t2VVCurveto   = 26
	t2HHCurveto   = 27
	t2CallGsubr   = 29
	t2VHCurveto   = 30
	t2HVCurveto   = 31

	t2Flex  = 12<<8 | 35
	t2Flex1 = 12<<8 | 37
	t2HFlex = 12<<8 | 34
	t2HFlex1 = 12<<8 | 36

	// t2Blend is the CFF2 variable-font blend operator (5176.CFF2.pdf
	// section 4.2). It cannot occur in any charstring this package
	// decodes: Parse rejects CFF tables whose major version isn't 1, so
	// a CFF2 table (and the blend vectors its blend operator consumes)
	// is never reached. Kept as a named, explicitly-rejected case rather
	// than falling through to the generic "unrecognized operator" error
	// so the reason is visible at the call site.
	t2Blend = 12<<8 | 16
)

const maxCharstringStack = 48
const maxSubrDepth = 10

// subrBias is the standard bias table (5177.Type2.pdf section 2.3
// "Subrs Operators"), applied to callsubr/callgsubr indices.
func subrBias(n int) int {
	switch {
	case n < 1240:
		return 107
	case n < 33900:
		return 1131
	default:
		return 32768
	}
}

// charstringInterp runs one Type 2 charstring to build an outline.Outline.
// Its stack-machine shape (explicit depth checks, no panics on malformed
// input) follows freetype/truetype/hint.go's Hinter, the closest
// available example of a checked bytecode VM; the path/hint/subroutine
// operator set itself is new code, since freetype carries no CFF
// support and postscript.go stops at the DICT layer.
type charstringInterp struct {
	globalSubrs *Index
	localSubrs  *Index
	globalBias  int
	localBias   int

	stack []gofixed.Int16_16

	x, y gofixed.Int16_16

	out        outline.Outline
	open       bool // a contour is currently open (moveto seen)
	nStems     int
	haveWidth  bool
	width      gofixed.Int16_16
	nominalWidthX gofixed.Int16_16
	defaultWidthX gofixed.Int16_16

	// hstems and vstems retain the (position, width) pairs declared by
	// hstem/vstem/hstemhm/vstemhm (and any implicit vstem list trailing
	// a hintmask/cntrmask), in font design units. Stem-hint operators
	// only needed nStems for hintmask sizing until stem darkening
	// (cff/darken.go) needed the actual geometry back.
	hstems, vstems []stemHint
	stemX, stemY   gofixed.Int16_16 // running cursor for recordStems

	depth int
	err   error
}

// stemHint is one retained stem zone: pos is its near edge, width its
// extent along the hint's axis, both in font design units.
type stemHint struct {
	pos, width gofixed.Int16_16
}

// recordStems consumes the operand stack as alternating (delta, width)
// pairs per 5177.Type2.pdf section 3.3's stem-hint encoding: each pair's
// position is a delta from the previous stem's far edge on the same
// axis, not an absolute coordinate, so positions accumulate through
// ci.stemX/ci.stemY across every hstem/vstem/hintmask/cntrmask call in
// the charstring.
func (ci *charstringInterp) recordStems(vertical bool) {
	cursor, hints := &ci.stemY, &ci.hstems
	if vertical {
		cursor, hints = &ci.stemX, &ci.vstems
	}
	for i := 0; i+1 < len(ci.stack); i += 2 {
		*cursor += ci.stack[i]
		width := ci.stack[i+1]
		*hints = append(*hints, stemHint{pos: *cursor, width: width})
		*cursor += width
	}
}

// RunCharstring executes the charstring for glyph i, returning its outline
// (in unscaled font design units, stored the same way the TrueType loader
// stores pre-scale points: Outline.Point.X/Y hold raw integer unit counts)
// and its advance width in font design units. dark, if non-nil, applies
// stem darkening/synthetic emboldening and the matching winding
// compensation to the built outline; pass nil to skip both.
func (f *Font) RunCharstring(glyphID int, dark *DarkenConfig) (*outline.Outline, gofixed.Int16_16, error) {
	cs, err := f.charStrings.Get(glyphID)
	if err != nil {
		return nil, 0, err
	}
	private, localSubrs, err := f.glyphResources(glyphID)
	if err != nil {
		return nil, 0, err
	}
	ci := &charstringInterp{
		globalSubrs:   f.globalSubrs,
		localSubrs:    localSubrs,
		globalBias:    subrBias(f.globalSubrs.Len()),
		localBias:     subrBias(localSubrs.Len()),
		defaultWidthX: float64ToFixed(private.DefaultWidthX),
		nominalWidthX: float64ToFixed(private.NominalWidthX),
		width:         float64ToFixed(private.DefaultWidthX),
	}
	if err := ci.run(cs); err != nil {
		return nil, 0, err
	}
	if ci.open {
		ci.closeContour()
	}
	applyStemDarkening(&ci.out, ci.hstems, ci.vstems, dark)
	return &ci.out, ci.width, nil
}

func float64ToFixed(v float64) gofixed.Int16_16 { return gofixed.Int16_16(v * 65536) }

func (ci *charstringInterp) push(v gofixed.Int16_16) error {
	if len(ci.stack) >= maxCharstringStack {
		return errf(InvalidCharstring, "operand stack overflow")
	}
	ci.stack = append(ci.stack, v)
	return nil
}

func (ci *charstringInterp) clear() { ci.stack = ci.stack[:0] }

// takeWidth consumes the leading width operand, if present, from a stem-
// hint or endchar operand list: these operators take operands in pairs
// (or, for endchar, the 4-operand deprecated seac form), so an odd
// total means the first value is the width.
func (ci *charstringInterp) takeWidth(pairwise bool) {
	if ci.haveWidth {
		return
	}
	ci.haveWidth = true
	if !pairwise || len(ci.stack)%2 == 0 {
		return
	}
	ci.width = ci.nominalWidthX + ci.stack[0]
	ci.stack = ci.stack[1:]
}

// takeWidthExact consumes the width operand for an operator with a fixed
// expected argument count (rmoveto expects exactly 2).
func (ci *charstringInterp) takeWidthExact(expected int) {
	if ci.haveWidth {
		return
	}
	ci.haveWidth = true
	if len(ci.stack) <= expected {
		return
	}
	ci.width = ci.nominalWidthX + ci.stack[0]
	ci.stack = ci.stack[1:]
}

func (ci *charstringInterp) closeContour() {
	if n := len(ci.out.Points); n > 0 {
		ci.out.Ends = append(ci.out.Ends, n-1)
	}
	ci.open = false
}

func (ci *charstringInterp) moveTo(dx, dy gofixed.Int16_16) {
	if ci.open {
		ci.closeContour()
	}
	ci.x += dx
	ci.y += dy
	ci.out.Points = append(ci.out.Points, outline.Point{
		X: toOutlineUnit(ci.x), Y: toOutlineUnit(ci.y), Flag: outline.FlagOnCurve,
	})
	ci.open = true
}

func (ci *charstringInterp) lineTo(dx, dy gofixed.Int16_16) {
	ci.x += dx
	ci.y += dy
	ci.out.Points = append(ci.out.Points, outline.Point{
		X: toOutlineUnit(ci.x), Y: toOutlineUnit(ci.y), Flag: outline.FlagOnCurve,
	})
}

// curveTo appends a cubic Bézier segment (two off-curve control points,
// followed by the on-curve end point) relative to the current point.
func (ci *charstringInterp) curveTo(dx1, dy1, dx2, dy2, dx3, dy3 gofixed.Int16_16) {
	cx1, cy1 := ci.x+dx1, ci.y+dy1
	cx2, cy2 := cx1+dx2, cy1+dy2
	ex, ey := cx2+dx3, cy2+dy3
	ci.out.Points = append(ci.out.Points,
		outline.Point{X: toOutlineUnit(cx1), Y: toOutlineUnit(cy1), Flag: outline.FlagCubic},
		outline.Point{X: toOutlineUnit(cx2), Y: toOutlineUnit(cy2), Flag: outline.FlagCubic},
		outline.Point{X: toOutlineUnit(ex), Y: toOutlineUnit(ey), Flag: outline.FlagOnCurve},
	)
	ci.x, ci.y = ex, ey
}

func toOutlineUnit(v gofixed.Int16_16) gofixed.Int26_6 {
	return gofixed.Int26_6((int64(v) + 1<<15) >> 16)
}

// run interprets one charstring program (the top-level glyph program or a
// subroutine invoked from it); depth counts subroutine nesting only,
// capped at 10.
func (ci *charstringInterp) run(prog []byte) error {
	for len(prog) > 0 {
		b0 := prog[0]
		if b0 >= 32 || b0 == 28 {
			v, rest, err := parseCharstringNumber(prog)
			if err != nil {
				return err
			}
			if err := ci.push(v); err != nil {
				return err
			}
			prog = rest
			continue
		}

		prog = prog[1:]
		op := int(b0)
		if b0 == t2Escape {
			if len(prog) == 0 {
				return errf(InvalidCharstring, "truncated escape operator")
			}
			op = t2Escape<<8 | int(prog[0])
			prog = prog[1:]
		}

		switch op {
		case t2HStem, t2HStemHM:
			ci.takeWidth(true)
			ci.recordStems(false)
			ci.nStems = len(ci.hstems) + len(ci.vstems)
			ci.clear()

		case t2VStem, t2VStemHM:
			ci.takeWidth(true)
			ci.recordStems(true)
			ci.nStems = len(ci.hstems) + len(ci.vstems)
			ci.clear()

		case t2HintMask, t2CntrMask:
			ci.takeWidth(true)
			if len(ci.stack) > 0 {
				// Operands still on the stack here, with no preceding
				// explicit vstem/vstemhm call, are an implicit trailing
				// vstem hint list (5177.Type2.pdf section 3.3).
				ci.recordStems(true)
			}
			ci.nStems = len(ci.hstems) + len(ci.vstems)
			ci.clear()
			nBytes := (ci.nStems + 7) / 8
			if len(prog) < nBytes {
				return errf(InvalidCharstring, "hintmask truncated")
			}
			prog = prog[nBytes:]

		case t2RMoveto:
			ci.takeWidthExact(2)
			if len(ci.stack) < 2 {
				return errf(InvalidCharstring, "rmoveto: stack underflow")
			}
			ci.moveTo(ci.stack[0], ci.stack[1])
			ci.clear()

		case t2HMoveto:
			ci.takeWidthExact(1)
			if len(ci.stack) < 1 {
				return errf(InvalidCharstring, "hmoveto: stack underflow")
			}
			ci.moveTo(ci.stack[0], 0)
			ci.clear()

		case t2VMoveto:
			ci.takeWidthExact(1)
			if len(ci.stack) < 1 {
				return errf(InvalidCharstring, "vmoveto: stack underflow")
			}
			ci.moveTo(0, ci.stack[0])
			ci.clear()

		case t2RLineto:
			for i := 0; i+1 < len(ci.stack); i += 2 {
				ci.lineTo(ci.stack[i], ci.stack[i+1])
			}
			ci.clear()

		case t2HLineto, t2VLineto:
			horiz := op == t2HLineto
			for i := 0; i < len(ci.stack); i++ {
				if horiz {
					ci.lineTo(ci.stack[i], 0)
				} else {
					ci.lineTo(0, ci.stack[i])
				}
				horiz = !horiz
			}
			ci.clear()

		case t2RRCurveto:
			for i := 0; i+5 < len(ci.stack); i += 6 {
				ci.curveTo(ci.stack[i], ci.stack[i+1], ci.stack[i+2], ci.stack[i+3], ci.stack[i+4], ci.stack[i+5])
			}
			ci.clear()

		case t2HHCurveto:
			i := 0
			var dy1 gofixed.Int16_16
			if len(ci.stack)%4 == 1 {
				dy1 = ci.stack[0]
				i = 1
			}
			for ; i+3 < len(ci.stack); i += 4 {
				ci.curveTo(ci.stack[i], dy1, ci.stack[i+1], ci.stack[i+2], ci.stack[i+3], 0)
				dy1 = 0
			}
			ci.clear()

		case t2VVCurveto:
			i := 0
			var dx1 gofixed.Int16_16
			if len(ci.stack)%4 == 1 {
				dx1 = ci.stack[0]
				i = 1
			}
			for ; i+3 < len(ci.stack); i += 4 {
				ci.curveTo(dx1, ci.stack[i], ci.stack[i+1], ci.stack[i+2], 0, ci.stack[i+3])
				dx1 = 0
			}
			ci.clear()

		case t2HVCurveto, t2VHCurveto:
			horiz := op == t2HVCurveto
			i := 0
			n := len(ci.stack)
			for i+3 < n {
				last := i+4 == n-1
				var extra gofixed.Int16_16
				if last {
					extra = ci.stack[n-1]
				}
				if horiz {
					ci.curveTo(ci.stack[i], 0, ci.stack[i+1], ci.stack[i+2], extra, ci.stack[i+3])
				} else {
					ci.curveTo(0, ci.stack[i], ci.stack[i+1], ci.stack[i+2], ci.stack[i+3], extra)
				}
				horiz = !horiz
				i += 4
			}
			ci.clear()

		case t2RCurveLine:
			n := len(ci.stack)
			i := 0
			for ; i+6 <= n-2; i += 6 {
				ci.curveTo(ci.stack[i], ci.stack[i+1], ci.stack[i+2], ci.stack[i+3], ci.stack[i+4], ci.stack[i+5])
			}
			if i+1 < n {
				ci.lineTo(ci.stack[i], ci.stack[i+1])
			}
			ci.clear()

		case t2RLineCurve:
			n := len(ci.stack)
			i := 0
			for ; i+2 <= n-6; i += 2 {
				ci.lineTo(ci.stack[i], ci.stack[i+1])
			}
			if i+5 < n {
				ci.curveTo(ci.stack[i], ci.stack[i+1], ci.stack[i+2], ci.stack[i+3], ci.stack[i+4], ci.stack[i+5])
			}
			ci.clear()

		case t2Flex:
			if len(ci.stack) < 13 {
				return errf(InvalidCharstring, "flex: stack underflow")
			}
			s := ci.stack
			ci.curveTo(s[0], s[1], s[2], s[3], s[4], s[5])
			ci.curveTo(s[6], s[7], s[8], s[9], s[10], s[11])
			ci.clear()

		case t2HFlex:
			if len(ci.stack) < 7 {
				return errf(InvalidCharstring, "hflex: stack underflow")
			}
			s := ci.stack
			y0 := ci.y
			ci.curveTo(s[0], 0, s[1], s[2], s[3], 0)
			ci.curveTo(s[4], 0, s[5], y0-ci.y, s[6], 0)
			ci.clear()

		case t2HFlex1:
			if len(ci.stack) < 9 {
				return errf(InvalidCharstring, "hflex1: stack underflow")
			}
			s := ci.stack
			y0 := ci.y
			ci.curveTo(s[0], s[1], s[2], s[3], s[4], 0)
			ci.curveTo(s[5], 0, s[6], s[7], s[8], y0-ci.y-s[7])
			ci.clear()

		case t2Flex1:
			if len(ci.stack) < 11 {
				return errf(InvalidCharstring, "flex1: stack underflow")
			}
			s := ci.stack
			x0, y0 := ci.x, ci.y
			ci.curveTo(s[0], s[1], s[2], s[3], s[4], s[5])
			dx := s[0] + s[2] + s[4] + s[6] + s[8]
			dy := s[1] + s[3] + s[5] + s[7] + s[9]
			if absFixed(dx) > absFixed(dy) {
				ci.curveTo(s[6], s[7], s[8], s[9], s[10], y0-ci.y-s[7]-s[9])
			} else {
				ci.curveTo(s[6], s[7], s[8], s[9], x0-ci.x-s[6]-s[8], s[10])
			}
			ci.clear()

		case t2CallSubr, t2CallGsubr:
			if len(ci.stack) == 0 {
				return errf(InvalidCharstring, "call{g}subr: stack underflow")
			}
			idx := int(ci.stack[len(ci.stack)-1] >> 16)
			ci.stack = ci.stack[:len(ci.stack)-1]
			idxSet := ci.localSubrs
			bias := ci.localBias
			if op == t2CallGsubr {
				idxSet, bias = ci.globalSubrs, ci.globalBias
			}
			sub, err := idxSet.Get(idx + bias)
			if err != nil {
				return errf(InvalidCharstring, "subroutine %d out of range", idx+bias)
			}
			if ci.depth >= maxSubrDepth {
				return errf(InvalidCharstring, "subroutine nesting too deep")
			}
			ci.depth++
			err = ci.run(sub)
			ci.depth--
			if err != nil {
				return err
			}

		case t2Return:
			return nil

		case t2Endchar:
			ci.takeWidth(true)
			if ci.open {
				ci.closeContour()
			}
			return nil

		case t2Blend:
			return errf(InvalidCharstring, "blend operator requires a CFF2 table, which Parse does not accept")

		default:
			return errf(InvalidCharstring, "unrecognized charstring operator %d", op)
		}
	}
	return nil
}

func absFixed(v gofixed.Int16_16) gofixed.Int16_16 {
	if v < 0 {
		return -v
	}
	return v
}

// parseCharstringNumber parses one operand per 5177.Type2.pdf Appendix A's
// "Number Encoding": integers via the same byte-range scheme as DICT
// operands, plus a dedicated 5-byte 16.16 fixed-point encoding (b0==255)
// that DICTs do not use.
func parseCharstringNumber(b []byte) (gofixed.Int16_16, []byte, error) {
	b0 := b[0]
	switch {
	case b0 == 28:
		if len(b) < 3 {
			return 0, nil, errf(InvalidCharstring, "truncated int16 operand")
		}
		return gofixed.Int16_16(int16(u16(b, 1))) << 16, b[3:], nil

	case b0 == 255:
		if len(b) < 5 {
			return 0, nil, errf(InvalidCharstring, "truncated fixed operand")
		}
		return gofixed.Int16_16(u32(b, 1)), b[5:], nil

	case b0 < 247:
		return gofixed.Int16_16(int32(b0)-139) << 16, b[1:], nil

	case b0 < 251:
		if len(b) < 2 {
			return 0, nil, errf(InvalidCharstring, "truncated operand")
		}
		return gofixed.Int16_16(int32(b0-247)*256+int32(b[1])+108) << 16, b[2:], nil

	default: // 251 <= b0 <= 254
		if len(b) < 2 {
			return 0, nil, errf(InvalidCharstring, "truncated operand")
		}
		return gofixed.Int16_16(-int32(b0-251)*256-int32(b[1])-108) << 16, b[2:], nil
	}
}
