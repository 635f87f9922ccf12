// Package outline implements the engine's internal vector representation:
// an ordered sequence of points plus contour-end indices, shared by the
// TrueType and CFF loaders and consumed by the rasterizer.
//
// Grounded on freetype/truetype/glyph.go's Point/End arrays, generalized
// away from TrueType-only: a tag byte distinguishes on-curve, conic
// off-curve (TrueType) and cubic off-curve (CFF) points in one type.
package outline

import gofixed "github.com/vectorfont/engine/fixed"

// Tag bits for a Point, extending the TrueType on/off-curve flag with a
// conic-vs-cubic distinction so one Outline type serves both loaders.
const (
	FlagOnCurve = 1 << iota
	FlagCubic   // off-curve point belongs to a cubic (CFF) segment
	// Internal bookkeeping bits used by the TrueType hinter; preserved
	// across transforms but never interpreted by the rasterizer.
	FlagTouchedX
	FlagTouchedY
)

// Point is a single outline vertex: a 26.6 pixel coordinate plus a tag.
type Point struct {
	X, Y gofixed.Int26_6
	Flag uint8
}

// OnCurve reports whether p lies on the contour.
func (p Point) OnCurve() bool { return p.Flag&FlagOnCurve != 0 }

// Outline flags: how the rasterizer should treat the fill.
const (
	ReverseFill = 1 << iota
	IgnoreDropout
)

// Outline is the internal vector glyph representation: point list plus
// contour-end indices (inclusive, last-point-of-contour convention,
// matching freetype/truetype/glyph.go's End slice).
type Outline struct {
	Points []Point
	Ends   []int
	Flags  uint32
}

// Reset empties o in place, retaining the underlying arrays so callers
// can reuse an Outline across glyphs without reallocating.
func (o *Outline) Reset() {
	o.Points = o.Points[:0]
	o.Ends = o.Ends[:0]
	o.Flags = 0
}

// Contour returns the i'th contour's points as a sub-slice.
func (o *Outline) Contour(i int) []Point {
	start := 0
	if i > 0 {
		start = o.Ends[i-1] + 1
	}
	return o.Points[start : o.Ends[i]+1]
}

// NumContours returns the number of contours in o.
func (o *Outline) NumContours() int { return len(o.Ends) }

// Translate shifts every point of o by (dx, dy).
func (o *Outline) Translate(dx, dy gofixed.Int26_6) {
	for i := range o.Points {
		o.Points[i].X += dx
		o.Points[i].Y += dy
	}
}

// Transform2x2 is a 2x2 affine matrix in 16.16 fixed point, applied as
//
//	x' = (x*XX + y*XY) , y' = (x*YX + y*YY)   (both rounded, >>16)
//
// the same composition convention TrueType composite glyphs use, and that
// the glyph transform pipeline exposes to callers.
type Transform2x2 struct {
	XX, XY, YX, YY gofixed.Int16_16
}

// Identity2x2 is the identity transform.
var Identity2x2 = Transform2x2{XX: gofixed.Int16_16One, YY: gofixed.Int16_16One}

// Apply applies t to the point (x, y), both in 26.6 pixels.
func (t Transform2x2) Apply(x, y gofixed.Int26_6) (gofixed.Int26_6, gofixed.Int26_6) {
	nx := int64(x)*int64(t.XX) + int64(y)*int64(t.XY)
	ny := int64(x)*int64(t.YX) + int64(y)*int64(t.YY)
	return gofixed.Int26_6((nx + 1<<15) >> 16), gofixed.Int26_6((ny + 1<<15) >> 16)
}

// Compose returns the transform equivalent to applying t first, then u:
// for all points p, u.Compose(t).Apply(p) == u.Apply(t.Apply(p)).
func (u Transform2x2) Compose(t Transform2x2) Transform2x2 {
	mul := func(a, b gofixed.Int16_16) int64 { return int64(a) * int64(b) }
	round := func(v int64) gofixed.Int16_16 { return gofixed.Int16_16((v + 1<<15) >> 16) }
	return Transform2x2{
		XX: round(mul(u.XX, t.XX) + mul(u.XY, t.YX)),
		XY: round(mul(u.XX, t.XY) + mul(u.XY, t.YY)),
		YX: round(mul(u.YX, t.XX) + mul(u.YY, t.YX)),
		YY: round(mul(u.YX, t.XY) + mul(u.YY, t.YY)),
	}
}

// Transform applies t to every point of o in place.
func (o *Outline) Transform(t Transform2x2) {
	for i := range o.Points {
		o.Points[i].X, o.Points[i].Y = t.Apply(o.Points[i].X, o.Points[i].Y)
	}
}

// Append appends the points and contours of src to o, each contour-end
// index adjusted by the current length of o.Points: the "recursively
// load a composite's children, then append" pattern composite glyph
// assembly needs.
func (o *Outline) Append(src *Outline) {
	base := len(o.Points)
	o.Points = append(o.Points, src.Points...)
	for _, e := range src.Ends {
		o.Ends = append(o.Ends, base+e)
	}
}

// ControlBox returns the box spanning every point, on- or off-curve. It
// always contains BBox, since off-curve control points can lie outside
// the curve they shape.
func (o *Outline) ControlBox() (xMin, yMin, xMax, yMax gofixed.Int26_6) {
	if len(o.Points) == 0 {
		return 0, 0, 0, 0
	}
	xMin, yMin = o.Points[0].X, o.Points[0].Y
	xMax, yMax = xMin, yMin
	for _, p := range o.Points[1:] {
		if p.X < xMin {
			xMin = p.X
		}
		if p.X > xMax {
			xMax = p.X
		}
		if p.Y < yMin {
			yMin = p.Y
		}
		if p.Y > yMax {
			yMax = p.Y
		}
	}
	return
}
