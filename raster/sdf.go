package raster

import (
	"math"

	"github.com/vectorfont/engine/outline"
)

// SDF parameters mirrored from original_source/src/sdf/ftsdf.c: the
// number of seed subdivisions and Newton-Raphson refinement steps used to
// find the nearest point on a curved edge, and the epsilon (in 16.16
// units) within which two candidate nearest edges are treated as tied and
// resolved by a corner rule.
const (
	sdfNewtonDivisions = 4
	sdfNewtonSteps     = 4
	sdfCornerEpsilon   = 32.0 / 65536.0
)

type edgeKind int

const (
	edgeLine edgeKind = iota
	edgeConic
	edgeCubic
)

// edge is one segment of a decomposed shape, keeping its control points
// (unlike the scanline rasterizer's flattened Adder consumers) since the
// SDF pass needs exact nearest-point queries against the original curve.
type edge struct {
	kind       edgeKind
	start, end vec2
	c1, c2     vec2
}

type vec2 struct{ x, y float64 }

func (a vec2) sub(b vec2) vec2   { return vec2{a.x - b.x, a.y - b.y} }
func (a vec2) add(b vec2) vec2   { return vec2{a.x + b.x, a.y + b.y} }
func (a vec2) scale(s float64) vec2 { return vec2{a.x * s, a.y * s} }
func (a vec2) dot(b vec2) float64   { return a.x*b.x + a.y*b.y }
func (a vec2) cross(b vec2) float64 { return a.x*b.y - a.y*b.x }
func (a vec2) length() float64      { return math.Sqrt(a.dot(a)) }

func pointToVec2(p outline.Point) vec2 {
	return vec2{float64(p.X) / 64, float64(p.Y) / 64}
}

// shape is a decomposed outline: one edge list per contour, preserving
// the original curve geometry.
type shape struct {
	contours [][]edge
}

// buildShape decomposes o into curved edges, grounded on this package's
// own Decompose/decomposeQuadContour but collecting edges instead of
// flattening them.
func buildShape(o *outline.Outline) shape {
	var s shape
	for c := 0; c < o.NumContours(); c++ {
		pts := o.Contour(c)
		if len(pts) == 0 {
			continue
		}
		rec := &edgeRecorder{}
		if hasCubic(pts) {
			decomposeCubicContour(pts, rec)
		} else {
			decomposeQuadContour(pts, rec)
		}
		if len(rec.edges) > 0 {
			s.contours = append(s.contours, rec.edges)
		}
	}
	return s
}

// edgeRecorder implements Adder, recording each segment as an edge
// instead of rendering it, so the SDF pass can query the original curve.
type edgeRecorder struct {
	pen   Point
	edges []edge
}

func (r *edgeRecorder) Start(a Point) { r.pen = a }

func (r *edgeRecorder) Add1(b Point) {
	r.edges = append(r.edges, edge{kind: edgeLine, start: toV(r.pen), end: toV(b)})
	r.pen = b
}

func (r *edgeRecorder) Add2(b, c Point) {
	r.edges = append(r.edges, edge{kind: edgeConic, start: toV(r.pen), c1: toV(b), end: toV(c)})
	r.pen = c
}

func (r *edgeRecorder) Add3(b, c, d Point) {
	r.edges = append(r.edges, edge{kind: edgeCubic, start: toV(r.pen), c1: toV(b), c2: toV(c), end: toV(d)})
	r.pen = d
}

func toV(p Point) vec2 { return vec2{float64(p.X) / 64, float64(p.Y) / 64} }

// signedDist is the result of a nearest-edge query: unsigned distance,
// the cross product used for corner disambiguation, and the resolved
// sign (+1 outside, -1 inside, matching the contour's fill convention
// before any flip_sign option is applied).
type signedDist struct {
	dist  float64
	cross float64
	sign  float64
}

// nearestOnEdge returns the unsigned distance from p to e, along with the
// cross product of (p - nearest) and the edge's tangent at the nearest
// point (used to break ties between edges sharing a vertex).
func nearestOnEdge(p vec2, e edge) (dist, cross float64) {
	switch e.kind {
	case edgeLine:
		return nearestOnLine(p, e.start, e.end)
	case edgeConic:
		return nearestOnCurve(p, func(t float64) vec2 { return quadAt(e.start, e.c1, e.end, t) })
	default:
		return nearestOnCurve(p, func(t float64) vec2 { return cubicAt(e.start, e.c1, e.c2, e.end, t) })
	}
}

func nearestOnLine(p, a, b vec2) (dist, cross float64) {
	dir := b.sub(a)
	length2 := dir.dot(dir)
	t := 0.0
	if length2 > 0 {
		t = p.sub(a).dot(dir) / length2
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}
	nearest := a.add(dir.scale(t))
	toP := p.sub(nearest)
	return toP.length(), dir.cross(toP)
}

func quadAt(p0, p1, p2 vec2, t float64) vec2 {
	mt := 1 - t
	a := p0.scale(mt * mt)
	b := p1.scale(2 * mt * t)
	c := p2.scale(t * t)
	return a.add(b).add(c)
}

func quadTangent(p0, p1, p2 vec2, t float64) vec2 {
	mt := 1 - t
	return p1.sub(p0).scale(2 * mt).add(p2.sub(p1).scale(2 * t))
}

func cubicAt(p0, p1, p2, p3 vec2, t float64) vec2 {
	mt := 1 - t
	a := p0.scale(mt * mt * mt)
	b := p1.scale(3 * mt * mt * t)
	c := p2.scale(3 * mt * t * t)
	d := p3.scale(t * t * t)
	return a.add(b).add(c).add(d)
}

func cubicTangent(p0, p1, p2, p3 vec2, t float64) vec2 {
	mt := 1 - t
	q0 := p1.sub(p0).scale(3 * mt * mt)
	q1 := p2.sub(p1).scale(6 * mt * t)
	q2 := p3.sub(p2).scale(3 * t * t)
	return q0.add(q1).add(q2)
}

// nearestOnCurve finds the parameter t minimizing |p - at(t)| via
// sdfNewtonDivisions evenly spaced seeds, each refined by
// sdfNewtonSteps of Newton-Raphson on the derivative of the squared
// distance, per ftsdf.c's MAX_NEWTON_DIVISIONS/MAX_NEWTON_STEPS scheme.
// The seeds are t = 0, 1/3, 2/3 and 1. The tangent at the result is
// estimated by numericTangent from two further at() evaluations.
func nearestOnCurve(p vec2, at func(t float64) vec2) (dist, cross float64) {
	best := math.MaxFloat64
	bestT := 0.0
	for i := 0; i < sdfNewtonDivisions; i++ {
		t := float64(i) / (sdfNewtonDivisions - 1)
		t = refineNewton(p, at, t)
		d := at(t).sub(p).length()
		if d < best {
			best, bestT = d, t
		}
	}
	nearest := at(bestT)
	toP := p.sub(nearest)
	tangent := numericTangent(at, bestT)
	return toP.length(), tangent.cross(toP)
}

func numericTangent(at func(t float64) vec2, t float64) vec2 {
	const h = 1e-4
	t0, t1 := t-h, t+h
	if t0 < 0 {
		t0 = 0
	}
	if t1 > 1 {
		t1 = 1
	}
	return at(t1).sub(at(t0))
}

// refineNewton runs sdfNewtonSteps of x -= Q'(t)/Q''(t) on the squared
// distance function Q(t) = |at(t) - p|^2, clamping t back into [0, 1]
// after every step.
func refineNewton(p vec2, at func(t float64) vec2, t float64) float64 {
	const h = 1e-3
	for i := 0; i < sdfNewtonSteps; i++ {
		f := func(tt float64) float64 {
			d := at(tt).sub(p)
			return d.dot(d)
		}
		d1 := (f(t+h) - f(t-h)) / (2 * h)
		d2 := (f(t+h) - 2*f(t) + f(t-h)) / (h * h)
		if d2 == 0 {
			break
		}
		t -= d1 / d2
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}
	return t
}

// windingSign reports whether p is inside s, via a non-zero winding test
// against each contour's straight-chord approximation: every chord that
// crosses the horizontal ray to the right of p adds +1 when it runs
// upward and -1 when it runs downward (control points are close enough
// for the sign test, which only needs topology, not precision).
func windingSign(p vec2, s shape) int {
	winding := 0
	for _, contour := range s.contours {
		for _, e := range contour {
			a, b := e.start, e.end
			if (a.y <= p.y) != (b.y <= p.y) {
				t := (p.y - a.y) / (b.y - a.y)
				x := a.x + t*(b.x-a.x)
				if x > p.x {
					if b.y > a.y {
						winding++
					} else {
						winding--
					}
				}
			}
		}
	}
	if winding != 0 {
		return -1 // inside
	}
	return 1 // outside
}

// distanceToShape finds the nearest edge to p across every contour,
// resolving ties within sdfCornerEpsilon by preferring the edge whose
// cross-product magnitude (tangent-to-point-vector perpendicularity) is
// largest, per ftsdf.c's CORNER_CHECK_EPSILON rule.
func distanceToShape(p vec2, s shape) float64 {
	best := math.MaxFloat64
	bestCross := 0.0
	for _, contour := range s.contours {
		for _, e := range contour {
			d, cr := nearestOnEdge(p, e)
			switch {
			case d < best-sdfCornerEpsilon:
				best, bestCross = d, cr
			case d < best+sdfCornerEpsilon && math.Abs(cr) > math.Abs(bestCross):
				bestCross = cr
				if d < best {
					best = d
				}
			}
		}
	}
	// windingSign returns -1 for points inside the contour; the SDF
	// convention here is the opposite, positive distance means inside.
	sign := -float64(windingSign(p, s))
	return sign * best
}

// Bitmap16 is the SDF pass's output: one uint16 per pixel, row-major.
type Bitmap16 struct {
	Pix           []uint16
	Width, Height int
}

// SDFOptions configures Render: Spread is the maximum representable
// distance (in pixels) before clamping, FlipSign reverses the inside/
// outside convention and FlipY renders the bitmap's first row as the
// outline's maximum Y instead of its minimum.
type SDFOptions struct {
	Spread   float64
	FlipSign bool
	FlipY    bool
}

// RenderSDF computes a signed distance field for o over a width-by-
// height pixel grid, linearly mapped so 0 = -Spread, 65535 = +Spread and
// 32768 = exactly on the outline.
func RenderSDF(o *outline.Outline, width, height int, opts SDFOptions) *Bitmap16 {
	s := buildShape(o)
	out := &Bitmap16{Pix: make([]uint16, width*height), Width: width, Height: height}
	spread := opts.Spread
	if spread <= 0 {
		spread = 8
	}
	for y := 0; y < height; y++ {
		py := float64(y) + 0.5
		if opts.FlipY {
			py = float64(height-1-y) + 0.5
		}
		for x := 0; x < width; x++ {
			px := float64(x) + 0.5
			d := distanceToShape(vec2{px, py}, s)
			if opts.FlipSign {
				d = -d
			}
			if d < -spread {
				d = -spread
			} else if d > spread {
				d = spread
			}
			level := (d/spread + 1) * 0.5 * 65535
			out.Pix[y*width+x] = uint16(level + 0.5)
		}
	}
	return out
}
