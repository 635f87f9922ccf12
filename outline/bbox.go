package outline

import gofixed "github.com/vectorfont/engine/fixed"

// BBox computes the tight bounding box of o, the Go analogue of
// original_source/src/base/ftbbox.c: start from the bbox of on-curve
// points only, then correct for each off-curve segment's analytical
// extrema.
func BBox(o *Outline) (xMin, yMin, xMax, yMax gofixed.Int26_6) {
	first := true
	grow := func(x, y gofixed.Int26_6) {
		if first {
			xMin, yMin, xMax, yMax = x, y, x, y
			first = false
			return
		}
		if x < xMin {
			xMin = x
		}
		if x > xMax {
			xMax = x
		}
		if y < yMin {
			yMin = y
		}
		if y > yMax {
			yMax = y
		}
	}
	for _, p := range o.Points {
		if p.OnCurve() {
			grow(p.X, p.Y)
		}
	}

	for c := 0; c < o.NumContours(); c++ {
		pts := o.Contour(c)
		n := len(pts)
		if n == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			p0 := pts[i]
			if p0.OnCurve() {
				continue
			}
			prev := pts[(i-1+n)%n]
			next := pts[(i+1)%n]
			if prev.Flag&FlagCubic != 0 || next.Flag&FlagCubic != 0 ||
				p0.Flag&FlagCubic != 0 {
				// Cubic segments are handled as a group below; skip here
				// to avoid double-counting a control point.
				if isCubicTriple(pts, i) {
					continue
				}
			}
			// Quadratic off-curve point: neighbours may themselves be
			// off-curve, in which case the implicit midpoint is the
			// effective on-curve endpoint.
			p0x, p0y := midIfOff(prev, p0), midIfOffY(prev, p0)
			p2x, p2y := midIfOff(next, p0), midIfOffY(next, p0)
			quadExtrema(p0x, p0.X, p2x, &xMin, &xMax)
			quadExtrema(p0y, p0.Y, p2y, &yMin, &yMax)
		}
		// Cubic segments: two consecutive cubic off-curve points
		// followed by an on-curve point (CFF charstrings always emit
		// points in this pattern; see cff/charstring.go).
		for i := 0; i < n; i++ {
			if pts[i].Flag&FlagCubic == 0 {
				continue
			}
			i1 := (i + 1) % n
			if pts[i1].Flag&FlagCubic == 0 {
				continue
			}
			p0 := pts[(i-1+n)%n]
			p3 := pts[(i1+1)%n]
			cubicExtrema(p0.X, pts[i].X, pts[i1].X, p3.X, &xMin, &xMax)
			cubicExtrema(p0.Y, pts[i].Y, pts[i1].Y, p3.Y, &yMin, &yMax)
			i++ // skip the second control point; already consumed
		}
	}
	return
}

func isCubicTriple(pts []Point, i int) bool {
	// A cubic off-curve point is always part of a (off, off, on) run; we
	// detect it by checking whether this point carries FlagCubic,
	// leaving the actual extrema computation to the dedicated
	// cubic loop above.
	return pts[i].Flag&FlagCubic != 0
}

func midIfOff(neighbour, ctrl Point) gofixed.Int26_6 {
	if neighbour.OnCurve() {
		return neighbour.X
	}
	return (neighbour.X + ctrl.X) / 2
}

func midIfOffY(neighbour, ctrl Point) gofixed.Int26_6 {
	if neighbour.OnCurve() {
		return neighbour.Y
	}
	return (neighbour.Y + ctrl.Y) / 2
}

// quadExtrema updates [min,max] for one axis of a quadratic Bézier
// (p0, p1, p2): if p1 lies within [min(p0,p2), max(p0,p2)] there is no
// correction; otherwise solve for the extremum analytically.
func quadExtrema(p0, p1, p2 gofixed.Int26_6, min, max *gofixed.Int26_6) {
	grow1(p0, min, max)
	grow1(p2, min, max)
	if p1 >= minOf(p0, p2) && p1 <= maxOf(p0, p2) {
		return
	}
	denom := p0 - 2*p1 + p2
	if denom == 0 {
		grow1(p0, min, max)
		grow1(p2, min, max)
		return
	}
	// value = p0 - (p1-p0)^2 / denom, all in 26.6; use int64 to avoid
	// overflow in the squared numerator.
	num := int64(p1-p0) * int64(p1-p0)
	value := gofixed.Int26_6(int64(p0) - num/int64(denom))
	grow1(p0, min, max)
	grow1(p2, min, max)
	grow1(value, min, max)
}

func grow1(v gofixed.Int26_6, min, max *gofixed.Int26_6) {
	if v < *min {
		*min = v
	}
	if v > *max {
		*max = v
	}
}

func minOf(a, b gofixed.Int26_6) gofixed.Int26_6 {
	if a < b {
		return a
	}
	return b
}

func maxOf(a, b gofixed.Int26_6) gofixed.Int26_6 {
	if a > b {
		return a
	}
	return b
}

// cubicExtrema updates [min,max] for one axis of a cubic Bézier
// (p0, p1, p2, p3), solving a*t^2 + 2*b*t + c = 0, normalizing
// coefficients into a 24-bit range before taking the fixed-point square
// root, mirroring original_source/src/base/ftbbox.c.
func cubicExtrema(p0, p1, p2, p3 gofixed.Int26_6, min, max *gofixed.Int26_6) {
	grow1(p0, min, max)
	grow1(p3, min, max)

	a := int64(p3) - 3*int64(p2) + 3*int64(p1) - int64(p0)
	b := int64(p2) - 2*int64(p1) + int64(p0)
	c := int64(p1) - int64(p0)

	// Normalize so that max(|a|,|b|,|c|) fits comfortably in 24 bits,
	// preserving the roots of a*t^2 + 2*b*t + c = 0.
	shift := func(v int64) int64 {
		if v < 0 {
			v = -v
		}
		return v
	}
	m := shift(a)
	if v := shift(b); v > m {
		m = v
	}
	if v := shift(c); v > m {
		m = v
	}
	if m > 1<<24 {
		for m > 1<<24 {
			a >>= 1
			b >>= 1
			c >>= 1
			m >>= 1
		}
	}

	if a == 0 {
		// Linear: b*t + c/2 == 0 (derivative of a quadratic-in-disguise).
		if b == 0 {
			return
		}
		t := -c * 65536 / (2 * b)
		evalCubicAt(t, p0, p1, p2, p3, min, max)
		return
	}

	disc := b*b - a*c
	if disc < 0 {
		// Monotonic on this axis; endpoints already account for it.
		return
	}
	// Solve using an integer Newton-refined sqrt of the discriminant,
	// then t = (-b ± sqrt) / a, in the parameter domain (0,1) expressed
	// as 16.16.
	root := gofixed.Sqrt16_16(disc)
	for _, sign := range [2]int64{+1, -1} {
		num := (-b + sign*root) << 16
		if a == 0 {
			continue
		}
		t := num / a
		evalCubicAt(t, p0, p1, p2, p3, min, max)
	}
}

// evalCubicAt evaluates the cubic Bézier at parameter t (16.16, valid
// range (0,1)) and grows [min,max] by the resulting coordinate.
func evalCubicAt(t16_16 int64, p0, p1, p2, p3 gofixed.Int26_6, min, max *gofixed.Int26_6) {
	if t16_16 <= 0 || t16_16 >= 1<<16 {
		return
	}
	t := gofixed.Int16_16(t16_16)
	one := gofixed.Int16_16One
	mt := one - t
	// Bernstein form: mt^3*p0 + 3*mt^2*t*p1 + 3*mt*t^2*p2 + t^3*p3.
	three := gofixed.Int16_16(3 << 16)
	b0 := mt.Mul(mt).Mul(mt)
	b1 := three.Mul(mt).Mul(mt).Mul(t)
	b2 := three.Mul(mt).Mul(t).Mul(t)
	b3 := t.Mul(t).Mul(t)
	value := b0.ToInt26_6(p0) + b1.ToInt26_6(p1) + b2.ToInt26_6(p2) + b3.ToInt26_6(p3)
	grow1(value, min, max)
}
