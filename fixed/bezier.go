package fixed

import (
	"math"

	"golang.org/x/image/math/f32"
)

// DevSquared returns a measure of how curvy the sequence a to b to c is,
// used to decide how many line segments approximate a Bézier segment
// during flattening. Grounded on golang.org/x/image's vector package
// devSquared: the evenly-spaced-subdivision heuristic (rather than
// recursive de Casteljau) computes the flatness test once per curve
// instead of once per candidate subdivision.
func DevSquared(a, b, c f32.Vec2) float32 {
	devx := a[0] - 2*b[0] + c[0]
	devy := a[1] - 2*b[1] + c[1]
	return devx*devx + devy*devy
}

// FlattenSegments returns the number of intermediate points a curve with
// the given (max of sub-hull) deviation-squared should be split into:
// floor((tol*devsq)^(1/4) / 8), the rasterizer's flatness-to-segment-count
// mapping. A curve flat enough (devsq < 0.333) needs none.
func FlattenSegments(devsq float32, tol float32) int {
	if devsq < 0.333 {
		return 0
	}
	n := int(math.Floor(math.Sqrt(math.Sqrt(float64(tol*devsq))) / 8))
	if n < 0 {
		n = 0
	}
	return n
}

// Lerp linearly interpolates between p and q at parameter t.
func Lerp(t float32, p, q f32.Vec2) f32.Vec2 {
	return f32.Vec2{
		p[0] + t*(q[0]-p[0]),
		p[1] + t*(q[1]-p[1]),
	}
}

// MidPoint returns the midpoint of p and q, used to synthesize the
// implicit on-curve point between two consecutive off-curve quadratic
// control points.
func MidPoint(p, q f32.Vec2) f32.Vec2 {
	return f32.Vec2{(p[0] + q[0]) * 0.5, (p[1] + q[1]) * 0.5}
}
