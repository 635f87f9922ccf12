// Package fixed implements the fixed-point math kernel used throughout the
// engine: 26.6 pixel coordinates and 16.16 scale ratios, each a distinct
// Go type so the compiler refuses to mix them in an expression.
package fixed

import "golang.org/x/image/math/fixed"

// Int26_6 is a signed 26.6 fixed-point number, the native unit for outline
// point coordinates and glyph metrics. It is an alias of the ecosystem's
// own fixed-point type rather than a bespoke one: golang.org/x/image's
// fixed package is freetype's only non-stdlib dependency, and
// truetype/face.go already builds on this same type.
type Int26_6 = fixed.Int26_6

// Int16_16 is a signed 16.16 fixed-point number, used for scale factors
// (ppem / units-per-em ratios) and transform matrix entries.
type Int16_16 int32

const (
	// Int16_16One is the fixed-point representation of 1.0.
	Int16_16One = Int16_16(1 << 16)
)

// Mul returns x*y correctly rounded to the nearest Int16_16.
func (x Int16_16) Mul(y Int16_16) Int16_16 {
	return Int16_16((int64(x)*int64(y) + 1<<15) >> 16)
}

// Div returns x/y correctly rounded to the nearest Int16_16.
func (x Int16_16) Div(y Int16_16) Int16_16 {
	if y == 0 {
		return 0
	}
	n := int64(x) << 16
	if (n < 0) != (y < 0) {
		return Int16_16((n - int64(y)/2) / int64(y))
	}
	return Int16_16((n + int64(y)/2) / int64(y))
}

// ToInt26_6 scales x (a 16.16 ratio) by v (a 26.6 value), returning a 26.6
// value. This is the "scale by ppem/upem" operation used throughout
// glyph loading.
func (x Int16_16) ToInt26_6(v Int26_6) Int26_6 {
	return Int26_6((int64(x)*int64(v) + 1<<15) >> 16)
}

// Float64 returns x as a float64, for diagnostics and test assertions only.
func (x Int16_16) Float64() float64 {
	return float64(x) / 65536
}

// MulDiv26_6 returns x*num/den, correctly rounded, useful for scaling a
// 26.6 value by a dimensionless integer ratio without overflowing through
// an intermediate 16.16 conversion.
func MulDiv26_6(x Int26_6, num, den int64) Int26_6 {
	if den == 0 {
		return 0
	}
	n := int64(x) * num
	if (n < 0) != (den < 0) {
		return Int26_6((n - den/2) / den)
	}
	return Int26_6((n + den/2) / den)
}

// Sqrt26_6 returns an approximation to the square root of x, where x is
// a squared 26.6 quantity (the raw product of two 26.6 values, e.g. a
// squared length) and the result is in 26.6: Sqrt26_6(256*256) is 256,
// i.e. 4.0. It is the integer square root of x's raw value, computed by
// Newton iteration with no floating point.
func Sqrt26_6(x Int26_6) Int26_6 {
	if x <= 0 {
		return 0
	}
	// Work in plain int64 units-squared to get enough headroom for the
	// Newton iteration.
	v := int64(x)
	// Initial guess via bit-length halving.
	guess := int64(1)
	for t := v; t > 1; t >>= 2 {
		guess <<= 1
	}
	for i := 0; i < 8; i++ {
		if guess == 0 {
			break
		}
		guess = (guess + v/guess) / 2
	}
	return Int26_6(guess)
}

// Sqrt16_16 returns the square root of x (a 16.16 value already squared
// into a 32.32-ish intermediate by the caller), used by the cubic bbox
// solver's discriminant evaluation. The argument and result are both
// plain int64 in 16.16 units; callers must normalize operands into a
// 24-bit range first, before calling this.
func Sqrt16_16(xSquared int64) int64 {
	if xSquared <= 0 {
		return 0
	}
	guess := int64(1)
	for t := xSquared; t > 1; t >>= 2 {
		guess <<= 1
	}
	for i := 0; i < 12; i++ {
		if guess == 0 {
			break
		}
		guess = (guess + xSquared/guess) / 2
	}
	return guess
}

// Round rounds x to the nearest whole pixel (grid-fitting rounding used
// outside of the TrueType interpreter's own programmable rounding, e.g.
// for advances and phantom points).
func Round(x Int26_6) Int26_6 {
	return (x + 32) &^ 63
}

// Floor truncates x down to a whole pixel.
func Floor(x Int26_6) Int26_6 {
	return x &^ 63
}

// Ceil rounds x up to a whole pixel.
func Ceil(x Int26_6) Int26_6 {
	return (x + 63) &^ 63
}
