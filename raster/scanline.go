// Package raster implements the engine's scanline rasterizer (analytical
// area accumulation) and SDF post-pass.
//
// The accumulation algorithm is grounded on original_source/src/dense/
// ftdense.c's dense_render_line: a per-edge signed-area-delta scheme
// where a left-to-right prefix sum across each row reconstructs exact
// pixel coverage, avoiding any active-edge-table bookkeeping. The curve
// flattening and Adder-style decomposition follow golang.org/x/image's
// vector package devSquared heuristic and freetype/truetype/face.go's
// drawContour / freetype/raster/geom.go's Adder interface shape
// respectively.
package raster

import (
	gofixed "github.com/vectorfont/engine/fixed"
	"github.com/vectorfont/engine/outline"
	"golang.org/x/image/math/f32"
)

// Point is a 26.6 fixed-point coordinate, Y increasing downward (bitmap
// convention) once handed to a Rasterizer.
type Point struct {
	X, Y gofixed.Int26_6
}

// Adder accumulates the segments of one or more closed contours.
type Adder interface {
	Start(a Point)
	Add1(b Point)
	Add2(b, c Point)
	Add3(b, c, d Point)
}

// Decompose feeds o's contours to add, synthesizing TrueType's implicit
// on-curve midpoints for consecutive quadratic off-curve points and
// grouping CFF's (off,off,on) runs into cubic segments.
func Decompose(o *outline.Outline, add Adder) {
	for c := 0; c < o.NumContours(); c++ {
		pts := o.Contour(c)
		if len(pts) == 0 {
			continue
		}
		if hasCubic(pts) {
			decomposeCubicContour(pts, add)
		} else {
			decomposeQuadContour(pts, add)
		}
	}
}

func hasCubic(pts []outline.Point) bool {
	for _, p := range pts {
		if p.Flag&outline.FlagCubic != 0 {
			return true
		}
	}
	return false
}

func asPoint(p outline.Point) Point { return Point{p.X, p.Y} }

func decomposeCubicContour(pts []outline.Point, add Adder) {
	n := len(pts)
	start := 0
	for i, p := range pts {
		if p.OnCurve() {
			start = i
			break
		}
	}
	add.Start(asPoint(pts[start]))
	for k := 1; k <= n; {
		p := pts[(start+k)%n]
		if p.Flag&outline.FlagCubic != 0 && k+2 <= n {
			add.Add3(asPoint(p), asPoint(pts[(start+k+1)%n]), asPoint(pts[(start+k+2)%n]))
			k += 3
			continue
		}
		add.Add1(asPoint(p))
		k++
	}
}

// decomposeQuadContour adapts truetype/face.go's drawContour to the
// shared Outline/Adder types.
func decomposeQuadContour(pts []outline.Point, add Adder) {
	n := len(pts)
	midOf := func(a, b outline.Point) Point {
		return Point{(a.X + b.X) / 2, (a.Y + b.Y) / 2}
	}

	var start Point
	var others []outline.Point
	switch {
	case pts[0].OnCurve():
		start, others = asPoint(pts[0]), pts[1:]
	case pts[n-1].OnCurve():
		start, others = asPoint(pts[n-1]), pts[:n-1]
	default:
		start, others = midOf(pts[n-1], pts[0]), pts
	}
	add.Start(start)

	q0, on0 := start, true
	for _, p := range others {
		q := asPoint(p)
		on := p.OnCurve()
		if on {
			if on0 {
				add.Add1(q)
			} else {
				add.Add2(q0, q)
			}
		} else if !on0 {
			add.Add2(q0, Point{(q0.X + q.X) / 2, (q0.Y + q.Y) / 2})
		}
		q0, on0 = q, on
	}
	if on0 {
		add.Add1(start)
	} else {
		add.Add2(q0, start)
	}
}

// Mode selects the rasterizer's output pixel format.
type Mode int

const (
	Mono Mode = iota
	Gray
	LCDHorizontal
	LCDVertical
)

// Bitmap is the rasterizer's target: row-major, Pix[y*Stride+x] holds one
// pixel's coverage (1 byte for Mono/Gray/LCD; Mono packs 8 pixels/byte
// via Stride measured in bytes).
type Bitmap struct {
	Pix           []byte
	Stride        int
	Width, Height int
	Mode          Mode
}

// NewBitmap allocates a Bitmap sized for mode: LCD modes store three
// filtered subpixel coverage bytes (R, G, B order) per pixel, Mono packs
// 8 pixels/byte, Gray stores one byte per pixel.
func NewBitmap(width, height int, mode Mode) *Bitmap {
	b := &Bitmap{Width: width, Height: height, Mode: mode}
	switch mode {
	case Mono:
		b.Stride = (width + 7) / 8
	case LCDHorizontal, LCDVertical:
		b.Stride = width * 3
	default:
		b.Stride = width
	}
	b.Pix = make([]byte, b.Stride*height)
	return b
}

// NewBitmapWith behaves like NewBitmap but reuses buf's backing array
// when it already has enough capacity instead of allocating, for
// callers (such as font.Face's per-face arena) that render many glyphs
// in sequence and want to avoid a fresh allocation each time.
func NewBitmapWith(buf []byte, width, height int, mode Mode) *Bitmap {
	b := &Bitmap{Width: width, Height: height, Mode: mode}
	switch mode {
	case Mono:
		b.Stride = (width + 7) / 8
	case LCDHorizontal, LCDVertical:
		b.Stride = width * 3
	default:
		b.Stride = width
	}
	n := b.Stride * height
	if cap(buf) >= n {
		b.Pix = buf[:n]
	} else {
		b.Pix = make([]byte, n)
	}
	return b
}

// Rasterizer accumulates signed-area deltas for one glyph and resolves
// them into a Bitmap. Reusable across glyphs via Reset.
type Rasterizer struct {
	w, h   int
	stride int
	acc    []int64 // 20.12 fixed-point area accumulators, row-major, stride = w+1

	pen   Point
	first Point

	// lcdWeights is the LCD sub-pixel filter's 5-tap kernel. The zero
	// value means "use defaultLCDWeights"; the coefficient choice is left
	// to the caller via SetLCDFilter, with a fixed 5-tap shape.
	lcdWeights [5]int
}

// NewRasterizer returns a Rasterizer whose accumulation buffer covers a
// w-by-h pixel area: the glyph's rounded-out bounding box, padded to
// whole pixels.
func NewRasterizer(w, h int) *Rasterizer {
	r := &Rasterizer{}
	r.Reset(w, h)
	return r
}

// Reset clears r and resizes its buffer to w-by-h, reusing the
// underlying array when it is already large enough.
func (r *Rasterizer) Reset(w, h int) {
	r.w, r.h = w, h
	r.stride = w + 1
	n := r.stride * h
	if n > cap(r.acc) {
		r.acc = make([]int64, n)
	} else {
		r.acc = r.acc[:n]
		for i := range r.acc {
			r.acc[i] = 0
		}
	}
	r.pen = Point{}
	r.first = Point{}
}

func (r *Rasterizer) Start(a Point) { r.first, r.pen = a, a }

func (r *Rasterizer) Add1(b Point) {
	r.renderLine(r.pen, b)
	r.pen = b
}

func (r *Rasterizer) Add2(b, c Point) {
	a := r.pen
	devsq := devSquared(a, b, c)
	n := gofixed.FlattenSegments(devsq, 3)
	if n > 0 {
		nInv := 1 / float32(n+1)
		t := float32(0)
		for i := 0; i < n; i++ {
			t += nInv
			ab := lerpPoint(t, a, b)
			bc := lerpPoint(t, b, c)
			r.Add1(lerpPoint(t, ab, bc))
		}
	}
	r.Add1(c)
}

func (r *Rasterizer) Add3(b, c, d Point) {
	a := r.pen
	devsq := devSquared(a, b, d)
	if alt := devSquared(a, c, d); alt > devsq {
		devsq = alt
	}
	n := gofixed.FlattenSegments(devsq, 3)
	if n > 0 {
		nInv := 1 / float32(n+1)
		t := float32(0)
		for i := 0; i < n; i++ {
			t += nInv
			ab := lerpPoint(t, a, b)
			bc := lerpPoint(t, b, c)
			cd := lerpPoint(t, c, d)
			abc := lerpPoint(t, ab, bc)
			bcd := lerpPoint(t, bc, cd)
			r.Add1(lerpPoint(t, abc, bcd))
		}
	}
	r.Add1(d)
}

func devSquared(a, b, c Point) float32 {
	return gofixed.DevSquared(toVec2(a), toVec2(b), toVec2(c))
}

func toVec2(p Point) f32.Vec2 { return f32.Vec2{float32(p.X) / 64, float32(p.Y) / 64} }

func lerpPoint(t float32, p, q Point) Point {
	v := gofixed.Lerp(t, toVec2(p), toVec2(q))
	return Point{gofixed.Int26_6(v[0] * 64), gofixed.Int26_6(v[1] * 64)}
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// renderLine accumulates one straight segment into the area buffer,
// ported from dense_render_line: the core per-edge trapezoidal-area
// split that lets a prefix sum reconstruct pixel coverage.
func (r *Rasterizer) renderLine(from, to Point) {
	fy, ty := int32(from.Y), int32(to.Y)
	if fy == ty {
		return
	}
	fx, tx := int32(from.X), int32(to.X)

	dir := int64(1)
	if fy >= ty {
		dir = -1
		fx, tx = tx, fx
		fy, ty = ty, fy
	}

	h64 := int32(r.h) << 6
	if fy >= h64 || ty <= 0 {
		return
	}
	deltaX := tx - fx
	deltaY := ty - fy
	if fy < 0 {
		fx -= fy * deltaX / deltaY
		fy = 0
	}
	if ty > h64 {
		tx -= (ty - h64) * deltaX / deltaY
		ty = h64
	}
	if fy >= ty {
		return
	}

	a := r.acc
	stride := r.stride

	if deltaX == 0 {
		x := fx
		x0i := int(x >> 6)
		x0floor := (x >> 6) << 6
		y0 := int(fy >> 6)
		yLimit := int((ty + 0x3f) >> 6)
		for y := y0; y < yLimit; y++ {
			lineStart := y * stride
			dy := int64(min32(int32(y+1)<<6, ty) - max32(int32(y)<<6, fy))
			a[lineStart+x0i] += dir * dy * int64(64-(x-x0floor))
			a[lineStart+x0i+1] += dir * dy * int64(x-x0floor)
		}
		return
	}

	x := fx
	y0 := int(fy >> 6)
	yLimit := int((ty + 0x3f) >> 6)
	for y := y0; y < yLimit; y++ {
		lineStart := y * stride
		dy := min32(int32(y+1)<<6, ty) - max32(int32(y)<<6, fy)
		xnext := x + int32(int64(dy)*int64(deltaX)/int64(deltaY))
		d := int64(dy) * dir

		var x0, x1 int32
		if x < xnext {
			x0, x1 = x, xnext
		} else {
			x0, x1 = xnext, x
		}
		x0i := int(x0 >> 6)
		x0floor := (x0 >> 6) << 6
		x1i := int((x1 + 0x3f) >> 6)
		x1ceil := int32(x1i) << 6

		if x1i <= x0i+1 {
			xmf := int64((x + xnext) >> 1 - x0floor)
			a[lineStart+x0i] += d * (64 - xmf)
			a[lineStart+x0i+1] += d * xmf
		} else {
			oneOverS := int64(x1 - x0)
			x0f := int64(x0 - x0floor)
			oneMinusX0f := 64 - x0f
			a0 := udiv(oneMinusX0f*oneMinusX0f>>1, oneOverS)
			x1f := int64(x1 - x1ceil + 64)
			am := udiv(x1f*x1f>>1, oneOverS)

			a[lineStart+x0i] += d * a0

			if x1i == x0i+2 {
				a[lineStart+x0i+1] += d * (64 - a0 - am)
			} else {
				a1 := udiv((96-x0f)<<6, oneOverS)
				a[lineStart+x0i+1] += d * (a1 - a0)

				dTimesS := udiv(d<<12, oneOverS)
				for xi := x0i + 2; xi < x1i-1; xi++ {
					a[lineStart+xi] += dTimesS
				}

				a2 := a1 + udiv(int64(x1i-x0i-3)<<12, oneOverS)
				a[lineStart+x1i-1] += d * (64 - a2 - am)
			}
			a[lineStart+x1i] += d * am
		}
		x = xnext
	}
}

func udiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Rasterize decomposes o, accumulates its contours and resolves the
// accumulated area into dst (clearing dst first). o's points are assumed
// already translated into dst's top-left-origin, Y-down pixel space.
func (r *Rasterizer) Rasterize(o *outline.Outline, dst *Bitmap) {
	for i := range dst.Pix {
		dst.Pix[i] = 0
	}
	switch dst.Mode {
	case Mono:
		Decompose(o, r)
		r.sweepMono(dst)
	case LCDHorizontal:
		r.rasterizeLCD(o, dst, true)
	case LCDVertical:
		r.rasterizeLCD(o, dst, false)
	default:
		Decompose(o, r)
		r.sweepGray(dst)
	}
}

// defaultLCDWeights is the default 5-tap FIR filter for LCD sub-pixel
// rendering, applied across the 3x-supersampled coverage to spread each
// subpixel's energy onto its neighbors and reduce color
// fringing. These weights sum to 0x110; lcdFilter divides by the sum
// of whichever weights are in use. The exact coefficient choice is a
// Non-goal of the core engine (callers may override via
// SetLCDFilter); this is only the shape it ships with.
var defaultLCDWeights = [5]int{0x10, 0x40, 0x70, 0x40, 0x10}

// SetLCDFilter overrides the 5-tap kernel rasterizeLCD applies; the
// filtered value is normalized by the weights' sum. A zero value
// restores defaultLCDWeights.
func (r *Rasterizer) SetLCDFilter(weights [5]int) { r.lcdWeights = weights }

func (r *Rasterizer) lcdFilter(samples []byte, center int) byte {
	weights := r.lcdWeights
	if weights == ([5]int{}) {
		weights = defaultLCDWeights
	}
	sum, total := 0, 0
	for k := -2; k <= 2; k++ {
		total += weights[k+2]
		idx := center + k
		if idx >= 0 && idx < len(samples) {
			sum += int(samples[idx]) * weights[k+2]
		}
	}
	if total == 0 {
		return 0
	}
	return byte(sum / total)
}

// scaleOutline returns a copy of o with every point's coordinate along
// the filtering axis multiplied by 3, for 3x supersampling ahead of LCD
// filtering.
func scaleOutline(o *outline.Outline, horizontal bool) *outline.Outline {
	s := &outline.Outline{
		Points: make([]outline.Point, len(o.Points)),
		Ends:   append([]int(nil), o.Ends...),
	}
	for i, p := range o.Points {
		if horizontal {
			p.X *= 3
		} else {
			p.Y *= 3
		}
		s.Points[i] = p
	}
	return s
}

// rasterizeLCD renders o at 3x supersampling along the filtering axis,
// then collapses each triple of samples into one filtered (R, G, B)
// pixel via lcdFilter.
func (r *Rasterizer) rasterizeLCD(o *outline.Outline, dst *Bitmap, horizontal bool) {
	w, h := dst.Width, dst.Height
	subW, subH := w, h
	if horizontal {
		subW *= 3
	} else {
		subH *= 3
	}

	r.Reset(subW, subH)
	Decompose(scaleOutline(o, horizontal), r)

	sub := NewBitmap(subW, subH, Gray)
	r.sweepGray(sub)

	if horizontal {
		for y := 0; y < h; y++ {
			row := sub.Pix[y*sub.Stride : y*sub.Stride+subW]
			out := dst.Pix[y*dst.Stride:]
			for x := 0; x < w; x++ {
				out[3*x+0] = r.lcdFilter(row, 3*x+0)
				out[3*x+1] = r.lcdFilter(row, 3*x+1)
				out[3*x+2] = r.lcdFilter(row, 3*x+2)
			}
		}
		return
	}

	col := make([]byte, subH)
	for x := 0; x < w; x++ {
		for y := 0; y < subH; y++ {
			col[y] = sub.Pix[y*sub.Stride+x]
		}
		for y := 0; y < h; y++ {
			dst.Pix[y*dst.Stride+3*x+0] = r.lcdFilter(col, 3*y+0)
			dst.Pix[y*dst.Stride+3*x+1] = r.lcdFilter(col, 3*y+1)
			dst.Pix[y*dst.Stride+3*x+2] = r.lcdFilter(col, 3*y+2)
		}
	}
}

// sweepGray resolves the accumulator into 8-bit coverage, one row at a
// time: prefix-sum left to right, absolute value, clamp, shift 20.12
// area down to an 8-bit level.
func (r *Rasterizer) sweepGray(dst *Bitmap) {
	for y := 0; y < r.h && y < dst.Height; y++ {
		row := r.acc[y*r.stride : y*r.stride+r.w]
		out := dst.Pix[y*dst.Stride:]
		var acc int64
		for x := 0; x < r.w && x < len(out); x++ {
			acc += row[x]
			v := acc
			if v < 0 {
				v = -v
			}
			v >>= 4
			if v > 255 {
				v = 255
			}
			out[x] = byte(v)
		}
	}
}

// sweepMono applies the non-zero winding rule: a pixel is opaque when its
// accumulated area reaches at least half a pixel.
func (r *Rasterizer) sweepMono(dst *Bitmap) {
	const half = 1 << 11 // half a pixel in 20.12 units (1<<12 == 1 pixel * 64 * 64)
	for y := 0; y < r.h && y < dst.Height; y++ {
		row := r.acc[y*r.stride : y*r.stride+r.w]
		var acc int64
		for x := 0; x < r.w; x++ {
			acc += row[x]
			v := acc
			if v < 0 {
				v = -v
			}
			if v >= half {
				dst.Pix[y*dst.Stride+x/8] |= 1 << uint(7-x%8)
			}
		}
	}
}
