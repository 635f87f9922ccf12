package raster

import (
	"testing"

	"github.com/vectorfont/engine/outline"
)

func unitSquare() *outline.Outline {
	return &outline.Outline{
		Points: []outline.Point{
			{X: 1 << 6, Y: 1 << 6, Flag: outline.FlagOnCurve},
			{X: 7 << 6, Y: 1 << 6, Flag: outline.FlagOnCurve},
			{X: 7 << 6, Y: 7 << 6, Flag: outline.FlagOnCurve},
			{X: 1 << 6, Y: 7 << 6, Flag: outline.FlagOnCurve},
		},
		Ends: []int{3},
	}
}

func TestDecomposeQuadStraightContour(t *testing.T) {
	var rec edgeRecorder
	o := unitSquare()
	Decompose(o, &rec)
	if len(rec.edges) != 4 {
		t.Fatalf("len(edges) = %d, want 4", len(rec.edges))
	}
	for _, e := range rec.edges {
		if e.kind != edgeLine {
			t.Errorf("edge kind = %v, want edgeLine", e.kind)
		}
	}
}

func TestRasterizeFillsInterior(t *testing.T) {
	o := unitSquare()
	r := NewRasterizer(8, 8)
	dst := NewBitmap(8, 8, Gray)
	r.Rasterize(o, dst)

	if got := dst.Pix[4*dst.Stride+4]; got != 255 {
		t.Errorf("interior pixel (4,4) coverage = %d, want 255", got)
	}
	if got := dst.Pix[0*dst.Stride+0]; got != 0 {
		t.Errorf("exterior pixel (0,0) coverage = %d, want 0", got)
	}
}

func TestRasterizeMono(t *testing.T) {
	o := unitSquare()
	r := NewRasterizer(8, 8)
	dst := NewBitmap(8, 8, Mono)
	r.Rasterize(o, dst)

	byteAt := dst.Pix[4*dst.Stride+4/8]
	if byteAt&(1<<uint(7-4%8)) == 0 {
		t.Errorf("interior pixel (4,4) not set in mono bitmap")
	}
}

func TestRasterizeResetReusesBuffer(t *testing.T) {
	r := NewRasterizer(8, 8)
	cap1 := cap(r.acc)
	r.Reset(8, 8)
	if cap(r.acc) != cap1 {
		t.Errorf("Reset reallocated buffer of the same size")
	}
}

func TestRasterizeLCDHorizontalProducesRGBTriplets(t *testing.T) {
	o := unitSquare()
	r := NewRasterizer(8, 8)
	dst := NewBitmap(8, 8, LCDHorizontal)
	r.Rasterize(o, dst)

	if dst.Stride != 8*3 {
		t.Fatalf("Stride = %d, want %d", dst.Stride, 8*3)
	}
	base := 4*dst.Stride + 3*4
	for c := 0; c < 3; c++ {
		if got := dst.Pix[base+c]; got != 255 {
			t.Errorf("interior pixel (4,4) channel %d = %d, want 255", c, got)
		}
	}
	base = 0*dst.Stride + 3*0
	for c := 0; c < 3; c++ {
		if got := dst.Pix[base+c]; got != 0 {
			t.Errorf("exterior pixel (0,0) channel %d = %d, want 0", c, got)
		}
	}
}

func TestRasterizeLCDVerticalProducesRGBTriplets(t *testing.T) {
	o := unitSquare()
	r := NewRasterizer(8, 8)
	dst := NewBitmap(8, 8, LCDVertical)
	r.Rasterize(o, dst)

	base := 4*dst.Stride + 3*4
	for c := 0; c < 3; c++ {
		if got := dst.Pix[base+c]; got != 255 {
			t.Errorf("interior pixel (4,4) channel %d = %d, want 255", c, got)
		}
	}
}

func TestSetLCDFilterOverridesDefault(t *testing.T) {
	o := unitSquare()

	// Default filter: pixel (0,4)'s blue channel has a 5-tap window
	// reaching into the square's first interior subcolumn, so it bleeds
	// nonzero coverage even though pixel 0 itself is fully outside the
	// square (which starts at pixel column 1).
	def := NewRasterizer(8, 8)
	dstDefault := NewBitmap(8, 8, LCDHorizontal)
	def.Rasterize(o, dstDefault)
	blueIdx := 4*dstDefault.Stride + 3*0 + 2
	if dstDefault.Pix[blueIdx] == 0 {
		t.Fatalf("default filter's blue channel at (0,4) = 0, want bleed from the interior")
	}

	// A pure box filter (only the center tap nonzero) has no such bleed.
	box := NewRasterizer(8, 8)
	box.SetLCDFilter([5]int{0, 0, 0x100, 0, 0})
	dstBox := NewBitmap(8, 8, LCDHorizontal)
	box.Rasterize(o, dstBox)
	if got := dstBox.Pix[blueIdx]; got != 0 {
		t.Errorf("box-filtered blue channel at (0,4) = %d, want 0 (no bleed)", got)
	}
}

func TestFlattenQuadraticProducesCoverage(t *testing.T) {
	r := NewRasterizer(16, 16)
	dst := NewBitmap(16, 16, Gray)
	o := &outline.Outline{
		Points: []outline.Point{
			{X: 0, Y: 0, Flag: outline.FlagOnCurve},
			{X: 4 << 6, Y: 8 << 6, Flag: 0},
			{X: 8 << 6, Y: 0, Flag: outline.FlagOnCurve},
			{X: 4 << 6, Y: 1 << 6, Flag: outline.FlagOnCurve},
		},
		Ends: []int{3},
	}
	r.Rasterize(o, dst)
	// The curve bulges up to y=8; some pixel under the arc should gain
	// nonzero coverage once the loop closes back through (4,1).
	var anyCoverage bool
	for _, v := range dst.Pix {
		if v != 0 {
			anyCoverage = true
			break
		}
	}
	if !anyCoverage {
		t.Errorf("expected some nonzero coverage after rasterizing a curved contour")
	}
}
