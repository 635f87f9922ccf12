package cff

import (
	"testing"

	gofixed "github.com/vectorfont/engine/fixed"
	"github.com/vectorfont/engine/outline"
)

// TestStemDarkenMonotonic checks that the darkening curve is
// monotonically non-increasing in stem width.
func TestStemDarkenMonotonic(t *testing.T) {
	const ppem, upem = 12, 1000
	var prev gofixed.Int16_16 = 1 << 30
	for w := 0; w <= 4000; w += 25 {
		amount := StemDarkenAmount(DefaultDarkenParams, gofixed.Int16_16(w<<16), 0, true, ppem, upem)
		if amount > prev {
			t.Fatalf("darken amount increased at width %d: %v > %v", w, amount.Float64(), prev.Float64())
		}
		prev = amount
	}
}

// TestStemDarkenBounds checks the curve saturates to the y1/y4 endpoints
// below x1 and above x4, per cf2font.c's default breakpoints.
func TestStemDarkenBounds(t *testing.T) {
	const ppem, upem = 1, 1 // emRatio == 1, ppemFixed == 1<<16, simplifies arithmetic
	below := StemDarkenAmount(DefaultDarkenParams, 0, 0, true, ppem, upem)
	above := StemDarkenAmount(DefaultDarkenParams, gofixed.Int16_16(10000<<16), 0, true, ppem, upem)
	if below <= above {
		t.Errorf("thin-stem amount %v should exceed thick-stem amount %v", below.Float64(), above.Float64())
	}
	if above != 0 {
		t.Errorf("amount above x4 = %v, want 0", above.Float64())
	}
}

func TestStemDarkenOffWhenNotDarkenedAndNoBolden(t *testing.T) {
	got := StemDarkenAmount(DefaultDarkenParams, gofixed.Int16_16(100<<16), 0, false, 12, 1000)
	if got != 0 {
		t.Errorf("got %v, want 0", got.Float64())
	}
}

func TestStemDarkenEmboldenAlwaysApplies(t *testing.T) {
	embolden := gofixed.Int16_16(40 << 16)
	got := StemDarkenAmount(DefaultDarkenParams, gofixed.Int16_16(100<<16), embolden, false, 12, 1000)
	if got != embolden/2 {
		t.Errorf("got %v, want %v", got.Float64(), (embolden / 2).Float64())
	}
}

// TestApplyStemDarkeningWidensStemEdges checks that a retained vstem's
// near and far edges move outward by the darkening amount computed for
// its own width.
func TestApplyStemDarkeningWidensStemEdges(t *testing.T) {
	out := &outline.Outline{
		Points: []outline.Point{
			{X: 0, Y: 0, Flag: outline.FlagOnCurve},
			{X: 100, Y: 0, Flag: outline.FlagOnCurve},
			{X: 100, Y: 100, Flag: outline.FlagOnCurve},
			{X: 0, Y: 100, Flag: outline.FlagOnCurve},
		},
		Ends: []int{3},
	}
	vstems := []stemHint{{pos: 0, width: gofixed.Int16_16(100 << 16)}}
	cfg := &DarkenConfig{
		Params:     DefaultDarkenParams,
		EmboldenX:  gofixed.Int16_16(40 << 16),
		Darkened:   false,
		PPEM:       12,
		UnitsPerEm: 1000,
	}
	applyStemDarkening(out, nil, vstems, cfg)
	if out.Points[0].X >= 0 {
		t.Errorf("near edge did not widen outward: X = %v", out.Points[0].X)
	}
	if out.Points[1].X <= 100 {
		t.Errorf("far edge did not widen outward: X = %v", out.Points[1].X)
	}
	if out.Points[0].Y != 0 || out.Points[1].Y != 0 {
		t.Errorf("vstem widening should not move Y coordinates")
	}
}

// TestApplyStemDarkeningNoop checks that a nil config, or a config with
// neither darkening nor emboldening active, leaves the outline alone.
func TestApplyStemDarkeningNoop(t *testing.T) {
	out := &outline.Outline{
		Points: []outline.Point{{X: 0, Y: 0}, {X: 100, Y: 0}},
		Ends:   []int{1},
	}
	want := append([]outline.Point(nil), out.Points...)
	vstems := []stemHint{{pos: 0, width: gofixed.Int16_16(100 << 16)}}

	applyStemDarkening(out, nil, vstems, nil)
	for i, p := range want {
		if out.Points[i] != p {
			t.Errorf("nil config: point %d = %+v, want %+v", i, out.Points[i], p)
		}
	}

	applyStemDarkening(out, nil, vstems, &DarkenConfig{Darkened: false, PPEM: 12, UnitsPerEm: 1000})
	for i, p := range want {
		if out.Points[i] != p {
			t.Errorf("zero-embolden config: point %d = %+v, want %+v", i, out.Points[i], p)
		}
	}
}

// TestWindingCompensationReversal exercises the signed-area primitives
// the post-widen winding compensation uses: reversing a contour flips
// the sign of its shoelace area.
func TestWindingCompensationReversal(t *testing.T) {
	pts := []outline.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
	}
	if signedArea(pts) <= 0 {
		t.Fatalf("fixture should start counter-clockwise (positive area)")
	}
	reverseContour(pts)
	if signedArea(pts) >= 0 {
		t.Errorf("signedArea after reverseContour = %d, want negative", signedArea(pts))
	}
	reverseContour(pts)
	if signedArea(pts) <= 0 {
		t.Errorf("signedArea after reversing twice = %d, want positive again", signedArea(pts))
	}
}
