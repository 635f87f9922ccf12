package cff

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	gofixed "github.com/vectorfont/engine/fixed"
	"github.com/vectorfont/engine/outline"
)

func runTestCharstring(t *testing.T, prog []byte) *outline.Outline {
	t.Helper()
	ci := &charstringInterp{
		globalSubrs: &Index{},
		localSubrs:  &Index{},
		globalBias:  subrBias(0),
		localBias:   subrBias(0),
	}
	if err := ci.run(prog); err != nil {
		t.Fatalf("run: %v", err)
	}
	if ci.open {
		ci.closeContour()
	}
	return &ci.out
}

// TestCharstringSquare builds a 100x100 unit square via rmoveto/hlineto/
// vlineto and checks the resulting outline's on-curve points.
func TestCharstringSquare(t *testing.T) {
	prog := []byte{
		139, 139, 21, // 0 0 rmoveto
		239, 6, // 100 hlineto
		239, 7, // 100 vlineto
		39, 6, // -100 hlineto
		14, // endchar
	}
	out := runTestCharstring(t, prog)
	want := []outline.Point{
		{X: 0, Y: 0, Flag: outline.FlagOnCurve},
		{X: 100, Y: 0, Flag: outline.FlagOnCurve},
		{X: 100, Y: 100, Flag: outline.FlagOnCurve},
		{X: 0, Y: 100, Flag: outline.FlagOnCurve},
	}
	if diff := cmp.Diff(want, out.Points); diff != "" {
		t.Errorf("Points mismatch (-want +got):\n%s", diff)
	}
	if out.NumContours() != 1 {
		t.Fatalf("NumContours() = %d, want 1", out.NumContours())
	}
}

// TestCharstringCurve builds a single rrcurveto and checks the two cubic
// control points and the on-curve end point.
func TestCharstringCurve(t *testing.T) {
	prog := []byte{
		139, 139, 21, // 0 0 rmoveto
		139 + 10, 139 + 20, 139 + 10, 139 + 20, 139, 139 + 20, 8, // 10 20 10 20 0 20 rrcurveto
		14, // endchar
	}
	out := runTestCharstring(t, prog)
	if len(out.Points) != 4 {
		t.Fatalf("got %d points, want 4: %+v", len(out.Points), out.Points)
	}
	if out.Points[0].Flag&outline.FlagOnCurve == 0 {
		t.Errorf("point 0 should be on-curve")
	}
	for _, i := range []int{1, 2} {
		if out.Points[i].Flag&outline.FlagCubic == 0 {
			t.Errorf("point %d should be a cubic control point", i)
		}
	}
	last := out.Points[3]
	if last.X != gofixed.Int26_6(20) || last.Y != gofixed.Int26_6(60) {
		t.Errorf("curve endpoint = (%d,%d), want (20,60)", last.X, last.Y)
	}
}

// TestCharstringRetainsStemHints checks that vstem retains the declared
// (position, width) pairs, accumulating position across pairs per
// 5177.Type2.pdf's delta-from-previous-edge encoding.
func TestCharstringRetainsStemHints(t *testing.T) {
	prog := []byte{149, 159, 189, 169, byte(t2VStem)} // 10 20 50 30 vstem
	ci := &charstringInterp{globalSubrs: &Index{}, localSubrs: &Index{}}
	if err := ci.run(prog); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []stemHint{
		{pos: gofixed.Int16_16(10 << 16), width: gofixed.Int16_16(20 << 16)},
		{pos: gofixed.Int16_16(80 << 16), width: gofixed.Int16_16(30 << 16)},
	}
	if diff := cmp.Diff(want, ci.vstems, cmp.AllowUnexported(stemHint{})); diff != "" {
		t.Errorf("vstems mismatch (-want +got):\n%s", diff)
	}
	if len(ci.hstems) != 0 {
		t.Errorf("hstems = %+v, want empty", ci.hstems)
	}
}

// TestCharstringImplicitVstemBeforeHintmask checks that operands left on
// the stack when hintmask is reached, with no preceding explicit vstem,
// are recorded as a trailing vstem hint list.
func TestCharstringImplicitVstemBeforeHintmask(t *testing.T) {
	prog := []byte{149, 159, byte(t2HintMask), 0} // 10 20 hintmask <1 mask byte>
	ci := &charstringInterp{globalSubrs: &Index{}, localSubrs: &Index{}}
	if err := ci.run(prog); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(ci.vstems) != 1 {
		t.Fatalf("vstems = %+v, want 1 implicit entry", ci.vstems)
	}
	want := stemHint{pos: gofixed.Int16_16(10 << 16), width: gofixed.Int16_16(20 << 16)}
	if ci.vstems[0] != want {
		t.Errorf("implicit vstem = %+v, want %+v", ci.vstems[0], want)
	}
}

// TestBlendOperatorRejected checks that the CFF2 blend operator is
// rejected with a clear error rather than silently mishandled, since no
// CFF2 table (and so no blend vector) ever reaches this interpreter.
func TestBlendOperatorRejected(t *testing.T) {
	prog := []byte{byte(t2Escape), 16} // escape 16 == blend
	ci := &charstringInterp{globalSubrs: &Index{}, localSubrs: &Index{}}
	if err := ci.run(prog); err == nil {
		t.Fatalf("run: want error for blend operator, got nil")
	}
}
