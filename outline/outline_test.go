package outline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	gofixed "github.com/vectorfont/engine/fixed"
)

func square() *Outline {
	return &Outline{
		Points: []Point{
			{X: 0, Y: 0, Flag: FlagOnCurve},
			{X: 64, Y: 0, Flag: FlagOnCurve},
			{X: 64, Y: 64, Flag: FlagOnCurve},
			{X: 0, Y: 64, Flag: FlagOnCurve},
		},
		Ends: []int{3},
	}
}

func TestContourAndOnCurve(t *testing.T) {
	o := square()
	if got := o.NumContours(); got != 1 {
		t.Fatalf("NumContours = %d, want 1", got)
	}
	c := o.Contour(0)
	if len(c) != 4 {
		t.Fatalf("Contour(0) len = %d, want 4", len(c))
	}
	for i, p := range c {
		if !p.OnCurve() {
			t.Errorf("point %d: expected on-curve", i)
		}
	}
}

func TestTranslate(t *testing.T) {
	o := square()
	o.Translate(10, -5)
	if o.Points[0].X != 10 || o.Points[0].Y != -5 {
		t.Errorf("Points[0] = (%v,%v), want (10,-5)", o.Points[0].X, o.Points[0].Y)
	}
	if o.Points[2].X != 74 || o.Points[2].Y != 59 {
		t.Errorf("Points[2] = (%v,%v), want (74,59)", o.Points[2].X, o.Points[2].Y)
	}
}

func TestTransformIdentity(t *testing.T) {
	o := square()
	want := append([]Point(nil), o.Points...)
	o.Transform(Identity2x2)
	if diff := cmp.Diff(want, o.Points); diff != "" {
		t.Errorf("identity transform changed points (-want +got):\n%s", diff)
	}
}

func TestTransformRotate90(t *testing.T) {
	// (x, y) -> (-y, x), a quarter turn.
	rot := Transform2x2{XX: 0, XY: -gofixed.Int16_16One, YX: gofixed.Int16_16One, YY: 0}
	x, y := rot.Apply(64, 0)
	if x != 0 || y != 64 {
		t.Errorf("rot.Apply(64,0) = (%v,%v), want (0,64)", x, y)
	}
}

func TestComposeMatchesSequentialApply(t *testing.T) {
	scale := Transform2x2{XX: gofixed.Int16_16One * 2, YY: gofixed.Int16_16One * 2}
	rot := Transform2x2{XX: 0, XY: -gofixed.Int16_16One, YX: gofixed.Int16_16One, YY: 0}

	composed := rot.Compose(scale)
	cx, cy := composed.Apply(10, 20)

	sx, sy := scale.Apply(10, 20)
	ex, ey := rot.Apply(sx, sy)

	if cx != ex || cy != ey {
		t.Errorf("Compose mismatch: got (%v,%v), want (%v,%v)", cx, cy, ex, ey)
	}
}

func TestAppend(t *testing.T) {
	o := square()
	src := square()
	o.Append(src)
	if o.NumContours() != 2 {
		t.Fatalf("NumContours = %d, want 2", o.NumContours())
	}
	if diff := cmp.Diff([]int{3, 7}, o.Ends); diff != "" {
		t.Errorf("Ends mismatch (-want +got):\n%s", diff)
	}
	want := append(append([]Point(nil), square().Points...), square().Points...)
	if diff := cmp.Diff(want, o.Points); diff != "" {
		t.Errorf("Points mismatch (-want +got):\n%s", diff)
	}
}

func TestControlBox(t *testing.T) {
	o := square()
	xMin, yMin, xMax, yMax := o.ControlBox()
	if xMin != 0 || yMin != 0 || xMax != 64 || yMax != 64 {
		t.Errorf("ControlBox = (%v,%v,%v,%v), want (0,0,64,64)", xMin, yMin, xMax, yMax)
	}
	empty := &Outline{}
	xMin, yMin, xMax, yMax = empty.ControlBox()
	if xMin != 0 || yMin != 0 || xMax != 0 || yMax != 0 {
		t.Errorf("empty ControlBox = (%v,%v,%v,%v), want all zero", xMin, yMin, xMax, yMax)
	}
}

func TestReset(t *testing.T) {
	o := square()
	o.Flags = ReverseFill
	o.Reset()
	if len(o.Points) != 0 || len(o.Ends) != 0 || o.Flags != 0 {
		t.Errorf("Reset left state: points=%d ends=%d flags=%d", len(o.Points), len(o.Ends), o.Flags)
	}
}
