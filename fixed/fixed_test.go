package fixed

import "testing"

func TestInt16_16MulDiv(t *testing.T) {
	half := Int16_16One / 2
	if got, want := half.Mul(Int16_16One*2), Int16_16One; got != want {
		t.Errorf("half.Mul(2) = %v, want %v", got, want)
	}
	if got, want := Int16_16One.Div(Int16_16One*4), Int16_16One/4; got != want {
		t.Errorf("1.Div(4) = %v, want %v", got, want)
	}
	if got := Int16_16(5).Div(0); got != 0 {
		t.Errorf("Div by zero = %v, want 0", got)
	}
}

func TestInt16_16ToInt26_6(t *testing.T) {
	// Scaling 64 (1 pixel in 26.6) by 0.5 (16.16) should give half a pixel.
	if got, want := (Int16_16One/2).ToInt26_6(64), Int26_6(32); got != want {
		t.Errorf("ToInt26_6 = %v, want %v", got, want)
	}
}

func TestMulDiv26_6(t *testing.T) {
	if got, want := MulDiv26_6(640, 1, 10), Int26_6(64); got != want {
		t.Errorf("MulDiv26_6(640, 1, 10) = %v, want %v", got, want)
	}
	if got, want := MulDiv26_6(640, -1, 10), Int26_6(-64); got != want {
		t.Errorf("MulDiv26_6(640, -1, 10) = %v, want %v", got, want)
	}
	if got := MulDiv26_6(640, 1, 0); got != 0 {
		t.Errorf("MulDiv26_6 by zero den = %v, want 0", got)
	}
}

func TestSqrt26_6(t *testing.T) {
	// 4.0 in 26.6 is 256; the argument is its square, 256*256, so the
	// root should land near 4.0, i.e. 256.
	got := Sqrt26_6(256 * 256)
	if got < 250 || got > 262 {
		t.Errorf("Sqrt26_6(256^2) = %v, want close to 256", got)
	}
	if got := Sqrt26_6(-5); got != 0 {
		t.Errorf("Sqrt26_6(negative) = %v, want 0", got)
	}
}

func TestRoundFloorCeil(t *testing.T) {
	cases := []struct {
		x                   Int26_6
		round, floor, ceil Int26_6
	}{
		{0, 0, 0, 0},
		{32, 64, 0, 64},
		{31, 0, 0, 64},
		{64, 64, 64, 64},
		{-32, 0, -64, 0},
	}
	for _, c := range cases {
		if got := Round(c.x); got != c.round {
			t.Errorf("Round(%v) = %v, want %v", c.x, got, c.round)
		}
		if got := Floor(c.x); got != c.floor {
			t.Errorf("Floor(%v) = %v, want %v", c.x, got, c.floor)
		}
		if got := Ceil(c.x); got != c.ceil {
			t.Errorf("Ceil(%v) = %v, want %v", c.x, got, c.ceil)
		}
	}
}
