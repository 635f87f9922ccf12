package font

import "testing"

func TestArenaBytesGrowsAndZeroes(t *testing.T) {
	var a arena
	b := a.bytes(4)
	if len(b) != 4 {
		t.Fatalf("len = %d, want 4", len(b))
	}
	b[0], b[1] = 1, 2

	b2 := a.bytes(4)
	for i, v := range b2 {
		if v != 0 {
			t.Errorf("bytes(4)[%d] = %d, want 0 (reset)", i, v)
		}
	}
}

func TestArenaBytesReusesCapacity(t *testing.T) {
	var a arena
	_ = a.bytes(8)
	cap1 := cap(a.buf)
	_ = a.bytes(4)
	if cap(a.buf) != cap1 {
		t.Errorf("requesting a smaller size reallocated: cap = %d, want %d", cap(a.buf), cap1)
	}
}

func TestArenaBytesGrowsOnOverflow(t *testing.T) {
	var a arena
	_ = a.bytes(4)
	b := a.bytes(100)
	if len(b) != 100 {
		t.Errorf("len = %d, want 100", len(b))
	}
	if cap(a.buf) < 100 {
		t.Errorf("cap = %d, want >= 100", cap(a.buf))
	}
}
