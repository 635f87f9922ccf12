package sfnt

import "testing"

// buildKernV0 assembles a minimal version-0, format-0, one-subtable kern
// table from (left, right, value) triples, matching the layout
// sfnt.Kerning expects.
func buildKernV0(pairs [][3]int16) []byte {
	n := len(pairs)
	length := 14 + 6*n
	b := make([]byte, 4+length)
	putU16 := func(off int, v uint16) { b[off], b[off+1] = byte(v>>8), byte(v) }
	putU32 := func(off int, v uint32) {
		b[off], b[off+1], b[off+2], b[off+3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
	}
	putU16(0, 0) // version
	putU16(2, 1) // nTables
	putU16(4, 0) // subtable version
	putU16(6, uint16(length))
	putU16(10, 0x0001) // coverage: horizontal, format 0
	putU16(14, uint16(n))
	putU16(16, 0) // searchRange (unused by this reader)
	for i, p := range pairs {
		base := 18 + 6*i
		key := uint32(uint16(p[0]))<<16 | uint32(uint16(p[1]))
		putU32(base, key)
		putU16(base+4, uint16(p[2]))
	}
	return b
}

func TestKerningLookup(t *testing.T) {
	f := &Font{kern: buildKernV0([][3]int16{
		{65, 86, -80},
		{65, 87, -60},
		{65, 89, -90},
	})}
	kt, err := f.Kerning()
	if err != nil {
		t.Fatalf("Kerning: %v", err)
	}
	cases := []struct {
		left, right int
		want        int16
	}{
		{65, 87, -60},
		{65, 88, 0},
		{66, 65, 0},
	}
	for _, c := range cases {
		if got := kt.Lookup(c.left, c.right); got != c.want {
			t.Errorf("Lookup(%d,%d) = %d, want %d", c.left, c.right, got, c.want)
		}
	}
}

func TestKerningEmptyTable(t *testing.T) {
	f := &Font{}
	kt, err := f.Kerning()
	if err != nil {
		t.Fatalf("Kerning: %v", err)
	}
	if got := kt.Lookup(1, 2); got != 0 {
		t.Errorf("Lookup on empty table = %d, want 0", got)
	}
}
