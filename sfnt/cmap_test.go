package sfnt

import "testing"

// buildCmapFormat4 assembles a minimal cmap table with one format-4
// subtable, covering a single contiguous segment.
func buildCmapFormat4(start, end, delta uint16) []byte {
	segCount := 1
	segCountX2 := 2 * segCount
	// header(14) + endCode(segCountX2) + reservedPad(2) + startCode(segCountX2)
	// + idDelta(segCountX2) + idRangeOffset(segCountX2)
	subtableLen := 14 + segCountX2 + 2 + segCountX2 + segCountX2 + segCountX2
	sub := make([]byte, subtableLen)
	putU16 := func(b []byte, off int, v uint16) { b[off], b[off+1] = byte(v>>8), byte(v) }
	putU16(sub, 0, 4) // format
	putU16(sub, 6, uint16(segCountX2))
	off := 14
	putU16(sub, off, end) // endCode[0] (0xffff would be the usual sentinel segment)
	off += segCountX2 + 2
	putU16(sub, off, start)
	off += segCountX2
	putU16(sub, off, delta)
	off += segCountX2
	putU16(sub, off, 0) // idRangeOffset[0] == 0: use idDelta directly

	cmap := make([]byte, 4+8+len(sub))
	putU16(cmap, 0, 0) // version
	putU16(cmap, 2, 1) // numTables
	putU16(cmap, 4, 3) // platformID: Microsoft
	putU16(cmap, 6, 1) // encodingID: UCS-2
	b32 := func(off int, v uint32) {
		cmap[off], cmap[off+1], cmap[off+2], cmap[off+3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
	}
	b32(8, 12)
	copy(cmap[12:], sub)
	return cmap
}

func TestCharmapFormat4(t *testing.T) {
	// idDelta = -29 as uint16 is 0xFFE3.
	raw := buildCmapFormat4(32, 126, 0xFFE3)
	cm, err := parseCharmap(raw)
	if err != nil {
		t.Fatalf("parseCharmap: %v", err)
	}
	cases := []struct {
		cp   rune
		want int
	}{
		{65, 36},
		{127, 0},
		{31, 0},
	}
	for _, c := range cases {
		if got := cm.Lookup(c.cp); got != c.want {
			t.Errorf("Lookup(%d) = %d, want %d", c.cp, got, c.want)
		}
	}
}

func TestCharmapFormat0(t *testing.T) {
	sub := make([]byte, 6+256)
	sub[0], sub[1] = 0, 0 // format 0
	sub[5] = 6            // low byte of the language field, which this reader ignores
	sub[6+65] = 36
	cm, err := parseSubtable(sub, 3, 1)
	if err != nil {
		t.Fatalf("parseSubtable: %v", err)
	}
	if got := cm.Lookup(65); got != 36 {
		t.Errorf("Lookup(65) = %d, want 36", got)
	}
	if got := cm.Lookup(66); got != 0 {
		t.Errorf("Lookup(66) = %d, want 0", got)
	}
}
