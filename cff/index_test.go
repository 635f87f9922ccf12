package cff

import "testing"

// buildIndex assembles a minimal CFF INDEX from entries, mirroring the
// on-wire layout ParseIndex expects.
func buildIndex(entries [][]byte) []byte {
	if len(entries) == 0 {
		return []byte{0, 0}
	}
	offs := make([]uint32, len(entries)+1)
	offs[0] = 1
	for i, e := range entries {
		offs[i+1] = offs[i] + uint32(len(e))
	}
	b := []byte{byte(len(entries) >> 8), byte(len(entries)), 1} // offSize = 1
	for _, o := range offs {
		b = append(b, byte(o))
	}
	for _, e := range entries {
		b = append(b, e...)
	}
	return b
}

func TestIndexRoundTrip(t *testing.T) {
	entries := [][]byte{{1, 2, 3}, {}, {9, 9}}
	raw := buildIndex(entries)
	idx, rest, err := ParseIndex(raw)
	if err != nil {
		t.Fatalf("ParseIndex: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("rest = %d bytes, want 0", len(rest))
	}
	if idx.Len() != len(entries) {
		t.Fatalf("Len() = %d, want %d", idx.Len(), len(entries))
	}
	// Iterating elements must cover the data region exactly, non-overlapping.
	total := 0
	for i, want := range entries {
		got, err := idx.Get(i)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if string(got) != string(want) {
			t.Errorf("Get(%d) = %v, want %v", i, got, want)
		}
		total += len(want)
	}
	if total != len(idx.data) {
		t.Errorf("sum of entry lengths = %d, want %d (data region size)", total, len(idx.data))
	}
}

func TestIndexEmpty(t *testing.T) {
	idx, rest, err := ParseIndex([]byte{0, 0, 0xff})
	if err != nil {
		t.Fatalf("ParseIndex: %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("Len() = %d, want 0", idx.Len())
	}
	if len(rest) != 1 {
		t.Errorf("rest = %d bytes, want 1", len(rest))
	}
}

func TestIndexBadOffSize(t *testing.T) {
	raw := []byte{0, 1, 5 /* offSize out of [1,4] */, 0, 0}
	if _, _, err := ParseIndex(raw); err == nil {
		t.Fatal("ParseIndex accepted an invalid off_size")
	}
}
