package cff

// Index is a parsed CFF INDEX: count, an offset-size byte, a count+1
// array of offsets, and a packed data region, held in memory as a slice
// of the table bytes (so there is no separate "forget element" step —
// Get simply slices the retained backing array).
//
// Grounded on postscript.go's parseIndexHeader/parseIndexLocations.
type Index struct {
	data    []byte   // the raw data region, shared across all entries
	offsets []uint32 // len(offsets) == count+1, each relative to data[0]
}

// ParseIndex reads one INDEX starting at the front of b, returning the
// parsed Index and the remaining bytes of b after it.
func ParseIndex(b []byte) (idx *Index, rest []byte, err error) {
	if len(b) < 2 {
		return nil, nil, errf(InvalidFormat, "index header truncated")
	}
	count := int(u16(b, 0))
	if count == 0 {
		// An empty INDEX is represented by a count field with a 0 value
		// and no additional fields.
		return &Index{}, b[2:], nil
	}
	if len(b) < 3 {
		return nil, nil, errf(InvalidFormat, "index header truncated")
	}
	offSize := int(b[2])
	if offSize < 1 || offSize > 4 {
		return nil, nil, errf(InvalidFormat, "bad off_size %d", offSize)
	}
	pos := 3
	offsetsLen := (count + 1) * offSize
	if len(b) < pos+offsetsLen {
		return nil, nil, errf(InvalidFormat, "index offset array truncated")
	}
	offsets := make([]uint32, count+1)
	prev := uint32(0)
	for i := range offsets {
		raw := bigEndian(b[pos+i*offSize : pos+(i+1)*offSize])
		// Invariant: offsets[0] == 1; the stored value is 1-based
		// (relative to the byte that precedes the object data).
		if raw == 0 {
			return nil, nil, errf(InvalidFormat, "index offset is zero")
		}
		raw--
		if i == 0 {
			if raw != 0 {
				return nil, nil, errf(InvalidFormat, "index first offset != 1")
			}
		} else if raw < prev {
			return nil, nil, errf(InvalidFormat, "index offsets not monotonic")
		}
		offsets[i] = raw
		prev = raw
	}
	pos += offsetsLen
	dataLen := int(offsets[count])
	if len(b) < pos+dataLen {
		return nil, nil, errf(InvalidFormat, "index data region truncated")
	}
	idx = &Index{data: b[pos : pos+dataLen], offsets: offsets}
	return idx, b[pos+dataLen:], nil
}

// Len returns the number of entries in idx.
func (idx *Index) Len() int {
	if idx == nil || len(idx.offsets) == 0 {
		return 0
	}
	return len(idx.offsets) - 1
}

// Get returns the i'th entry's bytes (0 <= i < Len()).
func (idx *Index) Get(i int) ([]byte, error) {
	if i < 0 || i >= idx.Len() {
		return nil, errf(InvalidFormat, "index entry %d out of range", i)
	}
	return idx.data[idx.offsets[i]:idx.offsets[i+1]], nil
}
