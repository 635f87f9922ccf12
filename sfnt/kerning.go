package sfnt

// KerningTable is a sorted (left_glyph, right_glyph) -> value lookup,
// grounded on truetype/truetype.go's parseKern/Kerning: only the
// Windows-compatible "older" format-0 subtable is binary searched;
// a format-2 subtable is not read and yields an empty table.
type KerningTable struct {
	pairs []byte // 6*nPairs bytes: uint32 combined key, int16 value
	n     int
}

// Kerning parses the font's kern table, if present. A font with no kern
// table returns a valid, empty KerningTable.
func (f *Font) Kerning() (*KerningTable, error) {
	if len(f.kern) == 0 {
		return &KerningTable{}, nil
	}
	if len(f.kern) < 4 {
		return nil, errf("sfnt", InvalidFormat, "kern data too short")
	}
	d := data(f.kern[0:])
	version := d.u16()
	if version != 0 {
		return nil, errf("sfnt", Unimplemented, "kern version %d", version)
	}
	nTables := int(d.u16())
	if nTables == 0 {
		return &KerningTable{}, nil
	}
	// Only the first subtable is consulted; additional subtables (format
	// 2, cross-stream) are rare and out of scope for the binary-search
	// path.
	if len(f.kern) < 18 {
		return nil, errf("sfnt", InvalidFormat, "kern subtable header too short")
	}
	length := int(u16(f.kern, 6))
	coverage := u16(f.kern, 10)
	if coverage&0x0001 == 0 {
		return nil, errf("sfnt", Unimplemented, "vertical-only kern coverage 0x%04x", coverage)
	}
	format := coverage >> 8
	if format != 0 {
		// Format 2 ("next script needed") classifies glyphs into left/
		// right classes and indexes a 2-D array. This reader does not parse
		// the class sub-headers, so an empty table is returned rather than
		// guessing at its layout.
		return &KerningTable{}, nil
	}
	n := int(u16(f.kern, 14))
	if 6*n != length-14 {
		return nil, errf("sfnt", InvalidFormat, "bad kern table length")
	}
	return &KerningTable{pairs: f.kern[18 : 18+6*n], n: n}, nil
}

// Lookup returns the kerning value (in FUnits) for the glyph pair
// (left, right), or 0 if absent.
func (kt *KerningTable) Lookup(left, right int) int16 {
	if kt.n == 0 {
		return 0
	}
	key := uint32(left)<<16 | uint32(right)
	lo, hi := 0, kt.n
	for lo < hi {
		mid := (lo + hi) / 2
		k := u32(kt.pairs, 6*mid)
		switch {
		case k < key:
			lo = mid + 1
		case k > key:
			hi = mid
		default:
			return int16(u16(kt.pairs, 6*mid+4))
		}
	}
	return 0
}
