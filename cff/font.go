package cff

// Font is a parsed CFF table: the Name/TopDict/String/GlobalSubr/
// CharStrings INDEXes, the Top DICT, and
// either a single Private DICT (non-CID fonts) or an FDArray/FDSelect pair
// (CID-keyed fonts, one Private DICT and local Subrs INDEX per FontDict).
//
// Grounded on postscript.go's Font.parse, widened from "locate the
// CharStrings INDEX and stop" to a full Top/Private DICT and FDArray/
// FDSelect reader.
type Font struct {
	raw []byte

	Top         *TopDict
	globalSubrs *Index
	charStrings *Index

	// Exactly one of (private, localSubrs) or (fdFonts, fdSelect) is
	// populated, depending on Top.IsCID.
	private    *PrivateDict
	localSubrs *Index

	fdFonts  []fdFont
	fdSelect *FDSelect
}

// fdFont is one FDArray entry: a Font DICT (here just its Private DICT and
// local Subrs, the only fields this engine's charstring interpreter reads).
type fdFont struct {
	private    *PrivateDict
	localSubrs *Index
}

// Parse reads a CFF table, per 5176.CFF.pdf section 6 "Header":
// major.minor version, header size, absolute offset size, followed by the
// Name INDEX, Top DICT INDEX, String INDEX and Global Subr INDEX in that
// fixed order.
func Parse(raw []byte) (*Font, error) {
	if len(raw) < 4 {
		return nil, errf(InvalidFormat, "cff table truncated")
	}
	if raw[0] != 1 {
		return nil, errf(InvalidFormat, "unsupported cff major version %d", raw[0])
	}
	hdrSize := int(raw[2])
	if hdrSize < 4 || hdrSize > len(raw) {
		return nil, errf(InvalidFormat, "bad cff header size")
	}
	b := raw[hdrSize:]

	nameIdx, b, err := ParseIndex(b)
	if err != nil {
		return nil, err
	}
	if nameIdx.Len() != 1 {
		// https://learn.microsoft.com/typography/opentype/spec/cff: "The Name
		// INDEX in the CFF must contain only one entry".
		return nil, errf(InvalidFormat, "cff name index has %d entries, want 1", nameIdx.Len())
	}

	topIdx, b, err := ParseIndex(b)
	if err != nil {
		return nil, err
	}
	if topIdx.Len() != 1 {
		return nil, errf(InvalidFormat, "cff top dict index has %d entries, want 1", topIdx.Len())
	}

	_, b, err = ParseIndex(b) // String INDEX: SIDs are not resolved to names by this engine.
	if err != nil {
		return nil, err
	}

	globalSubrs, _, err := ParseIndex(b)
	if err != nil {
		return nil, err
	}

	topBytes, err := topIdx.Get(0)
	if err != nil {
		return nil, err
	}
	top, err := parseTopDict(topBytes)
	if err != nil {
		return nil, err
	}
	if top.CharStrings <= 0 || top.CharStrings >= len(raw) {
		return nil, errf(InvalidFormat, "CharStrings offset out of range")
	}
	charStrings, _, err := ParseIndex(raw[top.CharStrings:])
	if err != nil {
		return nil, err
	}

	f := &Font{
		raw:         raw,
		Top:         top,
		globalSubrs: globalSubrs,
		charStrings: charStrings,
	}

	if top.IsCID {
		if err := f.parseCID(raw); err != nil {
			return nil, err
		}
	} else if top.PrivateOffset > 0 {
		private, localSubrs, err := parsePrivateAndSubrs(raw, top.PrivateOffset, top.PrivateSize)
		if err != nil {
			return nil, err
		}
		f.private = private
		f.localSubrs = localSubrs
	} else {
		f.private = &PrivateDict{}
	}
	return f, nil
}

func parsePrivateAndSubrs(raw []byte, offset, size int) (*PrivateDict, *Index, error) {
	if offset < 0 || offset+size > len(raw) {
		return nil, nil, errf(InvalidFormat, "Private DICT out of range")
	}
	pd, err := parsePrivateDict(raw[offset:offset+size], offset)
	if err != nil {
		return nil, nil, err
	}
	var subrs *Index
	if pd.SubrsOffset > 0 {
		if pd.SubrsOffset >= len(raw) {
			return nil, nil, errf(InvalidFormat, "local Subrs offset out of range")
		}
		subrs, _, err = ParseIndex(raw[pd.SubrsOffset:])
		if err != nil {
			return nil, nil, err
		}
	}
	return pd, subrs, nil
}

func (f *Font) parseCID(raw []byte) error {
	if f.Top.FDArray <= 0 || f.Top.FDArray >= len(raw) {
		return errf(InvalidFormat, "CID font missing FDArray")
	}
	fdArrayIdx, _, err := ParseIndex(raw[f.Top.FDArray:])
	if err != nil {
		return err
	}
	f.fdFonts = make([]fdFont, fdArrayIdx.Len())
	for i := range f.fdFonts {
		b, err := fdArrayIdx.Get(i)
		if err != nil {
			return err
		}
		fd, err := parseTopDict(b)
		if err != nil {
			return err
		}
		if fd.PrivateOffset <= 0 {
			f.fdFonts[i] = fdFont{private: &PrivateDict{}}
			continue
		}
		private, localSubrs, err := parsePrivateAndSubrs(raw, fd.PrivateOffset, fd.PrivateSize)
		if err != nil {
			return err
		}
		f.fdFonts[i] = fdFont{private: private, localSubrs: localSubrs}
	}

	if f.Top.FDSelect <= 0 || f.Top.FDSelect >= len(raw) {
		return errf(InvalidFormat, "CID font missing FDSelect")
	}
	fdSelect, err := parseFDSelect(raw[f.Top.FDSelect:], f.charStrings.Len())
	if err != nil {
		return err
	}
	f.fdSelect = fdSelect
	return nil
}

// NumGlyphs returns the number of entries in the CharStrings INDEX.
func (f *Font) NumGlyphs() int { return f.charStrings.Len() }

// glyphResources resolves the (PrivateDict, local Subrs) pair that governs
// glyph i, following FDSelect for CID-keyed fonts.
func (f *Font) glyphResources(glyphID int) (*PrivateDict, *Index, error) {
	if !f.Top.IsCID {
		return f.private, f.localSubrs, nil
	}
	fd, err := f.fdSelect.FD(glyphID)
	if err != nil {
		return nil, nil, err
	}
	if fd < 0 || fd >= len(f.fdFonts) {
		return nil, nil, errf(InvalidFormat, "FDSelect: FD index %d out of range", fd)
	}
	return f.fdFonts[fd].private, f.fdFonts[fd].localSubrs, nil
}
