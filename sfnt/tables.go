package sfnt

// Font is a parsed SFNT face: the table directory plus the handful of
// tables every loader needs pre-validated (head/maxp/hhea/hmtx/loca/glyf/
// cvt/fpgm/prep/kern), grounded on truetype/truetype.go's Font struct
// widened from a private byte-slice bag to exported accessors the
// truetype/ and font/ packages build on.
type Font struct {
	dir *Directory

	head, maxp, hhea, hmtx, kern, loca, glyf, cvt, fpgm, prep []byte

	locaOffsetFormat int
	numGlyphs        int
	numHMetrics      int
	unitsPerEm       int
	xMin, yMin       int16
	xMax, yMax       int16

	Cmap *Charmap
}

// Parse reads a complete Font from raw SFNT/OpenType data (face index
// faceIndex, or 0 for a non-collection file).
func Parse(raw []byte, faceIndex int) (*Font, error) {
	dir, err := ParseDirectory(raw, faceIndex)
	if err != nil {
		return nil, err
	}
	f := &Font{dir: dir}
	var has bool
	if f.head, err = dir.Table("head"); err != nil {
		return nil, err
	}
	if f.maxp, err = dir.Table("maxp"); err != nil {
		return nil, err
	}
	if f.hhea, has = optionalTable(dir, "hhea"); has {
		if f.hmtx, err = dir.Table("hmtx"); err != nil {
			return nil, err
		}
	}
	f.kern, _ = optionalTable(dir, "kern")
	f.cvt, _ = optionalTable(dir, "cvt ")
	f.fpgm, _ = optionalTable(dir, "fpgm")
	f.prep, _ = optionalTable(dir, "prep")

	if err := f.parseHead(); err != nil {
		return nil, err
	}
	if err := f.parseMaxp(); err != nil {
		return nil, err
	}
	if f.hhea != nil {
		if err := f.parseHhea(); err != nil {
			return nil, err
		}
	}
	if dir.Format == FormatTrueType {
		if f.loca, err = dir.Table("loca"); err != nil {
			return nil, err
		}
		if f.glyf, err = dir.Table("glyf"); err != nil {
			return nil, err
		}
	}
	if cm, has := optionalTable(dir, "cmap"); has {
		f.Cmap, err = parseCharmap(cm)
		if err != nil {
			return nil, err
		}
	}
	return f, nil
}

func optionalTable(dir *Directory, tag string) ([]byte, bool) {
	b, err := dir.Table(tag)
	if err != nil {
		return nil, false
	}
	return b, true
}

// Directory returns the font's parsed table directory.
func (f *Font) Directory() *Directory { return f.dir }

// UnitsPerEm returns the integer denominator of design-space coordinates.
func (f *Font) UnitsPerEm() int { return f.unitsPerEm }

// NumGlyphs returns the number of glyphs in the font.
func (f *Font) NumGlyphs() int { return f.numGlyphs }

// Bounds returns the font-wide design-space bounding box from head.
func (f *Font) Bounds() (xMin, yMin, xMax, yMax int16) {
	return f.xMin, f.yMin, f.xMax, f.yMax
}

// HasHinting reports whether the font carries a TrueType bytecode program.
func (f *Font) HasHinting() bool { return len(f.fpgm) != 0 || len(f.prep) != 0 }

func (f *Font) parseHead() error {
	if len(f.head) != 54 {
		return errf("sfnt", InvalidFormat, "bad head length: %d", len(f.head))
	}
	d := data(f.head[18:])
	f.unitsPerEm = int(d.u16())
	if f.unitsPerEm == 0 {
		return errf("sfnt", InvalidFormat, "unitsPerEm is zero")
	}
	d.skip(16)
	f.xMin = int16(d.u16())
	f.yMin = int16(d.u16())
	f.xMax = int16(d.u16())
	f.yMax = int16(d.u16())
	d.skip(6)
	switch i := d.u16(); i {
	case 0:
		f.locaOffsetFormat = locaOffsetFormatShort
	case 1:
		f.locaOffsetFormat = locaOffsetFormatLong
	default:
		return errf("sfnt", InvalidFormat, "bad indexToLocFormat: %d", i)
	}
	return nil
}

func (f *Font) parseMaxp() error {
	if len(f.maxp) < 6 {
		return errf("sfnt", InvalidFormat, "bad maxp length: %d", len(f.maxp))
	}
	d := data(f.maxp[4:])
	f.numGlyphs = int(d.u16())
	return nil
}

func (f *Font) parseHhea() error {
	if len(f.hhea) != 36 {
		return errf("sfnt", InvalidFormat, "bad hhea length: %d", len(f.hhea))
	}
	d := data(f.hhea[34:])
	f.numHMetrics = int(d.u16())
	if 4*f.numHMetrics+2*(f.numGlyphs-f.numHMetrics) != len(f.hmtx) {
		return errf("sfnt", InvalidFormat, "bad hmtx length: %d", len(f.hmtx))
	}
	return nil
}

// Ascender, Descender and LineGap return the font-wide vertical metrics
// from hhea, in FUnits. They are zero if the font carries no hhea table.
func (f *Font) Ascender() int16  { return f.hheaInt16(4) }
func (f *Font) Descender() int16 { return f.hheaInt16(6) }
func (f *Font) LineGap() int16   { return f.hheaInt16(8) }

func (f *Font) hheaInt16(offset int) int16 {
	if len(f.hhea) < offset+2 {
		return 0
	}
	return int16(u16(f.hhea, offset))
}

// HMetric holds the horizontal metrics of one glyph, in FUnits.
type HMetric struct {
	AdvanceWidth    uint16
	LeftSideBearing int16
}

// HMetrics returns the horizontal metrics for glyph i.
func (f *Font) HMetrics(i int) HMetric {
	if i >= f.numGlyphs || f.hhea == nil {
		return HMetric{}
	}
	if i >= f.numHMetrics {
		p := 4 * (f.numHMetrics - 1)
		aw := u16(f.hmtx, p)
		p += 2*(i-f.numHMetrics) + 4
		return HMetric{aw, int16(u16(f.hmtx, p))}
	}
	return HMetric{u16(f.hmtx, 4*i), int16(u16(f.hmtx, 4*i+2))}
}

// LocaOffsets returns the byte range of glyph i within the glyf table.
func (f *Font) LocaOffsets(i int) (start, end uint32) {
	if f.locaOffsetFormat == locaOffsetFormatShort {
		return 2 * uint32(u16(f.loca, 2*i)), 2 * uint32(u16(f.loca, 2*i+2))
	}
	return u32(f.loca, 4*i), u32(f.loca, 4*i+4)
}

// Glyf returns the raw glyf-table bytes for glyph i (empty if the glyph
// has no outline).
func (f *Font) Glyf(i int) []byte {
	if f.glyf == nil || i < 0 || i >= f.numGlyphs {
		return nil
	}
	g0, g1 := f.LocaOffsets(i)
	if g0 >= g1 || int(g1) > len(f.glyf) {
		return nil
	}
	return f.glyf[g0:g1]
}

// CVT returns the scaled-copy source Control Value Table, in FUnits.
func (f *Font) CVT() []byte { return f.cvt }

// Fpgm returns the font program bytecode, run once per face.
func (f *Font) Fpgm() []byte { return f.fpgm }

// Prep returns the CVT program bytecode, run once per size.
func (f *Font) Prep() []byte { return f.prep }

// MaxpLimits reports the execution-resource ceilings the hinting
// interpreter must allocate once per size: stack depth, storage cell
// count and twilight-zone point count.
func (f *Font) MaxpLimits() (maxStackElements, maxStorage, maxTwilightPoints, maxFunctionDefs int) {
	if len(f.maxp) < 32 {
		return 0, 0, 0, 0
	}
	d := data(f.maxp[16:])
	maxTwilightPoints = int(d.u16())
	maxStorage = int(d.u16())
	maxFunctionDefs = int(d.u16())
	d.skip(2) // maxInstructionDefs
	maxStackElements = int(d.u16())
	return
}
