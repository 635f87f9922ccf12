package truetype

import (
	"encoding/binary"

	"github.com/vectorfont/engine/sfnt"
)

// testFontOpts configures the minimal synthetic SFNT blob buildTestFont
// assembles. Only the fields hint.go and glyph.go actually read are
// populated; everything else is zeroed. The tables are encoded into a
// real SFNT blob and loaded through sfnt.Parse.
type testFontOpts struct {
	unitsPerEm                                      uint16
	maxStackElements, maxStorage, maxTwilightPoints uint16
	ascender, descender                             int16
	advanceWidth                                    uint16
	leftSideBearing                                 int16
	cvt, fpgm, prep                                  []byte
	glyf                                             []byte // single glyph's glyf bytes, may be empty
}

func buildTestFont(o testFontOpts) *sfnt.Font {
	if o.unitsPerEm == 0 {
		o.unitsPerEm = 1000
	}

	head := make([]byte, 54)
	binary.BigEndian.PutUint16(head[18:], o.unitsPerEm)
	// bbox left zero; indexToLocFormat (offset 50) = 0 (short).

	maxp := make([]byte, 32)
	binary.BigEndian.PutUint32(maxp[0:], 0x00010000)
	binary.BigEndian.PutUint16(maxp[4:], 1) // numGlyphs
	binary.BigEndian.PutUint16(maxp[16:], o.maxTwilightPoints)
	binary.BigEndian.PutUint16(maxp[18:], o.maxStorage)
	binary.BigEndian.PutUint16(maxp[20:], 64) // maxFunctionDefs
	binary.BigEndian.PutUint16(maxp[24:], o.maxStackElements)

	hhea := make([]byte, 36)
	binary.BigEndian.PutUint16(hhea[4:], uint16(o.ascender))
	binary.BigEndian.PutUint16(hhea[6:], uint16(o.descender))
	binary.BigEndian.PutUint16(hhea[34:], 1) // numberOfHMetrics

	hmtx := make([]byte, 4)
	binary.BigEndian.PutUint16(hmtx[0:], o.advanceWidth)
	binary.BigEndian.PutUint16(hmtx[2:], uint16(o.leftSideBearing))

	if len(o.glyf)%2 != 0 {
		// Short-format loca stores offsets/2, so pad the glyph to an even length.
		o.glyf = append(o.glyf, 0)
	}
	loca := make([]byte, 4)
	binary.BigEndian.PutUint16(loca[2:], uint16(len(o.glyf)/2))

	tables := map[string][]byte{
		"head": head,
		"maxp": maxp,
		"hhea": hhea,
		"hmtx": hmtx,
		"loca": loca,
		"glyf": o.glyf,
	}
	if o.cvt != nil {
		tables["cvt "] = o.cvt
	}
	if o.fpgm != nil {
		tables["fpgm"] = o.fpgm
	}
	if o.prep != nil {
		tables["prep"] = o.prep
	}

	raw := encodeSFNT(tables)
	f, err := sfnt.Parse(raw, 0)
	if err != nil {
		panic(err) // test fixture construction bug, not a runtime error path
	}
	return f
}

// encodeSFNT lays out a bare-bones TrueType table directory around the
// given tag -> bytes map, 4-byte aligning every table per the SFNT spec.
func encodeSFNT(tables map[string][]byte) []byte {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	// Deterministic order; SFNT doesn't require sorted tags but it makes
	// test output reproducible.
	for i := 1; i < len(tags); i++ {
		for j := i; j > 0 && tags[j-1] > tags[j]; j-- {
			tags[j-1], tags[j] = tags[j], tags[j-1]
		}
	}

	n := len(tags)
	headerLen := 12 + 16*n
	offset := headerLen
	type rec struct {
		tag    string
		off    int
		length int
	}
	recs := make([]rec, 0, n)
	body := make([]byte, 0, 256)
	for _, tag := range tags {
		data := tables[tag]
		recs = append(recs, rec{tag, offset, len(data)})
		body = append(body, data...)
		pad := (4 - len(data)%4) % 4
		body = append(body, make([]byte, pad)...)
		offset += len(data) + pad
	}

	buf := make([]byte, headerLen)
	binary.BigEndian.PutUint32(buf[0:], 0x00010000)
	binary.BigEndian.PutUint16(buf[4:], uint16(n))
	for i, r := range recs {
		x := 12 + 16*i
		copy(buf[x:x+4], r.tag)
		binary.BigEndian.PutUint32(buf[x+8:], uint32(r.off))
		binary.BigEndian.PutUint32(buf[x+12:], uint32(r.length))
	}
	return append(buf, body...)
}
