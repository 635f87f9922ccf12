package cff

import (
	"math"
	"strconv"
)

// dictKey identifies a DICT operator. One-byte operators use their opcode
// directly (0-21); two-byte operators (escape byte 12) are offset by 1200.
//
// Grounded on postscript.go's topDictOperators table-driven dispatch,
// generalized from "ignore everything except CharStrings" into a full
// operand-collecting DICT reader: every operator's operand stack is
// recorded rather than just CharStrings'.
type dictKey int

const (
	opVersion         dictKey = 0
	opNotice          dictKey = 1
	opFullName        dictKey = 2
	opFamilyName      dictKey = 3
	opWeight          dictKey = 4
	opFontBBox        dictKey = 5
	opBlueValues      dictKey = 6
	opOtherBlues      dictKey = 7
	opFamilyBlues     dictKey = 8
	opFamilyOtherBlues dictKey = 9
	opStdHW           dictKey = 10
	opStdVW           dictKey = 11
	opUniqueID        dictKey = 13
	opXUID            dictKey = 14
	opCharset         dictKey = 15
	opEncoding        dictKey = 16
	opCharStrings     dictKey = 17
	opPrivate         dictKey = 18
	opSubrs           dictKey = 19
	opDefaultWidthX   dictKey = 20
	opNominalWidthX   dictKey = 21

	escDict              = 1200
	opCopyright          dictKey = escDict + 0
	opIsFixedPitch       dictKey = escDict + 1
	opItalicAngle        dictKey = escDict + 2
	opUnderlinePosition  dictKey = escDict + 3
	opUnderlineThickness dictKey = escDict + 4
	opPaintType          dictKey = escDict + 5
	opCharstringType     dictKey = escDict + 6
	opFontMatrix         dictKey = escDict + 7
	opStrokeWidth        dictKey = escDict + 8
	opSyntheticBase      dictKey = escDict + 20
	opPostScript         dictKey = escDict + 21
	opBaseFontName       dictKey = escDict + 22
	opBaseFontBlend      dictKey = escDict + 23
	opROS                dictKey = escDict + 30
	opCIDFontVersion     dictKey = escDict + 31
	opCIDFontRevision    dictKey = escDict + 32
	opCIDFontType        dictKey = escDict + 33
	opCIDCount           dictKey = escDict + 34
	opUIDBase            dictKey = escDict + 35
	opFDArray            dictKey = escDict + 36
	opFDSelect           dictKey = escDict + 37
	opFontName           dictKey = escDict + 38
)

// dict is a parsed DICT: each operator maps to the operand stack pushed
// immediately before it.
type dict map[dictKey][]float64

func (d dict) float(k dictKey, def float64) float64 {
	if v, ok := d[k]; ok && len(v) > 0 {
		return v[len(v)-1]
	}
	return def
}

func (d dict) int(k dictKey, def int) int {
	if v, ok := d[k]; ok && len(v) > 0 {
		return int(v[len(v)-1])
	}
	return def
}

func (d dict) has(k dictKey) bool {
	_, ok := d[k]
	return ok
}

// parseDict reads every operator of a DICT byte string, per 5176.CFF.pdf
// section 4 "DICT Data": a sequence of operand/operator pairs in reverse
// Polish notation, terminated by the end of b.
func parseDict(b []byte) (dict, error) {
	d := make(dict)
	var stack []float64
	for len(b) > 0 {
		if n, rest, ok, err := parseDictNumber(b); err != nil {
			return nil, err
		} else if ok {
			if len(stack) >= 48 {
				return nil, errf(InvalidFormat, "dict operand stack overflow")
			}
			stack = append(stack, n)
			b = rest
			continue
		}
		b0 := b[0]
		b = b[1:]
		key := dictKey(b0)
		if b0 == 12 {
			if len(b) == 0 {
				return nil, errf(InvalidFormat, "dict truncated after escape byte")
			}
			key = escDict + dictKey(b[0])
			b = b[1:]
		}
		ops := make([]float64, len(stack))
		copy(ops, stack)
		d[key] = ops
		stack = stack[:0]
	}
	return d, nil
}

// parseDictNumber parses one operand at the front of b, returning ok=false
// (and leaving b untouched from the caller's point of view) when b instead
// begins with an operator byte.
func parseDictNumber(b []byte) (n float64, rest []byte, ok bool, err error) {
	b0 := b[0]
	switch {
	case b0 == 28:
		if len(b) < 3 {
			return 0, nil, false, errf(InvalidFormat, "dict truncated int16 operand")
		}
		return float64(int16(u16(b, 1))), b[3:], true, nil

	case b0 == 29:
		if len(b) < 5 {
			return 0, nil, false, errf(InvalidFormat, "dict truncated int32 operand")
		}
		return float64(int32(u32(b, 1))), b[5:], true, nil

	case b0 == 30:
		return parseDictReal(b)

	case b0 < 28:
		return 0, b, false, nil // operator byte, including escape byte 12

	case b0 < 32:
		return 0, b, false, nil // reserved, treated as an operator terminator

	case b0 < 247:
		return float64(int32(b0) - 139), b[1:], true, nil

	case b0 < 251:
		if len(b) < 2 {
			return 0, nil, false, errf(InvalidFormat, "dict truncated operand")
		}
		return float64(int32(b0-247)*256 + int32(b[1]) + 108), b[2:], true, nil

	case b0 < 255:
		if len(b) < 2 {
			return 0, nil, false, errf(InvalidFormat, "dict truncated operand")
		}
		return float64(-int32(b0-251)*256 - int32(b[1]) - 108), b[2:], true, nil
	}
	return 0, b, false, nil
}

// nibbleDefs encodes 5176.CFF.pdf Table 5 "Nibble Definitions".
var nibbleDefs = [16]string{
	0x0: "0", 0x1: "1", 0x2: "2", 0x3: "3", 0x4: "4",
	0x5: "5", 0x6: "6", 0x7: "7", 0x8: "8", 0x9: "9",
	0xa: ".", 0xb: "E", 0xc: "E-", 0xd: "", 0xe: "-", 0xf: "",
}

func parseDictReal(b []byte) (n float64, rest []byte, ok bool, err error) {
	var s []byte
	b = b[1:]
	for {
		if len(b) == 0 {
			return 0, nil, false, errf(InvalidFormat, "dict real number truncated")
		}
		c := b[0]
		b = b[1:]
		for i := 0; i < 2; i++ {
			nib := c >> 4
			c <<= 4
			if nib == 0xf {
				f, perr := strconv.ParseFloat(string(s), 64)
				if perr != nil {
					return 0, nil, false, errf(InvalidFormat, "dict real number %q: %v", s, perr)
				}
				if math.IsInf(f, 0) || math.IsNaN(f) {
					return 0, nil, false, errf(InvalidFormat, "dict real number out of range")
				}
				return f, b, true, nil
			}
			if nib == 0xd {
				return 0, nil, false, errf(InvalidFormat, "reserved real number nibble")
			}
			s = append(s, nibbleDefs[nib]...)
		}
	}
}

// TopDict holds the Top DICT fields this engine consumes.
type TopDict struct {
	CharstringType int
	FontMatrix     [6]float64
	CharStrings    int // absolute offset of the CharStrings INDEX

	IsCID       bool
	CIDCount    int
	FDArray     int // absolute offset of the FDArray INDEX
	FDSelect    int // absolute offset of the FDSelect table

	PrivateSize   int
	PrivateOffset int // absolute offset of the Private DICT
}

var defaultFontMatrix = [6]float64{0.001, 0, 0, 0.001, 0, 0}

func parseTopDict(b []byte) (*TopDict, error) {
	d, err := parseDict(b)
	if err != nil {
		return nil, err
	}
	td := &TopDict{
		CharstringType: d.int(opCharstringType, 2),
		FontMatrix:     defaultFontMatrix,
		CharStrings:    d.int(opCharStrings, 0),
		IsCID:          d.has(opROS),
		CIDCount:       d.int(opCIDCount, 8720),
		FDArray:        d.int(opFDArray, 0),
		FDSelect:       d.int(opFDSelect, 0),
	}
	if m, ok := d[opFontMatrix]; ok && len(m) == 6 {
		for i, v := range m {
			td.FontMatrix[i] = v
		}
	}
	if priv, ok := d[opPrivate]; ok && len(priv) == 2 {
		td.PrivateSize = int(priv[0])
		td.PrivateOffset = int(priv[1])
	}
	return td, nil
}

// PrivateDict holds the Private DICT fields this engine consumes: glyph
// width defaults and the local Subrs INDEX location, the latter stored
// relative to the Private DICT's own start per 5176.CFF.pdf section 9
// "the local subrs offset is relative to the beginning of the Private DICT".
type PrivateDict struct {
	DefaultWidthX float64
	NominalWidthX float64
	SubrsOffset   int // 0 if absent
}

func parsePrivateDict(b []byte, privateStart int) (*PrivateDict, error) {
	d, err := parseDict(b)
	if err != nil {
		return nil, err
	}
	pd := &PrivateDict{
		DefaultWidthX: d.float(opDefaultWidthX, 0),
		NominalWidthX: d.float(opNominalWidthX, 0),
	}
	if off := d.int(opSubrs, 0); off > 0 {
		pd.SubrsOffset = privateStart + off
	}
	return pd, nil
}

// FDSelect maps a glyph ID to an index into the FDArray, for CID-keyed
// fonts selecting a FontDict per glyph.
type FDSelect struct {
	format  byte
	ranges  []fdRange // format 3
	byGlyph []byte    // format 0
}

type fdRange struct {
	first int
	fd    byte
}

func parseFDSelect(b []byte, numGlyphs int) (*FDSelect, error) {
	if len(b) < 1 {
		return nil, errf(InvalidFormat, "FDSelect truncated")
	}
	switch format := b[0]; format {
	case 0:
		if len(b) < 1+numGlyphs {
			return nil, errf(InvalidFormat, "FDSelect format 0 truncated")
		}
		return &FDSelect{format: 0, byGlyph: b[1 : 1+numGlyphs]}, nil
	case 3:
		if len(b) < 3 {
			return nil, errf(InvalidFormat, "FDSelect format 3 truncated")
		}
		nRanges := int(u16(b, 1))
		pos := 3
		if len(b) < pos+nRanges*3+2 {
			return nil, errf(InvalidFormat, "FDSelect format 3 truncated")
		}
		ranges := make([]fdRange, nRanges)
		for i := 0; i < nRanges; i++ {
			ranges[i] = fdRange{first: int(u16(b, pos)), fd: b[pos+2]}
			pos += 3
		}
		sentinel := int(u16(b, pos))
		if sentinel < ranges[len(ranges)-1].first {
			return nil, errf(InvalidFormat, "FDSelect format 3 sentinel before last range")
		}
		return &FDSelect{format: 3, ranges: ranges}, nil
	default:
		return nil, errf(InvalidFormat, "unsupported FDSelect format %d", format)
	}
}

// FD returns the FD index for the given glyph ID.
func (fs *FDSelect) FD(glyphID int) (int, error) {
	if fs == nil {
		return 0, nil
	}
	switch fs.format {
	case 0:
		if glyphID < 0 || glyphID >= len(fs.byGlyph) {
			return 0, errf(InvalidFormat, "FDSelect: glyph %d out of range", glyphID)
		}
		return int(fs.byGlyph[glyphID]), nil
	case 3:
		// ranges are sorted by first; binary search for the last range
		// whose first <= glyphID.
		lo, hi := 0, len(fs.ranges)-1
		idx := -1
		for lo <= hi {
			mid := (lo + hi) / 2
			if fs.ranges[mid].first <= glyphID {
				idx = mid
				lo = mid + 1
			} else {
				hi = mid - 1
			}
		}
		if idx < 0 {
			return 0, errf(InvalidFormat, "FDSelect: glyph %d not covered", glyphID)
		}
		return int(fs.ranges[idx].fd), nil
	}
	return 0, errf(InvalidFormat, "FDSelect: bad format")
}
