package sfnt

import "sort"

// Charmap is a resolved codepoint-to-glyph lookup, built from whichever
// cmap subtable Parse preferred. Grounded on truetype/truetype.go's
// format-4-only parseCmap/Index, widened to formats 0, 4, 6 and 12
// (format 2 is not read).
type Charmap struct {
	PlatformID, EncodingID uint16
	format                 uint16

	// format 0
	byteTable []byte

	// format 4
	segments []cmapSegment
	glyphIDs []byte // the remaining cmap data after the format-4 header

	// format 6
	firstCode uint16
	glyphs6   []byte

	// format 12
	groups []cmapGroup
}

type cmapSegment struct {
	start, end, delta, rangeOffset uint16
	rangeOffsetPos                 int // byte offset of this segment's idRangeOffset field within glyphIDs
}

type cmapGroup struct {
	startCharCode, endCharCode, startGlyphID uint32
}

// encodingPreference ranks (platform, encoding) pairs; lower is preferred.
// Unicode (platform 0) outranks Microsoft BMP/full (platform 3), matching
// truetype.go's unicodeEncoding-then-microsoftEncoding fallback.
func encodingPreference(pid, eid uint16) (rank int, ok bool) {
	switch {
	case pid == 0:
		return 0, true
	case pid == 3 && eid == 10:
		return 1, true
	case pid == 3 && eid == 1:
		return 2, true
	case pid == 1 && eid == 0:
		return 3, true
	default:
		return 0, false
	}
}

func parseCharmap(cmap []byte) (*Charmap, error) {
	if len(cmap) < 4 {
		return nil, errf("sfnt", InvalidFormat, "cmap too short")
	}
	d := data(cmap[2:])
	n := int(d.u16())
	if len(cmap) < 8*n+4 {
		return nil, errf("sfnt", InvalidFormat, "cmap subtable list truncated")
	}
	bestRank, bestOffset, found := 1<<30, 0, false
	var bestPID, bestEID uint16
	for i := 0; i < n; i++ {
		pid, eid, offset := d.u16(), d.u16(), int(d.u32())
		if rank, ok := encodingPreference(pid, eid); ok && rank < bestRank {
			bestRank, bestOffset, bestPID, bestEID, found = rank, offset, pid, eid, true
		}
	}
	if !found {
		return nil, errf("sfnt", Unimplemented, "no supported cmap encoding")
	}
	if bestOffset <= 0 || bestOffset >= len(cmap) {
		return nil, errf("sfnt", InvalidFormat, "bad cmap subtable offset")
	}
	return parseSubtable(cmap[bestOffset:], bestPID, bestEID)
}

func parseSubtable(sub []byte, pid, eid uint16) (*Charmap, error) {
	if len(sub) < 2 {
		return nil, errf("sfnt", InvalidFormat, "cmap subtable too short")
	}
	format := u16(sub, 0)
	cm := &Charmap{PlatformID: pid, EncodingID: eid, format: format}
	switch format {
	case 0:
		if len(sub) < 6+256 {
			return nil, errf("sfnt", InvalidFormat, "format 0 cmap too short")
		}
		cm.byteTable = sub[6 : 6+256]
	case 4:
		if len(sub) < 14 {
			return nil, errf("sfnt", InvalidFormat, "format 4 cmap too short")
		}
		segCountX2 := int(u16(sub, 6))
		if segCountX2%2 != 0 {
			return nil, errf("sfnt", InvalidFormat, "bad segCountX2: %d", segCountX2)
		}
		segCount := segCountX2 / 2
		off := 14
		endCodes := sub[off:]
		off += segCountX2 + 2 // endCode[], reservedPad
		startCodes := sub[off:]
		off += segCountX2
		idDeltas := sub[off:]
		off += segCountX2
		idRangeOffsets := sub[off:]
		cm.segments = make([]cmapSegment, segCount)
		for i := 0; i < segCount; i++ {
			cm.segments[i] = cmapSegment{
				end:            u16(endCodes, 2*i),
				start:          u16(startCodes, 2*i),
				delta:          u16(idDeltas, 2*i),
				rangeOffset:    u16(idRangeOffsets, 2*i),
				rangeOffsetPos: off + 2*i,
			}
		}
		cm.glyphIDs = sub
	case 6:
		if len(sub) < 10 {
			return nil, errf("sfnt", InvalidFormat, "format 6 cmap too short")
		}
		cm.firstCode = u16(sub, 6)
		count := int(u16(sub, 8))
		if len(sub) < 10+2*count {
			return nil, errf("sfnt", InvalidFormat, "format 6 cmap glyph array truncated")
		}
		cm.glyphs6 = sub[10 : 10+2*count]
	case 12:
		if len(sub) < 16 {
			return nil, errf("sfnt", InvalidFormat, "format 12 cmap too short")
		}
		nGroups := int(u32(sub, 12))
		if len(sub) < 16+12*nGroups {
			return nil, errf("sfnt", InvalidFormat, "format 12 cmap groups truncated")
		}
		cm.groups = make([]cmapGroup, nGroups)
		for i := 0; i < nGroups; i++ {
			base := 16 + 12*i
			cm.groups[i] = cmapGroup{
				startCharCode: u32(sub, base),
				endCharCode:   u32(sub, base+4),
				startGlyphID:  u32(sub, base+8),
			}
		}
	default:
		return nil, errf("sfnt", Unimplemented, "cmap format %d", format)
	}
	return cm, nil
}

// Lookup maps a codepoint to a glyph index, or 0 (".notdef") if unmapped.
func (cm *Charmap) Lookup(codepoint rune) int {
	c := uint32(codepoint)
	switch cm.format {
	case 0:
		if c >= 256 {
			return 0
		}
		return int(cm.byteTable[c])
	case 4:
		if c > 0xffff {
			return 0
		}
		c16 := uint16(c)
		for i := range cm.segments {
			s := &cm.segments[i]
			if c16 < s.start || c16 > s.end {
				continue
			}
			if s.rangeOffset == 0 {
				return int(uint16(c16 + s.delta))
			}
			glyphOffset := s.rangeOffsetPos + int(s.rangeOffset) + 2*int(c16-s.start)
			if glyphOffset+2 > len(cm.glyphIDs) {
				return 0
			}
			gid := u16(cm.glyphIDs, glyphOffset)
			if gid == 0 {
				return 0
			}
			return int(uint16(gid + s.delta))
		}
		return 0
	case 6:
		if c < uint32(cm.firstCode) {
			return 0
		}
		i := c - uint32(cm.firstCode)
		if 2*i+2 > uint32(len(cm.glyphs6)) {
			return 0
		}
		return int(u16(cm.glyphs6, int(2*i)))
	case 12:
		idx := sort.Search(len(cm.groups), func(i int) bool {
			return cm.groups[i].endCharCode >= c
		})
		if idx < len(cm.groups) && cm.groups[idx].startCharCode <= c && c <= cm.groups[idx].endCharCode {
			return int(cm.groups[idx].startGlyphID + (c - cm.groups[idx].startCharCode))
		}
		return 0
	}
	return 0
}

// IterateNext returns the smallest mapped codepoint strictly greater than
// from, and its glyph index, scanning in increasing order regardless of
// subtable format. ok is false once the subtable is exhausted.
func (cm *Charmap) IterateNext(from rune) (next rune, glyph int, ok bool) {
	const maxCodepoint = 0x10FFFF
	for cp := from + 1; cp <= maxCodepoint; cp++ {
		if g := cm.Lookup(cp); g != 0 {
			return cp, g, true
		}
		// Format 4 stores sparse segments and maps nothing above 0xFFFF;
		// skip ahead to the next segment start instead of scanning one
		// codepoint at a time once we know the current position falls in a
		// gap. This is an optimization only: Lookup above already gives
		// correct results either way.
		if cm.format == 4 {
			if cp >= 0xffff {
				break
			}
			c16, inSegment := uint16(cp), false
			for _, s := range cm.segments {
				if c16 >= s.start && c16 <= s.end {
					inSegment = true
					break
				}
			}
			if skip := cm.nextSegmentStart(c16); !inSegment && skip > c16 {
				cp = rune(skip) - 1
			}
		}
	}
	return 0, 0, false
}

func (cm *Charmap) nextSegmentStart(after uint16) uint16 {
	best := uint16(0xffff)
	found := false
	for _, s := range cm.segments {
		if s.start > after && (!found || s.start < best) {
			best, found = s.start, true
		}
	}
	if !found {
		return 0xffff
	}
	return best
}
