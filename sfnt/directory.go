package sfnt

import "sort"

// Magic values the directory reader must detect at the start of a font
// file.
const (
	magicTrueType       = 0x00010000
	magicOpenType       = 0x4F54544F // "OTTO"
	magicAppleTrueType  = 0x74727565 // "true"
	magicTypeOne        = 0x74797031 // "typ1"
	magicTrueTypeCollec = 0x74746366 // "ttcf"
)

const (
	locaOffsetFormatShort = 0
	locaOffsetFormatLong  = 1
)

// tableRecord is one entry of the SFNT table directory.
type tableRecord struct {
	tag              string
	checksum, offset uint32
	length           uint32
}

// Directory is the parsed table directory of one SFNT face, the output of
// Parse. It is immutable once built: read once and cached as a plain
// mapping.
type Directory struct {
	Format  Format
	records map[string]tableRecord
	raw     []byte
}

// Table returns the raw bytes of the table named by tag, or
// (nil, *Error{Kind: MissingTable}) if the face has no such table.
func (d *Directory) Table(tag string) ([]byte, error) {
	r, ok := d.records[tag]
	if !ok {
		return nil, errf("directory", MissingTable, "no %q table", tag)
	}
	end := r.offset + r.length
	if end < r.offset || int(end) > len(d.raw) {
		return nil, errf("directory", InvalidFormat, "%q table out of range", tag)
	}
	return d.raw[r.offset:end], nil
}

// HasTable reports whether tag is present in the directory.
func (d *Directory) HasTable(tag string) bool {
	_, ok := d.records[tag]
	return ok
}

// Tags returns the tags of every table present, sorted.
func (d *Directory) Tags() []string {
	tags := make([]string, 0, len(d.records))
	for tag := range d.records {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// NumFaces returns the number of faces in a TrueType Collection, or 1 for
// a bare SFNT/OpenType file.
func NumFaces(raw []byte) (int, error) {
	if len(raw) < 4 {
		return 0, errf("directory", InvalidStream, "data too short")
	}
	if u32(raw, 0) != magicTrueTypeCollec {
		return 1, nil
	}
	if len(raw) < 16 {
		return 0, errf("directory", InvalidStream, "ttc header too short")
	}
	return int(u32(raw, 8)), nil
}

// ParseDirectory detects the container format of raw and parses the table
// directory of face index faceIndex (ignored for bare SFNT files). Passing
// faceIndex -1 validates the container without requiring a usable face.
func ParseDirectory(raw []byte, faceIndex int) (*Directory, error) {
	if len(raw) < 12 {
		return nil, errf("directory", InvalidStream, "data too short")
	}
	offset := 0
	format := FormatUnknown
	switch u32(raw, 0) {
	case magicTrueTypeCollec:
		if len(raw) < 16 {
			return nil, errf("directory", InvalidStream, "ttc header too short")
		}
		n := int(u32(raw, 8))
		if faceIndex == -1 {
			if n <= 0 {
				return nil, errf("directory", InvalidFormat, "ttc has no faces")
			}
			faceIndex = 0
		}
		if faceIndex < 0 || faceIndex >= n {
			return nil, errf("directory", InvalidArgument, "face index %d out of range [0,%d)", faceIndex, n)
		}
		if len(raw) < 12+4*(faceIndex+1) {
			return nil, errf("directory", InvalidStream, "ttc offset table too short")
		}
		offset = int(u32(raw, 12+4*faceIndex))
		if offset < 0 || offset+12 > len(raw) {
			return nil, errf("directory", InvalidFormat, "ttc face offset out of range")
		}
		format = detectSFNTFormat(u32(raw, offset))
	case magicTrueType, magicAppleTrueType:
		format = FormatTrueType
	case magicOpenType:
		format = FormatOpenTypeCFF
	case magicTypeOne:
		format = FormatTrueType
	default:
		return nil, errf("directory", UnknownFormat, "unrecognized magic 0x%08x", u32(raw, 0))
	}
	if format == FormatUnknown {
		return nil, errf("directory", UnknownFormat, "unrecognized sfnt version at offset %d", offset)
	}

	d := data(raw[offset+4:])
	n := int(d.u16())
	if n < 0 || len(raw) < offset+16*n+12 {
		return nil, errf("directory", InvalidStream, "table directory truncated")
	}
	dir := &Directory{Format: format, raw: raw, records: make(map[string]tableRecord, n)}
	d.skip(6) // searchRange, entrySelector, rangeShift
	for i := 0; i < n; i++ {
		x := offset + 12 + 16*i
		tag := string(raw[x : x+4])
		rec := tableRecord{
			tag:      tag,
			checksum: u32(raw, x+4),
			offset:   u32(raw, x+8),
			length:   u32(raw, x+12),
		}
		// Checksum mismatches are common in real fonts and are not fatal;
		// we neither verify nor store it beyond making it available for
		// diagnostics.
		dir.records[tag] = rec
	}
	return dir, nil
}

func detectSFNTFormat(version uint32) Format {
	switch version {
	case magicTrueType, magicAppleTrueType, magicTypeOne:
		return FormatTrueType
	case magicOpenType:
		return FormatOpenTypeCFF
	default:
		return FormatUnknown
	}
}
