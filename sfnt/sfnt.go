// Package sfnt implements the font directory reader, SFNT table loader,
// charmap resolver and kerning table, plus the ambient table set
// (head/maxp/hhea/hmtx/cmap/loca/glyf/cvt/fpgm/prep/kern).
//
// Grounded on freetype/truetype/truetype.go's Font/Parse/readTable, widened
// from a single 0x00010000-only parser to the full magic set and from
// the format-4-only cmap to formats 0/4/6/12.
package sfnt

import "fmt"

// Format identifies the font container format detected by Parse.
type Format int

const (
	FormatUnknown Format = iota
	FormatTrueType
	FormatOpenTypeCFF
	FormatCollection
)

func (f Format) String() string {
	switch f {
	case FormatTrueType:
		return "TrueType (glyf)"
	case FormatOpenTypeCFF:
		return "OpenType (CFF)"
	case FormatCollection:
		return "TrueType Collection"
	default:
		return "unknown"
	}
}

// Error kinds, a flat tagged-sum design. Kind itself is not an error;
// failures are returned as *Error, which carries a Kind, so callers can
// either switch on its Kind or just treat it as an error.
type Kind int

const (
	UnknownFormat Kind = iota
	InvalidArgument
	InvalidStream
	InvalidFormat
	MissingTable
	NotScalable
	Unimplemented
)

func (k Kind) String() string {
	switch k {
	case UnknownFormat:
		return "unknown format"
	case InvalidArgument:
		return "invalid argument"
	case InvalidStream:
		return "invalid stream"
	case InvalidFormat:
		return "invalid format"
	case MissingTable:
		return "missing table"
	case NotScalable:
		return "not scalable"
	case Unimplemented:
		return "unimplemented"
	default:
		return "unknown error kind"
	}
}

// Error is the engine-wide error value, a Kind plus the producing module
// tag and a free-form message.
type Error struct {
	Kind    Kind
	Module  string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("sfnt: %s: %s: %s", e.Module, e.Kind, e.Message)
}

func errf(module string, kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Module: module, Message: fmt.Sprintf(format, args...)}
}

// data is a cursor over a big-endian byte slice, mirroring truetype.go's
// unexported data type.
type data []byte

func (d *data) u32() uint32 {
	x := uint32((*d)[0])<<24 | uint32((*d)[1])<<16 | uint32((*d)[2])<<8 | uint32((*d)[3])
	*d = (*d)[4:]
	return x
}

func (d *data) u16() uint16 {
	x := uint16((*d)[0])<<8 | uint16((*d)[1])
	*d = (*d)[2:]
	return x
}

func (d *data) u8() uint8 {
	x := (*d)[0]
	*d = (*d)[1:]
	return x
}

func (d *data) skip(n int) { *d = (*d)[n:] }

func u16(b []byte, i int) uint16 { return uint16(b[i])<<8 | uint16(b[i+1]) }
func u32(b []byte, i int) uint32 {
	return uint32(b[i])<<24 | uint32(b[i+1])<<16 | uint32(b[i+2])<<8 | uint32(b[i+3])
}
