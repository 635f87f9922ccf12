package truetype

import (
	"encoding/binary"
	"testing"

	gofixed "github.com/vectorfont/engine/fixed"
)

// triangleGlyf builds the glyf bytes for a single-contour triangle with
// three on-curve points at (0,0), (500,0), (250,700) FUnits.
func triangleGlyf() []byte {
	buf := make([]byte, 0, 64)
	put16 := func(v int16) { buf = binary.BigEndian.AppendUint16(buf, uint16(v)) }

	put16(1)   // numberOfContours
	put16(0)   // xMin
	put16(0)   // yMin
	put16(500) // xMax
	put16(700) // yMax
	put16(2)   // endPtsOfContours[0]
	put16(0)   // instructionLength

	buf = append(buf, 0x01, 0x01, 0x01) // flags: on-curve, no repeat, 2-byte deltas

	// x deltas: 0, +500, -250
	put16(0)
	put16(500)
	put16(-250)
	// y deltas: 0, 0, +700
	put16(0)
	put16(0)
	put16(700)

	return buf
}

func TestLoadSimpleGlyph(t *testing.T) {
	f := buildTestFont(testFontOpts{
		unitsPerEm:       1000,
		ascender:         800,
		descender:        -200,
		advanceWidth:     600,
		leftSideBearing:  0,
		glyf:             triangleGlyf(),
	})

	var g GlyphBuf
	const ppem = 10
	if err := g.Load(f, ppem<<6, 0, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(g.Out.Ends) != 1 || g.Out.Ends[0] != 2 {
		t.Fatalf("Ends = %v, want [2]", g.Out.Ends)
	}
	if len(g.Out.Points) != 3 {
		t.Fatalf("len(Points) = %d, want 3", len(g.Out.Points))
	}

	want := []gofixed.Int26_6{0, 0, 320, 0, 160, 448}
	got := []gofixed.Int26_6{
		g.Out.Points[0].X, g.Out.Points[0].Y,
		g.Out.Points[1].X, g.Out.Points[1].Y,
		g.Out.Points[2].X, g.Out.Points[2].Y,
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("coord %d = %d, want %d", i, got[i], want[i])
		}
	}
	for i, p := range g.Out.Points {
		if !p.OnCurve() {
			t.Errorf("point %d: not on-curve", i)
		}
	}
	if want := gofixed.Int26_6(600 * ppem * 64 / 1000); g.AdvanceWidth != want {
		t.Errorf("AdvanceWidth = %d, want %d", g.AdvanceWidth, want)
	}
}

func TestLoadEmptyGlyph(t *testing.T) {
	f := buildTestFont(testFontOpts{unitsPerEm: 1000})
	var g GlyphBuf
	if err := g.Load(f, 10<<6, 0, nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(g.Out.Points) != 0 || len(g.Out.Ends) != 0 {
		t.Errorf("expected no contours for an empty glyf entry, got %d points, %d ends",
			len(g.Out.Points), len(g.Out.Ends))
	}
}
