package font

import (
	"testing"

	"github.com/vectorfont/engine/raster"
)

func TestSnapshotCopiesBitmapIndependently(t *testing.T) {
	dst := raster.NewBitmap(2, 2, raster.Gray)
	dst.Pix[0] = 9
	slot := &GlyphSlot{Bitmap: dst, Left: 1, Top: 2}

	g := Snapshot(slot)
	if g.Width != 2 || g.Height != 2 {
		t.Fatalf("Width/Height = %d/%d, want 2/2", g.Width, g.Height)
	}
	if g.Pix[0] != 9 {
		t.Fatalf("Pix[0] = %d, want 9", g.Pix[0])
	}

	// Mutating the original bitmap (as the next LoadGlyph would, via the
	// arena) must not affect the snapshot.
	dst.Pix[0] = 0
	if g.Pix[0] != 9 {
		t.Errorf("Snapshot aliases the original bitmap: Pix[0] = %d, want 9", g.Pix[0])
	}
}

func TestSnapshotNilBitmap(t *testing.T) {
	slot := &GlyphSlot{}
	g := Snapshot(slot)
	if g.Pix != nil {
		t.Errorf("Pix = %v, want nil", g.Pix)
	}
}

func TestGlyphImageTranslate(t *testing.T) {
	g := &GlyphImage{Left: 1, Top: 2}
	g.Translate(3, -1)
	if g.Left != 4 || g.Top != 1 {
		t.Errorf("Left/Top = %d/%d, want 4/1", g.Left, g.Top)
	}
}
