package font

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	gofixed "github.com/vectorfont/engine/fixed"
)

func TestScaleDesignUnitsRoundsToNearest(t *testing.T) {
	// 500 units at 1000 units/em, scale = 12<<6 (12ppem): half the em.
	got := scaleDesignUnits(12<<6, 1000, 500)
	want := gofixed.Int26_6(6 << 6)
	if got != want {
		t.Errorf("scaleDesignUnits = %v, want %v", got, want)
	}
}

func TestScaleDesignUnitsNegative(t *testing.T) {
	pos := scaleDesignUnits(12<<6, 1000, 500)
	neg := scaleDesignUnits(12<<6, 1000, -500)
	if neg != -pos {
		t.Errorf("scaleDesignUnits(-x) = %v, want %v", neg, -pos)
	}
}

func TestOptionsPixelsPerEmDefault(t *testing.T) {
	var opts *Options
	if got := opts.pixelsPerEm(); got != 12 {
		t.Errorf("nil Options.pixelsPerEm() = %v, want 12", got)
	}
	opts = &Options{}
	if got := opts.pixelsPerEm(); got != 12 {
		t.Errorf("zero-value Options.pixelsPerEm() = %v, want 12", got)
	}
	opts = &Options{PixelsPerEm: 24}
	if got := opts.pixelsPerEm(); got != 24 {
		t.Errorf("Options{PixelsPerEm: 24}.pixelsPerEm() = %v, want 24", got)
	}
}

// TestDesignUnitsFromPixelsRoundTrip checks that designUnitsFromPixels
// inverts scaleDesignUnits: scaling a design-unit value to pixels and
// back should return (approximately) the original value.
func TestDesignUnitsFromPixelsRoundTrip(t *testing.T) {
	const scale, upem = 12 << 6, 1000
	px := scaleDesignUnits(scale, upem, 500)
	got := designUnitsFromPixels(px, upem, scale)
	want := gofixed.Int16_16(500 << 16)
	if diff := got - want; diff > 1<<10 || diff < -(1<<10) {
		t.Errorf("designUnitsFromPixels round trip = %v, want ~%v", got.Float64(), want.Float64())
	}
}

func TestDesignUnitsFromPixelsZero(t *testing.T) {
	if got := designUnitsFromPixels(0, 1000, 12<<6); got != 0 {
		t.Errorf("designUnitsFromPixels(0, ...) = %v, want 0", got.Float64())
	}
	if got := designUnitsFromPixels(64, 1000, 0); got != 0 {
		t.Errorf("designUnitsFromPixels(_, _, 0) = %v, want 0", got.Float64())
	}
}

// TestGlyphMetricsEqual uses go-cmp to compare GlyphMetrics structs, the
// way a layout test diffing a whole metrics struct at once would.
func TestGlyphMetricsEqual(t *testing.T) {
	a := GlyphMetrics{AdvanceX: 640, AdvanceY: 768, BearingX: 0, BearingY: 768, Width: 640, Height: 768}
	b := a
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("identical GlyphMetrics should diff empty, got:\n%s", diff)
	}
	b.AdvanceX += 64
	if diff := cmp.Diff(a, b); diff == "" {
		t.Errorf("mutated GlyphMetrics should not diff empty")
	}
}
