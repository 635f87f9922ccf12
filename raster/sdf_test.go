package raster

import (
	"testing"

	"github.com/vectorfont/engine/outline"
)

func sdfSquare() *outline.Outline {
	return &outline.Outline{
		Points: []outline.Point{
			{X: 4 << 6, Y: 4 << 6, Flag: outline.FlagOnCurve},
			{X: 12 << 6, Y: 4 << 6, Flag: outline.FlagOnCurve},
			{X: 12 << 6, Y: 12 << 6, Flag: outline.FlagOnCurve},
			{X: 4 << 6, Y: 12 << 6, Flag: outline.FlagOnCurve},
		},
		Ends: []int{3},
	}
}

func TestBuildShapeLineEdges(t *testing.T) {
	s := buildShape(sdfSquare())
	if len(s.contours) != 1 {
		t.Fatalf("len(contours) = %d, want 1", len(s.contours))
	}
	if len(s.contours[0]) != 4 {
		t.Fatalf("len(edges) = %d, want 4", len(s.contours[0]))
	}
}

func TestNearestOnLine(t *testing.T) {
	d, _ := nearestOnLine(vec2{5, 0}, vec2{0, 0}, vec2{10, 0})
	if d != 0 {
		t.Errorf("point on the line: dist = %v, want 0", d)
	}
	d, _ = nearestOnLine(vec2{5, 3}, vec2{0, 0}, vec2{10, 0})
	if d != 3 {
		t.Errorf("point above midpoint: dist = %v, want 3", d)
	}
	d, _ = nearestOnLine(vec2{-5, 0}, vec2{0, 0}, vec2{10, 0})
	if d != 5 {
		t.Errorf("point past the start: dist = %v, want 5", d)
	}
}

func TestWindingSignInsideOutside(t *testing.T) {
	s := buildShape(sdfSquare())
	if got := windingSign(vec2{8, 8}, s); got != -1 {
		t.Errorf("winding at center = %d, want -1 (inside)", got)
	}
	if got := windingSign(vec2{0, 0}, s); got != 1 {
		t.Errorf("winding at corner-outside = %d, want 1 (outside)", got)
	}
}

func TestRenderSDFSignsAndRange(t *testing.T) {
	out := RenderSDF(sdfSquare(), 16, 16, SDFOptions{Spread: 4})
	center := out.Pix[8*16+8]
	if center <= 32768 {
		t.Errorf("center level = %d, want > 32768 (inside)", center)
	}
	corner := out.Pix[0*16+0]
	if corner >= 32768 {
		t.Errorf("corner level = %d, want < 32768 (outside)", corner)
	}
}

func TestRenderSDFFlipSignInvertsInsideOutside(t *testing.T) {
	normal := RenderSDF(sdfSquare(), 16, 16, SDFOptions{Spread: 4})
	flipped := RenderSDF(sdfSquare(), 16, 16, SDFOptions{Spread: 4, FlipSign: true})
	if normal.Pix[8*16+8] == flipped.Pix[8*16+8] {
		t.Errorf("FlipSign did not change the center level")
	}
}

func TestQuadAtEndpoints(t *testing.T) {
	p0, p1, p2 := vec2{0, 0}, vec2{1, 1}, vec2{2, 0}
	if got := quadAt(p0, p1, p2, 0); got != p0 {
		t.Errorf("quadAt(t=0) = %v, want %v", got, p0)
	}
	if got := quadAt(p0, p1, p2, 1); got != p2 {
		t.Errorf("quadAt(t=1) = %v, want %v", got, p2)
	}
}
