package scene

import (
	"testing"

	"github.com/alfredjeanlab/beadgraph/internal/model"
)

func TestAppearance(t *testing.T) {
	for _, tc := range []struct {
		typ     model.NodeType
		overlay model.Overlay
		want    Color
	}{
		{model.TypeEpic, model.OverlayNone, 0x3b82f6},
		{model.TypeEpic, model.OverlayHovered, 0x60a5fa},
		{model.TypeEpic, model.OverlaySelected, 0x93c5fd},
		{model.TypeFeature, model.OverlayNone, 0x22c55e},
		{model.TypeFeature, model.OverlayHovered, 0x4ade80},
		{model.TypeFeature, model.OverlaySelected, 0x86efac},
		{model.TypeTask, model.OverlayNone, 0xeab308},
		{model.TypeTask, model.OverlayHovered, 0xfacc15},
		{model.TypeTask, model.OverlaySelected, 0xfde047},
		{model.NodeType("bug"), model.OverlayNone, 0x6b7280},
	} {
		got := Appearance(tc.typ, tc.overlay)
		if got.Color != tc.want {
			t.Errorf("Appearance(%s, %s) = %s, want %s", tc.typ, tc.overlay, got.Color.Hex(), tc.want.Hex())
		}
		if got.Opacity != 1 {
			t.Errorf("Appearance(%s, %s).Opacity = %v, want 1", tc.typ, tc.overlay, got.Opacity)
		}
	}
}

func TestLinkAppearance(t *testing.T) {
	if got := LinkAppearance(false); got.Color != 0x666666 || got.Opacity != 0.3 {
		t.Errorf("default link = %+v", got)
	}
	if got := LinkAppearance(true); got.Color != 0x9ca3af || got.Opacity != 0.6 {
		t.Errorf("highlighted link = %+v", got)
	}
}

func TestGeometryFor(t *testing.T) {
	for _, tc := range []struct {
		typ   model.NodeType
		shape Shape
		scale float64
	}{
		{model.TypeEpic, ShapeSphere, 1.5},
		{model.TypeFeature, ShapeBox, 1.2},
		{model.TypeTask, ShapeCone, 1},
		{model.NodeType(""), ShapeSphere, 1},
	} {
		g, scale := GeometryFor(tc.typ)
		if g.Shape != tc.shape || scale != tc.scale {
			t.Errorf("GeometryFor(%q) = %s x%v, want %s x%v", tc.typ, g.Shape, scale, tc.shape, tc.scale)
		}
	}
}

func TestColor_Hex(t *testing.T) {
	if got := Color(0x0000ff).Hex(); got != "#0000ff" {
		t.Errorf("Hex() = %q, want #0000ff", got)
	}
}
