package scene

import (
	"fmt"

	"github.com/alfredjeanlab/beadgraph/internal/model"
)

// Shape is the primitive geometry used for a node.
type Shape string

const (
	ShapeSphere Shape = "sphere"
	ShapeBox    Shape = "box"
	// ShapeCone is a cone along +Y with its base centred at -Height/2.
	ShapeCone Shape = "cone"
)

// Geometry describes a node primitive in local (unscaled) units.
type Geometry struct {
	Shape  Shape   `json:"shape"`
	Radius float64 `json:"radius,omitempty"`
	Size   float64 `json:"size,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Color is a 24-bit RGB value.
type Color uint32

// Hex returns the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

// MarshalText encodes the color as its hex string.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// Material is the appearance of a primitive.
type Material struct {
	Color   Color   `json:"color"`
	Opacity float64 `json:"opacity"`
}

type palette struct {
	base, hover, selected Color
}

var nodePalettes = map[model.NodeType]palette{
	model.TypeEpic:    {base: 0x3b82f6, hover: 0x60a5fa, selected: 0x93c5fd},
	model.TypeFeature: {base: 0x22c55e, hover: 0x4ade80, selected: 0x86efac},
	model.TypeTask:    {base: 0xeab308, hover: 0xfacc15, selected: 0xfde047},
}

var fallbackPalette = palette{base: 0x6b7280, hover: 0x9ca3af, selected: 0xd1d5db}

var (
	linkDefault     = Material{Color: 0x666666, Opacity: 0.3}
	linkHighlighted = Material{Color: 0x9ca3af, Opacity: 0.6}
)

// Appearance returns the material for a node of type t under overlay o.
// It is a pure function; selected takes precedence over hovered.
func Appearance(t model.NodeType, o model.Overlay) Material {
	p, ok := nodePalettes[t]
	if !ok {
		p = fallbackPalette
	}
	switch o {
	case model.OverlaySelected:
		return Material{Color: p.selected, Opacity: 1}
	case model.OverlayHovered:
		return Material{Color: p.hover, Opacity: 1}
	}
	return Material{Color: p.base, Opacity: 1}
}

// LinkAppearance returns the material for a link.
func LinkAppearance(highlighted bool) Material {
	if highlighted {
		return linkHighlighted
	}
	return linkDefault
}

// GeometryFor returns the geometry and uniform scale for a node type.
func GeometryFor(t model.NodeType) (Geometry, float64) {
	switch t {
	case model.TypeEpic:
		return Geometry{Shape: ShapeSphere, Radius: 10}, 1.5
	case model.TypeFeature:
		return Geometry{Shape: ShapeBox, Size: 15}, 1.2
	case model.TypeTask:
		return Geometry{Shape: ShapeCone, Radius: 8, Height: 20}, 1
	}
	return Geometry{Shape: ShapeSphere, Radius: 8}, 1
}
