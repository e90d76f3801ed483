// Package picking answers "which node, if any, is under the pointer".
//
// Picking never mutates interaction state; it only reports a candidate id.
package picking

import (
	"github.com/alfredjeanlab/beadgraph/internal/scene"
)

// Hit is the result of a successful pick.
type Hit struct {
	ID       string
	Distance float64
}

// Pick tests r against every visible candidate and returns the nearest hit
// within [near, far]. Candidates must be in a stable order; on equal
// distance the first candidate wins.
func Pick(r Ray, candidates []*scene.NodePrimitive, near, far float64) (Hit, bool) {
	var (
		best  Hit
		found bool
	)
	for _, p := range candidates {
		if p == nil || !p.Visible {
			continue
		}
		t, ok := IntersectPrimitive(r, p)
		if !ok || t < near || t > far {
			continue
		}
		if !found || t < best.Distance {
			best = Hit{ID: p.ID, Distance: t}
			found = true
		}
	}
	return best, found
}

// Source supplies pickable primitives in id order.
type Source interface {
	Nodes() []*scene.NodePrimitive
}

// Picker combines a camera and viewport.
type Picker struct {
	Camera   *Camera
	Viewport Viewport
}

// NewPicker returns a picker for cam over a width x height viewport.
func NewPicker(cam *Camera, width, height float64) *Picker {
	cam.SetAspect(width, height)
	return &Picker{Camera: cam, Viewport: Viewport{Width: width, Height: height}}
}

// Resize updates the viewport and camera aspect.
func (p *Picker) Resize(width, height float64) {
	p.Viewport.Width, p.Viewport.Height = width, height
	p.Camera.SetAspect(width, height)
}

// At picks the node under the client coordinate (x, y).
func (p *Picker) At(x, y float64, src Source) (Hit, bool) {
	r := p.Camera.Ray(p.Viewport.NDC(x, y))
	return Pick(r, src.Nodes(), p.Camera.Near, p.Camera.Far)
}
