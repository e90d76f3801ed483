package engine

import (
	"context"

	"github.com/alfredjeanlab/beadgraph/internal/model"
	"github.com/alfredjeanlab/beadgraph/internal/reconcile"
	"github.com/alfredjeanlab/beadgraph/internal/scene"
)

// Snapshot is the full renderable state at a frame boundary.
type Snapshot struct {
	scene.Frame
	Camera CameraState `json:"camera"`
	Layout LayoutState `json:"layout"`
	Frames uint64      `json:"frames"`
}

// CameraState is the wire form of the camera.
type CameraState struct {
	Position [3]float64 `json:"position"`
	Target   [3]float64 `json:"target"`
	FOV      float64    `json:"fov"`
	Aspect   float64    `json:"aspect"`
}

// LayoutState reports the simulation temperature.
type LayoutState struct {
	Alpha  float64 `json:"alpha"`
	Active bool    `json:"active"`
	Ticks  int     `json:"ticks"`
}

// Load replaces the graph with d as a full snapshot. Links missing from d
// are derived from each node's link list.
func (e *Engine) Load(ctx context.Context, d model.Dataset) error {
	return e.Do(ctx, func() {
		e.rec.Apply(reconcile.Payload{Full: true, Nodes: d.Nodes, Links: d.Links})
	})
}

// Click selects whatever is under the pointer. When at is non-nil the
// pointer is moved there and picked first.
func (e *Engine) Click(ctx context.Context, at *[2]float64) error {
	return e.Do(ctx, func() {
		if at != nil {
			e.hoverAt(&pointer{x: at[0], y: at[1]})
		} else {
			e.pick()
		}
		e.machine.Click()
		e.syncView()
	})
}

// Deselect clears the selection.
func (e *Engine) Deselect(ctx context.Context) error {
	return e.Do(ctx, func() {
		e.machine.Deselect()
		e.syncView()
	})
}

// SetFilter changes the node type filter.
func (e *Engine) SetFilter(ctx context.Context, f model.Filter) error {
	return e.Do(ctx, func() {
		e.machine.SetFilter(f)
		e.syncView()
	})
}

// SetSearch changes the search query.
func (e *Engine) SetSearch(ctx context.Context, q string) error {
	return e.Do(ctx, func() {
		e.machine.SetSearch(q)
		e.syncView()
	})
}

// Dolly moves the camera toward (factor < 1) or away from its target.
func (e *Engine) Dolly(ctx context.Context, factor float64) error {
	return e.Do(ctx, func() { e.picker.Camera.Dolly(factor) })
}

// Orbit rotates the camera around its target.
func (e *Engine) Orbit(ctx context.Context, dAzimuth, dPolar float64) error {
	return e.Do(ctx, func() { e.picker.Camera.Orbit(dAzimuth, dPolar) })
}

// ResetCamera returns the camera to its home position.
func (e *Engine) ResetCamera(ctx context.Context) error {
	return e.Do(ctx, func() { e.picker.Camera.Reset() })
}

// Resize updates the picking viewport.
func (e *Engine) Resize(ctx context.Context, width, height float64) error {
	return e.Do(ctx, func() { e.picker.Resize(width, height) })
}

// Scene returns a snapshot of the scene, camera and layout.
func (e *Engine) Scene(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	err := e.Do(ctx, func() { s = e.snapshot() })
	return s, err
}

// Node returns a copy of the node with id.
func (e *Engine) Node(ctx context.Context, id string) (*model.Node, bool, error) {
	var (
		n  *model.Node
		ok bool
	)
	err := e.Do(ctx, func() {
		var found *model.Node
		if found, ok = e.graph.Node(id); ok {
			cp := *found
			n = &cp
		}
	})
	return n, ok, err
}

// Stats summarizes the current graph.
func (e *Engine) Stats(ctx context.Context) (model.Stats, error) {
	var s model.Stats
	err := e.Do(ctx, func() { s = e.graph.Stats() })
	return s, err
}

// View returns the current interaction snapshot.
func (e *Engine) View(ctx context.Context) (model.View, error) {
	var v model.View
	err := e.Do(ctx, func() { v = e.machine.View() })
	return v, err
}

func (e *Engine) snapshot() Snapshot {
	if e.dirty {
		e.arena.UpdateTransforms(e.sim)
		e.dirty = false
	}
	cam := e.picker.Camera
	return Snapshot{
		Frame: e.arena.Snapshot(),
		Camera: CameraState{
			Position: [3]float64{cam.Position.X, cam.Position.Y, cam.Position.Z},
			Target:   [3]float64{cam.Target.X, cam.Target.Y, cam.Target.Z},
			FOV:      cam.FOV,
			Aspect:   cam.Aspect,
		},
		Layout: LayoutState{
			Alpha:  e.sim.Alpha(),
			Active: e.sim.Active(),
			Ticks:  e.sim.Ticks(),
		},
		Frames: e.frames,
	}
}
