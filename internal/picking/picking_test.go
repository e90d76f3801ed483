package picking

import (
	"math"
	"testing"

	"github.com/alfredjeanlab/beadgraph/internal/model"
	"github.com/alfredjeanlab/beadgraph/internal/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

func prim(id string, typ model.NodeType, pos r3.Vec) *scene.NodePrimitive {
	g, s := scene.GeometryFor(typ)
	return &scene.NodePrimitive{ID: id, Type: typ, Geometry: g, Scale: s, Position: pos, Visible: true}
}

type primitives []*scene.NodePrimitive

func (p primitives) Nodes() []*scene.NodePrimitive { return p }

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestViewport_NDC(t *testing.T) {
	v := Viewport{Width: 800, Height: 600}
	for _, tc := range []struct {
		x, y float64
		want NDC
	}{
		{400, 300, NDC{0, 0}},
		{0, 0, NDC{-1, 1}},
		{800, 600, NDC{1, -1}},
		{600, 150, NDC{0.5, 0.5}},
	} {
		got := v.NDC(tc.x, tc.y)
		if !near(got.X, tc.want.X) || !near(got.Y, tc.want.Y) {
			t.Errorf("NDC(%v, %v) = %+v, want %+v", tc.x, tc.y, got, tc.want)
		}
	}
	if got := (Viewport{}).NDC(10, 10); got != (NDC{}) {
		t.Errorf("degenerate viewport NDC = %+v, want centre", got)
	}
}

func TestCamera_RayThroughCentre(t *testing.T) {
	cam := NewCamera(DefaultCameraConfig())
	r := cam.Ray(NDC{})
	if r.Origin != (r3.Vec{Z: 500}) {
		t.Errorf("origin = %v", r.Origin)
	}
	if !near(r.Dir.X, 0) || !near(r.Dir.Y, 0) || !near(r.Dir.Z, -1) {
		t.Errorf("dir = %v, want -Z", r.Dir)
	}
}

func TestCamera_RayEdgeMatchesFOV(t *testing.T) {
	cam := NewCamera(CameraConfig{FOV: 90})
	r := cam.Ray(NDC{Y: 1})
	// With a 90 degree vertical FOV the top edge is 45 degrees up.
	if !near(r.Dir.Y, -r.Dir.Z) || r.Dir.Y <= 0 {
		t.Errorf("dir = %v, want 45 degrees up", r.Dir)
	}
}

func TestCamera_DollyAndReset(t *testing.T) {
	cam := NewCamera(DefaultCameraConfig())
	cam.Dolly(1 / 1.5)
	if !near(cam.Distance(), 500/1.5) {
		t.Errorf("distance after dolly in = %v", cam.Distance())
	}
	cam.Dolly(100)
	if !near(cam.Distance(), 900) {
		t.Errorf("distance = %v, want clamped to 900", cam.Distance())
	}
	cam.Dolly(0)
	cam.Dolly(math.NaN())
	if !near(cam.Distance(), 900) {
		t.Errorf("invalid factors moved the camera to %v", cam.Distance())
	}
	cam.Orbit(0.5, 0.2)
	cam.Reset()
	if cam.Position != (r3.Vec{Z: 500}) || cam.Target != (r3.Vec{}) {
		t.Errorf("reset camera at %v -> %v", cam.Position, cam.Target)
	}
}

func TestCamera_OrbitKeepsDistance(t *testing.T) {
	cam := NewCamera(DefaultCameraConfig())
	cam.Orbit(math.Pi/2, 0)
	if !near(cam.Distance(), 500) {
		t.Errorf("distance = %v, want 500", cam.Distance())
	}
	if !near(cam.Position.X, 500) || !near(cam.Position.Z, 0) {
		t.Errorf("position = %v, want +X axis", cam.Position)
	}
	cam.Orbit(0, 10)
	if p := cam.Position; math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z) {
		t.Errorf("orbit past the pole produced %v", p)
	}
}

func TestIntersectSphere(t *testing.T) {
	r := Ray{Origin: r3.Vec{Z: 100}, Dir: r3.Vec{Z: -1}}
	if d, ok := IntersectSphere(r, r3.Vec{}, 10); !ok || !near(d, 90) {
		t.Errorf("hit = %v %v, want 90", d, ok)
	}
	if _, ok := IntersectSphere(r, r3.Vec{X: 20}, 10); ok {
		t.Error("expected miss")
	}
	if _, ok := IntersectSphere(r, r3.Vec{Z: 200}, 10); ok {
		t.Error("sphere behind the ray should miss")
	}
	inside := Ray{Origin: r3.Vec{}, Dir: r3.Vec{X: 1}}
	if d, ok := IntersectSphere(inside, r3.Vec{}, 5); !ok || !near(d, 5) {
		t.Errorf("inside hit = %v %v, want 5", d, ok)
	}
}

func TestIntersectBox(t *testing.T) {
	r := Ray{Origin: r3.Vec{Z: 100}, Dir: r3.Vec{Z: -1}}
	if d, ok := IntersectBox(r, r3.Vec{}, 7.5); !ok || !near(d, 92.5) {
		t.Errorf("hit = %v %v, want 92.5", d, ok)
	}
	if _, ok := IntersectBox(r, r3.Vec{Y: 8}, 7.5); ok {
		t.Error("expected miss")
	}
	diag := Ray{Origin: r3.Vec{X: -100, Y: -100}, Dir: r3.Unit(r3.Vec{X: 1, Y: 1})}
	if _, ok := IntersectBox(diag, r3.Vec{}, 7.5); !ok {
		t.Error("diagonal ray should hit")
	}
}

func TestIntersectCone(t *testing.T) {
	// Cone with radius 8, height 20 centred at origin: apex y=10, base y=-10.
	side := Ray{Origin: r3.Vec{Z: 100}, Dir: r3.Vec{Z: -1}}
	// At y=0 the radius is 4.
	if d, ok := IntersectCone(side, r3.Vec{}, 8, 20); !ok || !near(d, 96) {
		t.Errorf("side hit = %v %v, want 96", d, ok)
	}
	below := Ray{Origin: r3.Vec{Y: -100}, Dir: r3.Vec{Y: 1}}
	if d, ok := IntersectCone(below, r3.Vec{}, 8, 20); !ok || !near(d, 90) {
		t.Errorf("base cap hit = %v %v, want 90", d, ok)
	}
	above := Ray{Origin: r3.Vec{X: 6, Y: 100}, Dir: r3.Vec{Y: -1}}
	// x=6 meets the surface where radius = 6, i.e. y = 10 - 6*20/8 = -5.
	if d, ok := IntersectCone(above, r3.Vec{}, 8, 20); !ok || !near(d, 105) {
		t.Errorf("surface hit from above = %v %v, want 105", d, ok)
	}
	miss := Ray{Origin: r3.Vec{X: 9, Z: 100}, Dir: r3.Vec{Z: -1}}
	if _, ok := IntersectCone(miss, r3.Vec{}, 8, 20); ok {
		t.Error("expected miss outside the base radius")
	}
	// The upper nappe of the double cone must not count.
	upper := Ray{Origin: r3.Vec{Y: 20, Z: 100}, Dir: r3.Vec{Z: -1}}
	if _, ok := IntersectCone(upper, r3.Vec{}, 8, 20); ok {
		t.Error("ray above the apex should miss")
	}
}

func TestPick_Nearest(t *testing.T) {
	r := Ray{Origin: r3.Vec{Z: 500}, Dir: r3.Vec{Z: -1}}
	cands := []*scene.NodePrimitive{
		prim("A", model.TypeEpic, r3.Vec{Z: 0}),
		prim("B", model.TypeTask, r3.Vec{Z: 100}),
		prim("C", model.TypeFeature, r3.Vec{X: 300}),
	}
	hit, ok := Pick(r, cands, 0.1, 1000)
	if !ok || hit.ID != "B" {
		t.Errorf("Pick = %+v %v, want B", hit, ok)
	}
}

func TestPick_SkipsHiddenAndOutOfRange(t *testing.T) {
	r := Ray{Origin: r3.Vec{Z: 500}, Dir: r3.Vec{Z: -1}}
	hidden := prim("A", model.TypeEpic, r3.Vec{})
	hidden.Visible = false
	far := prim("B", model.TypeEpic, r3.Vec{Z: -2000})
	if hit, ok := Pick(r, []*scene.NodePrimitive{hidden, far, nil}, 0.1, 1000); ok {
		t.Errorf("Pick = %+v, want no hit", hit)
	}
}

func TestPick_TieGoesToFirst(t *testing.T) {
	r := Ray{Origin: r3.Vec{Z: 500}, Dir: r3.Vec{Z: -1}}
	cands := []*scene.NodePrimitive{
		prim("A", model.TypeEpic, r3.Vec{}),
		prim("B", model.TypeEpic, r3.Vec{}),
	}
	hit, ok := Pick(r, cands, 0.1, 1000)
	if !ok || hit.ID != "A" {
		t.Errorf("Pick = %+v %v, want A", hit, ok)
	}
}

func TestPicker_Deterministic(t *testing.T) {
	cam := NewCamera(DefaultCameraConfig())
	p := NewPicker(cam, 800, 600)
	src := primitives{
		prim("A", model.TypeEpic, r3.Vec{X: -20}),
		prim("B", model.TypeTask, r3.Vec{}),
		prim("C", model.TypeFeature, r3.Vec{X: 20}),
	}
	first, ok := p.At(400, 300, src)
	if !ok {
		t.Fatal("expected a hit at the viewport centre")
	}
	for range 10 {
		got, ok := p.At(400, 300, src)
		if !ok || got != first {
			t.Fatalf("pick changed: %+v -> %+v", first, got)
		}
	}
	if _, ok := p.At(0, 0, src); ok {
		t.Error("corner pick should miss")
	}
}

func TestPicker_Resize(t *testing.T) {
	p := NewPicker(NewCamera(DefaultCameraConfig()), 100, 100)
	p.Resize(200, 100)
	if p.Camera.Aspect != 2 || p.Viewport.Width != 200 {
		t.Errorf("aspect = %v, width = %v", p.Camera.Aspect, p.Viewport.Width)
	}
}
