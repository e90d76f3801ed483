package picking

import (
	"math"

	"github.com/alfredjeanlab/beadgraph/internal/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

const epsilon = 1e-9

// Ray is a half-line with a unit direction.
type Ray struct {
	Origin r3.Vec
	Dir    r3.Vec
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) r3.Vec {
	return r3.Add(r.Origin, r3.Scale(t, r.Dir))
}

// IntersectSphere returns the nearest non-negative distance to a sphere.
func IntersectSphere(r Ray, center r3.Vec, radius float64) (float64, bool) {
	oc := r3.Sub(r.Origin, center)
	b := r3.Dot(oc, r.Dir)
	c := r3.Dot(oc, oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	if t := -b - sq; t >= 0 {
		return t, true
	}
	if t := -b + sq; t >= 0 {
		return t, true
	}
	return 0, false
}

// IntersectBox returns the nearest non-negative distance to an axis-aligned
// cube of the given half-extent.
func IntersectBox(r Ray, center r3.Vec, half float64) (float64, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	o := [3]float64{r.Origin.X - center.X, r.Origin.Y - center.Y, r.Origin.Z - center.Z}
	d := [3]float64{r.Dir.X, r.Dir.Y, r.Dir.Z}
	for i := range 3 {
		if math.Abs(d[i]) < epsilon {
			if o[i] < -half || o[i] > half {
				return 0, false
			}
			continue
		}
		t1 := (-half - o[i]) / d[i]
		t2 := (half - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
	}
	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin >= 0 {
		return tmin, true
	}
	return tmax, true
}

// IntersectCone returns the nearest non-negative distance to a closed cone
// whose axis is +Y, apex at center+height/2 and base disc at center-height/2.
func IntersectCone(r Ray, center r3.Vec, radius, height float64) (float64, bool) {
	if radius <= 0 || height <= 0 {
		return 0, false
	}
	apex := r3.Add(center, r3.Vec{Y: height / 2})
	p := r3.Sub(r.Origin, apex)
	d := r.Dir
	k := (radius / height) * (radius / height)

	best := math.Inf(1)
	consider := func(t float64) {
		if t < 0 || t >= best {
			return
		}
		if y := p.Y + t*d.Y; y >= -height-epsilon && y <= epsilon {
			best = t
		}
	}

	a := d.X*d.X + d.Z*d.Z - k*d.Y*d.Y
	b := 2 * (p.X*d.X + p.Z*d.Z - k*p.Y*d.Y)
	c := p.X*p.X + p.Z*p.Z - k*p.Y*p.Y
	if math.Abs(a) < epsilon {
		if math.Abs(b) > epsilon {
			consider(-c / b)
		}
	} else if disc := b*b - 4*a*c; disc >= 0 {
		sq := math.Sqrt(disc)
		consider((-b - sq) / (2 * a))
		consider((-b + sq) / (2 * a))
	}

	// Base cap.
	if math.Abs(d.Y) > epsilon {
		t := (-height - p.Y) / d.Y
		if t >= 0 && t < best {
			x, z := p.X+t*d.X, p.Z+t*d.Z
			if x*x+z*z <= radius*radius {
				best = t
			}
		}
	}

	if math.IsInf(best, 1) {
		return 0, false
	}
	return best, true
}

// IntersectPrimitive tests r against a node primitive's scaled geometry.
func IntersectPrimitive(r Ray, p *scene.NodePrimitive) (float64, bool) {
	s := p.Scale
	if s <= 0 {
		s = 1
	}
	g := p.Geometry
	switch g.Shape {
	case scene.ShapeBox:
		return IntersectBox(r, p.Position, g.Size*s/2)
	case scene.ShapeCone:
		return IntersectCone(r, p.Position, g.Radius*s, g.Height*s)
	default:
		return IntersectSphere(r, p.Position, g.Radius*s)
	}
}
