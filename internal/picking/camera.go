package picking

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// CameraConfig sets the initial perspective camera.
type CameraConfig struct {
	Distance float64 `toml:"distance"`
	FOV      float64 `toml:"fov"`
	Near     float64 `toml:"near"`
	Far      float64 `toml:"far"`
}

// DefaultCameraConfig looks down -Z at the origin from 500 units away.
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{Distance: 500, FOV: 75, Near: 0.1, Far: 1000}
}

// Camera is a perspective camera orbiting a target point.
type Camera struct {
	Position r3.Vec
	Target   r3.Vec
	Up       r3.Vec
	// FOV is the vertical field of view in degrees.
	FOV    float64
	Aspect float64
	Near   float64
	Far    float64

	home r3.Vec
}

// NewCamera builds a camera from cfg. Zero fields take defaults.
func NewCamera(cfg CameraConfig) *Camera {
	d := DefaultCameraConfig()
	if cfg.Distance <= 0 {
		cfg.Distance = d.Distance
	}
	if cfg.FOV <= 0 || cfg.FOV >= 180 {
		cfg.FOV = d.FOV
	}
	if cfg.Near <= 0 {
		cfg.Near = d.Near
	}
	if cfg.Far <= cfg.Near {
		cfg.Far = d.Far
	}
	pos := r3.Vec{Z: cfg.Distance}
	return &Camera{
		Position: pos,
		Up:       r3.Vec{Y: 1},
		FOV:      cfg.FOV,
		Aspect:   1,
		Near:     cfg.Near,
		Far:      cfg.Far,
		home:     pos,
	}
}

// SetAspect updates the aspect ratio from a viewport size.
func (c *Camera) SetAspect(width, height float64) {
	if width > 0 && height > 0 {
		c.Aspect = width / height
	}
}

// Reset returns the camera to its initial position, looking at the origin.
func (c *Camera) Reset() {
	c.Position = c.home
	c.Target = r3.Vec{}
	c.Up = r3.Vec{Y: 1}
}

// Distance returns the distance from the camera to its target.
func (c *Camera) Distance() float64 {
	return r3.Norm(r3.Sub(c.Position, c.Target))
}

// Dolly scales the camera's distance to the target by factor. A factor
// below 1 moves in. The distance stays within [10*Near, 0.9*Far].
func (c *Camera) Dolly(factor float64) {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}
	offset := r3.Sub(c.Position, c.Target)
	dist := r3.Norm(offset)
	if dist == 0 {
		return
	}
	next := math.Max(c.Near*10, math.Min(dist*factor, c.Far*0.9))
	c.Position = r3.Add(c.Target, r3.Scale(next/dist, offset))
}

// Orbit rotates the camera around its target by the given azimuth and
// polar deltas in radians. The polar angle stays clear of the poles.
func (c *Camera) Orbit(dAzimuth, dPolar float64) {
	offset := r3.Sub(c.Position, c.Target)
	r := r3.Norm(offset)
	if r == 0 {
		return
	}
	azimuth := math.Atan2(offset.X, offset.Z) + dAzimuth
	polar := math.Acos(math.Max(-1, math.Min(1, offset.Y/r))) + dPolar
	const eps = 1e-3
	polar = math.Max(eps, math.Min(math.Pi-eps, polar))
	c.Position = r3.Add(c.Target, r3.Vec{
		X: r * math.Sin(polar) * math.Sin(azimuth),
		Y: r * math.Cos(polar),
		Z: r * math.Sin(polar) * math.Cos(azimuth),
	})
}

// basis returns the camera's forward, right and up unit vectors.
func (c *Camera) basis() (forward, right, up r3.Vec) {
	forward = r3.Sub(c.Target, c.Position)
	if r3.Norm2(forward) == 0 {
		forward = r3.Vec{Z: -1}
	}
	forward = r3.Unit(forward)
	right = r3.Cross(forward, c.Up)
	if r3.Norm2(right) < 1e-12 {
		right = r3.Cross(forward, r3.Vec{Z: 1})
		if r3.Norm2(right) < 1e-12 {
			right = r3.Vec{X: 1}
		}
	}
	right = r3.Unit(right)
	up = r3.Cross(right, forward)
	return forward, right, up
}

// Ray unprojects a normalized device coordinate (x, y in [-1, 1], y up)
// into a world-space ray from the camera position.
func (c *Camera) Ray(ndc NDC) Ray {
	forward, right, up := c.basis()
	tanHalf := math.Tan(c.FOV * math.Pi / 360)
	dir := r3.Add(forward, r3.Add(
		r3.Scale(ndc.X*tanHalf*c.Aspect, right),
		r3.Scale(ndc.Y*tanHalf, up),
	))
	return Ray{Origin: c.Position, Dir: r3.Unit(dir)}
}

// NDC is a normalized device coordinate.
type NDC struct {
	X, Y float64
}

// Viewport maps client pixel coordinates onto NDC.
type Viewport struct {
	Left, Top     float64
	Width, Height float64
}

// NDC converts a client coordinate. The y axis is flipped so up is positive.
// A degenerate viewport maps everything to the centre.
func (v Viewport) NDC(clientX, clientY float64) NDC {
	if v.Width <= 0 || v.Height <= 0 {
		return NDC{}
	}
	return NDC{
		X: (clientX-v.Left)/v.Width*2 - 1,
		Y: -(clientY-v.Top)/v.Height*2 + 1,
	}
}
