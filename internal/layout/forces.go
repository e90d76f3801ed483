package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// minDistance2 floors squared distances in the charge force.
const minDistance2 = 1.0

// Tick advances the simulation by one step and reports whether it did work.
// It is a no-op once alpha has cooled below AlphaMin.
func (s *Simulation) Tick() bool {
	if !s.Active() {
		return false
	}
	s.alpha += (s.cfg.AlphaTarget - s.alpha) * s.cfg.AlphaDecay

	s.applyLinks()
	s.applyCharge()
	s.integrate()
	s.sanitize()
	s.applyCenter()

	s.ticks++
	for _, fn := range s.onTick {
		fn(s)
	}
	return true
}

// Settle ticks until the simulation cools or maxTicks is reached, and
// returns the number of ticks run.
func (s *Simulation) Settle(maxTicks int) int {
	n := 0
	for n < maxTicks && s.Tick() {
		n++
	}
	return n
}

// applyLinks pulls each spring toward LinkDistance. The displacement is split
// between endpoints by degree so that hubs move less.
func (s *Simulation) applyLinks() {
	for _, sp := range s.springs {
		d := r3.Sub(r3.Add(sp.target.pos, sp.target.vel), r3.Add(sp.source.pos, sp.source.vel))
		d = s.jiggleIfZero(d)
		l := r3.Norm(d)
		k := (l - s.cfg.LinkDistance) / l * s.alpha * sp.strength
		d = r3.Scale(k, d)
		sp.target.vel = r3.Sub(sp.target.vel, r3.Scale(sp.bias, d))
		sp.source.vel = r3.Add(sp.source.vel, r3.Scale(1-sp.bias, d))
	}
}

// applyCharge is the exact pairwise many-body force with inverse-square
// falloff. Negative strength repels.
func (s *Simulation) applyCharge() {
	strength := s.cfg.ChargeStrength * s.alpha
	for i, a := range s.order {
		for j, b := range s.order {
			if i == j {
				continue
			}
			d := s.jiggleIfZero(r3.Sub(b.pos, a.pos))
			l := r3.Norm2(d)
			if l < minDistance2 {
				l = math.Sqrt(minDistance2 * l)
			}
			a.vel = r3.Add(a.vel, r3.Scale(strength/l, d))
		}
	}
}

func (s *Simulation) integrate() {
	keep := 1 - s.cfg.VelocityDecay
	for _, b := range s.order {
		b.vel = s.flatten(r3.Scale(keep, b.vel))
		b.pos = r3.Add(b.pos, b.vel)
	}
}

// applyCenter translates every body so the centroid sits at the origin.
func (s *Simulation) applyCenter() {
	if len(s.order) == 0 {
		return
	}
	var sum r3.Vec
	for _, b := range s.order {
		sum = r3.Add(sum, b.pos)
	}
	shift := r3.Scale(1/float64(len(s.order)), sum)
	for _, b := range s.order {
		b.pos = r3.Sub(b.pos, shift)
	}
}

// sanitize resets any body whose position or velocity is non-finite.
func (s *Simulation) sanitize() {
	for _, b := range s.order {
		if finite(b.pos) && finite(b.vel) {
			continue
		}
		s.logger.Debug("resetting non-finite body", "node_id", b.id)
		b.pos = r3.Scale(1e-3, s.randomInBall())
		b.vel = r3.Vec{}
	}
}

func (s *Simulation) jiggleIfZero(d r3.Vec) r3.Vec {
	if d.X == 0 {
		d.X = s.jiggle()
	}
	if d.Y == 0 {
		d.Y = s.jiggle()
	}
	if d.Z == 0 && s.cfg.Dimensions == 3 {
		d.Z = s.jiggle()
	}
	return d
}

func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}

func finite(v r3.Vec) bool {
	for _, f := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
