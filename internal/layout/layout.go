// Package layout runs a force-directed simulation over the graph.
//
// The simulation is a stepping function: the caller invokes Tick once per
// frame. Each tick cools alpha toward AlphaTarget and stops doing work once
// alpha falls below AlphaMin, until a restart.
package layout

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/alfredjeanlab/beadgraph/internal/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// Config tunes the simulation. Zero fields take DefaultConfig values.
type Config struct {
	Dimensions     int     `toml:"dimensions"`
	LinkDistance   float64 `toml:"link_distance"`
	ChargeStrength float64 `toml:"charge_strength"`
	AlphaMin       float64 `toml:"alpha_min"`
	AlphaDecay     float64 `toml:"alpha_decay"`
	AlphaTarget    float64 `toml:"alpha_target"`
	VelocityDecay  float64 `toml:"velocity_decay"`
	InitialRadius  float64 `toml:"initial_radius"`
	// Seed fixes initial placement. Zero draws a random seed.
	Seed uint64 `toml:"seed"`
}

// DefaultConfig returns the standard force parameters.
func DefaultConfig() Config {
	alphaMin := 0.001
	return Config{
		Dimensions:     3,
		LinkDistance:   100,
		ChargeStrength: -300,
		AlphaMin:       alphaMin,
		AlphaDecay:     1 - math.Pow(alphaMin, 1.0/300),
		VelocityDecay:  0.4,
		InitialRadius:  100,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Dimensions != 2 && c.Dimensions != 3 {
		c.Dimensions = d.Dimensions
	}
	if c.LinkDistance <= 0 {
		c.LinkDistance = d.LinkDistance
	}
	if c.ChargeStrength == 0 {
		c.ChargeStrength = d.ChargeStrength
	}
	if c.AlphaMin <= 0 {
		c.AlphaMin = d.AlphaMin
	}
	if c.AlphaDecay <= 0 || c.AlphaDecay >= 1 {
		c.AlphaDecay = 1 - math.Pow(c.AlphaMin, 1.0/300)
	}
	if c.VelocityDecay <= 0 || c.VelocityDecay >= 1 {
		c.VelocityDecay = d.VelocityDecay
	}
	if c.InitialRadius <= 0 {
		c.InitialRadius = d.InitialRadius
	}
	if c.AlphaTarget < 0 || c.AlphaTarget >= 1 {
		c.AlphaTarget = 0
	}
	return c
}

// Graph is the read view of the model the simulation needs.
type Graph interface {
	Nodes() []*model.Node
	Links() []model.Link
	Neighbors(id string) []string
}

type body struct {
	id  string
	pos r3.Vec
	vel r3.Vec
}

type spring struct {
	source, target *body
	bias           float64
	strength       float64
}

// Simulation holds per-node positions keyed by id.
type Simulation struct {
	cfg     Config
	bodies  map[string]*body
	order   []*body
	springs []spring
	alpha   float64
	rng     *rand.Rand
	onTick  []func(*Simulation)
	ticks   int
	logger  *slog.Logger
}

// New creates an empty simulation. A nil logger uses slog.Default().
func New(cfg Config, logger *slog.Logger) *Simulation {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Simulation{
		cfg:    cfg,
		bodies: make(map[string]*body),
		alpha:  1,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		logger: logger,
	}
}

// Config returns the effective configuration.
func (s *Simulation) Config() Config { return s.cfg }

// Alpha returns the current cooling factor.
func (s *Simulation) Alpha() float64 { return s.alpha }

// Active reports whether the simulation is still cooling.
func (s *Simulation) Active() bool { return s.alpha >= s.cfg.AlphaMin }

// Ticks returns the number of ticks performed since creation.
func (s *Simulation) Ticks() int { return s.ticks }

// Restart reheats the simulation so topology changes fully re-relax.
func (s *Simulation) Restart() { s.alpha = 1 }

// OnTick registers fn to run after every tick that did work.
func (s *Simulation) OnTick(fn func(*Simulation)) {
	s.onTick = append(s.onTick, fn)
}

// Len returns the number of bodies.
func (s *Simulation) Len() int { return len(s.order) }

// Position returns the current position of id.
func (s *Simulation) Position(id string) (r3.Vec, bool) {
	b, ok := s.bodies[id]
	if !ok {
		return r3.Vec{}, false
	}
	return b.pos, true
}

// Positions returns a copy of every body position.
func (s *Simulation) Positions() map[string]r3.Vec {
	out := make(map[string]r3.Vec, len(s.order))
	for _, b := range s.order {
		out[b.id] = b.pos
	}
	return out
}

// SetPosition pins id to p and clears its velocity. Unknown ids are ignored.
func (s *Simulation) SetPosition(id string, p r3.Vec) {
	if b, ok := s.bodies[id]; ok {
		b.pos = s.flatten(p)
		b.vel = r3.Vec{}
	}
}

// Sync aligns bodies with the graph: new ids are placed, removed ids are
// dropped and springs are rebuilt. Existing bodies keep their positions.
// When restart is true alpha is reset to 1.
func (s *Simulation) Sync(g Graph, restart bool) {
	nodes := g.Nodes()
	live := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		live[n.ID] = struct{}{}
	}
	for id := range s.bodies {
		if _, ok := live[id]; !ok {
			delete(s.bodies, id)
		}
	}

	for _, n := range nodes {
		if _, ok := s.bodies[n.ID]; ok {
			continue
		}
		s.bodies[n.ID] = &body{id: n.ID, pos: s.place(g.Neighbors(n.ID))}
	}

	s.order = s.order[:0]
	for _, n := range nodes {
		s.order = append(s.order, s.bodies[n.ID])
	}
	slices.SortFunc(s.order, func(a, b *body) int {
		return strings.Compare(a.id, b.id)
	})

	s.buildSprings(g.Links())
	if restart {
		s.Restart()
	}
}

// place picks an initial position: near an already placed neighbour when
// there is one, otherwise a random point inside the initial sphere.
func (s *Simulation) place(neighbors []string) r3.Vec {
	for _, id := range neighbors {
		if nb, ok := s.bodies[id]; ok {
			return r3.Add(nb.pos, r3.Scale(s.cfg.LinkDistance/4, s.randomInBall()))
		}
	}
	return r3.Scale(s.cfg.InitialRadius, s.randomInBall())
}

// randomInBall returns a uniform point in the unit ball (or disc in 2D).
func (s *Simulation) randomInBall() r3.Vec {
	for {
		p := s.flatten(r3.Vec{
			X: 2*s.rng.Float64() - 1,
			Y: 2*s.rng.Float64() - 1,
			Z: 2*s.rng.Float64() - 1,
		})
		if n := r3.Norm2(p); n <= 1 && n > 0 {
			return p
		}
	}
}

func (s *Simulation) buildSprings(links []model.Link) {
	count := make(map[string]int)
	for _, l := range links {
		if l.Source == l.Target {
			continue
		}
		count[l.Source]++
		count[l.Target]++
	}
	s.springs = s.springs[:0]
	for _, l := range links {
		src, ok1 := s.bodies[l.Source]
		dst, ok2 := s.bodies[l.Target]
		if !ok1 || !ok2 || src == dst {
			continue
		}
		cs, ct := float64(count[l.Source]), float64(count[l.Target])
		s.springs = append(s.springs, spring{
			source:   src,
			target:   dst,
			bias:     cs / (cs + ct),
			strength: 1 / math.Min(cs, ct),
		})
	}
}

func (s *Simulation) flatten(p r3.Vec) r3.Vec {
	if s.cfg.Dimensions == 2 {
		p.Z = 0
	}
	return p
}
