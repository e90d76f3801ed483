// Package scene keeps one renderable primitive per live node and link.
//
// The Arena is keyed by id. Model changes create and dispose primitives in
// O(changed); layout ticks update transforms; interaction changes re-derive
// every material and visibility flag from the current View.
package scene

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/alfredjeanlab/beadgraph/internal/graph"
	"github.com/alfredjeanlab/beadgraph/internal/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// NodePrimitive is the renderable for one node.
type NodePrimitive struct {
	ID       string
	Type     model.NodeType
	Geometry Geometry
	Scale    float64
	Position r3.Vec
	Visible  bool
	Overlay  model.Overlay
	Material Material
}

// LinkPrimitive is the renderable line for one link.
type LinkPrimitive struct {
	Key         model.LinkKey
	Source      string
	Target      string
	From, To    r3.Vec
	Visible     bool
	Highlighted bool
	Material    Material
}

// Lookup is the read view of the graph the arena needs.
type Lookup interface {
	Node(id string) (*model.Node, bool)
	Link(key model.LinkKey) (model.Link, bool)
	IncidentLinks(id string) []model.LinkKey
}

// Positions resolves a node id to its current layout position.
type Positions interface {
	Position(id string) (r3.Vec, bool)
}

// Arena owns the primitive set.
type Arena struct {
	nodes map[string]*NodePrimitive
	links map[model.LinkKey]*LinkPrimitive
	// incident maps a node id to the link primitives attached to it.
	incident map[string]map[model.LinkKey]struct{}

	view    model.View
	backend Backend
	logger  *slog.Logger
}

// NewArena creates an empty arena. A nil backend uses NoopBackend and a nil
// logger uses slog.Default().
func NewArena(backend Backend, logger *slog.Logger) *Arena {
	if backend == nil {
		backend = NoopBackend{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Arena{
		nodes:    make(map[string]*NodePrimitive),
		links:    make(map[model.LinkKey]*LinkPrimitive),
		incident: make(map[string]map[model.LinkKey]struct{}),
		view:     model.View{Filter: model.FilterAll},
		backend:  backend,
		logger:   logger,
	}
}

// Node returns the primitive for id.
func (a *Arena) Node(id string) (*NodePrimitive, bool) {
	p, ok := a.nodes[id]
	return p, ok
}

// Link returns the primitive for key.
func (a *Arena) Link(key model.LinkKey) (*LinkPrimitive, bool) {
	p, ok := a.links[key]
	return p, ok
}

// NodeCount returns the number of node primitives.
func (a *Arena) NodeCount() int { return len(a.nodes) }

// LinkCount returns the number of link primitives.
func (a *Arena) LinkCount() int { return len(a.links) }

// View returns the view the arena was last derived from.
func (a *Arena) View() model.View { return a.view }

// Nodes returns node primitives ordered by id.
func (a *Arena) Nodes() []*NodePrimitive {
	out := make([]*NodePrimitive, 0, len(a.nodes))
	for _, id := range slices.Sorted(maps.Keys(a.nodes)) {
		out = append(out, a.nodes[id])
	}
	return out
}

// Links returns link primitives ordered by key.
func (a *Arena) Links() []*LinkPrimitive {
	out := make([]*LinkPrimitive, 0, len(a.links))
	for _, k := range slices.Sorted(maps.Keys(a.links)) {
		out = append(out, a.links[k])
	}
	return out
}

// Apply brings the primitive set in line with a model change. Work is
// proportional to the size of the change.
func (a *Arena) Apply(c graph.Change, g Lookup) {
	for _, k := range c.RemovedLinks {
		a.disposeLink(k)
	}
	for _, id := range c.RemovedNodes {
		// No link primitive may outlive its endpoint.
		for k := range a.incident[id] {
			a.disposeLink(k)
		}
		a.disposeNode(id)
	}

	for _, id := range c.AddedNodes {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		p := &NodePrimitive{ID: id}
		a.nodes[id] = p
		a.deriveNode(p, n)
		a.backend.CreateNode(p)
	}

	touched := make(map[model.LinkKey]struct{})
	for _, id := range c.ChangedNodes {
		p, ok := a.nodes[id]
		n, found := g.Node(id)
		if !ok || !found {
			continue
		}
		a.deriveNode(p, n)
		a.backend.UpdateNode(p)
		for _, k := range g.IncidentLinks(id) {
			touched[k] = struct{}{}
		}
	}

	for _, k := range c.AddedLinks {
		l, ok := g.Link(k)
		if !ok {
			continue
		}
		if _, ok := a.nodes[l.Source]; !ok {
			a.logger.Debug("skipping link with missing endpoint primitive", "link", k)
			continue
		}
		if _, ok := a.nodes[l.Target]; !ok {
			a.logger.Debug("skipping link with missing endpoint primitive", "link", k)
			continue
		}
		p := &LinkPrimitive{Key: k, Source: l.Source, Target: l.Target}
		a.links[k] = p
		a.attach(p)
		a.deriveLink(p)
		a.backend.CreateLink(p)
		delete(touched, k)
	}

	for _, k := range c.ChangedLinks {
		touched[k] = struct{}{}
	}
	for k := range touched {
		if p, ok := a.links[k]; ok {
			a.deriveLink(p)
			a.backend.UpdateLink(p)
		}
	}
}

// UpdateTransforms copies layout positions onto every primitive.
func (a *Arena) UpdateTransforms(pos Positions) {
	for id, p := range a.nodes {
		if v, ok := pos.Position(id); ok {
			p.Position = v
			a.backend.UpdateNode(p)
		}
	}
	for _, p := range a.links {
		p.From = a.nodes[p.Source].Position
		p.To = a.nodes[p.Target].Position
		a.backend.UpdateLink(p)
	}
}

// ApplyView re-derives every material, visibility flag and link highlight
// from v. Nothing from the previous view carries over.
func (a *Arena) ApplyView(v model.View, g Lookup) {
	a.view = v
	for id, p := range a.nodes {
		n, ok := g.Node(id)
		if !ok {
			a.logger.Warn("primitive without model node", "node_id", id)
			continue
		}
		a.deriveNode(p, n)
		a.backend.UpdateNode(p)
	}
	for _, p := range a.links {
		a.deriveLink(p)
		a.backend.UpdateLink(p)
	}
}

// Clear disposes every primitive.
func (a *Arena) Clear() {
	for k := range a.links {
		a.disposeLink(k)
	}
	for id := range a.nodes {
		a.disposeNode(id)
	}
}

func (a *Arena) deriveNode(p *NodePrimitive, n *model.Node) {
	p.Type = n.Type
	p.Geometry, p.Scale = GeometryFor(n.Type)
	p.Visible = a.view.NodeVisible(n)
	p.Overlay = a.view.OverlayFor(n.ID)
	p.Material = Appearance(n.Type, p.Overlay)
}

// deriveLink requires both endpoint primitives to exist.
func (a *Arena) deriveLink(p *LinkPrimitive) {
	src, dst := a.nodes[p.Source], a.nodes[p.Target]
	p.From, p.To = src.Position, dst.Position
	p.Visible = src.Visible && dst.Visible
	focus := a.view.Focus()
	p.Highlighted = focus != "" && (p.Source == focus || p.Target == focus)
	p.Material = LinkAppearance(p.Highlighted)
}

func (a *Arena) disposeNode(id string) {
	if _, ok := a.nodes[id]; !ok {
		return
	}
	delete(a.nodes, id)
	a.backend.DisposeNode(id)
}

func (a *Arena) disposeLink(k model.LinkKey) {
	p, ok := a.links[k]
	if !ok {
		return
	}
	delete(a.links, k)
	for _, id := range []string{p.Source, p.Target} {
		if set, ok := a.incident[id]; ok {
			delete(set, k)
			if len(set) == 0 {
				delete(a.incident, id)
			}
		}
	}
	a.backend.DisposeLink(k)
}

func (a *Arena) attach(p *LinkPrimitive) {
	for _, id := range []string{p.Source, p.Target} {
		set, ok := a.incident[id]
		if !ok {
			set = make(map[model.LinkKey]struct{})
			a.incident[id] = set
		}
		set[p.Key] = struct{}{}
	}
}
