// Package graph holds the canonical in-memory node/link state.
//
// A Model is owned by a single goroutine (the engine loop). Every mutation
// builds its result before swapping it in, so a reader on that goroutine
// never observes a partially applied graph.
package graph

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/alfredjeanlab/beadgraph/internal/model"
)

// Model is the id-indexed node/link store.
type Model struct {
	nodes map[string]*model.Node
	links map[model.LinkKey]model.Link
	// adj maps a node id to the keys of every link incident to it.
	adj map[string]map[model.LinkKey]struct{}

	logger *slog.Logger
}

// New returns an empty Model. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{
		nodes:  make(map[string]*model.Node),
		links:  make(map[model.LinkKey]model.Link),
		adj:    make(map[string]map[model.LinkKey]struct{}),
		logger: logger,
	}
}

// Node returns the node with the given id.
func (m *Model) Node(id string) (*model.Node, bool) {
	n, ok := m.nodes[id]
	return n, ok
}

// Has reports whether a node with the given id exists.
func (m *Model) Has(id string) bool {
	_, ok := m.nodes[id]
	return ok
}

// Link returns the link with the given key.
func (m *Model) Link(key model.LinkKey) (model.Link, bool) {
	l, ok := m.links[key]
	return l, ok
}

// NodeCount returns the number of nodes.
func (m *Model) NodeCount() int { return len(m.nodes) }

// LinkCount returns the number of links.
func (m *Model) LinkCount() int { return len(m.links) }

// Nodes returns all nodes ordered by id.
func (m *Model) Nodes() []*model.Node {
	out := make([]*model.Node, 0, len(m.nodes))
	for _, id := range slices.Sorted(maps.Keys(m.nodes)) {
		out = append(out, m.nodes[id])
	}
	return out
}

// Links returns all links ordered by key.
func (m *Model) Links() []model.Link {
	out := make([]model.Link, 0, len(m.links))
	for _, k := range slices.Sorted(maps.Keys(m.links)) {
		out = append(out, m.links[k])
	}
	return out
}

// IncidentLinks returns the keys of the links touching id, ordered by key.
func (m *Model) IncidentLinks(id string) []model.LinkKey {
	return slices.Sorted(maps.Keys(m.adj[id]))
}

// Neighbors returns the ids adjacent to id, ordered and without duplicates.
func (m *Model) Neighbors(id string) []string {
	seen := make(map[string]struct{}, len(m.adj[id]))
	for k := range m.adj[id] {
		l := m.links[k]
		other := l.Target
		if other == id {
			other = l.Source
		}
		if other != id {
			seen[other] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

// Degree returns the number of links incident to id.
func (m *Model) Degree(id string) int {
	return len(m.adj[id])
}

// Dataset returns a snapshot of the graph in feed form.
func (m *Model) Dataset() model.Dataset {
	return model.Dataset{Nodes: m.Nodes(), Links: m.Links()}
}

// addLink stores l under its key. A different link already holding the key
// (ids containing "-" can collide) is evicted first so adj never keeps its
// endpoints.
func (m *Model) addLink(l model.Link) {
	k := l.Key()
	if prev, ok := m.links[k]; ok && !sameEndpoints(prev, l) {
		m.removeLink(k)
	}
	m.links[k] = l
	for _, id := range []string{l.Source, l.Target} {
		set, ok := m.adj[id]
		if !ok {
			set = make(map[model.LinkKey]struct{})
			m.adj[id] = set
		}
		set[k] = struct{}{}
	}
}

func (m *Model) removeLink(k model.LinkKey) (model.Link, bool) {
	l, ok := m.links[k]
	if !ok {
		return model.Link{}, false
	}
	delete(m.links, k)
	for _, id := range []string{l.Source, l.Target} {
		if set, ok := m.adj[id]; ok {
			delete(set, k)
			if len(set) == 0 {
				delete(m.adj, id)
			}
		}
	}
	return l, true
}

func sameEndpoints(a, b model.Link) bool {
	return a.Source == b.Source && a.Target == b.Target
}
