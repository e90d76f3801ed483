package graph

import (
	"maps"
	"slices"
	"strings"

	"github.com/alfredjeanlab/beadgraph/internal/model"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Components returns the connected components of the graph. Each component
// is sorted by id, and components are ordered by their first id.
func (m *Model) Components() [][]string {
	if len(m.nodes) == 0 {
		return nil
	}
	ids := slices.Sorted(maps.Keys(m.nodes))
	index := make(map[string]int64, len(ids))
	g := simple.NewUndirectedGraph()
	for i, id := range ids {
		index[id] = int64(i)
		g.AddNode(simple.Node(int64(i)))
	}
	for _, l := range m.links {
		from, to := index[l.Source], index[l.Target]
		if from == to {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}

	var out [][]string
	for _, cc := range topo.ConnectedComponents(g) {
		comp := make([]string, 0, len(cc))
		for _, n := range cc {
			comp = append(comp, ids[n.ID()])
		}
		slices.Sort(comp)
		out = append(out, comp)
	}
	slices.SortFunc(out, func(a, b []string) int {
		return strings.Compare(a[0], b[0])
	})
	return out
}

// Stats returns aggregate counts for the graph.
func (m *Model) Stats() model.Stats {
	s := model.Stats{
		Nodes:      len(m.nodes),
		Links:      len(m.links),
		Components: len(m.Components()),
		ByType:     make(map[model.NodeType]int),
		ByStatus:   make(map[model.Status]int),
	}
	for _, n := range m.nodes {
		s.ByType[n.Type]++
		if n.Status != "" {
			s.ByStatus[n.Status]++
		}
	}
	return s
}
