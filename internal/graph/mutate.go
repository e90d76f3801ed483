package graph

import (
	"maps"
	"slices"

	"github.com/alfredjeanlab/beadgraph/internal/model"
)

// Change describes the net effect of a mutation on the graph.
// All slices are sorted.
type Change struct {
	Full bool `json:"full"`

	AddedNodes   []string `json:"added_nodes,omitempty"`
	RemovedNodes []string `json:"removed_nodes,omitempty"`
	ChangedNodes []string `json:"changed_nodes,omitempty"`

	AddedLinks   []model.LinkKey `json:"added_links,omitempty"`
	RemovedLinks []model.LinkKey `json:"removed_links,omitempty"`
	ChangedLinks []model.LinkKey `json:"changed_links,omitempty"`
}

// Structural reports whether the topology changed (any node or link added
// or removed). Attribute-only changes are not structural.
func (c Change) Structural() bool {
	return len(c.AddedNodes) > 0 || len(c.RemovedNodes) > 0 ||
		len(c.AddedLinks) > 0 || len(c.RemovedLinks) > 0
}

// Empty reports whether nothing changed.
func (c Change) Empty() bool {
	return !c.Structural() && len(c.ChangedNodes) == 0 && len(c.ChangedLinks) == 0
}

// LoadFull replaces the whole graph. The replacement is built off to the side
// and swapped in, so the previous state stays intact until it is complete.
// Nodes with an empty id and links with a missing endpoint are dropped.
// Duplicate ids and keys are last-write-wins. A key that now names a link
// with different endpoints is reported as removed and added. Nodes equal to their previous
// version keep their previous pointer.
func (m *Model) LoadFull(nodes []*model.Node, links []model.Link) Change {
	next := &Model{
		nodes:  make(map[string]*model.Node, len(nodes)),
		links:  make(map[model.LinkKey]model.Link, len(links)),
		adj:    make(map[string]map[model.LinkKey]struct{}),
		logger: m.logger,
	}
	for _, n := range nodes {
		if n == nil || n.ID == "" {
			m.logger.Debug("dropping node without id")
			continue
		}
		if prev, ok := m.nodes[n.ID]; ok && prev.Equal(n) {
			next.nodes[n.ID] = prev
			continue
		}
		next.nodes[n.ID] = n
	}
	for _, l := range links {
		if !next.Has(l.Source) || !next.Has(l.Target) {
			m.logger.Debug("dropping dangling link", "source", l.Source, "target", l.Target)
			continue
		}
		next.addLink(l)
	}

	c := Change{Full: true}
	for id, n := range next.nodes {
		prev, ok := m.nodes[id]
		switch {
		case !ok:
			c.AddedNodes = append(c.AddedNodes, id)
		case prev != n:
			c.ChangedNodes = append(c.ChangedNodes, id)
		}
	}
	for id := range m.nodes {
		if !next.Has(id) {
			c.RemovedNodes = append(c.RemovedNodes, id)
		}
	}
	for k, l := range next.links {
		prev, ok := m.links[k]
		switch {
		case !ok:
			c.AddedLinks = append(c.AddedLinks, k)
		case !sameEndpoints(prev, l):
			c.RemovedLinks = append(c.RemovedLinks, k)
			c.AddedLinks = append(c.AddedLinks, k)
		case prev != l:
			c.ChangedLinks = append(c.ChangedLinks, k)
		}
	}
	for k := range m.links {
		if _, ok := next.links[k]; !ok {
			c.RemovedLinks = append(c.RemovedLinks, k)
		}
	}

	m.nodes, m.links, m.adj = next.nodes, next.links, next.adj
	c.sort()
	return c
}

// ApplyDelta patches the graph incrementally. Removals run first (links, then
// nodes with their incident links), then node upserts, then link upserts.
// An id or key that is both removed and upserted by the same delta is
// treated as an upsert, and identical upserts are no-ops, so applying the
// same delta twice leaves the graph unchanged the second time.
func (m *Model) ApplyDelta(d model.Delta) Change {
	upsertNodes := make(map[string]*model.Node, len(d.Nodes))
	for _, n := range d.Nodes {
		if n == nil || n.ID == "" {
			m.logger.Debug("dropping node without id")
			continue
		}
		upsertNodes[n.ID] = n
	}
	upsertLinks := make(map[model.LinkKey]model.Link, len(d.Links))
	for _, l := range d.Links {
		upsertLinks[l.Key()] = l
	}

	var c Change
	removedLinks := make(map[model.LinkKey]struct{})

	for _, k := range d.RemovedLinks {
		if _, ok := upsertLinks[k]; ok {
			continue
		}
		if _, ok := m.removeLink(k); ok {
			removedLinks[k] = struct{}{}
		}
	}
	for _, id := range d.RemovedNodes {
		if _, ok := upsertNodes[id]; ok {
			continue
		}
		if _, ok := m.nodes[id]; !ok {
			continue
		}
		for k := range m.adj[id] {
			if _, ok := m.removeLink(k); ok {
				removedLinks[k] = struct{}{}
			}
		}
		delete(m.nodes, id)
		c.RemovedNodes = append(c.RemovedNodes, id)
	}

	for id, n := range upsertNodes {
		prev, ok := m.nodes[id]
		switch {
		case !ok:
			m.nodes[id] = n
			c.AddedNodes = append(c.AddedNodes, id)
		case !prev.Equal(n):
			m.nodes[id] = n
			c.ChangedNodes = append(c.ChangedNodes, id)
		}
	}

	for k, l := range upsertLinks {
		if !m.Has(l.Source) || !m.Has(l.Target) {
			m.logger.Debug("dropping dangling link", "source", l.Source, "target", l.Target)
			continue
		}
		prev, ok := m.links[k]
		switch {
		case !ok:
			m.addLink(l)
			c.AddedLinks = append(c.AddedLinks, k)
		case !sameEndpoints(prev, l):
			// Same key, different endpoints: the old link goes away.
			m.addLink(l)
			removedLinks[k] = struct{}{}
			c.AddedLinks = append(c.AddedLinks, k)
		case prev != l:
			m.links[k] = l
			c.ChangedLinks = append(c.ChangedLinks, k)
		}
	}

	c.RemovedLinks = slices.Collect(maps.Keys(removedLinks))
	c.sort()
	return c
}

func (c *Change) sort() {
	slices.Sort(c.AddedNodes)
	slices.Sort(c.RemovedNodes)
	slices.Sort(c.ChangedNodes)
	slices.Sort(c.AddedLinks)
	slices.Sort(c.RemovedLinks)
	slices.Sort(c.ChangedLinks)
}
