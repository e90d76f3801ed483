package graph

import (
	"strconv"
	"testing"

	"github.com/alfredjeanlab/beadgraph/internal/model"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var propertyTypes = []model.NodeType{model.TypeEpic, model.TypeFeature, model.TypeTask}

// buildNodes turns generated ints into nodes; duplicates exercise last-write-wins.
func buildNodes(ids []int) []*model.Node {
	nodes := make([]*model.Node, 0, len(ids))
	for i, id := range ids {
		nodes = append(nodes, &model.Node{
			ID:     strconv.Itoa(id),
			Type:   propertyTypes[i%len(propertyTypes)],
			Status: model.StatusTodo,
		})
	}
	return nodes
}

// buildLinks pairs consecutive ints. Endpoints may not exist.
func buildLinks(ends []int) []model.Link {
	var links []model.Link
	for i := 0; i+1 < len(ends); i += 2 {
		links = append(links, model.Link{Source: strconv.Itoa(ends[i]), Target: strconv.Itoa(ends[i+1])})
	}
	return links
}

// hyphenated ids collide under the "source-target" key format.
var hyphenated = []string{"a", "b", "c", "a-b", "b-c", "a-b-c"}

func buildHyphenatedNodes(idx []int) []*model.Node {
	nodes := make([]*model.Node, 0, len(idx))
	for _, i := range idx {
		nodes = append(nodes, &model.Node{ID: hyphenated[i], Type: model.TypeTask, Status: model.StatusTodo})
	}
	return nodes
}

func buildHyphenatedLinks(idx []int) []model.Link {
	var links []model.Link
	for i := 0; i+1 < len(idx); i += 2 {
		links = append(links, model.Link{Source: hyphenated[idx[i]], Target: hyphenated[idx[i+1]]})
	}
	return links
}

// endpointsExist checks that every link and adjacency entry references live nodes.
func endpointsExist(m *Model) bool {
	for k, l := range m.links {
		if !m.Has(l.Source) || !m.Has(l.Target) || l.Key() != k {
			return false
		}
		if _, ok := m.adj[l.Source][k]; !ok {
			return false
		}
		if _, ok := m.adj[l.Target][k]; !ok {
			return false
		}
	}
	for id, set := range m.adj {
		if !m.Has(id) {
			return false
		}
		for k := range set {
			if _, ok := m.links[k]; !ok {
				return false
			}
		}
	}
	return true
}

func TestGraphConsistency(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("link endpoints exist after LoadFull", prop.ForAll(
		func(ids, ends []int) bool {
			m := New(nil)
			m.LoadFull(buildNodes(ids), buildLinks(ends))
			return endpointsExist(m)
		},
		gen.SliceOf(gen.IntRange(0, 9)),
		gen.SliceOf(gen.IntRange(0, 12)),
	))

	properties.Property("link endpoints exist after ApplyDelta", prop.ForAll(
		func(ids, ends, added, removed, addedEnds []int) bool {
			m := New(nil)
			m.LoadFull(buildNodes(ids), buildLinks(ends))
			removedIDs := make([]string, 0, len(removed))
			for _, id := range removed {
				removedIDs = append(removedIDs, strconv.Itoa(id))
			}
			m.ApplyDelta(model.Delta{
				Nodes:        buildNodes(added),
				RemovedNodes: removedIDs,
				Links:        buildLinks(addedEnds),
			})
			return endpointsExist(m)
		},
		gen.SliceOf(gen.IntRange(0, 9)),
		gen.SliceOf(gen.IntRange(0, 12)),
		gen.SliceOf(gen.IntRange(0, 12)),
		gen.SliceOf(gen.IntRange(0, 9)),
		gen.SliceOf(gen.IntRange(0, 12)),
	))

	properties.Property("colliding link keys leave no dangling links", prop.ForAll(
		func(ids, ends, addedEnds, removed []int) bool {
			m := New(nil)
			m.LoadFull(buildHyphenatedNodes(ids), buildHyphenatedLinks(ends))
			if !endpointsExist(m) {
				return false
			}
			m.ApplyDelta(model.Delta{Links: buildHyphenatedLinks(addedEnds)})
			if !endpointsExist(m) {
				return false
			}
			removedIDs := make([]string, 0, len(removed))
			for _, i := range removed {
				removedIDs = append(removedIDs, hyphenated[i])
			}
			m.ApplyDelta(model.Delta{RemovedNodes: removedIDs})
			return endpointsExist(m)
		},
		gen.SliceOf(gen.IntRange(0, len(hyphenated)-1)),
		gen.SliceOf(gen.IntRange(0, len(hyphenated)-1)),
		gen.SliceOf(gen.IntRange(0, len(hyphenated)-1)),
		gen.SliceOf(gen.IntRange(0, len(hyphenated)-1)),
	))

	properties.Property("applying a delta twice is idempotent", prop.ForAll(
		func(ids, ends, added, removed, addedEnds []int) bool {
			m := New(nil)
			m.LoadFull(buildNodes(ids), buildLinks(ends))
			removedIDs := make([]string, 0, len(removed))
			for _, id := range removed {
				removedIDs = append(removedIDs, strconv.Itoa(id))
			}
			d := model.Delta{
				Nodes:        buildNodes(added),
				RemovedNodes: removedIDs,
				Links:        buildLinks(addedEnds),
			}
			m.ApplyDelta(d)
			nodes, links := m.NodeCount(), m.LinkCount()
			second := m.ApplyDelta(d)
			return second.Empty() && m.NodeCount() == nodes && m.LinkCount() == links
		},
		gen.SliceOf(gen.IntRange(0, 9)),
		gen.SliceOf(gen.IntRange(0, 12)),
		gen.SliceOf(gen.IntRange(0, 12)),
		gen.SliceOf(gen.IntRange(0, 9)),
		gen.SliceOf(gen.IntRange(0, 12)),
	))

	properties.TestingRun(t)
}
