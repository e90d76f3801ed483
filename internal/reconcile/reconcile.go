// Package reconcile applies push-delivered updates to the graph.
package reconcile

import (
	"log/slog"

	"github.com/alfredjeanlab/beadgraph/internal/graph"
	"github.com/alfredjeanlab/beadgraph/internal/model"
)

// Graph is the mutation surface of the graph model.
type Graph interface {
	LoadFull(nodes []*model.Node, links []model.Link) graph.Change
	ApplyDelta(d model.Delta) graph.Change
	Has(id string) bool
}

// Selection is pruned after every update so it never references a missing id.
type Selection interface {
	Prune(exists func(id string) bool)
}

// Result reports what an update did.
type Result struct {
	Change graph.Change
	// Restart is true when the layout must re-relax.
	Restart bool
	// Ignored is true for heartbeats and unknown message types.
	Ignored bool
}

// Reconciler turns push messages into graph mutations.
type Reconciler struct {
	graph     Graph
	selection Selection
	applied   []func(Result)
	logger    *slog.Logger
}

// New creates a Reconciler. A nil logger uses slog.Default().
func New(g Graph, sel Selection, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{graph: g, selection: sel, logger: logger}
}

// OnApplied registers fn to run after each update is applied, before the
// next frame reads the graph.
func (r *Reconciler) OnApplied(fn func(Result)) {
	r.applied = append(r.applied, fn)
}

// Handle decodes and applies one raw push message. Heartbeats and unknown
// types are ignored. Malformed input returns an error wrapping ErrMalformed
// and leaves the graph untouched.
func (r *Reconciler) Handle(data []byte) (Result, error) {
	msg, err := Decode(data)
	if err != nil {
		return Result{}, err
	}
	switch msg.Type {
	case TypePing, TypePong:
		return Result{Ignored: true}, nil
	case TypeUpdate:
		p, err := msg.DecodePayload()
		if err != nil {
			return Result{}, err
		}
		return r.Apply(p), nil
	default:
		r.logger.Warn("ignoring unknown message type", "type", msg.Type)
		return Result{Ignored: true}, nil
	}
}

// Apply applies a decoded payload. A full snapshot replaces the graph and
// always restarts layout; a delta restarts it only on structural change.
// A full snapshot without links derives them from each node's link list.
func (r *Reconciler) Apply(p Payload) Result {
	var res Result
	if p.Full {
		links := p.Links
		if links == nil {
			links = model.LinksFromNodes(p.Nodes)
		}
		res.Change = r.graph.LoadFull(p.Nodes, links)
		res.Restart = true
	} else {
		res.Change = r.graph.ApplyDelta(p.Delta())
		res.Restart = res.Change.Structural()
	}

	if r.selection != nil {
		r.selection.Prune(r.graph.Has)
	}
	r.logger.Debug("update applied",
		"full", p.Full,
		"added_nodes", len(res.Change.AddedNodes),
		"removed_nodes", len(res.Change.RemovedNodes),
		"changed_nodes", len(res.Change.ChangedNodes),
		"restart", res.Restart,
	)
	for _, fn := range r.applied {
		fn(res)
	}
	return res
}
