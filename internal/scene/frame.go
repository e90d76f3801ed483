package scene

import (
	"github.com/alfredjeanlab/beadgraph/internal/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a position encoded as [x, y, z].
type Point [3]float64

func pointOf(v r3.Vec) Point { return Point{v.X, v.Y, v.Z} }

// NodeFrame is the wire form of a node primitive.
type NodeFrame struct {
	ID       string         `json:"id"`
	Type     model.NodeType `json:"type"`
	Geometry Geometry       `json:"geometry"`
	Scale    float64        `json:"scale"`
	Position Point          `json:"position"`
	Visible  bool           `json:"visible"`
	Overlay  string         `json:"overlay"`
	Material Material       `json:"material"`
}

// LinkFrame is the wire form of a link primitive.
type LinkFrame struct {
	Key         model.LinkKey `json:"key"`
	Source      string        `json:"source"`
	Target      string        `json:"target"`
	From        Point         `json:"from"`
	To          Point         `json:"to"`
	Visible     bool          `json:"visible"`
	Highlighted bool          `json:"highlighted"`
	Material    Material      `json:"material"`
}

// Frame is a complete, JSON-serializable scene snapshot for thin renderers.
type Frame struct {
	View  model.View  `json:"view"`
	Nodes []NodeFrame `json:"nodes"`
	Links []LinkFrame `json:"links"`
}

// Snapshot copies the arena into a Frame ordered by id and key.
func (a *Arena) Snapshot() Frame {
	f := Frame{
		View:  a.view,
		Nodes: make([]NodeFrame, 0, len(a.nodes)),
		Links: make([]LinkFrame, 0, len(a.links)),
	}
	for _, p := range a.Nodes() {
		f.Nodes = append(f.Nodes, NodeFrame{
			ID:       p.ID,
			Type:     p.Type,
			Geometry: p.Geometry,
			Scale:    p.Scale,
			Position: pointOf(p.Position),
			Visible:  p.Visible,
			Overlay:  p.Overlay.String(),
			Material: p.Material,
		})
	}
	for _, p := range a.Links() {
		f.Links = append(f.Links, LinkFrame{
			Key:         p.Key,
			Source:      p.Source,
			Target:      p.Target,
			From:        pointOf(p.From),
			To:          pointOf(p.To),
			Visible:     p.Visible,
			Highlighted: p.Highlighted,
			Material:    p.Material,
		})
	}
	return f
}
