package scene

import "github.com/alfredjeanlab/beadgraph/internal/model"

// Backend receives primitive lifecycle calls so a renderer can allocate and
// release its own resources. Calls arrive on the engine goroutine.
type Backend interface {
	CreateNode(p *NodePrimitive)
	UpdateNode(p *NodePrimitive)
	DisposeNode(id string)
	CreateLink(p *LinkPrimitive)
	UpdateLink(p *LinkPrimitive)
	DisposeLink(key model.LinkKey)
}

// NoopBackend is a Backend that does nothing (used when no renderer is attached).
type NoopBackend struct{}

func (NoopBackend) CreateNode(*NodePrimitive) {}
func (NoopBackend) UpdateNode(*NodePrimitive) {}
func (NoopBackend) DisposeNode(string) {}
func (NoopBackend) CreateLink(*LinkPrimitive) {}
func (NoopBackend) UpdateLink(*LinkPrimitive) {}
func (NoopBackend) DisposeLink(model.LinkKey) {}
