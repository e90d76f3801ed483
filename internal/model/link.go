package model

import "fmt"

// RelationKind categorizes the relationship between two nodes.
// Well-known constants are provided below, but kinds are extensible.
type RelationKind string

const (
	RelParentChild RelationKind = "parent-child"
	RelBlocks      RelationKind = "blocks"
	RelRelated     RelationKind = "related"
)

// LinkKey identifies a link by its ordered endpoint pair.
type LinkKey string

// KeyOf returns the identity key "source-target" for a link.
func KeyOf(source, target string) LinkKey {
	return LinkKey(source + "-" + target)
}

// Link connects two nodes. Direction is visual only.
type Link struct {
	Source string       `json:"source"`
	Target string       `json:"target"`
	Kind   RelationKind `json:"type,omitempty"`
}

// Key returns the link's identity key.
func (l Link) Key() LinkKey {
	return KeyOf(l.Source, l.Target)
}

// Touches reports whether id is one of the link's endpoints.
func (l Link) Touches(id string) bool {
	return id != "" && (l.Source == id || l.Target == id)
}

// String returns a human-readable form of the link.
func (l Link) String() string {
	if l.Kind == "" {
		return fmt.Sprintf("%s -> %s", l.Source, l.Target)
	}
	return fmt.Sprintf("%s -[%s]-> %s", l.Source, l.Kind, l.Target)
}

// LinksFromNodes derives links from each node's relationship list. It is
// used when a feed carries only nodes (e.g. a watched dataset file without
// a "links" array).
func LinksFromNodes(nodes []*Node) []Link {
	var links []Link
	for _, n := range nodes {
		if n == nil {
			continue
		}
		for _, rel := range n.Links {
			links = append(links, Link{Source: n.ID, Target: rel.Target, Kind: rel.Kind})
		}
	}
	return links
}
