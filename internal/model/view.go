package model

import "strings"

// Filter restricts visible nodes to one type. FilterAll shows everything.
type Filter string

// FilterAll is the filter that matches every node type.
const FilterAll Filter = "all"

// ParseFilter normalizes user input into a Filter. Empty input means all.
func ParseFilter(s string) Filter {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FilterAll
	}
	return Filter(s)
}

// Matches reports whether a node of type t passes the filter.
func (f Filter) Matches(t NodeType) bool {
	return f == FilterAll || f == "" || NodeType(f) == t
}

// Overlay is the interaction emphasis applied to a node.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayHovered
	OverlaySelected
)

// String returns the overlay name.
func (o Overlay) String() string {
	switch o {
	case OverlayHovered:
		return "hovered"
	case OverlaySelected:
		return "selected"
	}
	return "default"
}

// View is a read-only snapshot of interaction state.
type View struct {
	Selected string `json:"selected,omitempty"`
	Hovered  string `json:"hovered,omitempty"`
	Filter   Filter `json:"filter"`
	Query    string `json:"query,omitempty"`
}

// NodeVisible reports whether n passes both the type filter and the search query.
func (v View) NodeVisible(n *Node) bool {
	return n != nil && v.Filter.Matches(n.Type) && n.Matches(v.Query)
}

// OverlayFor returns the emphasis for id. Selection wins over hover.
func (v View) OverlayFor(id string) Overlay {
	switch {
	case id != "" && id == v.Selected:
		return OverlaySelected
	case id != "" && id == v.Hovered:
		return OverlayHovered
	}
	return OverlayNone
}

// Focus is the id whose links are highlighted: the selection, else the hover.
func (v View) Focus() string {
	if v.Selected != "" {
		return v.Selected
	}
	return v.Hovered
}
