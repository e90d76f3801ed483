// Package interaction is the hover/selection/filter state machine.
//
// The state is a closed set of four variants, so impossible combinations
// (a hover overlay on the selected node, two selections) cannot be
// represented. Every transition bumps a revision; the engine re-derives the
// scene from View() whenever the revision moves.
package interaction

import (
	"strings"

	"github.com/alfredjeanlab/beadgraph/internal/model"
)

// State is one of Idle, Hovering, Selected or SelectedAndHovering.
type State interface {
	selected() string
	hovered() string
}

// Idle has no hover and no selection.
type Idle struct{}

// Hovering shows a hover overlay on ID.
type Hovering struct{ ID string }

// Selected has ID selected and no separate hover.
type Selected struct{ ID string }

// SelectedAndHovering keeps a selection while another node is hovered.
type SelectedAndHovering struct {
	Selected string
	Hovered  string
}

func (Idle) selected() string { return "" }
func (Idle) hovered() string { return "" }
func (s Hovering) selected() string { return "" }
func (s Hovering) hovered() string { return s.ID }
func (s Selected) selected() string { return s.ID }
func (s Selected) hovered() string { return "" }
func (s SelectedAndHovering) selected() string { return s.Selected }
func (s SelectedAndHovering) hovered() string { return s.Hovered }

// stateOf builds the canonical variant for a selection/hover pair.
func stateOf(sel, hov string) State {
	if hov == sel {
		hov = ""
	}
	switch {
	case sel == "" && hov == "":
		return Idle{}
	case sel == "":
		return Hovering{ID: hov}
	case hov == "":
		return Selected{ID: sel}
	}
	return SelectedAndHovering{Selected: sel, Hovered: hov}
}

// EventKind identifies an outward notification.
type EventKind int

const (
	NodeSelected EventKind = iota + 1
	FilterChanged
	SearchChanged
)

// String returns the event name.
func (k EventKind) String() string {
	switch k {
	case NodeSelected:
		return "nodeSelected"
	case FilterChanged:
		return "filterChanged"
	case SearchChanged:
		return "searchQueryChanged"
	}
	return "unknown"
}

// Event is emitted to collaborators. Node is nil for "no node selected".
type Event struct {
	Kind   EventKind
	Node   *model.Node
	Filter model.Filter
	Query  string
}

// Lookup resolves ids to nodes for nodeSelected payloads.
type Lookup interface {
	Node(id string) (*model.Node, bool)
}

// Machine holds interaction state. It is not safe for concurrent use.
type Machine struct {
	state     State
	candidate string
	filter    model.Filter
	query     string
	revision  uint64

	nodes     Lookup
	listeners []func(Event)
}

// NewMachine returns an Idle machine with filter "all".
func NewMachine(nodes Lookup) *Machine {
	return &Machine{state: Idle{}, filter: model.FilterAll, nodes: nodes}
}

// OnEvent registers fn to receive every emitted event.
func (m *Machine) OnEvent(fn func(Event)) {
	m.listeners = append(m.listeners, fn)
}

// State returns the current variant.
func (m *Machine) State() State { return m.state }

// Revision increases on every transition.
func (m *Machine) Revision() uint64 { return m.revision }

// Candidate returns the last hover candidate reported by picking.
func (m *Machine) Candidate() string { return m.candidate }

// View returns the snapshot consumed by scene derivation.
func (m *Machine) View() model.View {
	return model.View{
		Selected: m.state.selected(),
		Hovered:  m.state.hovered(),
		Filter:   m.filter,
		Query:    m.query,
	}
}

// Hover records the pick candidate for the current pointer position.
// An empty id clears the hover. Hovering the selected node keeps plain
// Selected. The selection is never changed.
func (m *Machine) Hover(id string) {
	m.candidate = id
	m.transition(stateOf(m.state.selected(), id))
}

// Click selects the hover candidate and emits nodeSelected with it. With no
// candidate the selection is cleared and nodeSelected(nil) is emitted.
func (m *Machine) Click() {
	if m.candidate == "" {
		m.transition(stateOf("", ""))
		m.emit(Event{Kind: NodeSelected})
		return
	}
	n, ok := m.nodes.Node(m.candidate)
	if !ok {
		m.candidate = ""
		m.transition(stateOf("", ""))
		m.emit(Event{Kind: NodeSelected})
		return
	}
	m.transition(stateOf(m.candidate, m.candidate))
	m.emit(Event{Kind: NodeSelected, Node: n})
}

// Deselect clears the selection and keeps any hover. It emits
// nodeSelected(nil) only if something was selected.
func (m *Machine) Deselect() {
	if m.state.selected() == "" {
		return
	}
	m.transition(stateOf("", m.candidate))
	m.emit(Event{Kind: NodeSelected})
}

// SetFilter changes the type filter. Hover and selection are unchanged.
func (m *Machine) SetFilter(f model.Filter) {
	if f == "" {
		f = model.FilterAll
	}
	m.filter = f
	m.revision++
	m.emit(Event{Kind: FilterChanged, Filter: f})
}

// SetSearch changes the search query, stored lowercase.
func (m *Machine) SetSearch(q string) {
	m.query = strings.ToLower(strings.TrimSpace(q))
	m.revision++
	m.emit(Event{Kind: SearchChanged, Query: m.query})
}

// Prune drops ids that no longer exist. A dangling selection is cleared and
// nodeSelected(nil) is emitted once; a dangling hover is cleared silently.
func (m *Machine) Prune(exists func(id string) bool) {
	sel, hov := m.state.selected(), m.state.hovered()
	if m.candidate != "" && !exists(m.candidate) {
		m.candidate = ""
	}
	if hov != "" && !exists(hov) {
		hov = ""
	}
	lostSelection := sel != "" && !exists(sel)
	if lostSelection {
		sel = ""
	}
	m.transition(stateOf(sel, hov))
	if lostSelection {
		m.emit(Event{Kind: NodeSelected})
	}
}

func (m *Machine) transition(next State) {
	if next == m.state {
		return
	}
	m.state = next
	m.revision++
}

func (m *Machine) emit(e Event) {
	for _, fn := range m.listeners {
		fn(e)
	}
}
