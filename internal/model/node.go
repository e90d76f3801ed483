package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// NodeType categorizes a work item.
// Well-known constants are provided below. Unknown types from a feed are
// kept verbatim and rendered with the fallback appearance.
type NodeType string

const (
	TypeEpic    NodeType = "epic"
	TypeFeature NodeType = "feature"
	TypeTask    NodeType = "task"
)

// String returns the string representation of the node type.
func (t NodeType) String() string {
	return string(t)
}

// IsValid reports whether the node type is one of the well-known types.
func (t NodeType) IsValid() bool {
	switch t {
	case TypeEpic, TypeFeature, TypeTask:
		return true
	}
	return false
}

// Status represents the current state of a work item.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
)

// statusAliases maps the older feed vocabularies onto the canonical set.
var statusAliases = map[string]Status{
	"active":      StatusInProgress,
	"in-progress": StatusInProgress,
	"planned":     StatusTodo,
	"open":        StatusTodo,
	"completed":   StatusDone,
	"closed":      StatusDone,
	"deprecated":  StatusBlocked,
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid checks whether the status is a canonical value.
func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone, StatusBlocked:
		return true
	}
	return false
}

// NormalizeStatus maps a feed status onto the canonical vocabulary.
// Unrecognized values are returned unchanged.
func NormalizeStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	if Status(s).IsValid() {
		return Status(s)
	}
	if alias, ok := statusAliases[s]; ok {
		return alias
	}
	return Status(raw)
}

// Relationship is one entry of a node's ordered link list.
type Relationship struct {
	Target string       `json:"target"`
	Kind   RelationKind `json:"kind,omitempty"`
}

// Node is a single work item in the graph.
// Layout position is never part of a Node; it is derived by the layout engine.
type Node struct {
	ID       string         `json:"id"`
	Type     NodeType       `json:"type"`
	Status   Status         `json:"status,omitempty"`
	Title    string         `json:"title,omitempty"`
	Content  string         `json:"content,omitempty"`
	Version  string         `json:"version,omitempty"`
	Modified time.Time      `json:"modified,omitzero"`
	Links    []Relationship `json:"links,omitempty"`
}

// nodeWire accepts both feed shapes: "content" or "description", and links
// given either as bare ids or as {target, kind} objects.
type nodeWire struct {
	ID          string            `json:"id"`
	Type        NodeType          `json:"type"`
	Status      string            `json:"status"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Description string            `json:"description"`
	Version     string            `json:"version"`
	Modified    time.Time         `json:"modified"`
	Links       []json.RawMessage `json:"links"`
}

// UnmarshalJSON decodes a node from either feed vocabulary.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	content := w.Content
	if content == "" {
		content = w.Description
	}
	var links []Relationship
	for i, raw := range w.Links {
		rel, err := decodeRelationship(raw)
		if err != nil {
			return fmt.Errorf("links[%d]: %w", i, err)
		}
		if rel.Target != "" {
			links = append(links, rel)
		}
	}
	*n = Node{
		ID:       w.ID,
		Type:     NodeType(strings.ToLower(string(w.Type))),
		Status:   NormalizeStatus(w.Status),
		Title:    w.Title,
		Content:  content,
		Version:  w.Version,
		Modified: w.Modified,
		Links:    links,
	}
	return nil
}

func decodeRelationship(raw json.RawMessage) (Relationship, error) {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return Relationship{Target: id, Kind: RelRelated}, nil
	}
	var rel Relationship
	if err := json.Unmarshal(raw, &rel); err != nil {
		return Relationship{}, fmt.Errorf("decoding relationship: %w", err)
	}
	if rel.Kind == "" {
		rel.Kind = RelRelated
	}
	return rel, nil
}

// Equal reports whether two nodes carry identical data.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.ID != o.ID || n.Type != o.Type || n.Status != o.Status ||
		n.Title != o.Title || n.Content != o.Content || n.Version != o.Version ||
		!n.Modified.Equal(o.Modified) || len(n.Links) != len(o.Links) {
		return false
	}
	for i := range n.Links {
		if n.Links[i] != o.Links[i] {
			return false
		}
	}
	return true
}

// Matches reports whether the lowercase query occurs in the node's title,
// content, or id. An empty query matches every node.
func (n *Node) Matches(query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(n.Title), query) ||
		strings.Contains(strings.ToLower(n.Content), query) ||
		strings.Contains(strings.ToLower(n.ID), query)
}
