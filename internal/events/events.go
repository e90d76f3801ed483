// Package events carries outward interaction events to the message bus and
// inbound push messages from it.
package events

import (
	"context"

	"github.com/alfredjeanlab/beadgraph/internal/model"
)

const (
	TopicNodeSelected  = "graph.node.selected"
	TopicFilterChanged = "graph.filter.changed"
	TopicSearchChanged = "graph.search.changed"

	// TopicUpdate carries inbound push messages (update/ping/pong envelopes).
	TopicUpdate = "graph.update"
)

// NodeSelected carries the selected node, or nil when nothing is selected.
type NodeSelected struct {
	Node *model.Node `json:"node"`
}

type FilterChanged struct {
	Filter model.Filter `json:"filter"`
}

type SearchChanged struct {
	Query string `json:"query"`
}

// Publisher emits outward events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber delivers raw payloads for a subject. The returned cancel
// function unsubscribes and closes the channel.
type Subscriber interface {
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}

// NoopPublisher discards events. It is used when no bus is configured.
type NoopPublisher struct{}

func (*NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (*NoopPublisher) Close() error                               { return nil }
