package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/beadgraph/internal/model"
)

// ErrMalformed is returned for push messages that cannot be decoded.
var ErrMalformed = errors.New("malformed message")

// MessageType is the push channel envelope type.
type MessageType string

const (
	TypeUpdate MessageType = "update"
	TypePing   MessageType = "ping"
	TypePong   MessageType = "pong"
)

// Message is the push channel envelope.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Payload is the body of an update message. Full marks a complete snapshot;
// otherwise the payload is a delta. Links is always encoded: null means "derive
// from the nodes" on a full snapshot, while [] means no links.
type Payload struct {
	Full         bool            `json:"full,omitempty"`
	Nodes        []*model.Node   `json:"nodes,omitempty"`
	Links        []model.Link    `json:"links"`
	RemovedNodes []string        `json:"removed_nodes,omitempty"`
	RemovedLinks []model.LinkKey `json:"removed_links,omitempty"`
}

// Delta returns the payload as an incremental patch.
func (p Payload) Delta() model.Delta {
	return model.Delta{
		Nodes:        p.Nodes,
		RemovedNodes: p.RemovedNodes,
		Links:        p.Links,
		RemovedLinks: p.RemovedLinks,
	}
}

// Decode parses an envelope. Errors wrap ErrMalformed.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if m.Type == "" {
		return Message{}, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return m, nil
}

// DecodePayload parses an update body. A missing body is an empty delta.
func (m Message) DecodePayload() (Payload, error) {
	var p Payload
	if len(m.Payload) == 0 || string(m.Payload) == "null" {
		return p, nil
	}
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: payload: %v", ErrMalformed, err)
	}
	return p, nil
}

// EncodeUpdate wraps p in an update envelope.
func EncodeUpdate(p Payload) ([]byte, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}
	return json.Marshal(Message{Type: TypeUpdate, Payload: body})
}

// EncodePing returns a heartbeat envelope.
func EncodePing() []byte {
	return []byte(`{"type":"ping"}`)
}
