// Package feed delivers graph data to the engine: an initial HTTP fetch
// and push channels over WebSocket, NATS and a watched file.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"github.com/alfredjeanlab/beadgraph/internal/model"
)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("feed closed")

// Handler receives one raw push message.
type Handler func(raw []byte)

// Channel is a push message source. Handlers are keyed by name, so
// registering the same name again replaces the handler instead of adding a
// second one. Run blocks, reconnecting as needed, until ctx is done or the
// channel is closed.
type Channel interface {
	Register(name string, fn Handler)
	Run(ctx context.Context) error
	Close() error
}

// handlers is the name-keyed handler set shared by every channel.
type handlers struct {
	mu    sync.RWMutex
	names []string
	byKey map[string]Handler
}

func (h *handlers) Register(name string, fn Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.byKey == nil {
		h.byKey = make(map[string]Handler)
	}
	if _, ok := h.byKey[name]; !ok {
		h.names = append(h.names, name)
	}
	h.byKey[name] = fn
}

// Len returns the number of registered handlers.
func (h *handlers) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.names)
}

func (h *handlers) dispatch(raw []byte) {
	h.mu.RLock()
	fns := make([]Handler, 0, len(h.names))
	for _, name := range h.names {
		fns = append(fns, h.byKey[name])
	}
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(raw)
	}
}

// DecodeDataset reads a dataset document. Both {"nodes":[...],"links":[...]}
// and a bare node array are accepted.
func DecodeDataset(r io.Reader) (model.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("reading dataset: %w", err)
	}
	var d model.Dataset
	if err := decodeCollection(data, "nodes", &d.Nodes); err != nil {
		return model.Dataset{}, fmt.Errorf("decoding nodes: %w", err)
	}
	if !isArray(data) {
		if err := decodeCollection(data, "links", &d.Links); err != nil {
			return model.Dataset{}, fmt.Errorf("decoding links: %w", err)
		}
	}
	d.Nodes = slices.DeleteFunc(d.Nodes, func(n *model.Node) bool { return n == nil })
	return d, nil
}

// LoadDataset reads a dataset file.
func LoadDataset(path string) (model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()
	return DecodeDataset(f)
}

// decodeCollection fills out from data, which is either a JSON array or an
// object holding the array under key. A missing key leaves out unchanged.
func decodeCollection[T any](data []byte, key string, out *[]T) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty document")
	}
	if isArray(data) {
		return json.Unmarshal(data, out)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	raw, ok := obj[key]
	if !ok || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func isArray(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '['
}
