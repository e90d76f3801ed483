package feed

import (
	"strings"
	"testing"
)

func TestHandlers_RegisterIsIdempotent(t *testing.T) {
	var h handlers
	var first, second int
	h.Register("engine", func([]byte) { first++ })
	h.Register("engine", func([]byte) { second++ })
	h.Register("audit", func([]byte) {})

	h.dispatch([]byte(`{}`))

	if h.Len() != 2 {
		t.Errorf("Len() = %d, want 2", h.Len())
	}
	if first != 0 || second != 1 {
		t.Errorf("dispatch counts = %d/%d, want replaced handler to run once", first, second)
	}
}

func TestDecodeDataset(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantNodes int
		wantLinks int
		wantNil   bool
		wantErr   bool
	}{
		{
			name:      "object",
			doc:       `{"nodes":[{"id":"A","type":"epic"},{"id":"B","type":"task"}],"links":[{"source":"A","target":"B"}]}`,
			wantNodes: 2,
			wantLinks: 1,
		},
		{
			name:      "bare node array",
			doc:       ` [{"id":"A","type":"epic","links":["B"]}]`,
			wantNodes: 1,
			wantNil:   true,
		},
		{
			name:      "links omitted",
			doc:       `{"nodes":[{"id":"A"}]}`,
			wantNodes: 1,
			wantNil:   true,
		},
		{name: "empty", doc: "  ", wantErr: true},
		{name: "not json", doc: "nodes: []", wantErr: true},
		{name: "bad node", doc: `{"nodes":[{"id":"A","links":[3]}]}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := DecodeDataset(strings.NewReader(tt.doc))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeDataset: %v", err)
			}
			if len(d.Nodes) != tt.wantNodes || len(d.Links) != tt.wantLinks {
				t.Errorf("got %d nodes / %d links, want %d / %d", len(d.Nodes), len(d.Links), tt.wantNodes, tt.wantLinks)
			}
			if tt.wantNil && d.Links != nil {
				t.Errorf("links = %v, want nil so they are derived", d.Links)
			}
		})
	}
}
