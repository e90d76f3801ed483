package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alfredjeanlab/beadgraph/internal/idgen"
	"github.com/alfredjeanlab/beadgraph/internal/metrics"
)

const (
	// replayBufferSize is the number of recent events kept for
	// Last-Event-ID reconnection.
	replayBufferSize = 1000

	// keepaliveInterval is how often comment lines are sent to idle streams.
	keepaliveInterval = 15 * time.Second
)

// streamEvent is a single event held in the replay buffer.
type streamEvent struct {
	ID    uint64
	Topic string
	Data  []byte
}

// eventHub fans outward events out to stream clients and keeps a ring of
// recent events for replay.
type eventHub struct {
	mu      sync.RWMutex
	clients map[*streamClient]struct{}
	nextID  atomic.Uint64
	metrics *metrics.Registry

	ringMu  sync.RWMutex
	ring    [replayBufferSize]streamEvent
	ringPos int
	ringLen int
}

type streamClient struct {
	id     string
	topics []string // glob patterns; empty matches everything
	ch     chan *streamEvent
}

func newEventHub(reg *metrics.Registry) *eventHub {
	return &eventHub{clients: make(map[*streamClient]struct{}), metrics: reg}
}

// broadcast never blocks: a client whose buffer is full misses the event
// and can recover it through Last-Event-ID.
func (h *eventHub) broadcast(topic string, payload []byte) {
	evt := &streamEvent{ID: h.nextID.Add(1), Topic: topic, Data: payload}

	h.ringMu.Lock()
	h.ring[h.ringPos] = *evt
	h.ringPos = (h.ringPos + 1) % replayBufferSize
	if h.ringLen < replayBufferSize {
		h.ringLen++
	}
	h.ringMu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.matches(topic) {
			continue
		}
		select {
		case c.ch <- evt:
		default:
		}
	}
}

func (h *eventHub) subscribe(topics []string) *streamClient {
	c := &streamClient{id: idgen.For("sse"), topics: topics, ch: make(chan *streamEvent, 64)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.StreamSubscribers.Set(float64(n))
	}
	return c
}

func (h *eventHub) unsubscribe(c *streamClient) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.StreamSubscribers.Set(float64(n))
	}
}

// since returns buffered events newer than lastID, oldest first.
func (h *eventHub) since(lastID uint64) []*streamEvent {
	h.ringMu.RLock()
	defer h.ringMu.RUnlock()

	var out []*streamEvent
	start := h.ringPos - h.ringLen
	if start < 0 {
		start += replayBufferSize
	}
	for i := range h.ringLen {
		evt := &h.ring[(start+i)%replayBufferSize]
		if evt.ID > lastID {
			out = append(out, evt)
		}
	}
	return out
}

func (c *streamClient) matches(topic string) bool {
	if len(c.topics) == 0 {
		return true
	}
	for _, p := range c.topics {
		if matchTopic(p, topic) {
			return true
		}
	}
	return false
}

// matchTopic matches a dot-separated topic against a NATS-style pattern:
// "*" matches one segment and a trailing ">" matches one or more.
func matchTopic(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	pp := strings.Split(pattern, ".")
	tp := strings.Split(topic, ".")
	for i, seg := range pp {
		if seg == ">" {
			return i < len(tp)
		}
		if i >= len(tp) || (seg != "*" && seg != tp[i]) {
			return false
		}
	}
	return len(pp) == len(tp)
}

// handleEventStream handles GET /v1/events/stream.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	var topics []string
	if q := r.URL.Query().Get("topics"); q != "" {
		for _, t := range strings.Split(q, ",") {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, t)
			}
		}
	}

	client := s.hub.subscribe(topics)
	defer s.hub.unsubscribe(client)
	s.logger.Debug("stream client connected", "client_id", client.id, "topics", topics)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	if last := r.Header.Get("Last-Event-ID"); last != "" {
		if lastID, err := strconv.ParseUint(last, 10, 64); err == nil {
			for _, evt := range s.hub.since(lastID) {
				if client.matches(evt.Topic) {
					writeStreamEvent(w, evt)
				}
			}
			flusher.Flush()
		}
	}

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("stream client disconnected", "client_id", client.id)
			return
		case evt := <-client.ch:
			writeStreamEvent(w, evt)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeStreamEvent(w http.ResponseWriter, evt *streamEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", evt.ID, evt.Topic, evt.Data)
}
