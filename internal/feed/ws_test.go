package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alfredjeanlab/beadgraph/internal/metrics"
	"github.com/gorilla/websocket"
	dto "github.com/prometheus/client_model/go"
)

var upgrader = websocket.Upgrader{}

type collector struct {
	mu   sync.Mutex
	msgs []string
}

func (c *collector) handle(raw []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, string(raw))
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSChannel_ReconnectDoesNotDuplicateHandlers(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		n := conns.Add(1)
		if n == 1 {
			// First session delivers one message and drops.
			c.WriteMessage(websocket.TextMessage, []byte("m1"))
			return
		}
		c.WriteMessage(websocket.TextMessage, []byte("m2"))
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	reg := metrics.NewRegistry()
	ch := NewWSChannel(wsURL(srv), WSOptions{ReconnectDelay: 20 * time.Millisecond, Metrics: reg})
	got := &collector{}
	ch.Register("engine", got.handle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- ch.Run(ctx) }()

	waitFor(t, "second session", func() bool { return len(got.snapshot()) >= 2 })
	// Re-registering under the same name after a reconnect replaces the handler.
	ch.Register("engine", got.handle)
	time.Sleep(50 * time.Millisecond)

	if msgs := got.snapshot(); len(msgs) != 2 || msgs[0] != "m1" || msgs[1] != "m2" {
		t.Errorf("messages = %v, want [m1 m2]", msgs)
	}
	var m dto.Metric
	if err := reg.FeedReconnects.WithLabelValues("ws").Write(&m); err != nil {
		t.Fatalf("writing metric: %v", err)
	}
	if n := m.GetCounter().GetValue(); n < 1 {
		t.Errorf("reconnects = %v, want at least 1", n)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v after cancel, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestWSChannel_SendsHeartbeat(t *testing.T) {
	pings := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			pings <- string(data)
		}
	}))
	defer srv.Close()

	ch := NewWSChannel(wsURL(srv), WSOptions{PingInterval: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx)

	select {
	case msg := <-pings:
		if msg != `{"type":"ping"}` {
			t.Errorf("heartbeat = %s", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no heartbeat received")
	}
}

func TestWSChannel_Close(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ch := NewWSChannel(wsURL(srv), WSOptions{ReconnectDelay: 10 * time.Millisecond})
	done := make(chan error, 1)
	go func() { done <- ch.Run(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	if err := ch.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Run = %v, want ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
