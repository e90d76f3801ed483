package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/alfredjeanlab/beadgraph/internal/idgen"
	"github.com/alfredjeanlab/beadgraph/internal/metrics"
	"github.com/alfredjeanlab/beadgraph/internal/reconcile"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// Default WebSocket timings.
const (
	DefaultReconnectDelay = 5 * time.Second
	DefaultPingInterval   = 30 * time.Second
	writeTimeout          = 10 * time.Second
)

// WSOptions tunes a WSChannel. Zero values take defaults.
type WSOptions struct {
	ReconnectDelay time.Duration
	PingInterval   time.Duration
	Header         http.Header
	Metrics        *metrics.Registry
	Logger         *slog.Logger
}

// WSChannel receives push messages over a WebSocket. It sends a heartbeat
// ping on an interval and reconnects after a fixed delay when the
// connection drops.
type WSChannel struct {
	handlers
	url    string
	opts   WSOptions
	dialer *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	done   chan struct{}
}

// NewWSChannel returns a channel for url (ws:// or wss://).
func NewWSChannel(url string, opts WSOptions) *WSChannel {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultPingInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &WSChannel{
		url:    url,
		opts:   opts,
		dialer: websocket.DefaultDialer,
		done:   make(chan struct{}),
	}
}

// Run connects and dispatches messages until ctx is done or Close is
// called, reconnecting after every drop.
func (c *WSChannel) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if c.isClosed() {
			return ErrClosed
		}
		c.opts.Logger.Warn("push channel dropped, reconnecting",
			"url", c.url, "delay", c.opts.ReconnectDelay, "err", err)
		if c.opts.Metrics != nil {
			c.opts.Metrics.FeedReconnects.WithLabelValues("ws").Inc()
		}
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return ErrClosed
		case <-time.After(c.opts.ReconnectDelay):
		}
	}
}

// session runs one connection until it fails.
func (c *WSChannel) session(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, c.opts.Header)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.url, err)
	}
	if !c.attach(conn) {
		conn.Close()
		return ErrClosed
	}
	defer c.detach()

	id := idgen.For("ws")
	c.opts.Logger.Info("push channel connected", "url", c.url, "conn_id", id)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return fmt.Errorf("reading: %w", err)
			}
			c.dispatch(data)
		}
	})
	g.Go(func() error {
		ticker := time.NewTicker(c.opts.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				// Unblocks the reader.
				conn.Close()
				return nil
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, reconcile.EncodePing()); err != nil {
					conn.Close()
					return fmt.Errorf("writing ping: %w", err)
				}
			}
		}
	})
	err = g.Wait()
	c.opts.Logger.Debug("push channel session ended", "conn_id", id, "err", err)
	return err
}

func (c *WSChannel) attach(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.conn = conn
	return true
}

func (c *WSChannel) detach() {
	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()
}

func (c *WSChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close stops Run and closes any live connection. It is safe to call more
// than once.
func (c *WSChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	if c.conn != nil {
		c.conn.Close()
	}
	return nil
}
