package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alfredjeanlab/beadgraph/internal/events"
	"github.com/alfredjeanlab/beadgraph/internal/metrics"
	"github.com/nats-io/nats.go"
)

// NATSChannel receives push messages published on events.TopicUpdate.
// Reconnection is left to the NATS client.
type NATSChannel struct {
	handlers
	sub    events.Subscriber
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewNATSChannel connects to url. A nil registry or logger is allowed.
func NewNATSChannel(url string, reg *metrics.Registry, logger *slog.Logger) (*NATSChannel, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sub, err := events.NewNATSSubscriber(url,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
			if reg != nil {
				reg.FeedReconnects.WithLabelValues("nats").Inc()
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats channel: %w", err)
	}
	return newNATSChannel(sub, logger), nil
}

func newNATSChannel(sub events.Subscriber, logger *slog.Logger) *NATSChannel {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSChannel{sub: sub, logger: logger, done: make(chan struct{})}
}

// Run dispatches messages until ctx is done or Close is called.
func (c *NATSChannel) Run(ctx context.Context) error {
	ch, cancel, err := c.sub.Subscribe(events.TopicUpdate)
	if err != nil {
		return fmt.Errorf("nats channel: %w", err)
	}
	defer cancel()
	c.logger.Info("push channel subscribed", "subject", events.TopicUpdate)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return ErrClosed
		case data, ok := <-ch:
			if !ok {
				return ErrClosed
			}
			c.dispatch(data)
		}
	}
}

// Close stops Run and drops the NATS connection.
func (c *NATSChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)
	return c.sub.Close()
}
