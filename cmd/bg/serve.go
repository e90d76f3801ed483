package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfredjeanlab/beadgraph/internal/config"
	"github.com/alfredjeanlab/beadgraph/internal/engine"
	"github.com/alfredjeanlab/beadgraph/internal/events"
	"github.com/alfredjeanlab/beadgraph/internal/feed"
	"github.com/alfredjeanlab/beadgraph/internal/metrics"
	"github.com/alfredjeanlab/beadgraph/internal/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveDebug bool

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the viewer engine and its HTTP API",
	GroupID: "viewer",
	Long: `Run the viewer engine. The graph is loaded from BEADGRAPH_FEED_URL and
kept current by any configured push channel:

  BEADGRAPH_WS_URL      WebSocket push channel
  BEADGRAPH_NATS_URL    NATS push channel (subject graph.update); also
                        receives outward interaction events
  BEADGRAPH_WATCH_FILE  dataset file pushed as a full snapshot on change`,
	RunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if serveDebug {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		reg := metrics.NewRegistry()

		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (BEADGRAPH_NATS_URL not set)")
		}

		ecfg := engine.DefaultConfig()
		ecfg.FPS = cfg.FPS
		ecfg.Layout = cfg.Tuning.Layout
		ecfg.Camera = cfg.Tuning.Camera
		eng := engine.New(ecfg, publisher, reg, logger)

		srv := server.New(eng, reg, logger)
		eng.OnEvent(srv.Broadcast)

		channels, err := pushChannels(cfg, reg, logger)
		if err != nil {
			publisher.Close()
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error { return eng.Run(gctx) })

		if cfg.FeedURL != "" {
			fetcher := feed.NewFetcher(cfg.FeedURL, cfg.FeedToken)
			g.Go(func() error { return initialLoad(gctx, eng, fetcher, cfg.ReconnectDelay, logger) })
		}

		for name, ch := range channels {
			ch.Register("engine", func(raw []byte) {
				if !eng.Enqueue(raw) {
					logger.Debug("update dropped, inbox full", "channel", name)
				}
			})
			g.Go(func() error {
				err := ch.Run(gctx)
				if errors.Is(err, feed.ErrClosed) {
					return nil
				}
				if err != nil {
					return fmt.Errorf("%s channel: %w", name, err)
				}
				return nil
			})
			logger.Info("push channel enabled", "channel", name)
		}

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.NewHTTPHandler(cfg.AuthToken),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
				cancel()
			}
		}()

		logger.Info("viewer engine started",
			"http_addr", cfg.HTTPAddr,
			"fps", cfg.FPS,
			"channels", len(channels),
		)

		// Wait for SIGINT or SIGTERM, or for a component to fail.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
		case <-gctx.Done():
			logger.Warn("component stopped, shutting down")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		for name, ch := range channels {
			if err := ch.Close(); err != nil {
				logger.Error("error closing channel", "channel", name, "err", err)
			}
		}
		cancel()
		runErr := g.Wait()
		if runErr != nil {
			logger.Error("engine stopped with error", "err", runErr)
		}

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}

		logger.Info("shutdown complete")
		return runErr
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "enable debug logging")
}

// pushChannels builds the configured push channels, keyed by name.
func pushChannels(cfg *config.Config, reg *metrics.Registry, logger *slog.Logger) (map[string]feed.Channel, error) {
	channels := make(map[string]feed.Channel)
	if cfg.WSURL != "" {
		header := http.Header{}
		if cfg.FeedToken != "" {
			header.Set("Authorization", "Bearer "+cfg.FeedToken)
		}
		channels["ws"] = feed.NewWSChannel(cfg.WSURL, feed.WSOptions{
			ReconnectDelay: cfg.ReconnectDelay,
			Header:         header,
			Metrics:        reg,
			Logger:         logger,
		})
	}
	if cfg.NATSURL != "" {
		ch, err := feed.NewNATSChannel(cfg.NATSURL, reg, logger)
		if err != nil {
			return nil, err
		}
		channels["nats"] = ch
	}
	if cfg.WatchFile != "" {
		channels["file"] = feed.NewFileChannel(cfg.WatchFile, 0, logger)
	}
	return channels, nil
}

// initialLoad fetches the graph and loads it as a full snapshot, retrying at
// a fixed delay until it succeeds or ctx is done.
func initialLoad(ctx context.Context, eng *engine.Engine, f *feed.Fetcher, retry time.Duration, logger *slog.Logger) error {
	for attempt := 1; ; attempt++ {
		d, err := f.Fetch(ctx)
		if err == nil {
			if err := eng.Load(ctx, d); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("loading initial graph: %w", err)
			}
			logger.Info("initial graph loaded", "nodes", len(d.Nodes), "links", len(d.Links))
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("initial fetch failed, retrying",
			"attempt", attempt,
			"retry_in", retry,
			"err", err,
			"hint", "check that BEADGRAPH_FEED_URL points at a running feed server",
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retry):
		}
	}
}
