// Package server exposes the engine over HTTP: scene snapshots, pointer and
// filter commands, push injection, an SSE stream of outward events and
// prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/beadgraph/internal/engine"
	"github.com/alfredjeanlab/beadgraph/internal/metrics"
	"github.com/alfredjeanlab/beadgraph/internal/model"
)

// Engine is the part of engine.Engine the HTTP layer drives.
type Engine interface {
	Enqueue(raw []byte) bool
	PointerMove(x, y float64)
	PointerLeave()
	Click(ctx context.Context, at *[2]float64) error
	Deselect(ctx context.Context) error
	SetFilter(ctx context.Context, f model.Filter) error
	SetSearch(ctx context.Context, q string) error
	Dolly(ctx context.Context, factor float64) error
	Orbit(ctx context.Context, dAzimuth, dPolar float64) error
	ResetCamera(ctx context.Context) error
	Resize(ctx context.Context, width, height float64) error
	Scene(ctx context.Context) (engine.Snapshot, error)
	Node(ctx context.Context, id string) (*model.Node, bool, error)
	Stats(ctx context.Context) (model.Stats, error)
	View(ctx context.Context) (model.View, error)
}

// Server serves the HTTP API.
type Server struct {
	engine    Engine
	metrics   *metrics.Registry
	logger    *slog.Logger
	hub       *eventHub
	startedAt time.Time
}

// New returns a Server over eng. Nil registry or logger fall back to a
// private registry and slog.Default().
func New(eng Engine, reg *metrics.Registry, logger *slog.Logger) *Server {
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:    eng,
		metrics:   reg,
		logger:    logger,
		hub:       newEventHub(reg),
		startedAt: time.Now(),
	}
}

// Broadcast fans an outward event out to stream clients. It matches
// engine.Listener and is safe for concurrent use.
func (s *Server) Broadcast(topic string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event for stream", "topic", topic, "err", err)
		return
	}
	s.hub.broadcast(topic, payload)
}
