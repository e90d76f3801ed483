package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/alfredjeanlab/beadgraph/internal/engine"
	"github.com/alfredjeanlab/beadgraph/internal/metrics"
	"github.com/alfredjeanlab/beadgraph/internal/model"
	"github.com/alfredjeanlab/beadgraph/internal/reconcile"
)

const (
	maxCommandBody = 64 << 10
	maxUpdateBody  = 8 << 20
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/scene", s.handleGetScene)
	mux.HandleFunc("GET /v1/nodes/{id}", s.handleGetNode)
	mux.HandleFunc("GET /v1/stats", s.handleGetStats)
	mux.HandleFunc("GET /v1/view", s.handleGetView)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.Handle("GET /v1/metrics", s.metrics.Handler())
	mux.HandleFunc("POST /v1/pointer/move", s.handlePointerMove)
	mux.HandleFunc("POST /v1/pointer/click", s.handlePointerClick)
	mux.HandleFunc("POST /v1/deselect", s.handleDeselect)
	mux.HandleFunc("PUT /v1/filter", s.handleSetFilter)
	mux.HandleFunc("PUT /v1/search", s.handleSetSearch)
	mux.HandleFunc("PUT /v1/viewport", s.handleResize)
	mux.HandleFunc("POST /v1/camera/dolly", s.handleDolly)
	mux.HandleFunc("POST /v1/camera/orbit", s.handleOrbit)
	mux.HandleFunc("POST /v1/camera/reset", s.handleResetCamera)
	mux.HandleFunc("POST /v1/updates", s.handlePostUpdate)

	var h http.Handler = mux
	h = AuthMiddleware(authToken, h)
	h = MetricsMiddleware(s.metrics, h)
	h = RecoveryMiddleware(s.logger, h)
	return h
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// handleGetScene handles GET /v1/scene.
func (s *Server) handleGetScene(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.Scene(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleGetNode handles GET /v1/nodes/{id}.
func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	n, ok, err := s.engine.Node(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "node not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// handleGetStats handles GET /v1/stats.
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.engine.Stats(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleGetView handles GET /v1/view.
func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	s.respondView(r.Context(), w)
}

type pointerRequest struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Leave bool     `json:"leave"`
}

func (p pointerRequest) at() (*[2]float64, bool) {
	if p.X == nil && p.Y == nil {
		return nil, true
	}
	if p.X == nil || p.Y == nil || !finite(*p.X) || !finite(*p.Y) {
		return nil, false
	}
	return &[2]float64{*p.X, *p.Y}, true
}

// handlePointerMove handles POST /v1/pointer/move. The move is picked at
// the next frame, so the response carries no hover result.
func (s *Server) handlePointerMove(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if !decodeBody(w, r, maxCommandBody, &req) {
		return
	}
	if req.Leave {
		s.engine.PointerLeave()
		w.WriteHeader(http.StatusAccepted)
		return
	}
	at, ok := req.at()
	if !ok || at == nil {
		writeError(w, http.StatusBadRequest, "x and y are required")
		return
	}
	s.engine.PointerMove(at[0], at[1])
	w.WriteHeader(http.StatusAccepted)
}

// handlePointerClick handles POST /v1/pointer/click. An empty body clicks
// at the last pointer position.
func (s *Server) handlePointerClick(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if r.ContentLength != 0 && !decodeBody(w, r, maxCommandBody, &req) {
		return
	}
	at, ok := req.at()
	if !ok {
		writeError(w, http.StatusBadRequest, "x and y must both be finite numbers")
		return
	}
	if err := s.engine.Click(r.Context(), at); err != nil {
		writeEngineError(w, err)
		return
	}
	s.respondView(r.Context(), w)
}

// handleDeselect handles POST /v1/deselect.
func (s *Server) handleDeselect(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Deselect(r.Context()); err != nil {
		writeEngineError(w, err)
		return
	}
	s.respondView(r.Context(), w)
}

// handleSetFilter handles PUT /v1/filter.
func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filter string `json:"filter"`
	}
	if !decodeBody(w, r, maxCommandBody, &req) {
		return
	}
	if err := s.engine.SetFilter(r.Context(), model.ParseFilter(req.Filter)); err != nil {
		writeEngineError(w, err)
		return
	}
	s.respondView(r.Context(), w)
}

// handleSetSearch handles PUT /v1/search.
func (s *Server) handleSetSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if !decodeBody(w, r, maxCommandBody, &req) {
		return
	}
	if err := s.engine.SetSearch(r.Context(), req.Query); err != nil {
		writeEngineError(w, err)
		return
	}
	s.respondView(r.Context(), w)
}

// handleResize handles PUT /v1/viewport.
func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if !decodeBody(w, r, maxCommandBody, &req) {
		return
	}
	if req.Width <= 0 || req.Height <= 0 || !finite(req.Width) || !finite(req.Height) {
		writeError(w, http.StatusBadRequest, "width and height must be positive")
		return
	}
	if err := s.engine.Resize(r.Context(), req.Width, req.Height); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDolly handles POST /v1/camera/dolly.
func (s *Server) handleDolly(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Factor float64 `json:"factor"`
	}
	if !decodeBody(w, r, maxCommandBody, &req) {
		return
	}
	if req.Factor <= 0 || !finite(req.Factor) {
		writeError(w, http.StatusBadRequest, "factor must be a positive number")
		return
	}
	if err := s.engine.Dolly(r.Context(), req.Factor); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleOrbit handles POST /v1/camera/orbit. Angles are in radians.
func (s *Server) handleOrbit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Azimuth float64 `json:"azimuth"`
		Polar   float64 `json:"polar"`
	}
	if !decodeBody(w, r, maxCommandBody, &req) {
		return
	}
	if !finite(req.Azimuth) || !finite(req.Polar) {
		writeError(w, http.StatusBadRequest, "angles must be finite")
		return
	}
	if err := s.engine.Orbit(r.Context(), req.Azimuth, req.Polar); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleResetCamera handles POST /v1/camera/reset.
func (s *Server) handleResetCamera(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ResetCamera(r.Context()); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePostUpdate handles POST /v1/updates. The body is a push envelope;
// it is checked here and applied at the next frame.
func (s *Server) handlePostUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUpdateBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "update too large")
		return
	}
	if _, err := reconcile.Decode(body); err != nil {
		s.metrics.RecordUpdate(metrics.UpdateMalformed)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.engine.Enqueue(body) {
		writeError(w, http.StatusServiceUnavailable, "update queue full")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) respondView(ctx context.Context, w http.ResponseWriter) {
	v, err := s.engine.View(ctx)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// decodeBody decodes a JSON request body into dst and writes a 400 on
// failure.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrStopped):
		writeError(w, http.StatusServiceUnavailable, "engine stopped")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "engine busy")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
