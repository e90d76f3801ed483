// Package engine runs the frame loop that owns the graph, layout, scene and
// interaction state. Every mutation happens on the loop goroutine; other
// goroutines talk to it through Enqueue, the pointer methods and Do.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alfredjeanlab/beadgraph/internal/events"
	"github.com/alfredjeanlab/beadgraph/internal/graph"
	"github.com/alfredjeanlab/beadgraph/internal/interaction"
	"github.com/alfredjeanlab/beadgraph/internal/layout"
	"github.com/alfredjeanlab/beadgraph/internal/metrics"
	"github.com/alfredjeanlab/beadgraph/internal/picking"
	"github.com/alfredjeanlab/beadgraph/internal/reconcile"
	"github.com/alfredjeanlab/beadgraph/internal/scene"
)

// ErrStopped is returned by Do once Run has exited.
var ErrStopped = errors.New("engine stopped")

// Config tunes the engine.
type Config struct {
	FPS       int
	InboxSize int
	// Width and Height size the picking viewport in client pixels.
	Width  float64
	Height float64
	Layout layout.Config
	Camera picking.CameraConfig
	// Backend receives primitive lifecycle calls. Nil uses scene.NoopBackend.
	Backend scene.Backend
}

// DefaultConfig returns a 60 fps engine over a 1280x720 viewport.
func DefaultConfig() Config {
	return Config{
		FPS:       60,
		InboxSize: 256,
		Width:     1280,
		Height:    720,
		Layout:    layout.DefaultConfig(),
		Camera:    picking.DefaultCameraConfig(),
	}
}

// Listener receives outward events together with their topic.
type Listener func(topic string, event any)

type command struct {
	fn   func()
	done chan error
}

type pointer struct {
	x, y  float64
	leave bool
}

// Engine is the single owner of all visualization state.
type Engine struct {
	cfg     Config
	graph   *graph.Model
	sim     *layout.Simulation
	arena   *scene.Arena
	machine *interaction.Machine
	rec     *reconcile.Reconciler
	picker  *picking.Picker

	publisher events.Publisher
	metrics   *metrics.Registry
	logger    *slog.Logger
	listeners []Listener

	inbox   chan []byte
	cmds    chan command
	stopped chan struct{}
	running atomic.Bool

	ptrMu   sync.Mutex
	pending *pointer

	viewRev uint64
	dirty   bool
	frames  uint64
}

// New wires an engine. Nil publisher, registry or logger fall back to
// no-op, a private registry and slog.Default().
func New(cfg Config, pub events.Publisher, reg *metrics.Registry, logger *slog.Logger) *Engine {
	d := DefaultConfig()
	if cfg.FPS <= 0 {
		cfg.FPS = d.FPS
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = d.InboxSize
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = d.Width, d.Height
	}
	if cfg.Backend == nil {
		cfg.Backend = scene.NoopBackend{}
	}
	if pub == nil {
		pub = &events.NoopPublisher{}
	}
	if reg == nil {
		reg = metrics.NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		cfg:       cfg,
		graph:     graph.New(logger),
		sim:       layout.New(cfg.Layout, logger),
		arena:     scene.NewArena(cfg.Backend, logger),
		picker:    picking.NewPicker(picking.NewCamera(cfg.Camera), cfg.Width, cfg.Height),
		publisher: pub,
		metrics:   reg,
		logger:    logger,
		inbox:     make(chan []byte, cfg.InboxSize),
		cmds:      make(chan command),
		stopped:   make(chan struct{}),
	}
	e.machine = interaction.NewMachine(e.graph)
	e.machine.OnEvent(e.publish)
	e.rec = reconcile.New(e.graph, e.machine, logger)
	e.rec.OnApplied(e.applied)
	return e
}

// OnEvent registers fn for outward events. Call before Run.
func (e *Engine) OnEvent(fn Listener) {
	e.listeners = append(e.listeners, fn)
}

// Enqueue queues a raw push message for the next frame. It never blocks:
// when the inbox is full the message is dropped and false is returned.
func (e *Engine) Enqueue(raw []byte) bool {
	select {
	case e.inbox <- raw:
		e.metrics.InboxDepth.Set(float64(len(e.inbox)))
		return true
	default:
		e.metrics.RecordUpdate(metrics.UpdateDropped)
		e.logger.Warn("inbox full, dropping update", "size", cap(e.inbox))
		return false
	}
}

// PointerMove records the latest pointer position. Moves between frames
// coalesce and only the last one is picked.
func (e *Engine) PointerMove(x, y float64) {
	e.ptrMu.Lock()
	e.pending = &pointer{x: x, y: y}
	e.ptrMu.Unlock()
}

// PointerLeave clears the hover at the next frame.
func (e *Engine) PointerLeave() {
	e.ptrMu.Lock()
	e.pending = &pointer{leave: true}
	e.ptrMu.Unlock()
}

// Run drives frames at the configured rate and executes queued commands
// between them until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return fmt.Errorf("engine already running")
	}
	defer close(e.stopped)

	ticker := time.NewTicker(time.Second / time.Duration(e.cfg.FPS))
	defer ticker.Stop()

	e.logger.Info("engine started", "fps", e.cfg.FPS)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopped", "frames", e.frames)
			return nil
		case <-ticker.C:
			e.frame()
		case c := <-e.cmds:
			c.done <- e.exec(c.fn)
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to finish. A panic in
// fn is recovered and returned as an error.
func (e *Engine) Do(ctx context.Context, fn func()) error {
	c := command{fn: fn, done: make(chan error, 1)}
	select {
	case e.cmds <- c:
	case <-e.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) exec(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("command panicked", "panic", r)
			err = fmt.Errorf("command panicked: %v", r)
		}
	}()
	fn()
	return nil
}

// frame runs one fixed-order step. A panic aborts the rest of the frame
// and is counted; the next frame runs normally.
func (e *Engine) frame() {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.metrics.FrameFailuresTotal.Inc()
			e.logger.Error("frame panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	e.drain()
	if e.sim.Tick() {
		e.dirty = true
	}
	if e.dirty {
		e.arena.UpdateTransforms(e.sim)
		e.dirty = false
	}
	e.pick()
	e.syncView()

	e.frames++
	e.metrics.LayoutAlpha.Set(e.sim.Alpha())
	e.metrics.RecordFrame(time.Since(start))
}

func (e *Engine) drain() {
	for n := len(e.inbox); n > 0; n-- {
		raw := <-e.inbox
		res, err := e.rec.Handle(raw)
		switch {
		case errors.Is(err, reconcile.ErrMalformed):
			e.metrics.RecordUpdate(metrics.UpdateMalformed)
			e.logger.Warn("dropping malformed update", "err", err)
		case err != nil:
			e.metrics.RecordUpdate(metrics.UpdateDropped)
			e.logger.Warn("update failed", "err", err)
		case res.Ignored:
			e.metrics.RecordUpdate(metrics.UpdateIgnored)
		default:
			e.metrics.RecordUpdate(metrics.UpdateApplied)
		}
	}
	e.metrics.InboxDepth.Set(float64(len(e.inbox)))
}

// applied keeps layout and scene in step with the graph before the next
// frame reads either.
func (e *Engine) applied(res reconcile.Result) {
	// A full snapshot restarts layout even when it matches the current graph.
	if res.Change.Structural() || res.Restart {
		e.sim.Sync(e.graph, res.Restart)
	}
	if res.Change.Empty() {
		return
	}
	e.arena.Apply(res.Change, e.graph)
	e.dirty = true
	e.metrics.SetGraphSize(e.graph.NodeCount(), e.graph.LinkCount())
}

func (e *Engine) pick() {
	e.ptrMu.Lock()
	p := e.pending
	e.pending = nil
	e.ptrMu.Unlock()
	if p == nil {
		return
	}
	e.hoverAt(p)
}

func (e *Engine) hoverAt(p *pointer) {
	if p.leave {
		e.machine.Hover("")
		return
	}
	if e.dirty {
		e.arena.UpdateTransforms(e.sim)
		e.dirty = false
	}
	hit, ok := e.picker.At(p.x, p.y, e.arena)
	if !ok {
		e.machine.Hover("")
		return
	}
	e.machine.Hover(hit.ID)
}

// syncView re-derives appearance when interaction state moved on.
func (e *Engine) syncView() {
	if rev := e.machine.Revision(); rev != e.viewRev {
		e.arena.ApplyView(e.machine.View(), e.graph)
		e.viewRev = rev
	}
}

func (e *Engine) publish(ev interaction.Event) {
	var (
		topic string
		body  any
	)
	switch ev.Kind {
	case interaction.NodeSelected:
		topic, body = events.TopicNodeSelected, events.NodeSelected{Node: ev.Node}
	case interaction.FilterChanged:
		topic, body = events.TopicFilterChanged, events.FilterChanged{Filter: ev.Filter}
	case interaction.SearchChanged:
		topic, body = events.TopicSearchChanged, events.SearchChanged{Query: ev.Query}
	default:
		return
	}
	e.metrics.EventsEmitted.WithLabelValues(topic).Inc()
	if err := e.publisher.Publish(context.Background(), topic, body); err != nil {
		e.logger.Warn("failed to publish event", "topic", topic, "err", err)
	}
	for _, fn := range e.listeners {
		fn(topic, body)
	}
}
