package feed

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/alfredjeanlab/beadgraph/internal/reconcile"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of writes to a watched file.
const DefaultDebounce = 200 * time.Millisecond

// FileChannel watches a dataset file and pushes its contents as a full
// snapshot whenever it changes, and once when Run starts.
type FileChannel struct {
	handlers
	path     string
	debounce time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewFileChannel watches path. A non-positive debounce uses DefaultDebounce.
func NewFileChannel(path string, debounce time.Duration, logger *slog.Logger) *FileChannel {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileChannel{path: path, debounce: debounce, logger: logger, done: make(chan struct{})}
}

// Run watches until ctx is done or Close is called.
func (c *FileChannel) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory so editors that replace the file are seen.
	if err := w.Add(filepath.Dir(c.path)); err != nil {
		return fmt.Errorf("watching %s: %w", c.path, err)
	}
	target := filepath.Clean(c.path)

	c.push()

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return ErrClosed
		case ev, ok := <-w.Events:
			if !ok {
				return ErrClosed
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(c.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			c.push()
		case err, ok := <-w.Errors:
			if !ok {
				return ErrClosed
			}
			c.logger.Warn("file watcher error", "path", c.path, "err", err)
		}
	}
}

// push reads the file and dispatches it as a full update. Read errors are
// logged and the previous graph stays in place.
func (c *FileChannel) push() {
	d, err := LoadDataset(c.path)
	if err != nil {
		c.logger.Warn("skipping unreadable dataset", "path", c.path, "err", err)
		return
	}
	raw, err := reconcile.EncodeUpdate(reconcile.Payload{Full: true, Nodes: d.Nodes, Links: d.Links})
	if err != nil {
		c.logger.Warn("encoding dataset", "path", c.path, "err", err)
		return
	}
	c.logger.Debug("dataset file changed", "path", c.path, "nodes", len(d.Nodes))
	c.dispatch(raw)
}

// Close stops Run.
func (c *FileChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}
