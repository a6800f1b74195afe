package ingestion

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/panjf2000/ants/v2"
)

// Watcher observes the documents directory and re-ingests files as they
// appear or change. Events collapse into a pending set drained by a
// one-worker pool, so a burst of writes to the same file costs a single
// ingestion and at most one ingestion runs at a time.
type Watcher struct {
	engine  *Engine
	watcher *fsnotify.Watcher
	pool    *ants.Pool
	logger  *slog.Logger

	mu       sync.Mutex
	pending  map[string]struct{}
	draining bool

	started bool
	done    chan struct{}
}

// NewWatcher creates a watcher over the engine's documents directory.
// Call Start to begin observing.
func NewWatcher(engine *Engine, logger *slog.Logger) (*Watcher, error) {
	if engine == nil {
		return nil, ErrContentStoreRequired
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(1)
	if err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		engine:  engine,
		watcher: fsw,
		pool:    pool,
		logger:  logger.With("component", "watcher"),
		pending: make(map[string]struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the documents directory. The event loop runs until
// Close is called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.engine.dir); err != nil {
		return err
	}

	w.started = true
	go w.run(ctx)
	w.logger.Info("watching documents directory", "dir", w.engine.dir)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if !w.engine.Eligible(name) {
				continue
			}
			w.enqueue(ctx, name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

// enqueue adds a filename to the pending set and starts a drain if one is
// not already in flight.
func (w *Watcher) enqueue(ctx context.Context, name string) {
	w.mu.Lock()
	w.pending[name] = struct{}{}
	startDrain := !w.draining
	if startDrain {
		w.draining = true
	}
	w.mu.Unlock()

	if !startDrain {
		return
	}

	if err := w.pool.Submit(func() { w.drain(ctx) }); err != nil {
		w.mu.Lock()
		w.draining = false
		w.mu.Unlock()
		w.logger.Error("failed to schedule ingestion", "error", err)
	}
}

// drain ingests pending files one at a time until the set is empty.
// Files enqueued during a drain are picked up by the same pass.
func (w *Watcher) drain(ctx context.Context) {
	for {
		w.mu.Lock()
		var name string
		for n := range w.pending {
			name = n
			break
		}
		if name == "" {
			w.draining = false
			w.mu.Unlock()
			return
		}
		delete(w.pending, name)
		w.mu.Unlock()

		if _, err := w.engine.IngestDocument(ctx, name); err != nil {
			w.logger.Error("re-ingestion failed", "filename", name, "error", err)
		}
	}
}

// Close stops watching and releases the worker pool.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	if w.started {
		<-w.done
	}
	w.pool.Release()
	return err
}
