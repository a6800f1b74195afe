package ai

import (
	"context"
	"log/slog"
	"sync"
)

// warmProbeText is embedded once at startup to load the embedding model
// into the endpoint before the first real request arrives.
const warmProbeText = "warm-up probe"

// defaultQueueDepth bounds how many embedding requests may wait in line.
const defaultQueueDepth = 64

type embedRequest struct {
	ctx   context.Context
	texts []string
	done  chan embedResult
}

type embedResult struct {
	vectors [][]float32
	err     error
}

// EmbedQueue serializes all embedding traffic through one logical queue.
// Requests are served strictly first-enqueued first-served by a single
// drain goroutine; two embedding calls are never in flight at once.
//
// EmbedQueue itself implements Embedder, so ingestion and retrieval take
// it wherever an Embedder is expected.
type EmbedQueue struct {
	embedder Embedder
	requests chan *embedRequest
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

var _ Embedder = (*EmbedQueue)(nil)

// QueueOption configures an EmbedQueue.
type QueueOption func(*EmbedQueue)

// WithQueueLogger sets a custom logger.
// Default is slog.Default().
func WithQueueLogger(logger *slog.Logger) QueueOption {
	return func(q *EmbedQueue) {
		if logger == nil {
			logger = slog.Default()
		}
		q.logger = logger
	}
}

// NewEmbedQueue creates a queue in front of the given embedder and starts
// its drain goroutine.
func NewEmbedQueue(embedder Embedder, opts ...QueueOption) (*EmbedQueue, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	q := &EmbedQueue{
		embedder: embedder,
		requests: make(chan *embedRequest, defaultQueueDepth),
		logger:   slog.Default().With("component", "embed-queue"),
	}
	for _, opt := range opts {
		opt(q)
	}

	q.wg.Add(1)
	go q.drain()

	return q, nil
}

func (q *EmbedQueue) drain() {
	defer q.wg.Done()

	for req := range q.requests {
		// A caller that gave up while waiting in line should not consume
		// the endpoint slot.
		if err := req.ctx.Err(); err != nil {
			req.done <- embedResult{err: err}
			continue
		}

		vectors, err := q.embedder.EmbedBatch(req.ctx, req.texts)
		if err != nil {
			q.logger.Error("embedding call failed", "texts", len(req.texts), "err", err)
		}
		req.done <- embedResult{vectors: vectors, err: err}
	}
}

func (q *EmbedQueue) submit(ctx context.Context, texts []string) ([][]float32, error) {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return nil, ErrQueueClosed
	}
	req := &embedRequest{ctx: ctx, texts: texts, done: make(chan embedResult, 1)}
	select {
	case q.requests <- req:
		q.mu.RUnlock()
	case <-ctx.Done():
		q.mu.RUnlock()
		return nil, ctx.Err()
	}

	select {
	case res := <-req.done:
		return res.vectors, res.err
	case <-ctx.Done():
		// The drain goroutine delivers into a buffered channel, so an
		// abandoned result does not block it.
		return nil, ctx.Err()
	}
}

// EmbedQuery embeds a single query string through the queue.
func (q *EmbedQueue) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := q.submit(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		q.logger.Warn("embedder returned empty result")
		return []float32{}, nil
	}
	return vectors[0], nil
}

// EmbedBatch embeds a batch of texts as one queued request. The whole batch
// occupies a single queue slot, so a document's chunks are embedded together
// without another caller interleaving.
func (q *EmbedQueue) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return q.submit(ctx, texts)
}

// Warm issues the warm-up probe through the queue, forcing the endpoint to
// load the embedding model before real traffic arrives.
func (q *EmbedQueue) Warm(ctx context.Context) error {
	_, err := q.EmbedQuery(ctx, warmProbeText)
	return err
}

// Close stops accepting requests and waits for the drain goroutine to
// finish the backlog.
func (q *EmbedQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.requests)
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}
