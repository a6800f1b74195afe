package ai

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder tracks concurrency and submission order.
// Defined locally: ai/mock imports this package.
type stubEmbedder struct {
	mu       sync.Mutex
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	order    []string
	delay    time.Duration
	err      error
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	s.order = append(s.order, texts...)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func TestNewEmbedQueue(t *testing.T) {
	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewEmbedQueue(nil)
		assert.Equal(t, ErrEmbedderRequired, err)
	})

	t.Run("valid embedder", func(t *testing.T) {
		q, err := NewEmbedQueue(&stubEmbedder{})
		require.NoError(t, err)
		defer q.Close()
		assert.NotNil(t, q)
	})
}

func TestEmbedQueue_Serializes(t *testing.T) {
	stub := &stubEmbedder{delay: 5 * time.Millisecond}
	q, err := NewEmbedQueue(stub)
	require.NoError(t, err)
	defer q.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.EmbedQuery(ctx, "query")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Never more than one embedding call in flight, regardless of callers.
	assert.Equal(t, int32(1), stub.maxSeen.Load())
	assert.Len(t, stub.order, 16)
}

func TestEmbedQueue_BatchKeepsOneSlot(t *testing.T) {
	stub := &stubEmbedder{}
	q, err := NewEmbedQueue(stub)
	require.NoError(t, err)
	defer q.Close()

	vectors, err := q.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vectors, 3)
	// The batch arrived as one call, in order.
	assert.Equal(t, []string{"a", "b", "c"}, stub.order)
}

func TestEmbedQueue_PropagatesError(t *testing.T) {
	wantErr := errors.New("endpoint unreachable")
	q, err := NewEmbedQueue(&stubEmbedder{err: wantErr})
	require.NoError(t, err)
	defer q.Close()

	_, err = q.EmbedQuery(context.Background(), "query")
	assert.ErrorIs(t, err, wantErr)
}

func TestEmbedQueue_CancelledContext(t *testing.T) {
	q, err := NewEmbedQueue(&stubEmbedder{})
	require.NoError(t, err)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = q.EmbedQuery(ctx, "query")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbedQueue_Warm(t *testing.T) {
	stub := &stubEmbedder{}
	q, err := NewEmbedQueue(stub)
	require.NoError(t, err)
	defer q.Close()

	require.NoError(t, q.Warm(context.Background()))
	assert.Equal(t, []string{warmProbeText}, stub.order)
}

func TestEmbedQueue_Close(t *testing.T) {
	q, err := NewEmbedQueue(&stubEmbedder{})
	require.NoError(t, err)

	require.NoError(t, q.Close())
	// Idempotent.
	require.NoError(t, q.Close())

	_, err = q.EmbedQuery(context.Background(), "query")
	assert.ErrorIs(t, err, ErrQueueClosed)
}
