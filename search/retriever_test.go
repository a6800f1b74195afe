package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/askdocs/ai/mock"
	"github.com/poiesic/askdocs/core"
	"github.com/poiesic/askdocs/storage/sqlite"
)

func newTestRetriever(t *testing.T, embedder *mock.MockEmbedder) (*Retriever, *sqlite.Store) {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	r, err := NewRetriever(store, embedder)
	require.NoError(t, err)
	return r, store
}

func storeChunks(t *testing.T, store *sqlite.Store, filename string, vectors ...[]float32) {
	t.Helper()
	chunks := make([]core.Chunk, len(vectors))
	for i, v := range vectors {
		chunks[i] = core.Chunk{
			Filename: filename,
			Index:    i,
			Text:     "chunk text",
			Vector:   v,
		}
	}
	doc := &core.Document{Filename: filename, ContentHash: "hash-" + filename}
	require.NoError(t, store.ReplaceDocument(context.Background(), doc, chunks))
}

func TestRetrieveEmptyIndexShortCircuits(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	r, _ := newTestRetriever(t, embedder)

	res, err := r.Retrieve(context.Background(), "anything", 5, 0.35)
	require.NoError(t, err)
	assert.Empty(t, res.Chunks)
	assert.Zero(t, res.MaxScore)
	assert.Zero(t, embedder.CallCount(), "no embedding call for an empty index")
}

func TestRetrieveRanksByCosine(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedQueryFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	r, store := newTestRetriever(t, embedder)

	storeChunks(t, store, "doc.pdf",
		[]float32{0, 1, 0},       // orthogonal, score 0
		[]float32{1, 0, 0},       // identical, score 1
		[]float32{0.7, 0.7, 0},   // diagonal, ~0.7
	)

	res, err := r.Retrieve(context.Background(), "query", 5, 0)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 3)
	assert.Equal(t, 1, res.Chunks[0].ChunkIndex)
	assert.Equal(t, 2, res.Chunks[1].ChunkIndex)
	assert.Equal(t, 0, res.Chunks[2].ChunkIndex)
	assert.InDelta(t, 1.0, float64(res.MaxScore), 1e-5)
}

func TestRetrieveTopKAndTies(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedQueryFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}
	r, store := newTestRetriever(t, embedder)

	// Four identical vectors: all tie at score 1.
	storeChunks(t, store, "doc.pdf",
		[]float32{1, 0}, []float32{1, 0}, []float32{1, 0}, []float32{1, 0})

	res, err := r.Retrieve(context.Background(), "query", 2, 0)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 2)

	// Ties keep scan order.
	assert.Equal(t, 0, res.Chunks[0].ChunkIndex)
	assert.Equal(t, 1, res.Chunks[1].ChunkIndex)
}

func TestRetrieveMinScoreFiltersAfterSelection(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedQueryFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}
	r, store := newTestRetriever(t, embedder)

	storeChunks(t, store, "doc.pdf",
		[]float32{1, 0},      // score 1
		[]float32{0.2, 0.98}, // weak match
	)

	res, err := r.Retrieve(context.Background(), "query", 5, 0.5)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, 0, res.Chunks[0].ChunkIndex)
	assert.InDelta(t, 1.0, float64(res.MaxScore), 1e-5)
}

func TestRetrieveMaxScoreReportedWhenAllFiltered(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedQueryFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0}, nil
	}
	r, store := newTestRetriever(t, embedder)

	storeChunks(t, store, "doc.pdf", []float32{0.3, 0.95})

	res, err := r.Retrieve(context.Background(), "query", 5, 0.9)
	require.NoError(t, err)
	assert.Empty(t, res.Chunks)
	assert.Greater(t, res.MaxScore, float32(0))
}

func TestRetrieveEmptyQuery(t *testing.T) {
	r, _ := newTestRetriever(t, mock.NewMockEmbedder())

	_, err := r.Retrieve(context.Background(), "   ", 5, 0.35)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestCosineZeroNormGuard(t *testing.T) {
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 0}))
	assert.Zero(t, Cosine([]float32{1, 0}, nil))
	assert.InDelta(t, 1.0, float64(Cosine([]float32{2, 0}, []float32{5, 0})), 1e-5)
	assert.InDelta(t, -1.0, float64(Cosine([]float32{1, 0}, []float32{-3, 0})), 1e-5)
}
