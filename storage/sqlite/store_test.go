package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/askdocs/core"
	"github.com/poiesic/askdocs/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testChunks(filename string, n int) []core.Chunk {
	chunks := make([]core.Chunk, n)
	for i := range chunks {
		chunks[i] = core.Chunk{
			Filename: filename,
			Index:    i,
			Text:     "chunk text " + filename,
			Vector:   []float32{float32(i), 0.5, -0.25},
		}
	}
	return chunks
}

func TestReopenMigratesIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	doc := &core.Document{Filename: "manual.pdf", ContentHash: "abc123", ModifiedAt: time.Now().UTC()}
	require.NoError(t, s.ReplaceDocument(ctx, doc, testChunks("manual.pdf", 2)))
	require.NoError(t, s.Close())

	// Second open runs migrate against the existing schema.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestReplaceAndGetDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := &core.Document{
		Filename:    "manual.pdf",
		ContentHash: "abc123",
		ModifiedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.ReplaceDocument(ctx, doc, testChunks("manual.pdf", 3)))
	assert.NotZero(t, doc.Id)

	got, err := s.GetDocument(ctx, "manual.pdf")
	require.NoError(t, err)
	assert.Equal(t, doc.Id, got.Id)
	assert.Equal(t, "abc123", got.ContentHash)
	assert.True(t, got.ModifiedAt.Equal(doc.ModifiedAt))
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetDocumentNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetDocument(context.Background(), "missing.pdf")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReplaceDocumentSupersedesChunks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := &core.Document{Filename: "guide.pdf", ContentHash: "v1"}
	require.NoError(t, s.ReplaceDocument(ctx, doc, testChunks("guide.pdf", 5)))

	// Re-ingest with fewer chunks; old generation must be fully gone.
	doc2 := &core.Document{Filename: "guide.pdf", ContentHash: "v2"}
	require.NoError(t, s.ReplaceDocument(ctx, doc2, testChunks("guide.pdf", 2)))
	assert.Equal(t, doc.Id, doc2.Id, "filename identity keeps the document id stable")

	n, err := s.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.GetDocument(ctx, "guide.pdf")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.ContentHash)
}

func TestReplaceDocumentRejectsGappedChunks(t *testing.T) {
	s := newTestStore(t)

	chunks := testChunks("bad.pdf", 2)
	chunks[1].Index = 5
	err := s.ReplaceDocument(context.Background(), &core.Document{Filename: "bad.pdf", ContentHash: "h"}, chunks)
	assert.ErrorIs(t, err, core.ErrChunkIndexGap)
}

func TestAllChunksOrderAndVectors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceDocument(ctx, &core.Document{Filename: "a.pdf", ContentHash: "ha"}, testChunks("a.pdf", 2)))
	require.NoError(t, s.ReplaceDocument(ctx, &core.Document{Filename: "b.pdf", ContentHash: "hb"}, testChunks("b.pdf", 2)))

	all, err := s.AllChunks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)

	assert.Equal(t, "a.pdf", all[0].Filename)
	assert.Equal(t, 0, all[0].Index)
	assert.Equal(t, 1, all[1].Index)
	assert.Equal(t, "b.pdf", all[2].Filename)
	assert.Equal(t, []float32{1, 0.5, -0.25}, all[1].Vector)
}

func TestAllChunksEmpty(t *testing.T) {
	s := newTestStore(t)

	all, err := s.AllChunks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	n, err := s.CountChunks(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIngestionJobLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := &core.IngestionJob{Filename: "manual.pdf", ContentHash: "abc"}
	id, err := s.BeginIngestionJob(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, core.JobRunning, job.Status)
	assert.False(t, job.StartedAt.IsZero())

	got, err := s.GetIngestionJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.JobRunning, got.Status)
	assert.True(t, got.FinishedAt.IsZero())

	require.NoError(t, s.CompleteIngestionJob(ctx, id))
	got, err = s.GetIngestionJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.JobSuccess, got.Status)
	assert.False(t, got.FinishedAt.IsZero())
}

func TestFailIngestionJobRecordsCause(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.BeginIngestionJob(ctx, &core.IngestionJob{Filename: "broken.pdf"})
	require.NoError(t, err)
	require.NoError(t, s.FailIngestionJob(ctx, id, "extraction produced no text"))

	got, err := s.GetIngestionJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, core.JobError, got.Status)
	assert.Equal(t, "extraction produced no text", got.Error)
}

func TestFinishUnknownJob(t *testing.T) {
	s := newTestStore(t)

	err := s.CompleteIngestionJob(context.Background(), 9999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClosedStore(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "double close is safe")

	_, err := s.GetDocument(context.Background(), "x.pdf")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	_, err = s.AllChunks(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestVectorRoundTrip(t *testing.T) {
	vec := []float32{0, 1, -1, 0.125, 3.14159}
	got, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, got)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
