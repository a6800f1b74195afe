package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/askdocs/ai/mock"
	"github.com/poiesic/askdocs/storage"
	"github.com/poiesic/askdocs/storage/sqlite"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, storage.ContentStore, string) {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	dir := t.TempDir()
	engine, err := NewEngine(store, mock.NewMockEmbedder(), dir, opts...)
	require.NoError(t, err)
	return engine, store, dir
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestIngestDocumentIndexes(t *testing.T) {
	engine, store, dir := newTestEngine(t, WithChunking(50, 10))
	ctx := context.Background()

	writeFile(t, dir, "notes.txt", strings.Repeat("product documentation text ", 20))

	res, err := engine.IngestDocument(ctx, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, StatusIndexed, res.Status)
	assert.Greater(t, res.ChunkCount, 1)

	n, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.ChunkCount, n)

	doc, err := store.GetDocument(ctx, "notes.txt")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ContentHash)
	assert.False(t, doc.ModifiedAt.IsZero())
}

func TestIngestDocumentSkipsUnchanged(t *testing.T) {
	engine, _, dir := newTestEngine(t)
	ctx := context.Background()

	writeFile(t, dir, "notes.txt", "some stable content here")

	first, err := engine.IngestDocument(ctx, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, StatusIndexed, first.Status)

	second, err := engine.IngestDocument(ctx, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, second.Status)
	assert.Zero(t, second.ChunkCount)
}

func TestIngestDocumentReplacesOnChange(t *testing.T) {
	engine, store, dir := newTestEngine(t, WithChunking(20, 0))
	ctx := context.Background()

	writeFile(t, dir, "notes.txt", strings.Repeat("first version text ", 10))
	_, err := engine.IngestDocument(ctx, "notes.txt")
	require.NoError(t, err)

	before, err := store.CountChunks(ctx)
	require.NoError(t, err)

	writeFile(t, dir, "notes.txt", "tiny")
	res, err := engine.IngestDocument(ctx, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, StatusIndexed, res.Status)

	after, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, after)
	assert.Less(t, after, before, "old generation fully replaced")
}

func TestIngestDocumentMissingFile(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	res, err := engine.IngestDocument(context.Background(), "ghost.txt")
	assert.ErrorIs(t, err, ErrFileMissing)
	assert.Equal(t, StatusError, res.Status)
}

func TestIngestDocumentEmptyText(t *testing.T) {
	engine, store, dir := newTestEngine(t)
	ctx := context.Background()

	writeFile(t, dir, "blank.txt", "   \n\t  ")

	_, err := engine.IngestDocument(ctx, "blank.txt")
	assert.ErrorIs(t, err, ErrNoExtractableText)

	// Nothing committed for the failed document.
	_, err = store.GetDocument(ctx, "blank.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIngestDocumentEmbedFailureKeepsPriorState(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	embedder := mock.NewMockEmbedder()
	dir := t.TempDir()
	engine, err := NewEngine(store, embedder, dir)
	require.NoError(t, err)
	ctx := context.Background()

	writeFile(t, dir, "notes.txt", "original content")
	_, err = engine.IngestDocument(ctx, "notes.txt")
	require.NoError(t, err)

	embedder.EmbedBatchFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("endpoint down")
	}
	writeFile(t, dir, "notes.txt", "changed content")

	_, err = engine.IngestDocument(ctx, "notes.txt")
	require.Error(t, err)

	// Prior generation untouched.
	all, err := store.AllChunks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "original content", all[0].Text)
}

func TestIngestAllSortedAndAggregated(t *testing.T) {
	engine, _, dir := newTestEngine(t)
	ctx := context.Background()

	writeFile(t, dir, "b.txt", "content of b")
	writeFile(t, dir, "a.md", "content of a")
	writeFile(t, dir, "ignored.docx", "not eligible")

	results, err := engine.IngestAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.md", results[0].Filename)
	assert.Equal(t, "b.txt", results[1].Filename)
}

func TestIngestAllPartialFailure(t *testing.T) {
	engine, store, dir := newTestEngine(t)
	ctx := context.Background()

	writeFile(t, dir, "good.txt", "healthy content")
	writeFile(t, dir, "bad.txt", "   ")

	results, err := engine.IngestAll(ctx)
	require.ErrorIs(t, err, ErrPartialIngestion)
	assert.Contains(t, err.Error(), "bad.txt")
	require.Len(t, results, 2)

	// The good file stays committed despite the aggregate failure.
	_, err = store.GetDocument(ctx, "good.txt")
	assert.NoError(t, err)
}

func TestEligible(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	assert.True(t, engine.Eligible("manual.pdf"))
	assert.True(t, engine.Eligible("README.MD"))
	assert.False(t, engine.Eligible("archive.zip"))
	assert.False(t, engine.Eligible("noext"))
}

func TestNewEngineValidation(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = NewEngine(nil, mock.NewMockEmbedder(), t.TempDir())
	assert.ErrorIs(t, err, ErrContentStoreRequired)

	_, err = NewEngine(store, nil, t.TempDir())
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewEngine(store, mock.NewMockEmbedder(), t.TempDir(), WithChunking(0, 0))
	assert.Error(t, err)
}
