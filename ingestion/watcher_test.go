package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/askdocs/storage"
)

func waitForChunks(t *testing.T, store storage.ContentStore, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		n, err := store.CountChunks(context.Background())
		require.NoError(t, err)
		if n >= want {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d chunks", want)
}

func TestWatcherIngestsNewFile(t *testing.T) {
	engine, store, dir := newTestEngine(t)

	w, err := NewWatcher(engine, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "fresh.txt"), []byte("newly dropped document"), 0644))

	waitForChunks(t, store, 1)

	doc, err := store.GetDocument(context.Background(), "fresh.txt")
	require.NoError(t, err)
	assert.Equal(t, "fresh.txt", doc.Filename)
}

func TestWatcherIgnoresIneligibleFiles(t *testing.T) {
	engine, store, dir := newTestEngine(t)

	w, err := NewWatcher(engine, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "temp.swp"), []byte("editor noise"), 0644))

	time.Sleep(200 * time.Millisecond)
	n, err := store.CountChunks(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWatcherCloseWithoutStart(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	w, err := NewWatcher(engine, nil)
	require.NoError(t, err)
	assert.NoError(t, w.Close())
}
