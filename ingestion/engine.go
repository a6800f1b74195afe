// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/poiesic/askdocs/ai"
	"github.com/poiesic/askdocs/core"
	"github.com/poiesic/askdocs/storage"
)

const (
	// DefaultChunkSize is the window length in characters.
	DefaultChunkSize = 1200
	// DefaultChunkOverlap is the shared boundary between consecutive windows.
	DefaultChunkOverlap = 200
)

// defaultExtensions are the file types the engine will index.
var defaultExtensions = []string{".pdf", ".txt", ".md"}

// Status is the outcome of one ingestion attempt.
type Status string

const (
	StatusSkipped Status = "skipped"
	StatusIndexed Status = "indexed"
	StatusError   Status = "error"
)

// Result reports the outcome of ingesting one document.
type Result struct {
	Filename   string
	Status     Status
	ChunkCount int
	Err        error
}

// Engine ingests documents from a directory into the content store.
type Engine struct {
	store        storage.ContentStore
	embedder     ai.Embedder
	dir          string
	chunkSize    int
	chunkOverlap int
	extensions   map[string]bool
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithChunking sets the chunk window size and overlap in characters.
func WithChunking(size, overlap int) Option {
	return func(e *Engine) error {
		if size <= 0 {
			return fmt.Errorf("chunk size must be positive, got %d", size)
		}
		if overlap < 0 || overlap >= size {
			return fmt.Errorf("chunk overlap must be in [0, size), got %d", overlap)
		}
		e.chunkSize = size
		e.chunkOverlap = overlap
		return nil
	}
}

// WithExtensions sets the file extensions eligible for ingestion.
func WithExtensions(exts []string) Option {
	return func(e *Engine) error {
		if len(exts) == 0 {
			return nil
		}
		e.extensions = make(map[string]bool, len(exts))
		for _, ext := range exts {
			e.extensions[strings.ToLower(ext)] = true
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger != nil {
			e.logger = logger.With("component", "ingestion")
		}
		return nil
	}
}

// NewEngine creates an ingestion engine over the given documents directory.
func NewEngine(store storage.ContentStore, embedder ai.Embedder, dir string, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, ErrContentStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	e := &Engine{
		store:        store,
		embedder:     embedder,
		dir:          dir,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		extensions:   make(map[string]bool, len(defaultExtensions)),
		logger:       slog.Default().With("component", "ingestion"),
	}
	for _, ext := range defaultExtensions {
		e.extensions[ext] = true
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Eligible reports whether a filename has an indexable extension.
func (e *Engine) Eligible(filename string) bool {
	return e.extensions[strings.ToLower(filepath.Ext(filename))]
}

// IngestDocument ingests one document by filename (relative to the engine's
// directory). An unchanged document is a skipped no-op; any failure leaves
// the previously committed chunk generation untouched.
func (e *Engine) IngestDocument(ctx context.Context, filename string) (*Result, error) {
	path := filepath.Join(e.dir, filename)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			err = fmt.Errorf("%w: %s", ErrFileMissing, filename)
		}
		return &Result{Filename: filename, Status: StatusError, Err: err}, err
	}

	if info.Size() > MaxFileSize {
		err := fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, filename, info.Size())
		return &Result{Filename: filename, Status: StatusError, Err: err}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &Result{Filename: filename, Status: StatusError, Err: err}, err
	}

	hash := core.ContentHash(data)
	modifiedAt := info.ModTime().UTC()

	existing, err := e.store.GetDocument(ctx, filename)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return &Result{Filename: filename, Status: StatusError, Err: err}, err
	}
	if existing != nil && existing.ContentHash == hash && existing.ModifiedAt.Equal(modifiedAt) {
		e.logger.Debug("document unchanged", "filename", filename)
		return &Result{Filename: filename, Status: StatusSkipped}, nil
	}

	job := &core.IngestionJob{
		Filename:    filename,
		ContentHash: hash,
		ModifiedAt:  modifiedAt,
		StartedAt:   time.Now().UTC(),
	}
	jobId, err := e.store.BeginIngestionJob(ctx, job)
	if err != nil {
		return &Result{Filename: filename, Status: StatusError, Err: err}, err
	}

	count, err := e.index(ctx, path, filename, hash, modifiedAt)
	if err != nil {
		if failErr := e.store.FailIngestionJob(ctx, jobId, err.Error()); failErr != nil {
			e.logger.Error("failed to record job failure", "filename", filename, "error", failErr)
		}
		e.logger.Error("ingestion failed", "filename", filename, "error", err)
		return &Result{Filename: filename, Status: StatusError, Err: err}, err
	}

	if err := e.store.CompleteIngestionJob(ctx, jobId); err != nil {
		e.logger.Error("failed to record job success", "filename", filename, "error", err)
	}

	e.logger.Info("document indexed", "filename", filename, "chunks", count)
	return &Result{Filename: filename, Status: StatusIndexed, ChunkCount: count}, nil
}

// index extracts, chunks, embeds, and atomically commits one document.
func (e *Engine) index(ctx context.Context, path, filename, hash string, modifiedAt time.Time) (int, error) {
	text, err := ExtractText(path)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("%w: %s", ErrNoExtractableText, filename)
	}

	texts := SplitChunks(text, e.chunkSize, e.chunkOverlap)
	if len(texts) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNoExtractableText, filename)
	}

	// One batched call keeps queue occupancy to a single slot per document.
	vectors, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("%w: %d chunks, %d embeddings", ErrEmbeddingMismatch, len(texts), len(vectors))
	}

	chunks := make([]core.Chunk, len(texts))
	for i := range texts {
		chunks[i] = core.Chunk{
			Filename: filename,
			Index:    i,
			Text:     texts[i],
			Vector:   vectors[i],
		}
	}

	doc := &core.Document{
		Filename:    filename,
		ContentHash: hash,
		ModifiedAt:  modifiedAt,
	}
	if err := e.store.ReplaceDocument(ctx, doc, chunks); err != nil {
		return 0, fmt.Errorf("commit chunks: %w", err)
	}
	return len(chunks), nil
}

// IngestAll ingests every eligible file in the documents directory, in
// sorted filename order. Each file ingests independently; failures are
// aggregated while successful commits stay in place.
func (e *Engine) IngestAll(ctx context.Context) ([]*Result, error) {
	entries, err := os.ReadDir(e.dir)
	if err != nil {
		return nil, fmt.Errorf("scan documents directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !e.Eligible(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var (
		results []*Result
		failed  []string
	)
	for _, name := range names {
		res, err := e.IngestDocument(ctx, name)
		results = append(results, res)
		if err != nil {
			failed = append(failed, name)
		}
	}

	if len(failed) > 0 {
		return results, fmt.Errorf("%w: %s", ErrPartialIngestion, strings.Join(failed, ", "))
	}
	return results, nil
}
