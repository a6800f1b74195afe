// Package search retrieves the document chunks most relevant to a query.
//
// Retrieval is a brute-force cosine scan over every stored chunk. The corpus
// is a handful of product documents, so a linear pass through a few thousand
// vectors is faster than maintaining an index and is trivially consistent
// with whatever the last ingestion committed.
package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/askdocs/ai"
	"github.com/poiesic/askdocs/core"
	"github.com/poiesic/askdocs/storage"
)

const (
	// DefaultTopK is the number of chunks retained per query.
	DefaultTopK = 5
	// DefaultMinScore is the similarity floor below which chunks are dropped.
	DefaultMinScore = 0.35
)

// Retriever finds the stored chunks most similar to a query.
type Retriever struct {
	store    storage.ContentStore
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "search")
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(store storage.ContentStore, embedder ai.Embedder, opts ...Option) (*Retriever, error) {
	if store == nil {
		return nil, ErrContentStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		store:    store,
		embedder: embedder,
		logger:   slog.Default().With("component", "search"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Retrieve returns the topK chunks most similar to the query that clear
// minScore. MaxScore reports the best raw similarity seen even when every
// candidate fell below the floor. An empty index short-circuits before any
// embedding call.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, minScore float32) (*core.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	count, err := r.store.CountChunks(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return &core.RetrievalResult{}, nil
	}

	queryVec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	chunks, err := r.store.AllChunks(ctx)
	if err != nil {
		return nil, err
	}

	scored := make([]core.RetrievedChunk, 0, len(chunks))
	var maxScore float32
	for i := range chunks {
		score := Cosine(queryVec, chunks[i].Vector)
		if i == 0 || score > maxScore {
			maxScore = score
		}
		scored = append(scored, core.RetrievedChunk{
			Text:       chunks[i].Text,
			Filename:   chunks[i].Filename,
			ChunkIndex: chunks[i].Index,
			Score:      score,
		})
	}

	// Stable sort keeps scan order for equal scores, so ties resolve to
	// the earlier (document, ordinal) position deterministically.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}

	kept := scored[:0]
	for _, c := range scored {
		if c.Score >= minScore {
			kept = append(kept, c)
		}
	}

	r.logger.Debug("retrieval complete",
		"candidates", len(chunks),
		"kept", len(kept),
		"max_score", maxScore)

	return &core.RetrievalResult{Chunks: kept, MaxScore: maxScore}, nil
}
