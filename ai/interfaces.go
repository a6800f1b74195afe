package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedQuery generates a vector embedding for a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vector embeddings for multiple texts in one
	// request. The returned slice contains embeddings in input order.
	// Returns an error if any embedding generation fails.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// TokenFunc receives incremental completion output during streaming.
// Returning an error aborts the stream.
type TokenFunc func(ctx context.Context, token string) error

// ChatModel creates chat completions against the inference endpoint.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// Complete issues a blocking completion request and returns the full
	// result once the model finishes.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// Stream issues a streaming completion request, invoking onToken for
	// each output fragment as it arrives. The returned Completion carries
	// the accumulated text and the finish signal.
	Stream(ctx context.Context, req CompletionRequest, onToken TokenFunc) (*Completion, error)
}

// Provider aggregates the inference services for convenient initialization
// and lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Chat returns the chat completion service.
	Chat() ChatModel

	// Models lists the model identifiers available at the endpoint.
	// Used at startup to verify the configured chat and embedding models.
	Models(ctx context.Context) ([]string, error)

	// Close releases resources held by the provider and its services.
	Close() error
}
