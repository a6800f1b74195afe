package storage

import (
	"context"

	"github.com/poiesic/askdocs/core"
)

// ContentStore provides operations for the document index: document
// metadata, chunk embeddings, and ingestion job audit records.
// Implementations must be thread-safe and support concurrent access.
type ContentStore interface {
	// GetDocument retrieves document metadata by filename.
	// Returns ErrNotFound if no document with that filename exists.
	GetDocument(ctx context.Context, filename string) (*core.Document, error)

	// ReplaceDocument atomically commits a document generation: metadata
	// is upserted by filename and the chunk set wholly replaces any prior
	// generation. A concurrent reader never observes a partial replacement.
	// Chunk ordinals must be contiguous from 0.
	ReplaceDocument(ctx context.Context, doc *core.Document, chunks []core.Chunk) error

	// AllChunks retrieves every stored chunk joined with its owning
	// document's filename, in stable (document, ordinal) order.
	AllChunks(ctx context.Context) ([]core.Chunk, error)

	// CountChunks reports the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// BeginIngestionJob opens an ingestion job record with status running
	// and returns its id.
	BeginIngestionJob(ctx context.Context, job *core.IngestionJob) (int64, error)

	// CompleteIngestionJob marks a job successful and stamps its
	// completion time.
	CompleteIngestionJob(ctx context.Context, id int64) error

	// FailIngestionJob marks a job failed with the given cause and stamps
	// its completion time.
	FailIngestionJob(ctx context.Context, id int64, cause string) error

	// GetIngestionJob retrieves a job record by id.
	// Returns ErrNotFound if the job doesn't exist.
	GetIngestionJob(ctx context.Context, id int64) (*core.IngestionJob, error)

	// Close closes the store and releases resources.
	Close() error
}

// ChatStore provides operations for conversations, their messages, and the
// append-only interaction log.
// Implementations must be thread-safe and support concurrent access.
type ChatStore interface {
	// UpsertConversation creates a conversation for the token if none
	// exists and bumps its last-active timestamp either way.
	UpsertConversation(ctx context.Context, token string) (*core.Conversation, error)

	// AppendMessage appends a message to a conversation. Messages are
	// immutable once written; returned with sequence and timestamp set.
	AppendMessage(ctx context.Context, token string, role core.Role, content string) (*core.Message, error)

	// RecentMessages retrieves the newest limit messages of a conversation
	// in chronological order. A conversation that doesn't exist yields an
	// empty slice, not an error.
	RecentMessages(ctx context.Context, token string, limit int) ([]*core.Message, error)

	// AppendInteraction appends one interaction log record.
	// Interactions are write-once: never mutated or deleted.
	AppendInteraction(ctx context.Context, rec *core.Interaction) error

	// Close closes the store and releases resources.
	Close() error
}
