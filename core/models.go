package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ContentHash computes the BLAKE2b-256 hex digest of raw document bytes.
// Identical bytes always produce identical hashes, which is what makes
// re-ingestion of unchanged documents a detectable no-op.
func ContentHash(data []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Document is the metadata record for one indexed file in the knowledge base.
// There is at most one live Document per filename; a change to the underlying
// file supersedes the record and wholly replaces its chunks.
type Document struct {
	Id          int64
	Filename    string
	ContentHash string
	ModifiedAt  time.Time // Last-modified timestamp of the source file
	CreatedAt   time.Time // When the document was first ingested
}

// Chunk is one overlapping window of a document's extracted text together
// with its embedding vector. Index is the ordinal within the owning
// document's current generation, contiguous from 0.
type Chunk struct {
	DocumentId int64
	Filename   string
	Index      int
	Text       string
	Vector     []float32
}

// JobStatus is the lifecycle state of an ingestion attempt.
type JobStatus string

const (
	JobRunning JobStatus = "running"
	JobSuccess JobStatus = "success"
	JobError   JobStatus = "error"
)

// IngestionJob is a transient audit record of one ingestion attempt.
// It exists purely for observability and is never consulted by retrieval.
type IngestionJob struct {
	Id          int64
	Filename    string
	Status      JobStatus
	ContentHash string    // Hash the attempt was trying to commit
	ModifiedAt  time.Time // Modification time the attempt was trying to commit
	StartedAt   time.Time
	FinishedAt  time.Time
	Error       string
}

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation is identified by an opaque token and carries no identity
// beyond it. Created lazily on first use; never expires.
type Conversation struct {
	Token        string
	CreatedAt    time.Time
	LastActiveAt time.Time
}

// Message is a single conversation entry, immutable once written.
// Seq orders messages within their conversation.
type Message struct {
	Seq               uint64
	ConversationToken string
	Role              Role
	Content           string
	CreatedAt         time.Time
}

// SourceRef names one retrieved chunk that grounded an assistant reply.
type SourceRef struct {
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
}

// Interaction is the append-only log record linking one user message and
// one assistant reply, plus the request metadata and retrieval sources
// that produced it.
type Interaction struct {
	ConversationToken string
	UserText          string
	AssistantText     string
	RemoteAddr        string
	UserAgent         string
	Sources           []SourceRef
	CreatedAt         time.Time
}

// RetrievedChunk is a scored retrieval hit returned to the prompt layer.
type RetrievedChunk struct {
	Text       string
	Filename   string
	ChunkIndex int
	Score      float32
}

// Ref returns the source reference for a retrieved chunk.
func (c *RetrievedChunk) Ref() SourceRef {
	return SourceRef{Filename: c.Filename, ChunkIndex: c.ChunkIndex, Score: c.Score}
}

// RetrievalResult is the outcome of one retrieval pass. MaxScore is the
// highest raw similarity observed, reported even when every chunk was
// filtered out by the score threshold.
type RetrievalResult struct {
	Chunks   []RetrievedChunk
	MaxScore float32
}

// Sources returns the source references for all retained chunks.
func (r *RetrievalResult) Sources() []SourceRef {
	refs := make([]SourceRef, len(r.Chunks))
	for i := range r.Chunks {
		refs[i] = r.Chunks[i].Ref()
	}
	return refs
}
