package ingestion

import "errors"

var (
	// ErrContentStoreRequired is returned when a content store is not provided.
	ErrContentStoreRequired = errors.New("content store required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrFileMissing is returned when the source file no longer exists.
	ErrFileMissing = errors.New("file no longer exists")

	// ErrFileTooLarge is returned when the source file exceeds the size limit.
	ErrFileTooLarge = errors.New("file exceeds size limit")

	// ErrUnsupportedFormat is returned for file types without an extractor.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrNoExtractableText is returned when extraction yields no usable text.
	ErrNoExtractableText = errors.New("no extractable text")

	// ErrPartialIngestion is returned by bulk ingestion when some files failed.
	ErrPartialIngestion = errors.New("some documents failed to ingest")

	// ErrEmbeddingMismatch is returned when the embedding count does not
	// match the chunk count.
	ErrEmbeddingMismatch = errors.New("embedding count does not match chunk count")
)
