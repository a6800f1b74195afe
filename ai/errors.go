package ai

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrQueueClosed is returned when submitting to a closed embed queue.
	ErrQueueClosed = errors.New("embed queue is closed")

	// ErrModelNotAvailable is returned when a configured model is not
	// present at the inference endpoint.
	ErrModelNotAvailable = errors.New("model not available at inference endpoint")
)
