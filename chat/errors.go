package chat

import "errors"

var (
	// ErrChatStoreRequired is returned when a chat store is not provided.
	ErrChatStoreRequired = errors.New("chat store required")

	// ErrChatModelRequired is returned when a chat model is not provided.
	ErrChatModelRequired = errors.New("chat model required")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrInvalidCompletion marks a completion with a missing finish signal,
	// a non-stop finish, or blank text.
	ErrInvalidCompletion = errors.New("invalid completion")

	// ErrCompletionExhausted is returned when every completion attempt
	// failed. It wraps the last cause.
	ErrCompletionExhausted = errors.New("completion attempts exhausted")

	// ErrEmptyMessage is returned for a chat request with no text.
	ErrEmptyMessage = errors.New("message text cannot be empty")
)
