package ai

// MessageRole identifies the author of a prompt message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is a single entry in an assembled prompt.
type ChatMessage struct {
	Role    MessageRole
	Content string
}

// FinishReason describes why the model stopped generating.
type FinishReason string

const (
	// FinishStop is the natural end-of-turn signal. Any other value marks
	// the completion as invalid or degraded.
	FinishStop FinishReason = "stop"

	// FinishLength means generation was cut off by the output token limit.
	FinishLength FinishReason = "length"

	// FinishInterrupted marks a streamed completion that failed after some
	// tokens were already delivered to the caller.
	FinishInterrupted FinishReason = "interrupted"

	// FinishUnknown means the endpoint returned no usable finish signal.
	FinishUnknown FinishReason = ""
)

// CompletionRequest is the input to a ChatModel call.
type CompletionRequest struct {
	Messages  []ChatMessage
	MaxTokens int // Requested output ceiling for this attempt
}

// Completion is the result of a ChatModel call.
type Completion struct {
	Text         string
	FinishReason FinishReason
}
