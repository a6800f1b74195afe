package mock

import (
	"context"

	"github.com/poiesic/askdocs/ai"
)

// MockChatModel is a test double for ai.ChatModel.
// It allows custom behavior injection via function fields.
type MockChatModel struct {
	// CompleteFunc is called by Complete if set.
	// If nil, returns a fixed valid completion.
	CompleteFunc func(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error)

	// StreamFunc is called by Stream if set.
	// If nil, relays the fixed completion text as a single token.
	StreamFunc func(ctx context.Context, req ai.CompletionRequest, onToken ai.TokenFunc) (*ai.Completion, error)

	// Requests records every request seen, in order. Useful for asserting
	// retry growth of the requested token ceiling.
	Requests []ai.CompletionRequest

	callCount int
}

// NewMockChatModel creates a mock chat model with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockChatModel() *MockChatModel {
	return &MockChatModel{}
}

// Complete returns a fixed valid completion unless CompleteFunc is set.
func (m *MockChatModel) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	m.callCount++
	m.Requests = append(m.Requests, req)

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}

	return &ai.Completion{Text: "mock reply", FinishReason: ai.FinishStop}, nil
}

// Stream relays the completion text through onToken unless StreamFunc is set.
func (m *MockChatModel) Stream(ctx context.Context, req ai.CompletionRequest, onToken ai.TokenFunc) (*ai.Completion, error) {
	m.callCount++
	m.Requests = append(m.Requests, req)

	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, req, onToken)
	}

	completion := &ai.Completion{Text: "mock reply", FinishReason: ai.FinishStop}
	if err := onToken(ctx, completion.Text); err != nil {
		return nil, err
	}
	return completion, nil
}

// CallCount returns the number of times any method was called.
func (m *MockChatModel) CallCount() int {
	return m.callCount
}

// Reset clears recorded requests, the call count, and injected behavior.
func (m *MockChatModel) Reset() {
	m.callCount = 0
	m.Requests = nil
	m.CompleteFunc = nil
	m.StreamFunc = nil
}
