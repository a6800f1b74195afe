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


package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/askdocs/ai"
)

const (
	// DefaultMaxAttempts bounds completion retries per turn.
	DefaultMaxAttempts = 2

	// tokenGrowthFactor doubles the requested output ceiling on retry. A
	// completion cut off by its token limit usually just needs more room.
	tokenGrowthFactor = 2
)

// Orchestrator drives completion attempts against the chat model, retrying
// invalid results with a grown token ceiling.
type Orchestrator struct {
	model       ai.ChatModel
	maxAttempts int
	outputCap   int
	logger      *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithMaxAttempts sets the attempt limit per turn.
func WithMaxAttempts(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithOrchestratorLogger sets a custom logger.
func WithOrchestratorLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger.With("component", "orchestrator")
		}
	}
}

// NewOrchestrator creates an orchestrator. outputCap is the endpoint's
// output token limit; retry growth never requests past it.
func NewOrchestrator(model ai.ChatModel, outputCap int, opts ...OrchestratorOption) (*Orchestrator, error) {
	if model == nil {
		return nil, ErrChatModelRequired
	}

	o := &Orchestrator{
		model:       model,
		maxAttempts: DefaultMaxAttempts,
		outputCap:   outputCap,
		logger:      slog.Default().With("component", "orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// validate checks a completion for a usable result: the finish signal must
// be the natural stop and the text must not be blank.
func validate(comp *ai.Completion) error {
	if comp == nil {
		return fmt.Errorf("%w: no completion returned", ErrInvalidCompletion)
	}
	if comp.FinishReason != ai.FinishStop {
		return fmt.Errorf("%w: finish reason %q", ErrInvalidCompletion, comp.FinishReason)
	}
	if strings.TrimSpace(comp.Text) == "" {
		return fmt.Errorf("%w: blank text", ErrInvalidCompletion)
	}
	return nil
}

// grow doubles the token ceiling, clamped to the endpoint output cap.
func (o *Orchestrator) grow(tokens int) int {
	tokens *= tokenGrowthFactor
	if o.outputCap > 0 && tokens > o.outputCap {
		tokens = o.outputCap
	}
	return tokens
}

// Generate runs blocking completion attempts until one validates or the
// attempt limit is reached. Each retry reissues the identical prompt with a
// doubled token ceiling. Exhaustion returns ErrCompletionExhausted wrapping
// the last cause.
func (o *Orchestrator) Generate(ctx context.Context, messages []ai.ChatMessage, maxTokens int) (*ai.Completion, error) {
	tokens := maxTokens
	var lastErr error

	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		comp, err := o.model.Complete(ctx, ai.CompletionRequest{Messages: messages, MaxTokens: tokens})
		if err == nil {
			err = validate(comp)
			if err == nil {
				return comp, nil
			}
		}
		lastErr = err

		o.logger.Warn("completion attempt failed",
			"attempt", attempt,
			"max_tokens", tokens,
			"error", err)
		tokens = o.grow(tokens)
	}

	return nil, fmt.Errorf("%w: %v", ErrCompletionExhausted, lastErr)
}

// GenerateStream is the streaming variant of Generate. Tokens are relayed
// to onToken as they arrive. A failure after at least one delivered token
// returns the partial text with the interrupted finish signal instead of
// retrying: the caller has already shown those tokens to the user. Only
// attempts that delivered nothing re-enter the retry path.
func (o *Orchestrator) GenerateStream(ctx context.Context, messages []ai.ChatMessage, maxTokens int, onToken ai.TokenFunc) (*ai.Completion, error) {
	tokens := maxTokens
	var lastErr error

	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		var (
			partial   strings.Builder
			delivered int
		)
		relay := func(ctx context.Context, token string) error {
			partial.WriteString(token)
			delivered++
			return onToken(ctx, token)
		}

		comp, err := o.model.Stream(ctx, ai.CompletionRequest{Messages: messages, MaxTokens: tokens}, relay)
		if err == nil {
			err = validate(comp)
			if err == nil {
				return comp, nil
			}
		}

		if delivered > 0 {
			o.logger.Warn("stream interrupted after partial output",
				"attempt", attempt,
				"delivered_tokens", delivered,
				"error", err)
			return &ai.Completion{
				Text:         partial.String(),
				FinishReason: ai.FinishInterrupted,
			}, nil
		}

		lastErr = err
		o.logger.Warn("stream attempt failed",
			"attempt", attempt,
			"max_tokens", tokens,
			"error", err)
		tokens = o.grow(tokens)
	}

	return nil, fmt.Errorf("%w: %v", ErrCompletionExhausted, lastErr)
}
