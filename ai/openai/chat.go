package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/askdocs/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Chat implements ai.ChatModel using OpenAI-compatible chat APIs.
type Chat struct {
	client llms.Model
	logger *slog.Logger
}

// newChat is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newChat(config *ai.Config) (*Chat, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Chat{
		client: client,
		logger: slog.Default().With("component", "openai-chat"),
	}, nil
}

// NewChat creates a new chat model using the provided configuration.
//
// Returns ai.ChatModel interface to enforce abstraction.
func NewChat(config *ai.Config) (ai.ChatModel, error) {
	return newChat(config)
}

// Complete issues a blocking completion request.
func (c *Chat) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	c.logger.Debug("generating completion", "messages", len(req.Messages), "maxTokens", req.MaxTokens)

	response, err := c.client.GenerateContent(ctx, toContent(req.Messages),
		llms.WithMaxTokens(req.MaxTokens))
	if err != nil {
		c.logger.Error("completion call failed", "err", err)
		return nil, err
	}

	return fromResponse(response), nil
}

// Stream issues a streaming completion request, relaying each output
// fragment to onToken as it arrives.
func (c *Chat) Stream(ctx context.Context, req ai.CompletionRequest, onToken ai.TokenFunc) (*ai.Completion, error) {
	c.logger.Debug("generating streamed completion", "messages", len(req.Messages), "maxTokens", req.MaxTokens)

	response, err := c.client.GenerateContent(ctx, toContent(req.Messages),
		llms.WithMaxTokens(req.MaxTokens),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			if len(chunk) == 0 {
				return nil
			}
			return onToken(ctx, string(chunk))
		}))
	if err != nil {
		c.logger.Error("streamed completion call failed", "err", err)
		return nil, err
	}

	return fromResponse(response), nil
}

// toContent converts prompt messages to the langchaingo message format.
func toContent(messages []ai.ChatMessage) []llms.MessageContent {
	content := make([]llms.MessageContent, len(messages))
	for i, msg := range messages {
		var role llms.ChatMessageType
		switch msg.Role {
		case ai.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case ai.RoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		content[i] = llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
		}
	}
	return content
}

// fromResponse maps a langchaingo response onto the ai completion type.
// A response with no choices yields an empty completion with no finish
// signal, which the orchestrator treats as invalid.
func fromResponse(response *llms.ContentResponse) *ai.Completion {
	if response == nil || len(response.Choices) == 0 {
		return &ai.Completion{FinishReason: ai.FinishUnknown}
	}

	choice := response.Choices[0]
	return &ai.Completion{
		Text:         choice.Content,
		FinishReason: finishReason(choice.StopReason),
	}
}

func finishReason(stopReason string) ai.FinishReason {
	switch stopReason {
	case "stop":
		return ai.FinishStop
	case "length", "max_tokens":
		return ai.FinishLength
	case "":
		return ai.FinishUnknown
	default:
		return ai.FinishReason(stopReason)
	}
}
