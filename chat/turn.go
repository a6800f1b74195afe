// Package chat turns a user message into a grounded assistant reply.
//
// A turn walks a fixed pipeline: conversation bookkeeping, greeting
// short-circuit, retrieval, prompt budgeting, completion, and the
// interaction log. Every path out of the pipeline, including every failure,
// produces a textual assistant reply and a logged interaction; the user
// never sees a bare error.
package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/poiesic/askdocs/ai"
	"github.com/poiesic/askdocs/core"
	"github.com/poiesic/askdocs/prompt"
	"github.com/poiesic/askdocs/storage"
)

// DefaultPreamble is the stock system preamble.
const DefaultPreamble = "You are a support assistant for our product. You answer questions using the product documentation."

// Retriever finds document chunks relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int, minScore float32) (*core.RetrievalResult, error)
}

// Request is one incoming user message.
type Request struct {
	// ConversationToken continues an existing conversation; empty mints a
	// new one.
	ConversationToken string
	Text              string
	RemoteAddr        string
	UserAgent         string
}

// Response is the assistant's reply for one turn.
type Response struct {
	ConversationToken string
	Reply             string
	Sources           []core.SourceRef
	FinishReason      ai.FinishReason
}

// Service runs chat turns end to end.
type Service struct {
	store        storage.ChatStore
	retriever    Retriever
	orchestrator *Orchestrator
	preamble     string
	limits       prompt.Limits
	topK         int
	minScore     float32
	logger       *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithPreamble overrides the system preamble.
func WithPreamble(preamble string) ServiceOption {
	return func(s *Service) {
		if preamble != "" {
			s.preamble = preamble
		}
	}
}

// WithLimits overrides the prompt budgets.
func WithLimits(limits prompt.Limits) ServiceOption {
	return func(s *Service) { s.limits = limits }
}

// WithRetrieval overrides the retrieval parameters.
func WithRetrieval(topK int, minScore float32) ServiceOption {
	return func(s *Service) {
		if topK > 0 {
			s.topK = topK
		}
		s.minScore = minScore
	}
}

// WithServiceLogger sets a custom logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger.With("component", "chat")
		}
	}
}

// NewService creates a chat service.
func NewService(store storage.ChatStore, retriever Retriever, orchestrator *Orchestrator, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, ErrChatStoreRequired
	}
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if orchestrator == nil {
		return nil, ErrChatModelRequired
	}

	s := &Service{
		store:        store,
		retriever:    retriever,
		orchestrator: orchestrator,
		preamble:     DefaultPreamble,
		limits:       prompt.DefaultLimits(),
		topK:         5,
		minScore:     0.35,
		logger:       slog.Default().With("component", "chat"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Respond runs one blocking chat turn.
func (s *Service) Respond(ctx context.Context, req Request) (*Response, error) {
	return s.respond(ctx, req, nil)
}

// RespondStream runs one chat turn, relaying generated tokens to onToken as
// they arrive. Canned and fallback replies are delivered as a single token.
func (s *Service) RespondStream(ctx context.Context, req Request, onToken ai.TokenFunc) (*Response, error) {
	return s.respond(ctx, req, onToken)
}

func (s *Service) respond(ctx context.Context, req Request, onToken ai.TokenFunc) (*Response, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	token := req.ConversationToken
	if token == "" {
		token = uuid.NewString()
	}

	if _, err := s.store.UpsertConversation(ctx, token); err != nil {
		return nil, err
	}
	if _, err := s.store.AppendMessage(ctx, token, core.RoleUser, text); err != nil {
		return nil, err
	}

	loc := prompt.Detect(text)
	table := prompt.Table(loc)

	if prompt.IsGreeting(text) {
		return s.finish(ctx, req, token, table.Greeting, nil, ai.FinishStop, onToken)
	}

	retrieval, err := s.retriever.Retrieve(ctx, text, s.topK, s.minScore)
	if err != nil {
		// Retrieval trouble degrades to an empty context rather than
		// killing the turn.
		s.logger.Warn("retrieval failed, continuing without context", "error", err)
		retrieval = &core.RetrievalResult{}
	}

	if len(retrieval.Chunks) == 0 {
		s.logger.Info("no relevant context found",
			"conversation", token,
			"max_score", retrieval.MaxScore)
		return s.finish(ctx, req, token, table.NoContext, nil, ai.FinishStop, onToken)
	}

	history, err := s.store.RecentMessages(ctx, token, s.limits.HistoryMessages)
	if err != nil {
		s.logger.Warn("history unavailable, using current message only", "error", err)
		history = []*core.Message{{Role: core.RoleUser, Content: text}}
	}

	built, err := prompt.Build(s.preamble, loc, history, retrieval.Chunks, s.limits)
	if err != nil {
		s.logger.Error("prompt build failed", "conversation", token, "error", err)
		return s.finish(ctx, req, token, table.Fallback, nil, ai.FinishStop, onToken)
	}
	if len(built.UsedContext) == 0 {
		// Budgeting trimmed every retrieved chunk away; answer as if
		// retrieval had found nothing.
		s.logger.Info("context trimmed away by prompt budget",
			"conversation", token,
			"retrieved", len(retrieval.Chunks))
		return s.finish(ctx, req, token, table.NoContext, nil, ai.FinishStop, onToken)
	}

	var comp *ai.Completion
	if onToken != nil {
		comp, err = s.orchestrator.GenerateStream(ctx, built.Messages, built.GenerationBudget, onToken)
	} else {
		comp, err = s.orchestrator.Generate(ctx, built.Messages, built.GenerationBudget)
	}
	if err != nil {
		s.logger.Error("completion failed", "conversation", token, "error", err)
		return s.finish(ctx, req, token, table.Fallback, nil, ai.FinishStop, onToken)
	}

	sources := (&core.RetrievalResult{Chunks: built.UsedContext}).Sources()
	return s.finishGenerated(ctx, req, token, comp, sources)
}

// finish records and returns a canned or fallback reply. When streaming,
// the full reply goes out as one token.
func (s *Service) finish(ctx context.Context, req Request, token, reply string, sources []core.SourceRef, reason ai.FinishReason, onToken ai.TokenFunc) (*Response, error) {
	if onToken != nil {
		if err := onToken(ctx, reply); err != nil {
			s.logger.Warn("client went away before canned reply", "error", err)
		}
	}
	s.record(ctx, req, token, reply, sources)
	return &Response{
		ConversationToken: token,
		Reply:             reply,
		Sources:           sources,
		FinishReason:      reason,
	}, nil
}

// finishGenerated records and returns a model-generated reply, including a
// partial one from an interrupted stream.
func (s *Service) finishGenerated(ctx context.Context, req Request, token string, comp *ai.Completion, sources []core.SourceRef) (*Response, error) {
	s.record(ctx, req, token, comp.Text, sources)
	return &Response{
		ConversationToken: token,
		Reply:             comp.Text,
		Sources:           sources,
		FinishReason:      comp.FinishReason,
	}, nil
}

// record appends the assistant message and the interaction log entry.
// Store failures are logged, not surfaced: the reply already exists and the
// user should get it.
func (s *Service) record(ctx context.Context, req Request, token, reply string, sources []core.SourceRef) {
	if _, err := s.store.AppendMessage(ctx, token, core.RoleAssistant, reply); err != nil {
		s.logger.Error("failed to append assistant message", "conversation", token, "error", err)
	}
	if err := s.store.AppendInteraction(ctx, &core.Interaction{
		ConversationToken: token,
		UserText:          strings.TrimSpace(req.Text),
		AssistantText:     reply,
		RemoteAddr:        req.RemoteAddr,
		UserAgent:         req.UserAgent,
		Sources:           sources,
	}); err != nil {
		s.logger.Error("failed to append interaction", "conversation", token, "error", err)
	}
}
