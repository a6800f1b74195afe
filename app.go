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


// Package askdocs wires the document index, conversation store, inference
// services, and chat pipeline into one application facade.
package askdocs

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/askdocs/ai"
	"github.com/poiesic/askdocs/ai/openai"
	"github.com/poiesic/askdocs/chat"
	"github.com/poiesic/askdocs/config"
	"github.com/poiesic/askdocs/ingestion"
	"github.com/poiesic/askdocs/prompt"
	"github.com/poiesic/askdocs/search"
	"github.com/poiesic/askdocs/storage"
	"github.com/poiesic/askdocs/storage/badger"
	"github.com/poiesic/askdocs/storage/sqlite"
)

// App owns every long-lived component of the system.
type App struct {
	cfg *config.Config

	contentStore *sqlite.Store
	chatBackend  *badger.Backend
	chatStore    *badger.ChatStore
	provider     ai.Provider
	queue        *ai.EmbedQueue
	engine       *ingestion.Engine
	watcher      *ingestion.Watcher
	retriever    *search.Retriever
	chatService  *chat.Service

	logger *slog.Logger
}

// NewApp builds the full component graph from configuration. On any
// construction error, everything opened so far is closed again.
func NewApp(cfg *config.Config) (*App, error) {
	logger := slog.Default()

	contentStore, err := sqlite.Open(cfg.Storage.ContentPath)
	if err != nil {
		return nil, fmt.Errorf("open content store: %w", err)
	}

	chatBackend, err := badger.OpenBackend(cfg.Storage.ChatPath, false)
	if err != nil {
		contentStore.Close()
		return nil, fmt.Errorf("open chat store: %w", err)
	}

	chatStore, err := badger.NewChatStore(chatBackend)
	if err != nil {
		chatBackend.Close()
		contentStore.Close()
		return nil, fmt.Errorf("open chat store: %w", err)
	}

	aiCfg := ai.NewConfig(
		ai.WithHost(cfg.Inference.Host),
		ai.WithChatModel(cfg.Inference.ChatModel),
		ai.WithEmbeddingModel(cfg.Inference.EmbeddingModel),
		ai.WithMaxOutputTokens(cfg.Inference.MaxOutputTokens),
	)
	provider, err := openai.NewProvider(aiCfg)
	if err != nil {
		chatStore.Close()
		chatBackend.Close()
		contentStore.Close()
		return nil, fmt.Errorf("create inference provider: %w", err)
	}

	queue, err := ai.NewEmbedQueue(provider.Embedder())
	if err != nil {
		provider.Close()
		chatStore.Close()
		chatBackend.Close()
		contentStore.Close()
		return nil, fmt.Errorf("create embed queue: %w", err)
	}

	app := &App{
		cfg:          cfg,
		contentStore: contentStore,
		chatBackend:  chatBackend,
		chatStore:    chatStore,
		provider:     provider,
		queue:        queue,
		logger:       logger,
	}
	if err := app.buildPipeline(); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// buildPipeline assembles the stateless components on top of the stores
// and the queue.
func (a *App) buildPipeline() error {
	engine, err := ingestion.NewEngine(a.contentStore, a.queue, a.cfg.Documents,
		ingestion.WithChunking(a.cfg.Ingestion.ChunkSize, a.cfg.Ingestion.ChunkOverlap))
	if err != nil {
		return fmt.Errorf("create ingestion engine: %w", err)
	}
	a.engine = engine

	watcher, err := ingestion.NewWatcher(engine, a.logger)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	a.watcher = watcher

	retriever, err := search.NewRetriever(a.contentStore, a.queue)
	if err != nil {
		return fmt.Errorf("create retriever: %w", err)
	}
	a.retriever = retriever

	orchestrator, err := chat.NewOrchestrator(a.provider.Chat(), a.cfg.Inference.MaxOutputTokens)
	if err != nil {
		return fmt.Errorf("create orchestrator: %w", err)
	}

	limits := prompt.Limits{
		ContextBudget:   a.cfg.Prompt.ContextBudget,
		PromptBudget:    a.cfg.Prompt.PromptBudget,
		MinGeneration:   a.cfg.Prompt.MinGeneration,
		MaxOutputTokens: a.cfg.Inference.MaxOutputTokens,
		HistoryMessages: a.cfg.Prompt.HistoryMessages,
	}
	svcOpts := []chat.ServiceOption{
		chat.WithLimits(limits),
		chat.WithRetrieval(a.cfg.Retrieval.TopK, a.cfg.Retrieval.MinScore),
	}
	if a.cfg.Prompt.Preamble != "" {
		svcOpts = append(svcOpts, chat.WithPreamble(a.cfg.Prompt.Preamble))
	}
	service, err := chat.NewService(a.chatStore, retriever, orchestrator, svcOpts...)
	if err != nil {
		return fmt.Errorf("create chat service: %w", err)
	}
	a.chatService = service
	return nil
}

// VerifyModels checks that the configured chat and embedding models exist
// at the inference endpoint.
func (a *App) VerifyModels(ctx context.Context) error {
	models, err := a.provider.Models(ctx)
	if err != nil {
		return fmt.Errorf("inference endpoint unreachable: %w", err)
	}
	for _, want := range []string{a.cfg.Inference.ChatModel, a.cfg.Inference.EmbeddingModel} {
		if !slices.Contains(models, want) {
			return fmt.Errorf("%w: %s", ai.ErrModelNotAvailable, want)
		}
	}
	return nil
}

// Warm pushes a probe embedding through the queue so the first user
// request doesn't pay the model load cost.
func (a *App) Warm(ctx context.Context) error {
	return a.queue.Warm(ctx)
}

// IngestAll runs bulk ingestion over the documents directory.
func (a *App) IngestAll(ctx context.Context) ([]*ingestion.Result, error) {
	return a.engine.IngestAll(ctx)
}

// StartWatcher begins observing the documents directory for changes.
func (a *App) StartWatcher(ctx context.Context) error {
	return a.watcher.Start(ctx)
}

// ChatService returns the chat turn pipeline.
func (a *App) ChatService() *chat.Service {
	return a.chatService
}

// Engine returns the ingestion engine.
func (a *App) Engine() *ingestion.Engine {
	return a.engine
}

// Retriever returns the chunk retriever.
func (a *App) Retriever() *search.Retriever {
	return a.retriever
}

// ContentStore returns the document index store.
func (a *App) ContentStore() storage.ContentStore {
	return a.contentStore
}

// ChatStore returns the conversation store.
func (a *App) ChatStore() storage.ChatStore {
	return a.chatStore
}

// Close shuts components down in reverse dependency order.
func (a *App) Close() error {
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			a.logger.Error("error closing watcher", "err", err)
		}
	}
	if err := a.queue.Close(); err != nil {
		a.logger.Error("error closing embed queue", "err", err)
	}
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing inference provider", "err", err)
	}
	if err := a.chatStore.Close(); err != nil {
		a.logger.Error("error closing chat store", "err", err)
	}
	if err := a.chatBackend.Close(); err != nil {
		a.logger.Error("error closing chat backend", "err", err)
		return err
	}
	if err := a.contentStore.Close(); err != nil {
		a.logger.Error("error closing content store", "err", err)
		return err
	}
	return nil
}
