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


// Package server exposes the chat pipeline over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/poiesic/askdocs/ai"
	"github.com/poiesic/askdocs/chat"
	"github.com/poiesic/askdocs/ingestion"
)

// ChatService runs chat turns. Implemented by chat.Service.
type ChatService interface {
	Respond(ctx context.Context, req chat.Request) (*chat.Response, error)
	RespondStream(ctx context.Context, req chat.Request, onToken ai.TokenFunc) (*chat.Response, error)
}

// Ingestor triggers bulk ingestion. Implemented by ingestion.Engine.
type Ingestor interface {
	IngestAll(ctx context.Context) ([]*ingestion.Result, error)
}

// Server is the HTTP surface over the chat pipeline.
type Server struct {
	chat     ChatService
	ingestor Ingestor
	metrics  *Metrics
	logger   *slog.Logger
	http     *http.Server
}

// New creates a server; call ListenAndServe to start it.
func New(addr string, chatSvc ChatService, ingestor Ingestor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		chat:     chatSvc,
		ingestor: ingestor,
		metrics:  &Metrics{},
		logger:   logger.With("component", "server"),
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// router constructs the chi mux with all routes wired.
func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Post("/chat/stream", s.handleChatStream)
		r.Post("/ingest", s.handleIngest)
	})

	return r
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Metrics exposes the counter set.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// ListenAndServe blocks serving HTTP until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
