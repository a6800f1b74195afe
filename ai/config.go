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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for the inference endpoint.
type Config struct {
	// Host is the base URL of the OpenAI-compatible inference API.
	// Example: "http://localhost:11434/v1" for a local Ollama server
	Host string

	// ChatModel is the model identifier used for chat completions.
	// Example: "qwen2.5:3b", "llama3.1:8b"
	ChatModel string

	// EmbeddingModel is the model identifier used for text embeddings.
	// Example: "embeddinggemma", "nomic-embed-text"
	EmbeddingModel string

	// MaxOutputTokens is the endpoint's output-token cap. Completion
	// retries may grow their requested budget but never beyond this.
	// Default: 1024
	MaxOutputTokens int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the inference endpoint base URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithChatModel sets the chat model identifier.
func WithChatModel(model string) ConfigOption {
	return func(c *Config) {
		c.ChatModel = model
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithMaxOutputTokens sets the endpoint output-token cap.
func WithMaxOutputTokens(max int) ConfigOption {
	return func(c *Config) {
		c.MaxOutputTokens = max
	}
}

// DefaultConfig returns a Config with sensible defaults for a local
// OpenAI-compatible inference server.
func DefaultConfig() *Config {
	return &Config{
		Host:            "http://localhost:11434/v1",
		ChatModel:       "qwen2.5:3b",
		EmbeddingModel:  "embeddinggemma",
		MaxOutputTokens: 1024,
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
//
// Example:
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"),
//	    ai.WithChatModel("llama3.1:8b"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to the host if missing, which is
// required by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.ChatModel == "" {
		return errors.New("ai config: ChatModel is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.MaxOutputTokens <= 0 {
		return errors.New("ai config: MaxOutputTokens must be positive")
	}
	return nil
}
