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


// Package config loads the server configuration from a YAML file with
// environment variable expansion.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root server configuration.
type Config struct {
	Listen    string          `yaml:"listen"`
	Documents string          `yaml:"documents"`
	Storage   StorageConfig   `yaml:"storage"`
	Inference InferenceConfig `yaml:"inference"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Prompt    PromptConfig    `yaml:"prompt"`
}

// StorageConfig holds the store locations.
type StorageConfig struct {
	// ContentPath is the SQLite database file for the document index.
	ContentPath string `yaml:"content_path"`
	// ChatPath is the BadgerDB directory for conversations and logs.
	ChatPath string `yaml:"chat_path"`
}

// InferenceConfig describes the local OpenAI-compatible endpoint.
type InferenceConfig struct {
	Host            string `yaml:"host"`
	ChatModel       string `yaml:"chat_model"`
	EmbeddingModel  string `yaml:"embedding_model"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
}

// IngestionConfig controls document chunking.
type IngestionConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// RetrievalConfig controls chunk retrieval.
type RetrievalConfig struct {
	TopK     int     `yaml:"top_k"`
	MinScore float32 `yaml:"min_score"`
}

// PromptConfig carries the prompt token budgets.
type PromptConfig struct {
	ContextBudget   int    `yaml:"context_budget"`
	PromptBudget    int    `yaml:"prompt_budget"`
	MinGeneration   int    `yaml:"min_generation"`
	HistoryMessages int    `yaml:"history_messages"`
	Preamble        string `yaml:"preamble"`
}

// Defaults returns a configuration with the stock values.
func Defaults() *Config {
	return &Config{
		Listen:    ":8080",
		Documents: "./documents",
		Storage: StorageConfig{
			ContentPath: "./data/content.db",
			ChatPath:    "./data/chat",
		},
		Inference: InferenceConfig{
			Host:            "http://localhost:11434/v1",
			ChatModel:       "qwen2.5:3b",
			EmbeddingModel:  "embeddinggemma",
			MaxOutputTokens: 1024,
		},
		Ingestion: IngestionConfig{
			ChunkSize:    1200,
			ChunkOverlap: 200,
		},
		Retrieval: RetrievalConfig{
			TopK:     5,
			MinScore: 0.35,
		},
		Prompt: PromptConfig{
			ContextBudget:   2048,
			PromptBudget:    3584,
			MinGeneration:   128,
			HistoryMessages: 6,
		},
	}
}

// Load reads, expands, and validates the configuration file at path.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	expanded, err := ExpandEnvVars(string(data))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value and
// ${VAR:-default} with the default when VAR is unset or empty. Variables
// that resolve to nothing fail the expansion, listing every offender.
func ExpandEnvVars(input string) (string, error) {
	var unresolved []string

	out := envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		name, fallback := groups[1], groups[2]

		if val, ok := os.LookupEnv(name); ok && val != "" {
			return val
		}
		if fallback != "" {
			return fallback
		}
		unresolved = append(unresolved, name)
		return match
	})

	if len(unresolved) > 0 {
		return "", fmt.Errorf("unresolved environment variables: %s", strings.Join(unresolved, ", "))
	}
	return out, nil
}

// Validate checks the configuration for usable values.
func Validate(cfg *Config) error {
	var problems []string

	if cfg.Listen == "" {
		problems = append(problems, "listen address is empty")
	}
	if cfg.Documents == "" {
		problems = append(problems, "documents directory is empty")
	}
	if cfg.Storage.ContentPath == "" {
		problems = append(problems, "storage.content_path is empty")
	}
	if cfg.Storage.ChatPath == "" {
		problems = append(problems, "storage.chat_path is empty")
	}
	if cfg.Inference.Host == "" {
		problems = append(problems, "inference.host is empty")
	}
	if cfg.Inference.ChatModel == "" {
		problems = append(problems, "inference.chat_model is empty")
	}
	if cfg.Inference.EmbeddingModel == "" {
		problems = append(problems, "inference.embedding_model is empty")
	}
	if cfg.Inference.MaxOutputTokens <= 0 {
		problems = append(problems, "inference.max_output_tokens must be positive")
	}
	if cfg.Ingestion.ChunkSize <= 0 {
		problems = append(problems, "ingestion.chunk_size must be positive")
	}
	if cfg.Ingestion.ChunkOverlap < 0 || cfg.Ingestion.ChunkOverlap >= cfg.Ingestion.ChunkSize {
		problems = append(problems, "ingestion.chunk_overlap must be in [0, chunk_size)")
	}
	if cfg.Retrieval.TopK <= 0 {
		problems = append(problems, "retrieval.top_k must be positive")
	}
	if cfg.Retrieval.MinScore < -1 || cfg.Retrieval.MinScore > 1 {
		problems = append(problems, "retrieval.min_score must be in [-1, 1]")
	}
	if cfg.Prompt.PromptBudget <= cfg.Prompt.MinGeneration {
		problems = append(problems, "prompt.prompt_budget must exceed prompt.min_generation")
	}
	if cfg.Prompt.ContextBudget <= 0 {
		problems = append(problems, "prompt.context_budget must be positive")
	}
	if cfg.Prompt.HistoryMessages <= 0 {
		problems = append(problems, "prompt.history_messages must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
