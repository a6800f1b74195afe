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


// Package ai provides abstractions for the local inference endpoint.
//
// This package defines the interfaces the rest of the system uses for text
// embeddings and chat completions, allowing the ingestion, retrieval, and
// chat layers to depend on abstractions rather than a concrete client.
//
// The key interfaces are:
//
//   - Embedder: generates vector embeddings for queries and document chunks
//   - ChatModel: creates blocking and streaming chat completions
//   - Provider: aggregates the services and verifies configured models
//
// Implementation packages:
//
//   - ai/openai: production implementation for OpenAI-compatible endpoints
//     (Ollama, LocalAI, vLLM, ...)
//   - ai/mock: test doubles for unit testing without a running endpoint
//
// The EmbedQueue type in this package is the single serialization point for
// embedding traffic. The local endpoint is assumed single-capacity: issuing
// embedding calls concurrently from ingestion and retrieval collapses its
// throughput and makes response ordering undefined, so every embedding
// request in the process (ingestion batches, query embeddings, the warm-up
// probe) is funneled through one queue instance, first-enqueued first-served.
package ai
