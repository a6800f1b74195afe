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


// Package storage provides the storage abstraction layer for askdocs.
//
// Two stores with disjoint ownership sit behind these interfaces:
//
//   - ContentStore owns Document and Chunk records plus ingestion job
//     audit rows (storage/sqlite)
//   - ChatStore owns Conversation, Message, and Interaction records
//     (storage/badger)
//
// All public constructors in the implementation packages return these
// interfaces rather than concrete types, so backends can be swapped
// without touching consumers, and tests can substitute in-memory
// instances.
//
// # Thread Safety
//
// All store implementations must be thread-safe and support concurrent
// access from multiple goroutines.
//
// # Context Support
//
// All store methods accept context.Context for cancellation and timeout
// support.
package storage
