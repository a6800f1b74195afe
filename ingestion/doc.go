// Package ingestion turns source documents into indexed chunk embeddings.
//
// The Engine type manages the ingestion workflow for one document, including:
//   - Change detection by content hash and modification time
//   - Text extraction (PDF, plain text, Markdown)
//   - Splitting into overlapping character windows
//   - Batched embedding through the shared inference queue
//   - Atomic commit of the new chunk generation
//
// Each document ingests independently; a failed document never disturbs its
// previously committed chunks. The Watcher feeds filesystem change events
// into the Engine through a single-worker pool, so at most one ingestion
// runs at a time.
package ingestion
