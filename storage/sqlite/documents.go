package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/poiesic/askdocs/core"
	"github.com/poiesic/askdocs/storage"
)

func (s *Store) guard() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return storage.ErrStorageClosed
	}
	return nil
}

// GetDocument retrieves document metadata by filename.
func (s *Store) GetDocument(ctx context.Context, filename string) (*core.Document, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}
	if filename == "" {
		return nil, fmt.Errorf("%w: empty filename", storage.ErrInvalidQuery)
	}

	var (
		doc                  core.Document
		modifiedAt, createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, filename, content_hash, modified_at, created_at FROM documents WHERE filename = ?",
		filename,
	).Scan(&doc.Id, &doc.Filename, &doc.ContentHash, &modifiedAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: document %s", storage.ErrNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get document: %w", err)
	}

	doc.ModifiedAt = decodeTime(modifiedAt)
	doc.CreatedAt = decodeTime(createdAt)
	return &doc, nil
}

// ReplaceDocument atomically commits a document generation. The document
// row is upserted by filename and all prior chunks are deleted before the
// new set is inserted, inside a single transaction.
func (s *Store) ReplaceDocument(ctx context.Context, doc *core.Document, chunks []core.Chunk) error {
	if err := s.guard(); err != nil {
		return err
	}
	if err := core.ValidateDocument(doc); err != nil {
		return err
	}
	if err := core.ValidateChunkSet(chunks); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", storage.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	now := encodeTime(doc.CreatedAt)
	if now == "" {
		now = encodeTime(timeNow())
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (filename, content_hash, modified_at, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(filename) DO UPDATE SET
			content_hash = excluded.content_hash,
			modified_at  = excluded.modified_at`,
		doc.Filename, doc.ContentHash, encodeTime(doc.ModifiedAt), now,
	); err != nil {
		return fmt.Errorf("%w: upsert document: %v", storage.ErrTransactionFailed, err)
	}

	var docId int64
	if err := tx.QueryRowContext(ctx,
		"SELECT id FROM documents WHERE filename = ?", doc.Filename,
	).Scan(&docId); err != nil {
		return fmt.Errorf("%w: resolve document id: %v", storage.ErrTransactionFailed, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE doc_id = ?", docId); err != nil {
		return fmt.Errorf("%w: drop prior chunks: %v", storage.ErrTransactionFailed, err)
	}

	for i := range chunks {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chunks (doc_id, chunk_index, content, embedding) VALUES (?, ?, ?, ?)",
			docId, chunks[i].Index, chunks[i].Text, encodeVector(chunks[i].Vector),
		); err != nil {
			return fmt.Errorf("%w: insert chunk %d: %v", storage.ErrTransactionFailed, chunks[i].Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", storage.ErrTransactionFailed, err)
	}

	doc.Id = docId
	s.logger.Debug("document replaced", "filename", doc.Filename, "chunks", len(chunks))
	return nil
}

// AllChunks retrieves every stored chunk with its owning filename, ordered
// by (document id, chunk ordinal).
func (s *Store) AllChunks(ctx context.Context) ([]core.Chunk, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.doc_id, d.filename, c.chunk_index, c.content, c.embedding
		 FROM chunks c JOIN documents d ON d.id = c.doc_id
		 ORDER BY c.doc_id, c.chunk_index`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query chunks: %w", err)
	}
	defer rows.Close()

	var out []core.Chunk
	for rows.Next() {
		var (
			ch   core.Chunk
			blob []byte
		)
		if err := rows.Scan(&ch.DocumentId, &ch.Filename, &ch.Index, &ch.Text, &blob); err != nil {
			return nil, fmt.Errorf("sqlite: scan chunk: %w", err)
		}
		ch.Vector, err = decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %s/%d: %v", storage.ErrSerializationFailed, ch.Filename, ch.Index, err)
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// CountChunks reports the total number of stored chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count chunks: %w", err)
	}
	return n, nil
}
