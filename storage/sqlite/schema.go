package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		filename     TEXT NOT NULL UNIQUE,
		content_hash TEXT NOT NULL,
		modified_at  TEXT NOT NULL,
		created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE TABLE IF NOT EXISTS chunks (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		doc_id      INTEGER NOT NULL,
		chunk_index INTEGER NOT NULL,
		content     TEXT NOT NULL,
		embedding   BLOB NOT NULL,
		UNIQUE(doc_id, chunk_index),
		FOREIGN KEY(doc_id) REFERENCES documents(id) ON DELETE CASCADE
	)`,

	`CREATE INDEX IF NOT EXISTS idx_chunks_doc ON chunks(doc_id, chunk_index)`,

	`CREATE TABLE IF NOT EXISTS ingestion_jobs (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		filename     TEXT NOT NULL,
		status       TEXT NOT NULL,
		content_hash TEXT NOT NULL DEFAULT '',
		modified_at  TEXT NOT NULL DEFAULT '',
		started_at   TEXT NOT NULL,
		finished_at  TEXT NOT NULL DEFAULT '',
		error        TEXT NOT NULL DEFAULT ''
	)`,
}

// migrate creates or updates the database schema to the latest version.
// All DDL uses IF NOT EXISTS, making migration idempotent.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}

	return nil
}
