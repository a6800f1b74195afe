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


// Package sqlite implements the content store on a single SQLite database
// file. Documents, their chunk embeddings, and ingestion job audit records
// live here; conversation state does not.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store is a storage.ContentStore backed by SQLite. A single connection
// (MaxOpenConns 1) serializes writers; WAL mode keeps readers unblocked.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.With("component", "sqlite")
		}
	}
}

// Open opens (creating if necessary) the content database at path and
// migrates its schema. Use ":memory:" for an ephemeral test database.
func Open(path string, opts ...Option) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)
	} else {
		dsn = "file::memory:?_pragma=foreign_keys(ON)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	// The modernc driver serializes access per connection; one connection
	// avoids SQLITE_BUSY between concurrent writers entirely.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", path, err)
	}

	// Open has no caller context; migration runs against a fresh local
	// file and is not worth making cancellable.
	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		db:     db,
		logger: slog.Default().With("component", "sqlite"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger.Info("content store opened", "path", path)
	return s, nil
}

// Close closes the underlying database. Safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

var timeNow = time.Now

// Timestamps are persisted as RFC3339Nano UTC strings. SQLite has no
// native time type and lexical order of this format matches time order.
func encodeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
