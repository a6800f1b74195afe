package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/poiesic/askdocs/core"
	"github.com/poiesic/askdocs/storage"
)

// BeginIngestionJob opens a job record with status running and returns its id.
func (s *Store) BeginIngestionJob(ctx context.Context, job *core.IngestionJob) (int64, error) {
	if err := s.guard(); err != nil {
		return 0, err
	}
	if job == nil || job.Filename == "" {
		return 0, fmt.Errorf("%w: job requires a filename", storage.ErrInvalidQuery)
	}

	started := job.StartedAt
	if started.IsZero() {
		started = timeNow()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO ingestion_jobs (filename, status, content_hash, modified_at, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		job.Filename, string(core.JobRunning), job.ContentHash, encodeTime(job.ModifiedAt), encodeTime(started),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin job id: %w", err)
	}

	job.Id = id
	job.Status = core.JobRunning
	job.StartedAt = started
	return id, nil
}

// CompleteIngestionJob marks a job successful and stamps its completion time.
func (s *Store) CompleteIngestionJob(ctx context.Context, id int64) error {
	return s.finishJob(ctx, id, core.JobSuccess, "")
}

// FailIngestionJob marks a job failed with the given cause.
func (s *Store) FailIngestionJob(ctx context.Context, id int64, cause string) error {
	return s.finishJob(ctx, id, core.JobError, cause)
}

func (s *Store) finishJob(ctx context.Context, id int64, status core.JobStatus, cause string) error {
	if err := s.guard(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE ingestion_jobs SET status = ?, error = ?, finished_at = ? WHERE id = ?",
		string(status), cause, encodeTime(timeNow()), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: finish job %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: ingestion job %d", storage.ErrNotFound, id)
	}
	return nil
}

// GetIngestionJob retrieves a job record by id.
func (s *Store) GetIngestionJob(ctx context.Context, id int64) (*core.IngestionJob, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	var (
		job                            core.IngestionJob
		status                         string
		modified, started, finished    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, status, content_hash, modified_at, started_at, finished_at, error
		 FROM ingestion_jobs WHERE id = ?`, id,
	).Scan(&job.Id, &job.Filename, &status, &job.ContentHash, &modified, &started, &finished, &job.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: ingestion job %d", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get job: %w", err)
	}

	job.Status = core.JobStatus(status)
	job.ModifiedAt = decodeTime(modified)
	job.StartedAt = decodeTime(started)
	job.FinishedAt = decodeTime(finished)
	return &job, nil
}
