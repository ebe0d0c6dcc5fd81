// Package store persists completed interview analyses to PostgreSQL.
//
// Logging is best-effort by design: the pipeline treats a write failure as a
// warning, not an error, so a database outage never blocks analysis results
// from reaching the caller.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxhire/voxhire/internal/extract"
)

const ddlInterviewLogs = `
CREATE TABLE IF NOT EXISTS interview_logs (
    id               BIGSERIAL    PRIMARY KEY,
    filename         TEXT         NOT NULL,
    transcription    TEXT         NOT NULL,
    candidate_name   TEXT         NOT NULL DEFAULT '',
    skills           JSONB        NOT NULL DEFAULT '[]',
    years_experience DOUBLE PRECISION,
    desired_role     TEXT         NOT NULL DEFAULT '',
    faq              JSONB        NOT NULL DEFAULT '[]',
    created_at       TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_interview_logs_created_at
    ON interview_logs (created_at);

CREATE INDEX IF NOT EXISTS idx_interview_logs_candidate_name
    ON interview_logs (candidate_name);
`

// Entry is one logged interview analysis.
type Entry struct {
	ID            int64
	Filename      string
	Transcription string
	Record        extract.Record
	CreatedAt     time.Time
}

// Store writes and reads interview logs. All methods are safe for concurrent
// use.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to dsn and ensures the interview_logs table exists.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, ddlInterviewLogs); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool wraps an existing pool, ensuring the table exists. The caller
// retains ownership of the pool; Close on the returned Store is a no-op.
func NewWithPool(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, ddlInterviewLogs); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// LogInterview inserts one analysis and returns its assigned ID.
func (s *Store) LogInterview(ctx context.Context, e Entry) (int64, error) {
	const q = `
		INSERT INTO interview_logs
		    (filename, transcription, candidate_name, skills, years_experience, desired_role, faq)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, q,
		e.Filename,
		e.Transcription,
		e.Record.CandidateName,
		e.Record.Skills,
		e.Record.YearsExperience,
		e.Record.DesiredRole,
		e.Record.FAQ,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: log interview: %w", err)
	}
	return id, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	const q = `
		SELECT id, filename, transcription, candidate_name, skills, years_experience, desired_role, faq, created_at
		FROM   interview_logs
		ORDER  BY created_at DESC
		LIMIT  $1`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		if err := row.Scan(
			&e.ID,
			&e.Filename,
			&e.Transcription,
			&e.Record.CandidateName,
			&e.Record.Skills,
			&e.Record.YearsExperience,
			&e.Record.DesiredRole,
			&e.Record.FAQ,
			&e.CreatedAt,
		); err != nil {
			return Entry{}, err
		}
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: scan rows: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
