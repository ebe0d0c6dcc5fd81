package canonical

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// PGIndex is an Index backed by a PostgreSQL table with a pgvector HNSW
// index. Entries persist across restarts, so canonical vocabularies learned
// in one session carry over to the next.
//
// All methods are safe for concurrent use.
type PGIndex struct {
	pool *pgxpool.Pool
}

var _ Index = (*PGIndex)(nil)

// ddlCanonical returns the canonical_entries DDL with the embedding
// dimension substituted. The vector dimension is baked into the column type
// at schema creation time.
func ddlCanonical(dimensions int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS canonical_entries (
    collection  TEXT         NOT NULL,
    id          TEXT         NOT NULL,
    label       TEXT         NOT NULL,
    embedding   vector(%d),
    created_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
    PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_canonical_entries_embedding
    ON canonical_entries USING hnsw (embedding vector_cosine_ops);
`, dimensions)
}

// NewPGIndex connects to dsn and ensures the canonical_entries table exists.
// dimensions must match the embedding model configured for the deployment;
// changing it after the first migration requires a manual schema update.
func NewPGIndex(ctx context.Context, dsn string, dimensions int) (*PGIndex, error) {
	if dimensions <= 0 {
		return nil, errors.New("canonical: embedding dimensions must be positive")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("canonical: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("canonical: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, ddlCanonical(dimensions)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("canonical: migrate: %w", err)
	}
	return &PGIndex{pool: pool}, nil
}

// Close releases the connection pool.
func (x *PGIndex) Close() {
	x.pool.Close()
}

// Add upserts entry into the collection. An existing entry with the same ID
// is completely replaced.
func (x *PGIndex) Add(ctx context.Context, collection Collection, entry Entry) error {
	if err := validateCollection(collection); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = strings.ToLower(entry.Label)
	}
	if entry.ID == "" {
		return fmt.Errorf("canonical: empty label for collection %q", collection)
	}

	const q = `
		INSERT INTO canonical_entries (collection, id, label, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, id) DO UPDATE SET
		    label     = EXCLUDED.label,
		    embedding = EXCLUDED.embedding`

	_, err := x.pool.Exec(ctx, q, string(collection), entry.ID, entry.Label, pgvector.NewVector(entry.Vector))
	if err != nil {
		return fmt.Errorf("canonical: add entry: %w", err)
	}
	return nil
}

// Nearest returns the entry in the collection closest to vector by cosine
// distance.
func (x *PGIndex) Nearest(ctx context.Context, collection Collection, vector []float32) (Match, bool, error) {
	if err := validateCollection(collection); err != nil {
		return Match{}, false, err
	}

	const q = `
		SELECT label, embedding <=> $1 AS distance
		FROM   canonical_entries
		WHERE  collection = $2
		ORDER  BY distance
		LIMIT  1`

	var m Match
	err := x.pool.QueryRow(ctx, q, pgvector.NewVector(vector), string(collection)).
		Scan(&m.Label, &m.Distance)
	if errors.Is(err, pgx.ErrNoRows) {
		return Match{}, false, nil
	}
	if err != nil {
		return Match{}, false, fmt.Errorf("canonical: nearest: %w", err)
	}
	return m, true, nil
}
