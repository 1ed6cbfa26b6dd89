// Package postgres persists the vector index in PostgreSQL using the
// pgvector extension. The whole index is replaced in one transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Verify interface compliance.
var _ driven.IndexStore = (*Store)(nil)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS docchat_index_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    model TEXT NOT NULL,
    dimensions INTEGER NOT NULL,
    entry_count INTEGER NOT NULL,
    built_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS docchat_entries (
    position INTEGER PRIMARY KEY,
    chunk_id TEXT NOT NULL,
    source_path TEXT NOT NULL,
    page INTEGER NOT NULL DEFAULT 0,
    sequence INTEGER NOT NULL,
    start_offset INTEGER NOT NULL,
    end_offset INTEGER NOT NULL,
    content TEXT NOT NULL,
    embedding vector NOT NULL
);
`

// Store is a PostgreSQL-backed index store.
type Store struct {
	pool     *pgxpool.Pool
	location string
}

// NewStore connects to databaseURL, verifies the connection and ensures the schema exists.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{pool: pool, location: describe(config)}, nil
}

// describe renders a connection target without credentials.
func describe(config *pgxpool.Config) string {
	cc := config.ConnConfig
	return fmt.Sprintf("postgres://%s:%d/%s", cc.Host, cc.Port, cc.Database)
}

// Location returns the database host and name.
func (s *Store) Location() string {
	return s.location
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Save replaces the persisted index with snapshot in a single transaction.
func (s *Store) Save(ctx context.Context, snapshot domain.IndexSnapshot) error {
	if err := validateSnapshot(snapshot); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "DELETE FROM docchat_entries"); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM docchat_index_meta"); err != nil {
		return fmt.Errorf("clearing metadata: %w", err)
	}

	meta := snapshot.Metadata
	builtAt := meta.BuiltAt
	if builtAt.IsZero() {
		builtAt = time.Now()
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO docchat_index_meta (id, model, dimensions, entry_count, built_at)
		VALUES (1, $1, $2, $3, $4)
	`, meta.Model, meta.Dimensions, len(snapshot.Entries), builtAt.UTC()); err != nil {
		return fmt.Errorf("saving metadata: %w", err)
	}

	batch := &pgx.Batch{}
	for i, e := range snapshot.Entries {
		c := e.Chunk
		batch.Queue(`
			INSERT INTO docchat_entries (position, chunk_id, source_path, page, sequence, start_offset, end_offset, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::vector)
		`, i, c.ID, c.SourcePath, c.Page, c.Sequence, c.Start, c.End, c.Text, pgvector.NewVector(e.Vector))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("saving entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Load restores the persisted index. Any inconsistency yields a *domain.LoadError.
func (s *Store) Load(ctx context.Context) (domain.IndexSnapshot, error) {
	var meta domain.IndexMetadata
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT model, dimensions, entry_count, built_at FROM docchat_index_meta WHERE id = 1
	`).Scan(&meta.Model, &meta.Dimensions, &count, &meta.BuiltAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.IndexSnapshot{}, domain.ErrIndexNotFound
	}
	if err != nil {
		return domain.IndexSnapshot{}, s.loadError(fmt.Errorf("%w: reading metadata: %v", domain.ErrCorruptIndex, err))
	}
	if meta.Dimensions <= 0 || count <= 0 {
		return domain.IndexSnapshot{}, s.loadError(fmt.Errorf("%w: %d entries of %d dimensions",
			domain.ErrCorruptIndex, count, meta.Dimensions))
	}

	rows, err := s.pool.Query(ctx, `
		SELECT position, chunk_id, source_path, page, sequence, start_offset, end_offset, content, embedding::text
		FROM docchat_entries ORDER BY position
	`)
	if err != nil {
		return domain.IndexSnapshot{}, s.loadError(fmt.Errorf("%w: reading entries: %v", domain.ErrCorruptIndex, err))
	}
	defer rows.Close()

	entries := make([]domain.IndexEntry, 0, count)
	for rows.Next() {
		var position int
		var c domain.Chunk
		var text string
		if err := rows.Scan(&position, &c.ID, &c.SourcePath, &c.Page, &c.Sequence,
			&c.Start, &c.End, &c.Text, &text); err != nil {
			return domain.IndexSnapshot{}, s.loadError(fmt.Errorf("%w: scanning entry: %v", domain.ErrCorruptIndex, err))
		}
		if position != len(entries) {
			return domain.IndexSnapshot{}, s.loadError(fmt.Errorf("%w: entry %d out of sequence", domain.ErrCorruptIndex, position))
		}
		vec, err := parseVector(text)
		if err != nil {
			return domain.IndexSnapshot{}, s.loadError(fmt.Errorf("%w: entry %d: %v", domain.ErrCorruptIndex, position, err))
		}
		if len(vec) != meta.Dimensions {
			return domain.IndexSnapshot{}, s.loadError(fmt.Errorf("%w: entry %d has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, position, len(vec), meta.Dimensions))
		}
		entries = append(entries, domain.IndexEntry{Chunk: c, Vector: vec})
	}
	if err := rows.Err(); err != nil {
		return domain.IndexSnapshot{}, s.loadError(fmt.Errorf("%w: %v", domain.ErrCorruptIndex, err))
	}
	if len(entries) != count {
		return domain.IndexSnapshot{}, s.loadError(fmt.Errorf("%w: expected %d entries, found %d",
			domain.ErrCorruptIndex, count, len(entries)))
	}

	return domain.IndexSnapshot{Metadata: meta, Entries: entries}, nil
}

func (s *Store) loadError(err error) error {
	return &domain.LoadError{Path: s.location, Err: err}
}

// validateSnapshot checks that every vector matches the metadata dimensions.
func validateSnapshot(snapshot domain.IndexSnapshot) error {
	if snapshot.Metadata.Dimensions <= 0 {
		return fmt.Errorf("%w: index has %d dimensions", domain.ErrDimensionMismatch, snapshot.Metadata.Dimensions)
	}
	for i, e := range snapshot.Entries {
		if len(e.Vector) != snapshot.Metadata.Dimensions {
			return fmt.Errorf("%w: entry %d has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, i, len(e.Vector), snapshot.Metadata.Dimensions)
		}
	}
	return nil
}

// parseVector decodes pgvector's text form, e.g. "[1,2,3]".
func parseVector(text string) ([]float32, error) {
	var v pgvector.Vector
	if err := v.Scan(text); err != nil {
		return nil, err
	}
	return v.Slice(), nil
}
