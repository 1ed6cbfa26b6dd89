package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docchat/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// FileName is the database file created inside the index directory.
const FileName = "index.db"

// Verify interface compliance.
var _ driven.IndexStore = (*Store)(nil)

// Store is a SQLite-backed index store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the index database in dataDir.
// If dataDir is empty, defaults to ./vector_store.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		dataDir = domain.DefaultIndexPath
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, FileName)

	s, err := open(dbPath)
	if err == nil {
		return s, nil
	}
	if _, statErr := os.Stat(dbPath); statErr != nil {
		return nil, err
	}

	// The file exists but cannot be used; keep it for inspection and start fresh.
	aside := dbPath + ".corrupt"
	logger.Warn("index database %s unreadable (%v), moving it to %s", dbPath, err, aside)
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(dbPath + suffix)
	}
	if renameErr := os.Rename(dbPath, aside); renameErr != nil {
		return nil, fmt.Errorf("moving unreadable index aside: %w", renameErr)
	}
	return open(dbPath)
}

func open(dbPath string) (*Store, error) {
	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Location returns the database file path.
func (s *Store) Location() string {
	return s.path
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Save replaces the persisted index with snapshot in a single transaction.
func (s *Store) Save(ctx context.Context, snapshot domain.IndexSnapshot) error {
	meta := snapshot.Metadata
	for i, e := range snapshot.Entries {
		if len(e.Vector) != meta.Dimensions {
			return fmt.Errorf("saving index: %w: entry %d has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, i, len(e.Vector), meta.Dimensions)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM index_meta"); err != nil {
		return fmt.Errorf("clearing metadata: %w", err)
	}

	builtAt := meta.BuiltAt
	if builtAt.IsZero() {
		builtAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_meta (id, model, dimensions, entry_count, built_at)
		VALUES (1, ?, ?, ?, ?)
	`, meta.Model, meta.Dimensions, len(snapshot.Entries), builtAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("saving metadata: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (position, chunk_id, source_path, page, sequence, start_offset, end_offset, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, e := range snapshot.Entries {
		c := e.Chunk
		if _, err := stmt.ExecContext(ctx, i, c.ID, c.SourcePath, c.Page, c.Sequence,
			c.Start, c.End, c.Text, float32SliceToBytes(e.Vector)); err != nil {
			return fmt.Errorf("saving entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Load restores the persisted index. It never returns a partial index:
// any inconsistency yields a *domain.LoadError.
func (s *Store) Load(ctx context.Context) (domain.IndexSnapshot, error) {
	var meta domain.IndexMetadata
	var count int
	var builtAt string
	row := s.db.QueryRowContext(ctx, `
		SELECT model, dimensions, entry_count, built_at FROM index_meta WHERE id = 1
	`)
	if err := row.Scan(&meta.Model, &meta.Dimensions, &count, &builtAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.IndexSnapshot{}, domain.ErrIndexNotFound
		}
		return domain.IndexSnapshot{}, s.loadError(fmt.Errorf("%w: reading metadata: %v", domain.ErrCorruptIndex, err))
	}

	t, err := time.Parse(time.RFC3339Nano, builtAt)
	if err != nil {
		return domain.IndexSnapshot{}, s.loadError(fmt.Errorf("%w: bad build time %q", domain.ErrCorruptIndex, builtAt))
	}
	meta.BuiltAt = t
	if meta.Dimensions <= 0 || count <= 0 {
		return domain.IndexSnapshot{}, s.loadError(fmt.Errorf("%w: %d entries of %d dimensions",
			domain.ErrCorruptIndex, count, meta.Dimensions))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT position, chunk_id, source_path, page, sequence, start_offset, end_offset, content, embedding
		FROM entries ORDER BY position
	`)
	if err != nil {
		return domain.IndexSnapshot{}, s.loadError(fmt.Errorf("%w: reading entries: %v", domain.ErrCorruptIndex, err))
	}
	defer rows.Close()

	entries := make([]domain.IndexEntry, 0, count)
	for rows.Next() {
		var position int
		var c domain.Chunk
		var blob []byte
		if err := rows.Scan(&position, &c.ID, &c.SourcePath, &c.Page, &c.Sequence,
			&c.Start, &c.End, &c.Text, &blob); err != nil {
			return domain.IndexSnapshot{}, s.loadError(fmt.Errorf("%w: scanning entry: %v", domain.ErrCorruptIndex, err))
		}
		if position != len(entries) {
			return domain.IndexSnapshot{}, s.loadError(fmt.Errorf("%w: entry %d out of sequence", domain.ErrCorruptIndex, position))
		}
		if len(blob)%4 != 0 {
			return domain.IndexSnapshot{}, s.loadError(fmt.Errorf("%w: entry %d has a truncated vector", domain.ErrCorruptIndex, position))
		}
		vec := bytesToFloat32Slice(blob)
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
	return &domain.LoadError{Path: s.path, Err: err}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_index.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
