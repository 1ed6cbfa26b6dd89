package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// VectorIndex provides similarity search over an immutable set of entries.
// Implementations must be safe for concurrent Search calls.
type VectorIndex interface {
	// Search returns up to k entries ordered by descending cosine similarity.
	// Ties are broken by insertion order. An empty index returns an empty slice.
	Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error)

	// Len returns the number of entries.
	Len() int

	// Dimensions returns the vector length shared by all entries.
	Dimensions() int

	// Metadata describes how the index was built.
	Metadata() domain.IndexMetadata

	// Snapshot returns the entries and metadata for persistence.
	Snapshot() domain.IndexSnapshot
}

// IndexBuilder constructs a VectorIndex from entries.
// Build fails with a *domain.BuildError when entries is empty or inconsistent.
type IndexBuilder interface {
	Build(meta domain.IndexMetadata, entries []domain.IndexEntry) (VectorIndex, error)
}

// IndexStore persists a whole index and restores it.
// There is no partial load: Load returns a complete snapshot or an error.
type IndexStore interface {
	// Save replaces any previously persisted index with snapshot.
	Save(ctx context.Context, snapshot domain.IndexSnapshot) error

	// Load restores the persisted index. It returns domain.ErrIndexNotFound
	// when nothing is persisted and a *domain.LoadError when the stored data
	// is corrupt or inconsistent.
	Load(ctx context.Context) (domain.IndexSnapshot, error)

	// Location describes where the index lives, for logs and status output.
	Location() string

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
