// Package flat provides an exact nearest-neighbour index using a linear
// cosine-similarity scan. It suits corpora of up to a few hundred thousand
// chunks and gives reproducible results for identical contents.
package flat

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Verify interface compliance.
var (
	_ driven.VectorIndex  = (*Index)(nil)
	_ driven.IndexBuilder = (*Builder)(nil)
)

// Builder constructs flat indexes.
type Builder struct{}

// NewBuilder creates a new flat index builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build validates entries and returns an immutable index over them.
// It fails with a *domain.BuildError when entries is empty or when vectors
// are zero-length or of differing dimensions.
func (b *Builder) Build(meta domain.IndexMetadata, entries []domain.IndexEntry) (driven.VectorIndex, error) {
	idx, err := New(meta, entries)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// Index is an immutable in-memory vector index. Search is safe for concurrent use.
type Index struct {
	meta    domain.IndexMetadata
	entries []domain.IndexEntry

	// unit holds the L2-normalised vectors, parallel to entries.
	unit [][]float32
}

// New builds an index from entries. See Builder.Build for the error contract.
func New(meta domain.IndexMetadata, entries []domain.IndexEntry) (*Index, error) {
	if len(entries) == 0 {
		return nil, &domain.BuildError{Err: domain.ErrNoDocuments}
	}

	dims := len(entries[0].Vector)
	if dims == 0 {
		return nil, &domain.BuildError{Err: fmt.Errorf("%w: zero-length vector", domain.ErrDimensionMismatch)}
	}
	if meta.Dimensions != 0 && meta.Dimensions != dims {
		return nil, &domain.BuildError{Err: fmt.Errorf("%w: metadata says %d, vectors have %d",
			domain.ErrDimensionMismatch, meta.Dimensions, dims)}
	}
	meta.Dimensions = dims

	idx := &Index{
		meta:    meta,
		entries: make([]domain.IndexEntry, len(entries)),
		unit:    make([][]float32, len(entries)),
	}
	for i, e := range entries {
		if len(e.Vector) != dims {
			return nil, &domain.BuildError{Err: fmt.Errorf("%w: entry %d has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, i, len(e.Vector), dims)}
		}
		vec := make([]float32, dims)
		copy(vec, e.Vector)
		idx.entries[i] = domain.IndexEntry{Chunk: e.Chunk, Vector: vec}
		idx.unit[i] = normalise(vec)
	}
	return idx, nil
}

// Search returns up to k entries by descending cosine similarity.
// Equal scores keep insertion order.
func (x *Index) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 || len(x.entries) == 0 {
		return []domain.ScoredChunk{}, nil
	}
	if len(query) != x.meta.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), x.meta.Dimensions)
	}

	q := normalise(query)
	scores := make([]float64, len(x.unit))
	for i, v := range x.unit {
		scores[i] = dot(v, q)
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	results := make([]domain.ScoredChunk, k)
	for i := 0; i < k; i++ {
		j := order[i]
		results[i] = domain.ScoredChunk{Chunk: x.entries[j].Chunk, Score: scores[j]}
	}
	return results, nil
}

// Len returns the number of entries.
func (x *Index) Len() int {
	return len(x.entries)
}

// Dimensions returns the vector length shared by all entries.
func (x *Index) Dimensions() int {
	return x.meta.Dimensions
}

// Metadata returns the index metadata.
func (x *Index) Metadata() domain.IndexMetadata {
	return x.meta
}

// Snapshot returns the original entries and metadata for persistence.
func (x *Index) Snapshot() domain.IndexSnapshot {
	entries := make([]domain.IndexEntry, len(x.entries))
	copy(entries, x.entries)
	return domain.IndexSnapshot{Metadata: x.meta, Entries: entries}
}

// normalise returns v scaled to unit length. A zero vector stays zero.
func normalise(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, f := range v {
		out[i] = float32(float64(f) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
