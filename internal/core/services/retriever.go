package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.RetrievalService = (*Retriever)(nil)

// IndexProvider exposes the index currently serving queries.
// Current returns nil while no index is ready.
type IndexProvider interface {
	Current() driven.VectorIndex
}

// Retriever embeds queries and searches the current index.
type Retriever struct {
	embedder driven.EmbeddingService
	indexes  IndexProvider
	defaultK int
}

// NewRetriever creates a retriever. A non-positive defaultK uses domain.DefaultRetrievalK.
func NewRetriever(embedder driven.EmbeddingService, indexes IndexProvider, defaultK int) *Retriever {
	if defaultK <= 0 {
		defaultK = domain.DefaultRetrievalK
	}
	return &Retriever{
		embedder: embedder,
		indexes:  indexes,
		defaultK: defaultK,
	}
}

// Ready reports whether a query can be served from an index.
func (r *Retriever) Ready() bool {
	if r.embedder == nil || r.indexes == nil {
		return false
	}
	idx := r.indexes.Current()
	return idx != nil && idx.Len() > 0
}

// Retrieve returns the top-k chunks for query in descending similarity.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.Chunk, error) {
	scored, err := r.RetrieveScored(ctx, query, k)
	if err != nil {
		return nil, err
	}
	chunks := make([]domain.Chunk, len(scored))
	for i, sc := range scored {
		chunks[i] = sc.Chunk
	}
	return chunks, nil
}

// RetrieveScored returns the top-k chunks with their cosine similarity.
// A non-positive k uses the configured default.
func (r *Retriever) RetrieveScored(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = r.defaultK
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &domain.RetrievalError{Err: domain.ErrInvalidInput}
	}
	if r.embedder == nil {
		return nil, &domain.RetrievalError{Err: domain.ErrEmbeddingUnavailable}
	}

	var idx driven.VectorIndex
	if r.indexes != nil {
		idx = r.indexes.Current()
	}
	if idx == nil || idx.Len() == 0 {
		return nil, &domain.RetrievalError{Err: domain.ErrIndexUnset}
	}

	logger.Debug("Retrieving top %d chunks for %q", k, query)

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &domain.RetrievalError{Err: domain.NewProviderError(r.embedder.ModelName(), "embed", err)}
	}

	hits, err := idx.Search(ctx, vec, k)
	if err != nil {
		return nil, &domain.RetrievalError{Err: err}
	}

	logger.Debug("Retrieved %d chunks", len(hits))
	return hits, nil
}
