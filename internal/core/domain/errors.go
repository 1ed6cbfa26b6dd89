package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file type no extractor handles.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrTooLarge indicates an uploaded document exceeds the size limit.
	ErrTooLarge = errors.New("too large")

	// Index Errors.

	// ErrIndexUnset indicates no index has been built or loaded yet.
	// Queries fall back to direct LLM mode.
	ErrIndexUnset = errors.New("index not built")

	// ErrIndexNotFound indicates no persisted index exists at the configured location.
	ErrIndexNotFound = errors.New("persisted index not found")

	// ErrNoDocuments indicates an index build was requested with nothing to index.
	ErrNoDocuments = errors.New("no documents to index")

	// ErrCorruptIndex indicates the persisted index could not be decoded.
	ErrCorruptIndex = errors.New("persisted index is corrupt")

	// ErrDimensionMismatch indicates vectors of differing dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrRebuildInProgress indicates a rebuild is already running.
	// Rebuilds are serialised; concurrent requests are rejected.
	ErrRebuildInProgress = errors.New("index rebuild in progress")

	// Provider Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Without embeddings no index can be built and answers use direct mode.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrMissingCredential indicates a cloud provider has no API key.
	// This is the only startup-fatal configuration error.
	ErrMissingCredential = errors.New("missing provider credential")

	// ErrRateLimited indicates a provider rejected a call for exceeding its quota.
	ErrRateLimited = errors.New("rate limited by provider")

	// ErrEmptyResponse indicates a provider returned no content.
	ErrEmptyResponse = errors.New("empty response from provider")
)
