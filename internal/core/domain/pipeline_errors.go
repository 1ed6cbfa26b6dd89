package domain

import "fmt"

// LoadError reports a file or persisted index that could not be read.
// A LoadError for a single document is logged and skipped; a LoadError
// for the persisted index triggers a rebuild from source.
type LoadError struct {
	// Path is the file or index location that failed.
	Path string

	// Err is the underlying cause.
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// BuildError reports an index build that could not complete.
// It is fatal to that build call only.
type BuildError struct {
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build index: %v", e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// RetrievalError reports a query that could not be served from the index.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// ProviderError reports a failed or timed-out call to an embedding or LLM provider.
type ProviderError struct {
	// Provider names the backend, e.g. "gemini".
	Provider string

	// Op is the operation that failed, e.g. "embed" or "generate".
	Op string

	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err as a ProviderError unless it already is one.
func NewProviderError(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*ProviderError); ok {
		return pe
	}
	return &ProviderError{Provider: provider, Op: op, Err: err}
}
