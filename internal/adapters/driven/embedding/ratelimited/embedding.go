// Package ratelimited wraps an embedding service with request batching,
// a client-side rate limit and retry on provider quota errors.
package ratelimited

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Defaults.
const (
	DefaultBatchSize  = domain.DefaultEmbeddingBatch
	DefaultMaxRetries = 3
)

// EmbeddingService batches and rate-limits calls to another embedding service.
type EmbeddingService struct {
	inner      driven.EmbeddingService
	limiter    *Limiter
	batchSize  int
	maxRetries int
	backoff    time.Duration
}

// Option configures an EmbeddingService.
type Option func(*EmbeddingService)

// WithBatchSize sets the maximum texts per inner request.
func WithBatchSize(n int) Option {
	return func(s *EmbeddingService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithRate limits inner requests to requestsPerSecond. Zero disables limiting.
func WithRate(requestsPerSecond float64) Option {
	return func(s *EmbeddingService) {
		s.limiter = NewLimiter(requestsPerSecond, 1)
	}
}

// WithRetry sets how often a rate-limited request is retried and the pause before each retry.
func WithRetry(maxRetries int, backoff time.Duration) Option {
	return func(s *EmbeddingService) {
		s.maxRetries = maxRetries
		s.backoff = backoff
	}
}

// New wraps inner.
func New(inner driven.EmbeddingService, opts ...Option) *EmbeddingService {
	s := &EmbeddingService{
		inner:      inner,
		limiter:    NewLimiter(0, 1),
		batchSize:  DefaultBatchSize,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed embeds a single query text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := s.call(ctx, func() error {
		var err error
		out, err = s.inner.Embed(ctx, text)
		return err
	})
	return out, err
}

// EmbedBatch embeds texts in batches of at most the configured size, preserving order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	batches := (len(texts) + s.batchSize - 1) / s.batchSize
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		batch := texts[start:end]

		var vectors [][]float32
		err := s.call(ctx, func() error {
			var err error
			vectors, err = s.inner.EmbedBatch(ctx, batch)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("batch %d/%d: %w", start/s.batchSize+1, batches, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("batch %d/%d: got %d vectors for %d texts",
				start/s.batchSize+1, batches, len(vectors), len(batch))
		}
		out = append(out, vectors...)
		logger.Debug("Embedded %d/%d texts", len(out), len(texts))
	}
	return out, nil
}

// call runs fn under the limiter, retrying quota errors.
func (s *EmbeddingService) call(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		err := fn()
		if err == nil || !errors.Is(err, domain.ErrRateLimited) || attempt >= s.maxRetries {
			return err
		}
		logger.Warn("Embedding provider rate limited, retrying in %s (attempt %d/%d)",
			s.backoff, attempt+1, s.maxRetries)
		s.limiter.Backoff(s.backoff)
	}
}

// Dimensions returns the inner service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the inner service's model name.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the inner service.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the inner service.
func (s *EmbeddingService) Close() error {
	return s.inner.Close()
}
