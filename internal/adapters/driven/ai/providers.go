// Package ai turns provider settings into embedding and LLM adapters.
package ai

import (
	"context"
	"errors"
	"fmt"

	geminiembed "github.com/custodia-labs/docchat/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/docchat/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docchat/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docchat/internal/adapters/driven/embedding/ratelimited"
	anthropicllm "github.com/custodia-labs/docchat/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/docchat/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/docchat/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docchat/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// ErrUnsupportedProvider is returned for a provider with no adapter.
var ErrUnsupportedProvider = errors.New("unsupported provider")

type (
	embedderFactory func(context.Context, *domain.EmbeddingSettings) (driven.EmbeddingService, error)
	llmFactory      func(context.Context, *domain.LLMSettings) (driven.LLMService, error)
)

var embedderFactories = map[domain.AIProvider]embedderFactory{
	domain.AIProviderGemini: func(ctx context.Context, s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model, Timeout: s.Timeout,
		})
	},
	domain.AIProviderOpenAI: func(_ context.Context, s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model, Timeout: s.Timeout,
		})
	},
	domain.AIProviderOllama: func(_ context.Context, s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: s.BaseURL, Model: s.Model, Timeout: s.Timeout,
		}), nil
	},
}

var llmFactories = map[domain.AIProvider]llmFactory{
	domain.AIProviderGemini: func(ctx context.Context, s *domain.LLMSettings) (driven.LLMService, error) {
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model, Timeout: s.Timeout,
		})
	},
	domain.AIProviderOpenAI: func(_ context.Context, s *domain.LLMSettings) (driven.LLMService, error) {
		return openaillm.NewLLMService(openaillm.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model, Timeout: s.Timeout,
		})
	},
	domain.AIProviderAnthropic: func(_ context.Context, s *domain.LLMSettings) (driven.LLMService, error) {
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey: s.APIKey, BaseURL: s.BaseURL, Model: s.Model, Timeout: s.Timeout,
		})
	},
	domain.AIProviderOllama: func(_ context.Context, s *domain.LLMSettings) (driven.LLMService, error) {
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: s.BaseURL, Model: s.Model, Timeout: s.Timeout,
		}), nil
	},
}

// NewEmbedder returns the embedding adapter for s behind the batching rate
// limiter, or nil when s is not configured.
func NewEmbedder(ctx context.Context, s *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if s == nil || !s.IsConfigured() {
		return nil, nil
	}
	build, ok := embedderFactories[s.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s embeddings", ErrUnsupportedProvider, s.Provider)
	}
	inner, err := build(ctx, s)
	if err != nil {
		return nil, err
	}
	return ratelimited.New(inner,
		ratelimited.WithBatchSize(s.BatchSize),
		ratelimited.WithRate(s.RequestsPerSecond),
	), nil
}

// NewLLM returns the LLM adapter for s, or nil when s is not configured.
func NewLLM(ctx context.Context, s *domain.LLMSettings) (driven.LLMService, error) {
	if s == nil || !s.IsConfigured() {
		return nil, nil
	}
	build, ok := llmFactories[s.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, s.Provider)
	}
	llm, err := build(ctx, s)
	if err != nil {
		return nil, err
	}
	return llm, nil
}

// Services holds the adapters built from the application settings.
type Services struct {
	Embedder driven.EmbeddingService
	LLM      driven.LLMService

	// Warnings describe why Embedder is nil.
	Warnings []string
}

// Direct reports whether answers are generated without document context.
func (s *Services) Direct() bool {
	return s.Embedder == nil
}

// Close releases both adapters.
func (s *Services) Close() {
	if s.Embedder != nil {
		s.Embedder.Close() //nolint:errcheck
	}
	if s.LLM != nil {
		s.LLM.Close() //nolint:errcheck
	}
}

// Build creates the adapters for settings. A missing LLM credential is
// fatal. An embedder that cannot be built only adds a warning, and answers
// then fall back to direct mode.
func Build(ctx context.Context, settings *domain.AppSettings) (*Services, error) {
	p := settings.LLM.Provider
	if p.RequiresAPIKey() && settings.LLM.APIKey == "" {
		return nil, fmt.Errorf("%w: %s requires an API key", domain.ErrMissingCredential, p.Description())
	}
	llm, err := NewLLM(ctx, &settings.LLM)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}

	out := &Services{LLM: llm}
	embedder, err := NewEmbedder(ctx, &settings.Embedding)
	switch {
	case err != nil:
		out.Warnings = append(out.Warnings, fmt.Sprintf("embeddings disabled: %v", err))
	case embedder == nil:
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("embeddings disabled: %s is not configured", settings.Embedding.Provider))
	default:
		out.Embedder = embedder
	}

	for _, w := range out.Warnings {
		logger.Warn("%s", w)
	}
	return out, nil
}
