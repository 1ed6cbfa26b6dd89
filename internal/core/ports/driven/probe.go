package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// ProviderProbe checks that the AI providers named in the settings answer.
// Settings for a provider that is not configured probe as nil.
type ProviderProbe interface {
	ProbeEmbedding(ctx context.Context, s *domain.EmbeddingSettings) error
	ProbeLLM(ctx context.Context, s *domain.LLMSettings) error
}
