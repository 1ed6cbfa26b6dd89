package driven

import "context"

// LLMService turns a filled prompt template into an answer. Gemini, OpenAI,
// Anthropic and Ollama each have an adapter.
type LLMService interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName is reported in status output and the index metadata.
	ModelName() string

	// Ping makes the cheapest request the provider offers.
	Ping(ctx context.Context) error

	Close() error
}

// GenerateOptions are passed with each Generate call. Zero values leave the
// provider's default in place, except Temperature, which is always sent.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float64

	// System is sent as the provider's system instruction when non-empty.
	System string
}
