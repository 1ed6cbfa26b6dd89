package driven

import "context"

// EmbeddingService maps text to vectors. Chunks and queries must go through
// the same service and model, or their similarities mean nothing.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the vector length, or 0 until the first response
	// reveals it.
	Dimensions() int

	ModelName() string
	Ping(ctx context.Context) error
	Close() error
}
