package driven

import "github.com/custodia-labs/docchat/internal/core/domain"

// Splitter divides source documents into overlapping chunks.
type Splitter interface {
	// Split chunks a single document in reading order.
	Split(doc domain.SourceDocument) []domain.Chunk
}

// TokenCounter measures and trims text by model tokens.
type TokenCounter interface {
	// Count returns the number of tokens in text.
	Count(text string) int

	// Trim returns the longest prefix of text that fits in maxTokens.
	Trim(text string, maxTokens int) string
}
