// Package tokens counts and trims text by model tokens.
package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure both counters implement the interface.
var (
	_ driven.TokenCounter = (*Counter)(nil)
	_ driven.TokenCounter = Estimator{}
)

// DefaultEncoding is the BPE encoding used by current OpenAI chat and embedding models.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens with a tiktoken encoding.
type Counter struct {
	encoding *tiktoken.Tiktoken
}

// New creates a counter for the named encoding. An empty name uses DefaultEncoding.
func New(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load token encoding %s: %w", encoding, err)
	}
	return &Counter{encoding: enc}, nil
}

// NewOrEstimate returns a tiktoken counter, or an Estimator when the encoding
// cannot be loaded.
func NewOrEstimate(encoding string) driven.TokenCounter {
	c, err := New(encoding)
	if err != nil {
		logger.Warn("Estimating token counts: %v", err)
		return Estimator{}
	}
	return c
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

// Trim returns the longest token prefix of text that fits in maxTokens.
func (c *Counter) Trim(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	ids := c.encoding.Encode(text, nil, nil)
	if len(ids) <= maxTokens {
		return text
	}
	return c.encoding.Decode(ids[:maxTokens])
}

// CharsPerToken is the average token length the Estimator assumes.
const CharsPerToken = 4

// Estimator approximates token counts from the rune count.
type Estimator struct{}

// Count returns the estimated number of tokens in text.
func (Estimator) Count(text string) int {
	n := len([]rune(text))
	return (n + CharsPerToken - 1) / CharsPerToken
}

// Trim returns the prefix of text that fits in maxTokens estimated tokens.
func (Estimator) Trim(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	runes := []rune(text)
	limit := maxTokens * CharsPerToken
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
