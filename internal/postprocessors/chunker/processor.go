// Package chunker provides a recursive character text splitter.
package chunker

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Splitter = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// DefaultSeparators are tried in order: paragraph, line, word.
// When none fits, the text is cut at the size limit.
var DefaultSeparators = []string{"\n\n", "\n", " "}

// chunkNamespace scopes deterministic chunk IDs.
var chunkNamespace = uuid.MustParse("6f1c1a8e-3d0b-4f5e-9a67-2c1f0e7d4b21")

// Processor splits source documents into overlapping chunks.
// Lengths and offsets are measured in characters (runes).
type Processor struct {
	chunkSize  int
	overlap    int
	separators [][]rune
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithSeparators replaces the separator hierarchy.
func WithSeparators(seps ...string) Option {
	return func(p *Processor) {
		p.separators = p.separators[:0]
		for _, s := range seps {
			if s != "" {
				p.separators = append(p.separators, []rune(s))
			}
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, s := range DefaultSeparators {
		p.separators = append(p.separators, []rune(s))
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the effective overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// SplitAll chunks every document, preserving document order.
func (p *Processor) SplitAll(docs []domain.SourceDocument) []domain.Chunk {
	var chunks []domain.Chunk
	for i := range docs {
		chunks = append(chunks, p.Split(docs[i])...)
	}
	return chunks
}

// Split divides one document into chunks of at most ChunkSize characters.
//
// The text is first cut into consecutive spans, preferring paragraph breaks,
// then line breaks, then spaces, then a hard cut. Every chunk after the first
// is its span prefixed with up to Overlap preceding characters, so spans are
// limited to ChunkSize-Overlap characters after the first. The overlap is
// shorter only when less text precedes the span. A document no longer than
// ChunkSize yields exactly one chunk.
func (p *Processor) Split(doc domain.SourceDocument) []domain.Chunk {
	text := []rune(doc.Text)
	if strings.TrimSpace(doc.Text) == "" {
		return nil
	}

	var chunks []domain.Chunk
	pos := 0
	for pos < len(text) {
		budget := p.chunkSize - p.overlap
		start := pos - p.overlap
		if pos == 0 {
			budget = p.chunkSize
			start = 0
		}
		if start < 0 {
			start = 0
		}

		end := p.nextBoundary(text, pos, budget)
		content := string(text[start:end])
		pos = end

		if strings.TrimSpace(content) == "" {
			continue
		}

		seq := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:         chunkID(doc, seq),
			SourcePath: doc.Path,
			Page:       doc.Page,
			Sequence:   seq,
			Text:       content,
			Start:      start,
			End:        end,
		})
	}

	return chunks
}

// nextBoundary returns the end of the span starting at pos that fits in budget.
// A separator only ends the span when text other than whitespace precedes it
// in the window.
func (p *Processor) nextBoundary(text []rune, pos, budget int) int {
	if len(text)-pos <= budget {
		return len(text)
	}

	window := text[pos : pos+budget]
	for _, sep := range p.separators {
		if idx := lastIndex(window, sep); idx >= 0 && !blank(window[:idx]) {
			return pos + idx + len(sep)
		}
	}

	return pos + budget
}

func blank(s []rune) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// lastIndex returns the index of the last occurrence of sep in s, or -1.
func lastIndex(s, sep []rune) int {
	n := len(sep)
	for i := len(s) - n; i >= 0; i-- {
		match := true
		for j := 0; j < n; j++ {
			if s[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// chunkID derives a stable identifier from the chunk's provenance.
func chunkID(doc domain.SourceDocument, seq int) string {
	key := fmt.Sprintf("%s#%d#%d", doc.Path, doc.Page, seq)
	return uuid.NewSHA1(chunkNamespace, []byte(key)).String()
}
