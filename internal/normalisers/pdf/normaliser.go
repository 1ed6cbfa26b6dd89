package pdf

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Extractor = (*Normaliser)(nil)

// maxTitleLength bounds the first line accepted as a document title.
const maxTitleLength = 200

// PageReader returns the text of every page of a PDF in page order.
type PageReader interface {
	ReadPages(ctx context.Context, path string) ([]string, error)
}

// Normaliser handles PDF documents, producing one source document per page.
type Normaliser struct {
	reader PageReader
}

// New creates a PDF normaliser backed by pdfcpu.
func New() *Normaliser {
	return NewWithReader(NewPDFCPUReader())
}

// NewWithReader creates a PDF normaliser with a custom page reader.
func NewWithReader(reader PageReader) *Normaliser {
	return &Normaliser{reader: reader}
}

// FileTypes returns the file types this normaliser handles.
func (n *Normaliser) FileTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypePDF}
}

// Extract reads every page of the PDF at path. Pages without any text are
// dropped; the remaining pages keep their 1-based page number.
func (n *Normaliser) Extract(ctx context.Context, path string) ([]domain.SourceDocument, error) {
	if path == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pages, err := n.reader.ReadPages(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("pdf extraction failed: %w", err)
	}

	var docs []domain.SourceDocument
	title := ""
	for i, page := range pages {
		text := cleanPage(page)
		if text == "" {
			continue
		}
		if title == "" {
			title = extractTitle(text, path)
		}
		docs = append(docs, domain.SourceDocument{
			Path:     path,
			FileType: domain.FileTypePDF,
			Page:     i + 1,
			Title:    title,
			Text:     text,
		})
	}
	return docs, nil
}

// cleanPage trims trailing spaces on every line and collapses blank runs.
func cleanPage(text string) string {
	text = plaintext.NormaliseText([]byte(text))
	lines := strings.Split(text, "\n")
	out := lines[:0]
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// extractTitle uses the first short non-empty line, falling back to the filename.
func extractTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) < maxTitleLength {
			return line
		}
	}
	return plaintext.TitleFromPath(filepath.Base(path))
}
