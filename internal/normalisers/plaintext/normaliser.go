package plaintext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Extractor = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// FileTypes returns the file types this normaliser handles.
func (n *Normaliser) FileTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeText}
}

// Extract reads a text file into a single source document.
// Invalid UTF-8 sequences are replaced and line endings normalised to LF.
func (n *Normaliser) Extract(ctx context.Context, path string) ([]domain.SourceDocument, error) {
	if path == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}

	return []domain.SourceDocument{{
		Path:     path,
		FileType: domain.FileTypeText,
		Title:    TitleFromPath(path),
		Text:     NormaliseText(raw),
	}}, nil
}

// NormaliseText converts raw bytes to clean UTF-8 with LF line endings.
func NormaliseText(raw []byte) string {
	text := strings.ToValidUTF8(string(raw), "\uFFFD")
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// TitleFromPath derives a human-readable title from a file path.
func TitleFromPath(path string) string {
	// Get filename from path
	filename := filepath.Base(path)

	// Remove extension for cleaner title
	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}

	// Replace underscores and dashes with spaces
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")

	return filename
}
