package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// Extractor turns one file into source documents.
// Each extractor handles specific file types (e.g., PDF, Markdown).
type Extractor interface {
	// FileTypes returns the file types this extractor handles.
	FileTypes() []domain.FileType

	// Extract reads the file at path. PDF extractors return one document per page;
	// text formats return a single document.
	Extract(ctx context.Context, path string) ([]domain.SourceDocument, error)
}

// FileLister enumerates candidate files below a root directory.
type FileLister interface {
	// List returns supported file paths in lexical order.
	// A missing root yields an empty list and no error.
	List(ctx context.Context, root string) ([]string, error)
}
