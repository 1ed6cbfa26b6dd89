package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// DocumentService manages files in the documents directory.
type DocumentService interface {
	// List returns the supported files in the documents directory.
	List(ctx context.Context) ([]domain.DocumentInfo, error)

	// Upload stores content under name in the documents directory.
	// The index is not rebuilt; callers trigger a reload explicitly.
	Upload(ctx context.Context, name string, content []byte) error

	// Dir returns the documents directory.
	Dir() string
}

// Diagnostics reports on the installation and provider connectivity.
type Diagnostics interface {
	// Check runs every diagnostic and returns one result per check.
	Check(ctx context.Context) []domain.CheckResult
}
