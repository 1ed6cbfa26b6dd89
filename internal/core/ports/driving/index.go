package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// IndexService manages the vector index lifecycle.
type IndexService interface {
	// Initialise loads the persisted index or builds one from source.
	Initialise(ctx context.Context) (domain.BuildReport, error)

	// Reload rebuilds the index. When force is set the persisted index is ignored.
	// Returns domain.ErrRebuildInProgress if a rebuild is already running.
	Reload(ctx context.Context, force bool) (domain.BuildReport, error)

	// ReloadAsync starts Reload in the background.
	// Returns domain.ErrRebuildInProgress if a rebuild is already running.
	ReloadAsync(force bool) error

	// Status returns the current index state.
	Status() domain.IndexStatus
}
