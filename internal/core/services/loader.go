package services

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Loader reads a documents directory into source documents.
// Each file is routed to the extractor registered for its type.
type Loader struct {
	lister     driven.FileLister
	extractors map[domain.FileType]driven.Extractor
}

// NewLoader creates a loader. Later extractors replace earlier ones for the same file type.
func NewLoader(lister driven.FileLister, extractors ...driven.Extractor) *Loader {
	l := &Loader{
		lister:     lister,
		extractors: make(map[domain.FileType]driven.Extractor),
	}
	for _, e := range extractors {
		for _, ft := range e.FileTypes() {
			l.extractors[ft] = e
		}
	}
	return l
}

// LoadDocuments extracts every supported file under dir in lexical path order.
// A file that fails is reported as a LoadError and skipped; the rest still load.
// A missing directory yields no documents and no errors.
func (l *Loader) LoadDocuments(ctx context.Context, dir string) ([]domain.SourceDocument, []*domain.LoadError) {
	logger.Section("Document Loading")
	logger.Debug("Documents directory: %s", dir)

	paths, err := l.lister.List(ctx, dir)
	if err != nil {
		logger.Warn("Cannot list documents in %s: %v", dir, err)
		return nil, []*domain.LoadError{{Path: dir, Err: err}}
	}
	if len(paths) == 0 {
		logger.Info("No documents found in %s", dir)
		return nil, nil
	}

	var (
		docs   []domain.SourceDocument
		failed []*domain.LoadError
	)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			failed = append(failed, &domain.LoadError{Path: path, Err: err})
			break
		}

		ft, ok := domain.FileTypeFromPath(path)
		if !ok {
			continue
		}
		extractor, ok := l.extractors[ft]
		if !ok {
			logger.Debug("No extractor for %s, skipping %s", ft, path)
			continue
		}

		extracted, err := extractor.Extract(ctx, path)
		if err != nil {
			logger.Warn("Failed to load %s: %v", path, err)
			failed = append(failed, &domain.LoadError{Path: path, Err: err})
			continue
		}

		logger.Debug("Loaded %s: %d document(s)", path, len(extracted))
		docs = append(docs, extracted...)
	}

	logger.Info("Loaded %d documents from %d files (%d failed)", len(docs), len(paths), len(failed))
	return docs, failed
}
