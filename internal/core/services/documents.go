package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService lists and stores files in the documents directory.
type DocumentService struct {
	dir      string
	lister   driven.FileLister
	maxBytes int64
}

// NewDocumentService creates a document service rooted at dir.
// A non-positive maxBytes uses domain.DefaultMaxUploadBytes.
func NewDocumentService(dir string, lister driven.FileLister, maxBytes int64) *DocumentService {
	if maxBytes <= 0 {
		maxBytes = domain.DefaultMaxUploadBytes
	}
	return &DocumentService{
		dir:      dir,
		lister:   lister,
		maxBytes: maxBytes,
	}
}

// Dir returns the documents directory.
func (s *DocumentService) Dir() string {
	return s.dir
}

// List returns the supported files under the documents directory.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentInfo, error) {
	paths, err := s.lister.List(ctx, s.dir)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]domain.DocumentInfo, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			logger.Debug("Skipping %s: %v", path, err)
			continue
		}
		name, err := filepath.Rel(s.dir, path)
		if err != nil {
			name = filepath.Base(path)
		}
		docs = append(docs, domain.DocumentInfo{
			Name: filepath.ToSlash(name),
			Size: info.Size(),
			Type: strings.ToLower(filepath.Ext(path)),
		})
	}
	return docs, nil
}

// Upload writes content to the documents directory under the base name of name.
// The file appears atomically; the index is not rebuilt.
func (s *DocumentService) Upload(ctx context.Context, name string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	base := filepath.Base(filepath.Clean(strings.ReplaceAll(name, "\\", "/")))
	if base == "." || base == "/" || base == ".." || strings.HasPrefix(base, ".") {
		return fmt.Errorf("%w: invalid file name %q", domain.ErrInvalidInput, name)
	}
	if _, ok := domain.FileTypeFromPath(base); !ok {
		return fmt.Errorf("%w: %s (allowed: .pdf, .txt, .md)", domain.ErrUnsupportedType, base)
	}
	if int64(len(content)) > s.maxBytes {
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", domain.ErrTooLarge, base, len(content), s.maxBytes)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create documents directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(content); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("write %s: %w", base, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", base, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("write %s: %w", base, err)
	}

	dest := filepath.Join(s.dir, base)
	if err := os.Rename(tmpName, dest); err != nil {
		return fmt.Errorf("store %s: %w", base, err)
	}

	logger.Info("Stored document %s (%d bytes)", dest, len(content))
	return nil
}
