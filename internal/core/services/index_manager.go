package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure IndexManager implements the interfaces.
var (
	_ driving.IndexService = (*IndexManager)(nil)
	_ IndexProvider        = (*IndexManager)(nil)
)

// DocumentLoader reads source documents from a directory.
type DocumentLoader interface {
	LoadDocuments(ctx context.Context, dir string) ([]domain.SourceDocument, []*domain.LoadError)
}

// indexHolder wraps the live index so it can sit behind an atomic pointer.
type indexHolder struct {
	index driven.VectorIndex
}

// IndexManager owns the vector index lifecycle.
//
// The live index is swapped atomically: queries see either the previous or
// the new index, never a partial one. At most one build runs at a time and a
// concurrent request fails with domain.ErrRebuildInProgress. A failed rebuild
// leaves the previous index in service.
type IndexManager struct {
	loader   DocumentLoader
	splitter driven.Splitter
	embedder driven.EmbeddingService
	builder  driven.IndexBuilder
	store    driven.IndexStore
	docsDir  string
	baseCtx  context.Context
	now      func() time.Time

	current  atomic.Pointer[indexHolder]
	building atomic.Bool
	wg       sync.WaitGroup

	mu      sync.Mutex
	lastErr string
}

// IndexManagerOption configures an IndexManager.
type IndexManagerOption func(*IndexManager)

// WithIndexStore persists built indexes and restores them on start.
func WithIndexStore(store driven.IndexStore) IndexManagerOption {
	return func(m *IndexManager) {
		m.store = store
	}
}

// WithBaseContext sets the parent context of background reloads.
func WithBaseContext(ctx context.Context) IndexManagerOption {
	return func(m *IndexManager) {
		if ctx != nil {
			m.baseCtx = ctx
		}
	}
}

// WithBuildClock replaces time.Now for index build timestamps.
func WithBuildClock(now func() time.Time) IndexManagerOption {
	return func(m *IndexManager) {
		m.now = now
	}
}

// NewIndexManager creates an index manager for the documents in docsDir.
// embedder may be nil, in which case no index can be built.
func NewIndexManager(
	loader DocumentLoader,
	splitter driven.Splitter,
	embedder driven.EmbeddingService,
	builder driven.IndexBuilder,
	docsDir string,
	opts ...IndexManagerOption,
) *IndexManager {
	m := &IndexManager{
		loader:   loader,
		splitter: splitter,
		embedder: embedder,
		builder:  builder,
		docsDir:  docsDir,
		baseCtx:  context.Background(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Current returns the live index, or nil when none is ready.
func (m *IndexManager) Current() driven.VectorIndex {
	h := m.current.Load()
	if h == nil {
		return nil
	}
	return h.index
}

// Initialise loads the persisted index, building from source when it is
// missing, corrupt or produced by a different embedding model.
// An empty documents directory is not an error: the index stays unset.
func (m *IndexManager) Initialise(ctx context.Context) (domain.BuildReport, error) {
	report, err := m.Reload(ctx, false)
	if errors.Is(err, domain.ErrNoDocuments) {
		logger.Warn("No documents to index in %s; answering without context", m.docsDir)
		return report, nil
	}
	return report, err
}

// Reload rebuilds the index. Unless force is set a valid persisted index is
// loaded instead of rebuilding.
func (m *IndexManager) Reload(ctx context.Context, force bool) (domain.BuildReport, error) {
	if !m.building.CompareAndSwap(false, true) {
		return domain.BuildReport{}, domain.ErrRebuildInProgress
	}
	defer m.building.Store(false)
	return m.run(ctx, force)
}

// ReloadAsync starts a reload in the background.
func (m *IndexManager) ReloadAsync(force bool) error {
	if !m.building.CompareAndSwap(false, true) {
		return domain.ErrRebuildInProgress
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.building.Store(false)
		if _, err := m.run(m.baseCtx, force); err != nil {
			logger.Error("Background reload failed: %v", err)
		}
	}()
	return nil
}

// Wait blocks until background reloads have finished.
func (m *IndexManager) Wait() {
	m.wg.Wait()
}

// Status returns the current index state.
func (m *IndexManager) Status() domain.IndexStatus {
	building := m.building.Load()

	m.mu.Lock()
	status := domain.IndexStatus{LastError: m.lastErr}
	m.mu.Unlock()

	idx := m.Current()
	switch {
	case idx != nil:
		meta := idx.Metadata()
		status.State = domain.IndexStateReady
		status.Entries = idx.Len()
		status.Dimensions = idx.Dimensions()
		status.Model = meta.Model
		status.BuiltAt = meta.BuiltAt
		status.Rebuilding = building
	case building:
		status.State = domain.IndexStateBuilding
	default:
		status.State = domain.IndexStateUnset
	}
	return status
}

// run performs one reload; the caller holds the building flag.
func (m *IndexManager) run(ctx context.Context, force bool) (domain.BuildReport, error) {
	logger.Section("Index Reload")
	logger.Debug("Force: %t, documents: %s", force, m.docsDir)

	if !force && m.store != nil {
		idx, err := m.loadPersisted(ctx)
		if err == nil {
			m.swap(idx)
			m.setLastErr(nil)
			logger.Info("Loaded index from %s (%d entries)", m.store.Location(), idx.Len())
			return domain.BuildReport{Chunks: idx.Len(), Loaded: true}, nil
		}
		var loadErr *domain.LoadError
		switch {
		case errors.Is(err, domain.ErrIndexNotFound):
			logger.Info("No persisted index at %s, building from source", m.store.Location())
		case errors.As(err, &loadErr):
			logger.Warn("Persisted index unusable, rebuilding: %v", err)
		default:
			logger.Warn("Cannot read persisted index, rebuilding: %v", err)
		}
	}

	report, err := m.build(ctx)
	m.setLastErr(err)
	if err != nil {
		return report, fmt.Errorf("reload: %w", err)
	}
	return report, nil
}

// loadPersisted restores the stored index and checks it matches the embedder.
func (m *IndexManager) loadPersisted(ctx context.Context) (driven.VectorIndex, error) {
	snapshot, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	if m.embedder != nil {
		meta := snapshot.Metadata
		if meta.Model != m.embedder.ModelName() {
			return nil, &domain.LoadError{
				Path: m.store.Location(),
				Err: fmt.Errorf("%w: index built with model %q, configured %q",
					domain.ErrDimensionMismatch, meta.Model, m.embedder.ModelName()),
			}
		}
		if dims := m.embedder.Dimensions(); dims > 0 && dims != meta.Dimensions {
			return nil, &domain.LoadError{
				Path: m.store.Location(),
				Err: fmt.Errorf("%w: index has %d dimensions, embedder produces %d",
					domain.ErrDimensionMismatch, meta.Dimensions, dims),
			}
		}
	}

	idx, err := m.builder.Build(snapshot.Metadata, snapshot.Entries)
	if err != nil {
		return nil, &domain.LoadError{Path: m.store.Location(), Err: err}
	}
	return idx, nil
}

// build runs Loader -> Splitter -> Embedder -> IndexBuilder and swaps the result in.
func (m *IndexManager) build(ctx context.Context) (domain.BuildReport, error) {
	var report domain.BuildReport

	if m.embedder == nil {
		return report, &domain.BuildError{Err: domain.ErrEmbeddingUnavailable}
	}

	docs, loadErrs := m.loader.LoadDocuments(ctx, m.docsDir)
	report.Documents = len(docs)
	report.LoadErrors = loadErrs
	if err := ctx.Err(); err != nil {
		return report, err
	}

	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, m.splitter.Split(doc)...)
	}
	report.Chunks = len(chunks)
	logger.Info("Split %d documents into %d chunks", len(docs), len(chunks))

	if len(chunks) == 0 {
		return report, &domain.BuildError{Err: domain.ErrNoDocuments}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	started := time.Now()
	vectors, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return report, &domain.BuildError{Err: domain.NewProviderError(m.embedder.ModelName(), "embed", err)}
	}
	if len(vectors) != len(chunks) {
		return report, &domain.BuildError{
			Err: fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks)),
		}
	}
	logger.Debug("Embedded %d chunks in %s", len(chunks), time.Since(started).Round(time.Millisecond))

	entries := make([]domain.IndexEntry, len(chunks))
	for i := range chunks {
		entries[i] = domain.IndexEntry{Chunk: chunks[i], Vector: vectors[i]}
	}

	meta := domain.IndexMetadata{
		Model:      m.embedder.ModelName(),
		Dimensions: len(vectors[0]),
		BuiltAt:    m.now().UTC(),
	}
	idx, err := m.builder.Build(meta, entries)
	if err != nil {
		return report, err
	}

	if m.store != nil {
		if err := m.store.Save(ctx, idx.Snapshot()); err != nil {
			logger.Warn("Index built but not persisted to %s: %v", m.store.Location(), err)
		} else {
			logger.Debug("Persisted index to %s", m.store.Location())
		}
	}

	m.swap(idx)
	logger.Info("Index ready: %d entries, %d dimensions", idx.Len(), idx.Dimensions())
	return report, nil
}

func (m *IndexManager) swap(idx driven.VectorIndex) {
	m.current.Store(&indexHolder{index: idx})
}

func (m *IndexManager) setLastErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		m.lastErr = ""
		return
	}
	m.lastErr = err.Error()
}
