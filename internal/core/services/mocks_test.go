package services

import (
	"context"
	"errors"
	"hash/fnv"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder implements driven.EmbeddingService with deterministic vectors.
// Texts found in fixed use that vector; others get a word-hash vector.
type mockEmbedder struct {
	dims      int
	fixed     map[string][]float32
	model     string
	embedErr  error
	batchErr  error
	pingErr   error
	embeds    atomic.Int32
	batches   atomic.Int32
	block     chan struct{} // when set, EmbedBatch waits for it to close
	batchSeen chan struct{} // when set, receives once per EmbedBatch call
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{dims: 8, model: "mock-embed"}
}

func (m *mockEmbedder) vector(text string) []float32 {
	if v, ok := m.fixed[text]; ok {
		return v
	}
	v := make([]float32, m.dims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		v[int(h.Sum32())%m.dims]++
	}
	v[0] += 0.01
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.embeds.Add(1)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.batches.Add(1)
	if m.batchSeen != nil {
		m.batchSeen <- struct{}{}
	}
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int            { return m.dims }
func (m *mockEmbedder) ModelName() string          { return m.model }
func (m *mockEmbedder) Ping(context.Context) error { return m.pingErr }
func (m *mockEmbedder) Close() error               { return nil }

// mockLLM implements driven.LLMService and records prompts.
type mockLLM struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
	opts     []driven.GenerateOptions
	deadline bool
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	_, m.deadline = ctx.Deadline()
	if m.err != nil {
		return "", m.err
	}
	if m.response != "" {
		return m.response, nil
	}
	return "answer", nil
}

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

func (m *mockLLM) ModelName() string          { return "mock-llm" }
func (m *mockLLM) Ping(context.Context) error { return nil }
func (m *mockLLM) Close() error               { return nil }

// mockExtractor implements driven.Extractor from a path -> documents table.
type mockExtractor struct {
	types []domain.FileType
	docs  map[string][]domain.SourceDocument
	errs  map[string]error
}

func (m *mockExtractor) FileTypes() []domain.FileType { return m.types }

func (m *mockExtractor) Extract(_ context.Context, path string) ([]domain.SourceDocument, error) {
	if err, ok := m.errs[path]; ok {
		return nil, err
	}
	return m.docs[path], nil
}

// mockLister implements driven.FileLister.
type mockLister struct {
	paths []string
	err   error
}

func (m *mockLister) List(_ context.Context, _ string) ([]string, error) {
	return m.paths, m.err
}

// mockIndexStore implements driven.IndexStore in memory.
type mockIndexStore struct {
	mu       sync.Mutex
	snapshot *domain.IndexSnapshot
	loadErr  error
	saveErr  error
	pingErr  error
	saves    int
}

func (m *mockIndexStore) Save(_ context.Context, snapshot domain.IndexSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.snapshot = &snapshot
	return nil
}

func (m *mockIndexStore) Load(_ context.Context) (domain.IndexSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return domain.IndexSnapshot{}, m.loadErr
	}
	if m.snapshot == nil {
		return domain.IndexSnapshot{}, domain.ErrIndexNotFound
	}
	return *m.snapshot, nil
}

func (m *mockIndexStore) Location() string           { return "mock://index" }
func (m *mockIndexStore) Ping(context.Context) error { return m.pingErr }
func (m *mockIndexStore) Close() error               { return nil }

// spyRetriever implements ContextRetriever and counts calls.
type spyRetriever struct {
	ready  bool
	chunks []domain.Chunk
	err    error
	calls  atomic.Int32
	lastK  atomic.Int32
}

func (s *spyRetriever) Ready() bool { return s.ready }

func (s *spyRetriever) Retrieve(_ context.Context, _ string, k int) ([]domain.Chunk, error) {
	s.calls.Add(1)
	s.lastK.Store(int32(k))
	if s.err != nil {
		return nil, s.err
	}
	return s.chunks, nil
}

// staticIndexes implements IndexProvider.
type staticIndexes struct {
	index driven.VectorIndex
}

func (s staticIndexes) Current() driven.VectorIndex { return s.index }

// mockPromptStore implements driven.PromptStore.
type mockPromptStore struct {
	prompt string
	err    error
}

func (m *mockPromptStore) Load(string) (string, error) { return m.prompt, m.err }

// wordCounter implements driven.TokenCounter with one token per word.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

func (wordCounter) Trim(text string, maxTokens int) string {
	words := strings.Fields(text)
	if len(words) <= maxTokens {
		return text
	}
	return strings.Join(words[:maxTokens], " ")
}

// mockProbe implements driven.ProviderProbe.
type mockProbe struct {
	embedErr error
	llmErr   error
}

func (m *mockProbe) ProbeEmbedding(context.Context, *domain.EmbeddingSettings) error {
	return m.embedErr
}

func (m *mockProbe) ProbeLLM(context.Context, *domain.LLMSettings) error {
	return m.llmErr
}

// --- Test helpers ---

var errBoom = errors.New("boom")

// textDoc builds a whole-file source document.
func textDoc(path, text string) domain.SourceDocument {
	ft, _ := domain.FileTypeFromPath(path)
	return domain.SourceDocument{Path: path, FileType: ft, Text: text, Title: filepath.Base(path)}
}
