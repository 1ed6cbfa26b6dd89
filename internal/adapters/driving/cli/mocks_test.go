package cli

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// mockChatService implements driving.ChatService.
type mockChatService struct {
	mu       sync.Mutex
	response string
	failed   bool
	sources  []string
	turns    map[string][]domain.ChatTurn
	contexts []bool
	cleared  []string
}

func newMockChatService() *mockChatService {
	return &mockChatService{response: "The answer.", turns: make(map[string][]domain.ChatTurn)}
}

func (m *mockChatService) Answer(_ context.Context, sessionID, query string, useContext bool) domain.ChatTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	turn := domain.ChatTurn{
		Timestamp: time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC),
		SessionID: sessionID,
		Query:     query,
		Response:  m.response,
		Failed:    m.failed,
	}
	if useContext && !m.failed {
		turn.Sources = m.sources
		turn.ContextUsed = len(m.sources) > 0
	}
	m.contexts = append(m.contexts, useContext)
	m.turns[sessionID] = append(m.turns[sessionID], turn)
	return turn
}

func (m *mockChatService) History(sessionID string, limit int) ([]domain.ChatTurn, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := m.turns[sessionID]
	total := len(turns)
	if limit > 0 && total > limit {
		turns = turns[total-limit:]
	}
	return turns, total
}

func (m *mockChatService) ClearHistory(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.turns, sessionID)
	m.cleared = append(m.cleared, sessionID)
}

func (m *mockChatService) ClearAllHistory() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = make(map[string][]domain.ChatTurn)
}

// mockRetrievalService implements driving.RetrievalService.
type mockRetrievalService struct {
	results []domain.ScoredChunk
	err     error
}

func (m *mockRetrievalService) RetrieveScored(context.Context, string, int) ([]domain.ScoredChunk, error) {
	return m.results, m.err
}

// mockIndexService implements driving.IndexService.
type mockIndexService struct {
	mu         sync.Mutex
	status     domain.IndexStatus
	report     domain.BuildReport
	reloadErr  error
	asyncErrs  []error
	forced     []bool
	asyncCalls int
	inits      int
}

func (m *mockIndexService) Initialise(context.Context) (domain.BuildReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inits++
	return m.report, nil
}

func (m *mockIndexService) Reload(_ context.Context, force bool) (domain.BuildReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forced = append(m.forced, force)
	return m.report, m.reloadErr
}

// ReloadAsync returns the queued errors in order, then nil.
func (m *mockIndexService) ReloadAsync(force bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asyncCalls++
	m.forced = append(m.forced, force)
	if len(m.asyncErrs) > 0 {
		err := m.asyncErrs[0]
		m.asyncErrs = m.asyncErrs[1:]
		return err
	}
	return nil
}

func (m *mockIndexService) Status() domain.IndexStatus { return m.status }

func (m *mockIndexService) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.asyncCalls
}

// mockDocumentService implements driving.DocumentService.
type mockDocumentService struct {
	docs     []domain.DocumentInfo
	uploaded map[string][]byte
	rejects  map[string]error
}

func newMockDocumentService() *mockDocumentService {
	return &mockDocumentService{uploaded: make(map[string][]byte)}
}

func (m *mockDocumentService) List(context.Context) ([]domain.DocumentInfo, error) {
	return m.docs, nil
}

func (m *mockDocumentService) Upload(_ context.Context, name string, content []byte) error {
	if err, ok := m.rejects[name]; ok {
		return err
	}
	m.uploaded[name] = content
	return nil
}

func (m *mockDocumentService) Dir() string { return "/docs" }

// mockDiagnostics implements driving.Diagnostics.
type mockDiagnostics struct {
	results []domain.CheckResult
}

func (m *mockDiagnostics) Check(context.Context) []domain.CheckResult { return m.results }

// mockSettingsService implements driving.SettingsService over a map.
type mockSettingsService struct {
	settings    domain.AppSettings
	values      map[string]string
	validateErr error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), values: make(map[string]string)}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if key == "bad.key" {
		return domain.ErrInvalidInput
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	keys := []string{"llm.provider", "chunking.size", "retrieval.k"}
	sort.Strings(keys)
	return keys
}

func (m *mockSettingsService) Validate() error { return m.validateErr }
func (m *mockSettingsService) Path() string    { return "test.toml" }

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	chat      *mockChatService
	retrieval *mockRetrievalService
	index     *mockIndexService
	documents *mockDocumentService
	diag      *mockDiagnostics
	settings  *mockSettingsService
}

// setupTestServices installs fresh mocks and returns them with a cleanup func.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		chat:      newMockChatService(),
		retrieval: &mockRetrievalService{},
		index:     &mockIndexService{status: domain.IndexStatus{State: domain.IndexStateUnset}},
		documents: newMockDocumentService(),
		diag:      &mockDiagnostics{},
		settings:  newMockSettingsService(),
	}

	old := Services{
		Settings:    settingsService,
		Chat:        chatService,
		Retrieval:   retrievalService,
		Index:       indexService,
		Documents:   documentService,
		Diagnostics: diagnostics,
		Watcher:     documentWatcher,
	}

	applyServices(&Services{
		Settings:    ts.settings,
		Chat:        ts.chat,
		Retrieval:   ts.retrieval,
		Index:       ts.index,
		Documents:   ts.documents,
		Diagnostics: ts.diag,
	})

	return ts, func() { applyServices(&old) }
}

// clearServices removes every service and returns a restore func.
func clearServices() func() {
	old := Services{
		Settings:    settingsService,
		Chat:        chatService,
		Retrieval:   retrievalService,
		Index:       indexService,
		Documents:   documentService,
		Diagnostics: diagnostics,
		Watcher:     documentWatcher,
	}
	applyServices(&Services{})
	return func() { applyServices(&old) }
}

// resetFlags restores every flag to its default so tests do not leak state.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns the combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWithInput(t, "", args...)
}

func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(bytes.NewBufferString(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}
