package mcp

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	turn       domain.ChatTurn
	session    string
	query      string
	useContext bool
}

func (m *mockChatService) Answer(_ context.Context, sessionID, query string, useContext bool) domain.ChatTurn {
	m.session = sessionID
	m.query = query
	m.useContext = useContext
	turn := m.turn
	turn.SessionID = sessionID
	turn.Query = query
	return turn
}

func (m *mockChatService) History(string, int) ([]domain.ChatTurn, int) { return nil, 0 }
func (m *mockChatService) ClearHistory(string)                          {}
func (m *mockChatService) ClearAllHistory()                             {}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	hits  []domain.ScoredChunk
	err   error
	lastK int
}

func (m *mockRetrievalService) RetrieveScored(_ context.Context, _ string, k int) ([]domain.ScoredChunk, error) {
	m.lastK = k
	return m.hits, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	status    domain.IndexStatus
	reloadErr error
	forced    bool
	reloads   int
}

func (m *mockIndexService) Initialise(context.Context) (domain.BuildReport, error) {
	return domain.BuildReport{}, nil
}

func (m *mockIndexService) Reload(_ context.Context, force bool) (domain.BuildReport, error) {
	m.forced = force
	m.reloads++
	return domain.BuildReport{}, m.reloadErr
}

func (m *mockIndexService) ReloadAsync(force bool) error {
	m.forced = force
	m.reloads++
	return m.reloadErr
}

func (m *mockIndexService) Status() domain.IndexStatus { return m.status }

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	dir  string
	docs []domain.DocumentInfo
	err  error
}

func (m *mockDocumentService) List(context.Context) ([]domain.DocumentInfo, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) Upload(context.Context, string, []byte) error { return m.err }
func (m *mockDocumentService) Dir() string                                  { return m.dir }
