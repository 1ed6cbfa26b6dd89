package httpapi

import (
	"context"
	"sync"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// fakeChat implements driving.ChatService and records calls.
type fakeChat struct {
	mu         sync.Mutex
	turns      map[string][]domain.ChatTurn
	response   string
	sources    []string
	useContext []bool
	clearedAll bool
}

func newFakeChat() *fakeChat {
	return &fakeChat{turns: map[string][]domain.ChatTurn{}, response: "answer"}
}

func (f *fakeChat) Answer(_ context.Context, sessionID, query string, useContext bool) domain.ChatTurn {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.useContext = append(f.useContext, useContext)
	turn := domain.ChatTurn{
		SessionID:   sessionID,
		Query:       query,
		Response:    f.response,
		ContextUsed: useContext && len(f.sources) > 0,
	}
	if turn.ContextUsed {
		turn.Sources = f.sources
	}
	f.turns[sessionID] = append(f.turns[sessionID], turn)
	return turn
}

func (f *fakeChat) History(sessionID string, limit int) ([]domain.ChatTurn, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.turns[sessionID]
	out := all
	if limit > 0 && len(all) > limit {
		out = all[len(all)-limit:]
	}
	return append([]domain.ChatTurn{}, out...), len(all)
}

func (f *fakeChat) ClearHistory(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.turns, sessionID)
}

func (f *fakeChat) ClearAllHistory() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = map[string][]domain.ChatTurn{}
	f.clearedAll = true
}

// fakeIndex implements driving.IndexService.
type fakeIndex struct {
	status    domain.IndexStatus
	reloadErr error
	forced    []bool
}

func (f *fakeIndex) Initialise(context.Context) (domain.BuildReport, error) {
	return domain.BuildReport{}, nil
}

func (f *fakeIndex) Reload(_ context.Context, force bool) (domain.BuildReport, error) {
	f.forced = append(f.forced, force)
	return domain.BuildReport{}, f.reloadErr
}

func (f *fakeIndex) ReloadAsync(force bool) error {
	f.forced = append(f.forced, force)
	return f.reloadErr
}

func (f *fakeIndex) Status() domain.IndexStatus { return f.status }

// fakeDocuments implements driving.DocumentService in memory.
type fakeDocuments struct {
	docs     []domain.DocumentInfo
	listErr  error
	uploaded map[string][]byte
	rejects  map[string]error
}

func (f *fakeDocuments) List(context.Context) ([]domain.DocumentInfo, error) {
	return f.docs, f.listErr
}

func (f *fakeDocuments) Upload(_ context.Context, name string, content []byte) error {
	if err, ok := f.rejects[name]; ok {
		return err
	}
	if f.uploaded == nil {
		f.uploaded = map[string][]byte{}
	}
	f.uploaded[name] = content
	return nil
}

func (f *fakeDocuments) Dir() string { return "documents" }
