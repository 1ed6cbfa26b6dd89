package services

import (
	"sync"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// HistoryStore keeps chat turns in memory, per session.
// Each session has its own lock so busy sessions do not block each other.
type HistoryStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionHistory
}

type sessionHistory struct {
	mu    sync.Mutex
	turns []domain.ChatTurn
}

// NewHistoryStore creates an empty history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		sessions: make(map[string]*sessionHistory),
	}
}

func (h *HistoryStore) session(id string, create bool) *sessionHistory {
	if id == "" {
		id = domain.DefaultSessionID
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	if !ok && create {
		s = &sessionHistory{}
		h.sessions[id] = s
	}
	return s
}

// Append records turn at the end of its session.
func (h *HistoryStore) Append(turn domain.ChatTurn) {
	s := h.session(turn.SessionID, true)
	s.mu.Lock()
	s.turns = append(s.turns, turn)
	s.mu.Unlock()
}

// List returns a copy of the last limit turns of a session in arrival order,
// plus the total number held. A non-positive limit returns every turn.
func (h *HistoryStore) List(sessionID string, limit int) ([]domain.ChatTurn, int) {
	s := h.session(sessionID, false)
	if s == nil {
		return []domain.ChatTurn{}, 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.turns)
	start := 0
	if limit > 0 && limit < total {
		start = total - limit
	}
	out := make([]domain.ChatTurn, total-start)
	copy(out, s.turns[start:])
	return out, total
}

// Clear removes every turn of a session.
func (h *HistoryStore) Clear(sessionID string) {
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}
	h.mu.Lock()
	delete(h.sessions, sessionID)
	h.mu.Unlock()
}

// ClearAll removes every session.
func (h *HistoryStore) ClearAll() {
	h.mu.Lock()
	h.sessions = make(map[string]*sessionHistory)
	h.mu.Unlock()
}

// Sessions returns the number of sessions with history.
func (h *HistoryStore) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
