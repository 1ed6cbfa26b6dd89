package driving

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// ChatService answers questions and keeps per-session history.
type ChatService interface {
	// Answer responds to query, optionally grounded in retrieved context.
	// Failures are reported inside the returned turn, never as an error.
	Answer(ctx context.Context, sessionID, query string, useContext bool) domain.ChatTurn

	// History returns the last limit turns of a session (limit <= 0 returns all)
	// and the total number of turns held.
	History(sessionID string, limit int) ([]domain.ChatTurn, int)

	// ClearHistory removes all turns of a session.
	ClearHistory(sessionID string)

	// ClearAllHistory removes the turns of every session.
	ClearAllHistory()
}

// RetrievalService exposes raw retrieval without generation.
type RetrievalService interface {
	// RetrieveScored returns the top-k chunks for query with their similarity scores.
	RetrieveScored(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)
}
