package domain

import "time"

// DefaultSessionID is the session used when a caller does not name one.
const DefaultSessionID = "default"

// ChatTurn is one exchange in a session's conversation history.
// Turns are held in memory and never persisted.
type ChatTurn struct {
	// Timestamp is when the answer was produced.
	Timestamp time.Time `json:"timestamp"`

	// SessionID identifies the conversation the turn belongs to.
	SessionID string `json:"session_id"`

	// Query is the user's question.
	Query string `json:"query"`

	// Response is the generated answer, or the apology text on failure.
	Response string `json:"response"`

	// ContextUsed is true when retrieved passages were included in the prompt.
	ContextUsed bool `json:"context_used"`

	// Failed is true when Response is an apology for a retrieval or provider failure.
	Failed bool `json:"failed,omitempty"`

	// Sources lists citations of the chunks placed in the prompt.
	Sources []string `json:"sources,omitempty"`
}
