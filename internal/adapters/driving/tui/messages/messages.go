// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docchat/internal/core/domain"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the conversation view.
	ViewChat ViewType = iota
	// ViewDocuments lists the documents directory.
	ViewDocuments
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewDocuments:
		return "documents"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// QuestionSubmitted is sent when the user submits a question.
type QuestionSubmitted struct {
	Question   string
	UseContext bool
}

// AnswerReady carries a completed chat turn back to the model.
type AnswerReady struct {
	Turn domain.ChatTurn
}

// HistoryLoaded carries the turns already recorded for the session.
type HistoryLoaded struct {
	Turns []domain.ChatTurn
}

// HistoryCleared signals the session history was cleared.
type HistoryCleared struct{}

// ReloadStarted signals a background index rebuild was requested.
type ReloadStarted struct {
	Err error
}

// IndexStatusUpdated carries the latest index status.
type IndexStatusUpdated struct {
	Status domain.IndexStatus
}

// StatusTick triggers the next index status poll.
type StatusTick struct{}

// ContextToggled signals retrieval was switched on or off.
type ContextToggled struct {
	Enabled bool
}

// DocumentsLoaded carries the documents directory listing.
type DocumentsLoaded struct {
	Documents []domain.DocumentInfo
	Err       error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
