// Package tui provides the interactive chat interface for docchat.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
type Ports struct {
	// Chat answers questions and keeps the session history.
	Chat driving.ChatService

	// Index reports and rebuilds the vector index. Optional.
	Index driving.IndexService

	// Documents lists the documents directory. Optional.
	Documents driving.DocumentService
}

// NewPorts creates a new Ports instance.
func NewPorts(
	chat driving.ChatService,
	index driving.IndexService,
	documents driving.DocumentService,
) *Ports {
	return &Ports{
		Chat:      chat,
		Index:     index,
		Documents: documents,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
