package mcp

import (
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat answers questions.
	Chat driving.ChatService

	// Retrieval returns scored passages without generation.
	Retrieval driving.RetrievalService

	// Index reports on and rebuilds the vector index.
	Index driving.IndexService

	// Documents lists the files in the documents directory.
	Documents driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	// Retrieval, Index and Documents are optional; their tools report unavailability.
	return nil
}
