package tui

import "errors"

var (
	// ErrInvalidPorts is returned by NewApp when ports is nil.
	ErrInvalidPorts = errors.New("tui: no ports given")

	// ErrMissingChatService is returned when ports has no chat service.
	ErrMissingChatService = errors.New("tui: a chat service is needed")
)
