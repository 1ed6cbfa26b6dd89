package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// defaultRetrieveK is the number of passages returned when the caller does not say.
const defaultRetrieveK = domain.DefaultRetrievalK

// errToolUnavailable is returned by tools whose port was not wired.
var errToolUnavailable = errors.New("tool unavailable: service not configured")

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer"`
	SessionID string `json:"session_id,omitempty" jsonschema:"conversation to append the turn to (default: mcp)"`
	NoContext bool   `json:"no_context,omitempty" jsonschema:"answer without retrieving document context"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer      string   `json:"answer"`
	ContextUsed bool     `json:"context_used"`
	Failed      bool     `json:"failed"`
	Sources     []string `json:"sources,omitempty"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"the text to find similar passages for"`
	K     int    `json:"k,omitempty" jsonschema:"maximum number of passages to return (default 4)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// PassageOutput represents a single retrieved passage.
type PassageOutput struct {
	Source string  `json:"source"`
	Page   int     `json:"page,omitempty"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
}

// ReloadInput is the input schema for the reload tool.
type ReloadInput struct {
	Force bool `json:"force,omitempty" jsonschema:"rebuild from source even if a persisted index is valid"`
}

// ReloadOutput is the output schema for the reload tool.
type ReloadOutput struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StatusInput is the input schema for the status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the status tool.
type StatusOutput struct {
	State      string `json:"state"`
	Entries    int    `json:"entries"`
	Dimensions int    `json:"dimensions"`
	Model      string `json:"model,omitempty"`
	BuiltAt    string `json:"built_at,omitempty"`
	Rebuilding bool   `json:"rebuilding"`
	LastError  string `json:"last_error,omitempty"`
}

// sessionID is the history session used for MCP questions without one.
const sessionID = "mcp"

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question, grounded in the indexed documents when possible",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Return the document passages most similar to a query, with scores",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reload",
		Description: "Rebuild the document index in the background",
	}, s.handleReload)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "status",
		Description: "Report the state of the document index",
	}, s.handleStatus)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	session := input.SessionID
	if session == "" {
		session = sessionID
	}

	turn := s.ports.Chat.Answer(ctx, session, input.Question, !input.NoContext)
	return nil, AskOutput{
		Answer:      turn.Response,
		ContextUsed: turn.ContextUsed,
		Failed:      turn.Failed,
		Sources:     turn.Sources,
	}, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if s.ports.Retrieval == nil {
		return nil, RetrieveOutput{}, errToolUnavailable
	}

	k := input.K
	if k <= 0 {
		k = defaultRetrieveK
	}

	hits, err := s.ports.Retrieval.RetrieveScored(ctx, input.Query, k)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Passages: make([]PassageOutput, len(hits)),
		Count:    len(hits),
	}
	for i := range hits {
		output.Passages[i] = PassageOutput{
			Source: hits[i].Chunk.SourcePath,
			Page:   hits[i].Chunk.Page,
			Score:  hits[i].Score,
			Text:   hits[i].Chunk.Text,
		}
	}

	return nil, output, nil
}

// handleReload handles the reload tool invocation.
func (s *Server) handleReload(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ReloadInput,
) (*mcp.CallToolResult, ReloadOutput, error) {
	if s.ports.Index == nil {
		return nil, ReloadOutput{}, errToolUnavailable
	}

	if err := s.ports.Index.ReloadAsync(input.Force); err != nil {
		if errors.Is(err, domain.ErrRebuildInProgress) {
			return nil, ReloadOutput{Message: "a rebuild is already in progress"}, nil
		}
		return nil, ReloadOutput{}, err
	}
	return nil, ReloadOutput{Started: true, Message: "reload started"}, nil
}

// handleStatus handles the status tool invocation.
func (s *Server) handleStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	if s.ports.Index == nil {
		return nil, StatusOutput{}, errToolUnavailable
	}

	status := s.ports.Index.Status()
	output := StatusOutput{
		State:      status.State.String(),
		Entries:    status.Entries,
		Dimensions: status.Dimensions,
		Model:      status.Model,
		Rebuilding: status.Rebuilding,
		LastError:  status.LastError,
	}
	if !status.BuiltAt.IsZero() {
		output.BuiltAt = status.BuiltAt.Format(time.RFC3339)
	}
	return nil, output, nil
}
