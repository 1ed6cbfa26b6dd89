package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure ChatService implements the interfaces.
var (
	_ driving.ChatService     = (*ChatService)(nil)
	_ driven.PromptStoreAware = (*ChatService)(nil)
)

// apologyPrefix starts every answer that failed.
const apologyPrefix = "I apologize, but I encountered an error while processing your request: "

// contextSeparator joins retrieved chunk texts in the prompt.
const contextSeparator = "\n\n"

// ContextRetriever supplies passages for grounded answers.
type ContextRetriever interface {
	// Ready reports whether an index can serve queries.
	Ready() bool

	// Retrieve returns the top-k chunks for query.
	Retrieve(ctx context.Context, query string, k int) ([]domain.Chunk, error)
}

// ChatService composes answers from retrieved context and an LLM.
// Failures never surface as errors: they become an apology turn.
type ChatService struct {
	retriever    ContextRetriever
	llm          driven.LLMService
	history      *HistoryStore
	prompts      driven.PromptStore
	tokens       driven.TokenCounter
	k            int
	contextLimit int
	genOpts      driven.GenerateOptions
	timeout      time.Duration
	now          func() time.Time
}

// ChatOption configures a ChatService.
type ChatOption func(*ChatService)

// WithRetrievalK sets how many chunks are placed in the prompt.
func WithRetrievalK(k int) ChatOption {
	return func(s *ChatService) {
		if k > 0 {
			s.k = k
		}
	}
}

// WithContextTokenLimit trims the context to limit tokens using counter.
// A non-positive limit or nil counter disables trimming.
func WithContextTokenLimit(counter driven.TokenCounter, limit int) ChatOption {
	return func(s *ChatService) {
		s.tokens = counter
		s.contextLimit = limit
	}
}

// WithGenerateOptions sets the LLM generation parameters.
func WithGenerateOptions(opts driven.GenerateOptions) ChatOption {
	return func(s *ChatService) {
		s.genOpts = opts
	}
}

// WithLLMTimeout bounds each LLM call.
func WithLLMTimeout(d time.Duration) ChatOption {
	return func(s *ChatService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithClock replaces time.Now for turn timestamps.
func WithClock(now func() time.Time) ChatOption {
	return func(s *ChatService) {
		s.now = now
	}
}

// NewChatService creates a chat service.
// retriever may be nil, in which case every answer is direct.
func NewChatService(
	retriever ContextRetriever,
	llm driven.LLMService,
	history *HistoryStore,
	opts ...ChatOption,
) *ChatService {
	if history == nil {
		history = NewHistoryStore()
	}
	s := &ChatService{
		retriever: retriever,
		llm:       llm,
		history:   history,
		k:         domain.DefaultRetrievalK,
		genOpts: driven.GenerateOptions{
			MaxTokens:   domain.DefaultMaxTokens,
			Temperature: domain.DefaultTemperature,
		},
		timeout: domain.DefaultLLMTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetPromptStore sets the store the RAG template is loaded from.
func (s *ChatService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Answer responds to query and records the turn in the session history.
// With useContext unset, or no ready index, the query goes to the LLM as-is
// and the retriever is not called.
func (s *ChatService) Answer(ctx context.Context, sessionID, query string, useContext bool) domain.ChatTurn {
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}

	logger.Section("Answer")
	logger.Debug("Session: %s, context requested: %t", sessionID, useContext)

	turn := domain.ChatTurn{
		SessionID: sessionID,
		Query:     query,
	}

	response, sources, err := s.compose(ctx, query, useContext)
	if err != nil {
		logger.Error("Failed to generate response: %v", err)
		turn.Response = apologyPrefix + err.Error()
		turn.Failed = true
	} else {
		turn.Response = response
		turn.ContextUsed = len(sources) > 0
		turn.Sources = sources
		logger.Info("Response generated (context used: %t, sources: %d)", turn.ContextUsed, len(sources))
	}

	turn.Timestamp = s.now()
	s.history.Append(turn)
	return turn
}

// compose returns the answer and the citations of the chunks placed in the prompt.
func (s *ChatService) compose(ctx context.Context, query string, useContext bool) (string, []string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return "", nil, domain.ErrLLMUnavailable
	}

	prompt := query
	var sources []string

	if useContext && s.retriever != nil && s.retriever.Ready() {
		chunks, err := s.retriever.Retrieve(ctx, query, s.k)
		if err != nil {
			return "", nil, err
		}
		if len(chunks) > 0 {
			prompt = s.buildPrompt(query, s.buildContext(chunks))
			sources = citations(chunks)
			logger.Debug("Using %d retrieved chunks as context", len(chunks))
		}
	} else if useContext {
		logger.Debug("No index ready, answering directly")
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.llm.Generate(genCtx, prompt, s.genOpts)
	if err != nil {
		return "", nil, domain.NewProviderError(s.llm.ModelName(), "generate", err)
	}
	return response, sources, nil
}

// buildContext joins chunk texts and applies the token budget.
func (s *ChatService) buildContext(chunks []domain.Chunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	joined := strings.Join(texts, contextSeparator)

	if s.tokens != nil && s.contextLimit > 0 {
		if n := s.tokens.Count(joined); n > s.contextLimit {
			logger.Debug("Trimming context from %d to %d tokens", n, s.contextLimit)
			joined = s.tokens.Trim(joined, s.contextLimit)
		}
	}
	return joined
}

// buildPrompt fills the RAG template.
func (s *ChatService) buildPrompt(query, contextText string) string {
	template := driven.DefaultRAGAnswerPrompt
	if s.prompts != nil {
		loaded, err := s.prompts.Load(driven.PromptRAGAnswer)
		if err != nil {
			logger.Warn("Using built-in prompt: %v", err)
		} else {
			template = loaded
		}
	}

	r := strings.NewReplacer(
		driven.PlaceholderContext, contextText,
		driven.PlaceholderQuestion, query,
	)
	return r.Replace(template)
}

// citations lists unique chunk provenance in retrieval order.
func citations(chunks []domain.Chunk) []string {
	seen := make(map[string]bool, len(chunks))
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		cite := c.Citation()
		if seen[cite] {
			continue
		}
		seen[cite] = true
		out = append(out, cite)
	}
	return out
}

// History returns the last limit turns of a session and the total held.
func (s *ChatService) History(sessionID string, limit int) ([]domain.ChatTurn, int) {
	return s.history.List(sessionID, limit)
}

// ClearHistory removes all turns of a session.
func (s *ChatService) ClearHistory(sessionID string) {
	s.history.Clear(sessionID)
	logger.Info("Chat history cleared for session %s", sessionID)
}

// ClearAllHistory removes every session's turns.
func (s *ChatService) ClearAllHistory() {
	s.history.ClearAll()
	logger.Info("Chat history cleared")
}
