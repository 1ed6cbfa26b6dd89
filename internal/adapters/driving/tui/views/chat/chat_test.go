package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/core/domain"
)

// mockChatService implements driving.ChatService for testing.
type mockChatService struct {
	calls    []call
	response string
	failed   bool
	ctx      context.Context
}

type call struct {
	session    string
	query      string
	useContext bool
}

func (m *mockChatService) Answer(ctx context.Context, sessionID, query string, useContext bool) domain.ChatTurn {
	m.ctx = ctx
	m.calls = append(m.calls, call{sessionID, query, useContext})
	turn := domain.ChatTurn{
		SessionID: sessionID,
		Query:     query,
		Response:  m.response,
		Failed:    m.failed,
	}
	if useContext && !m.failed {
		turn.ContextUsed = true
		turn.Sources = []string{"guide.pdf (page 2)"}
	}
	return turn
}

func (m *mockChatService) History(string, int) ([]domain.ChatTurn, int) { return nil, 0 }
func (m *mockChatService) ClearHistory(string)                          {}
func (m *mockChatService) ClearAllHistory()                             {}

func newTestView(chat *mockChatService) *View {
	v := NewView(nil, nil, chat)
	v.SetDimensions(100, 30)
	return v
}

func typeText(v *View, text string) {
	for _, r := range text {
		v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// runAnswer runs the answer half of the batch returned on submit.
// The first command is the spinner tick.
func runAnswer(t *testing.T, cmd tea.Cmd) messages.AnswerReady {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	require.Len(t, batch, 2)
	msg, ok := batch[1]().(messages.AnswerReady)
	require.True(t, ok)
	return msg
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil)

	require.NotNil(t, v)
	assert.Equal(t, domain.DefaultSessionID, v.Session())
	assert.True(t, v.ContextEnabled())
	assert.False(t, v.Thinking())
	assert.Empty(t, v.Turns())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_WithSessionAndContext(t *testing.T) {
	chat := &mockChatService{response: "ok"}
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	v := newTestView(chat).WithSession("work").WithContext(ctx)
	v.WithSession("")

	assert.Equal(t, "work", v.Session())
	assert.Contains(t, v.View(), "session: work")

	typeText(v, "hi")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	runAnswer(t, cmd)

	require.Len(t, chat.calls, 1)
	assert.Equal(t, "work", chat.calls[0].session)
	assert.Equal(t, "v", chat.ctx.Value(key{}))
}

func TestView_Send(t *testing.T) {
	chat := &mockChatService{response: "RAG combines retrieval with generation."}
	v := newTestView(chat)

	typeText(v, "what is RAG?")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, v.Thinking())
	assert.Equal(t, "", v.Input().Value())
	assert.Equal(t, status.StateThinking, v.StatusBar().State())
	assert.Contains(t, v.renderTranscript(), "what is RAG?")
	assert.Contains(t, v.renderTranscript(), "Thinking...")

	msg := runAnswer(t, cmd)
	assert.Equal(t, call{"default", "what is RAG?", true}, chat.calls[0])

	v.Update(msg)

	assert.False(t, v.Thinking())
	require.Len(t, v.Turns(), 1)
	assert.Equal(t, status.StateReady, v.StatusBar().State())
	out := v.renderTranscript()
	assert.Contains(t, out, "RAG combines retrieval with generation.")
	assert.Contains(t, out, "Sources: guide.pdf (page 2)")
	assert.NotContains(t, out, "Thinking...")
}

func TestView_Send_Blank(t *testing.T) {
	chat := &mockChatService{}
	v := newTestView(chat)

	typeText(v, "   ")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, v.Thinking())
}

func TestView_Send_WhileThinking(t *testing.T) {
	chat := &mockChatService{}
	v := newTestView(chat)

	typeText(v, "first")
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeText(v, "second")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, "second", v.Input().Value())
}

func TestView_Send_ContextOff(t *testing.T) {
	chat := &mockChatService{response: "direct"}
	v := newTestView(chat)
	v.Update(messages.ContextToggled{Enabled: false})

	assert.False(t, v.ContextEnabled())
	assert.Equal(t, "Context off", v.StatusBar().Message())

	typeText(v, "hello")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(runAnswer(t, cmd))

	assert.False(t, chat.calls[0].useContext)
	assert.NotContains(t, v.renderTranscript(), "Sources:")
}

func TestView_QuestionSubmitted(t *testing.T) {
	chat := &mockChatService{response: "ok"}
	v := newTestView(chat)

	_, cmd := v.Update(messages.QuestionSubmitted{Question: "q", UseContext: false})
	runAnswer(t, cmd)

	assert.Equal(t, call{"default", "q", false}, chat.calls[0])
}

func TestView_FailedAnswer(t *testing.T) {
	chat := &mockChatService{response: "I apologize, but something broke", failed: true}
	v := newTestView(chat)

	v.Update(messages.AnswerReady{Turn: domain.ChatTurn{Query: "q", Response: "I apologize", Failed: true}})

	assert.Equal(t, status.StateError, v.StatusBar().State())
	assert.Contains(t, v.renderTranscript(), "I apologize")
}

func TestView_NoChatService(t *testing.T) {
	v := NewView(nil, nil, nil)
	v.SetDimensions(100, 30)

	typeText(v, "hello")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	msg, ok := batch[1]().(messages.ErrorOccurred)
	require.True(t, ok)
	assert.ErrorIs(t, msg.Err, ErrNoChatService)

	v.Update(msg)
	assert.False(t, v.Thinking())
	assert.Equal(t, status.StateError, v.StatusBar().State())
}

func TestView_HistoryLoadedAndCleared(t *testing.T) {
	v := newTestView(&mockChatService{})

	v.Update(messages.HistoryLoaded{Turns: []domain.ChatTurn{
		{Query: "earlier question", Response: "earlier answer"},
	}})
	assert.Len(t, v.Turns(), 1)
	assert.Contains(t, v.renderTranscript(), "earlier answer")

	v.Update(messages.HistoryCleared{})
	assert.Empty(t, v.Turns())
	assert.Equal(t, "Chat history cleared", v.StatusBar().Message())
	assert.Contains(t, v.renderTranscript(), "Ask a question about your documents")
}

func TestView_ReloadStarted(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		state status.State
		msg   string
	}{
		{"started", nil, status.StateReady, "Reloading index in the background"},
		{"in progress", fmt.Errorf("reload: %w", domain.ErrRebuildInProgress), status.StateReady, "A reload is already in progress"},
		{"failed", errors.New("no embedder"), status.StateError, "no embedder"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newTestView(&mockChatService{})
			v.Update(messages.ReloadStarted{Err: tt.err})

			assert.Equal(t, tt.state, v.StatusBar().State())
			assert.Equal(t, tt.msg, v.StatusBar().Message())
		})
	}
}

func TestView_IndexStatusUpdated(t *testing.T) {
	v := newTestView(&mockChatService{})
	st := domain.IndexStatus{State: domain.IndexStateReady, Entries: 12}

	v.Update(messages.IndexStatusUpdated{Status: st})

	assert.Equal(t, st, v.StatusBar().IndexStatus())
	assert.Contains(t, v.View(), "index: 12 chunks")
}

func TestView_ScrollKeysDoNotReachInput(t *testing.T) {
	v := newTestView(&mockChatService{})

	v.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	v.Update(tea.KeyMsg{Type: tea.KeyPgDown})

	assert.Equal(t, "", v.Input().Value())
}

func TestView_SetDimensions(t *testing.T) {
	v := NewView(nil, nil, nil)

	v.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, 120, v.Input().Width())
	assert.Equal(t, 120, v.StatusBar().Width())
	assert.Equal(t, 40-reservedLines, v.transcript.Height)

	v.SetDimensions(40, 5)
	assert.Equal(t, 3, v.transcript.Height)
}
