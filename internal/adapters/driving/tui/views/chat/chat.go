// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

// reservedLines is the height taken by the header, input and status bar.
const reservedLines = 7

// View shows the session transcript above a question input.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.ChatInput
	transcript viewport.Model
	spinner    spinner.Model
	statusbar  *status.Bar

	chatService driving.ChatService
	ctx         context.Context
	session     string
	useContext  bool

	turns    []domain.ChatTurn
	pending  string
	thinking bool

	width  int
	height int
	ready  bool
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, chatService driving.ChatService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = s.Muted

	v := &View{
		styles:      s,
		keymap:      km,
		input:       input.NewChatInput(s),
		transcript:  viewport.New(80, 17),
		spinner:     sp,
		statusbar:   status.NewBar(s, km),
		chatService: chatService,
		ctx:         context.Background(),
		session:     domain.DefaultSessionID,
		useContext:  true,
		width:       80,
		height:      24,
	}
	v.refresh()
	return v
}

// WithContext sets the context answers are generated under.
func (v *View) WithContext(ctx context.Context) *View {
	if ctx != nil {
		v.ctx = ctx
	}
	return v
}

// WithSession sets the chat session the view reads and writes.
func (v *View) WithSession(session string) *View {
	if session != "" {
		v.session = session
	}
	return v
}

// SetContextEnabled switches retrieval on or off for new questions.
func (v *View) SetContextEnabled(enabled bool) {
	v.useContext = enabled
	v.statusbar.SetContext(enabled)
}

// ContextEnabled reports whether new questions use retrieval.
func (v *View) ContextEnabled() bool {
	return v.useContext
}

// Session returns the chat session id.
func (v *View) Session() string {
	return v.session
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.QuestionSubmitted:
		return v, v.submit(msg.Question, msg.UseContext)

	case messages.AnswerReady:
		v.handleAnswer(msg.Turn)
		return v, nil

	case messages.HistoryLoaded:
		v.turns = msg.Turns
		v.refresh()
		v.transcript.GotoBottom()
		return v, nil

	case messages.HistoryCleared:
		v.turns = nil
		v.statusbar.SetState(status.StateReady)
		v.statusbar.SetMessage("Chat history cleared")
		v.refresh()
		return v, nil

	case messages.ContextToggled:
		v.SetContextEnabled(msg.Enabled)
		v.statusbar.SetState(status.StateReady)
		if msg.Enabled {
			v.statusbar.SetMessage("Context on")
		} else {
			v.statusbar.SetMessage("Context off")
		}
		return v, nil

	case messages.ReloadStarted:
		v.handleReloadStarted(msg.Err)
		return v, nil

	case messages.IndexStatusUpdated:
		v.statusbar.SetIndexStatus(msg.Status)
		return v, nil

	case messages.ErrorOccurred:
		v.thinking = false
		v.pending = ""
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		v.refresh()
		return v, nil

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.refresh()
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Send):
		question := v.input.Question()
		if question == "" || v.thinking {
			return v, nil
		}
		v.input.Reset()
		return v, v.submit(question, v.useContext)

	case key.Matches(msg, v.keymap.ScrollUp), key.Matches(msg, v.keymap.ScrollDown):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit shows question as pending and returns the command answering it.
func (v *View) submit(question string, useContext bool) tea.Cmd {
	if v.thinking {
		return nil
	}
	v.pending = question
	v.thinking = true
	v.statusbar.SetState(status.StateThinking)
	v.refresh()
	v.transcript.GotoBottom()
	return tea.Batch(v.spinner.Tick, v.answer(question, useContext))
}

// answer returns a command that asks the chat service.
func (v *View) answer(question string, useContext bool) tea.Cmd {
	service := v.chatService
	ctx := v.ctx
	session := v.session
	return func() tea.Msg {
		if service == nil {
			return messages.ErrorOccurred{Err: ErrNoChatService}
		}
		return messages.AnswerReady{Turn: service.Answer(ctx, session, question, useContext)}
	}
}

// handleAnswer appends a completed turn.
func (v *View) handleAnswer(turn domain.ChatTurn) {
	v.turns = append(v.turns, turn)
	v.pending = ""
	v.thinking = false
	if turn.Failed {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage("answer failed")
	} else {
		v.statusbar.Clear()
	}
	v.refresh()
	v.transcript.GotoBottom()
}

// handleReloadStarted reports the outcome of a reload request.
func (v *View) handleReloadStarted(err error) {
	switch {
	case err == nil:
		v.statusbar.SetState(status.StateReady)
		v.statusbar.SetMessage("Reloading index in the background")
	case errors.Is(err, domain.ErrRebuildInProgress):
		v.statusbar.SetState(status.StateReady)
		v.statusbar.SetMessage("A reload is already in progress")
	default:
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(err.Error())
	}
}

// refresh re-renders the transcript into the viewport.
func (v *View) refresh() {
	v.transcript.SetContent(v.renderTranscript())
}

// renderTranscript renders every turn plus the pending question.
func (v *View) renderTranscript() string {
	if len(v.turns) == 0 && v.pending == "" {
		return v.styles.Muted.Render("Ask a question about your documents. Press f1 for help.")
	}

	wrap := lipgloss.NewStyle().Width(max(v.width-2, 20))
	blocks := make([]string, 0, len(v.turns)+1)

	for _, turn := range v.turns {
		var b strings.Builder
		b.WriteString(v.styles.UserLabel.Render("You: "))
		b.WriteString(wrap.Render(turn.Query))
		b.WriteString("\n")
		b.WriteString(v.styles.BotLabel.Render("Bot: "))
		if turn.Failed {
			b.WriteString(v.styles.Error.Render(wrap.Render(turn.Response)))
		} else {
			b.WriteString(wrap.Render(turn.Response))
		}
		if len(turn.Sources) > 0 {
			b.WriteString("\n")
			b.WriteString(v.styles.Source.Render("Sources: " + strings.Join(turn.Sources, ", ")))
		}
		blocks = append(blocks, b.String())
	}

	if v.pending != "" {
		blocks = append(blocks,
			v.styles.UserLabel.Render("You: ")+wrap.Render(v.pending)+"\n"+
				v.styles.BotLabel.Render("Bot: ")+v.spinner.View()+v.styles.Muted.Render(" Thinking..."))
	}

	return strings.Join(blocks, "\n\n")
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	header := v.styles.Title.Render("docchat") + "  " + v.styles.Subtitle.Render("session: "+v.session)

	sections := []string{
		header,
		"",
		v.transcript.View(),
		"",
		v.input.View(),
		"",
		v.statusbar.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.transcript.Width = width
	v.transcript.Height = max(height-reservedLines, 3)
	v.refresh()
}

// StatusBar returns the view's status bar.
func (v *View) StatusBar() *status.Bar {
	return v.statusbar
}

// Turns returns the turns shown in the transcript.
func (v *View) Turns() []domain.ChatTurn {
	return v.turns
}

// Thinking reports whether an answer is pending.
func (v *View) Thinking() bool {
	return v.thinking
}

// Input returns the question input.
func (v *View) Input() *input.ChatInput {
	return v.input
}
