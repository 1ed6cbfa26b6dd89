package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/docchat/internal/core/domain"
)

// statusInterval is how often the index status is polled.
const statusInterval = 2 * time.Second

// historyLimit is the number of earlier turns shown when the app starts.
const historyLimit = 50

// errIndexUnavailable is reported on reload when no index service is wired.
var errIndexUnavailable = errors.New("index service not available")

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// keymap holds the global keybindings.
	keymap *keymap.KeyMap

	// chatView is the conversation view.
	chatView *chat.View

	// documentsView lists the documents directory.
	documentsView *documents.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// session is the chat session the app reads and writes.
	session string

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		chatView:      chat.NewView(s, km, ports.Chat),
		documentsView: documents.NewView(s, ports.Documents),
		currentView:   messages.ViewChat,
		session:       domain.DefaultSessionID,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	if ctx == nil {
		return a
	}
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.documentsView.SetContext(ctx)
	return a
}

// WithSession sets the chat session id.
func (a *App) WithSession(session string) *App {
	if session != "" {
		a.session = session
		a.chatView.WithSession(session)
	}
	return a
}

// WithRetrieval sets whether questions use document context.
func (a *App) WithRetrieval(enabled bool) *App {
	a.chatView.SetContextEnabled(enabled)
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("docchat"),
		a.chatView.Init(),
		a.loadHistory(),
		a.pollStatus(),
		tickStatus(),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.StatusTick:
		return a, tea.Batch(a.pollStatus(), tickStatus())

	case messages.DocumentsLoaded:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		if a.currentView == messages.ViewDocuments {
			a.documentsView, cmd = a.documentsView.Update(msg)
			return a, cmd
		}
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// The chat view owns the spinner, input blink and conversation state,
	// so it keeps receiving messages while another view is shown.
	a.chatView, cmd = a.chatView.Update(msg)
	return a, cmd
}

// handleKeyMsg applies global keybindings, then forwards to the active view.
func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, a.keymap.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keymap.Help):
		if a.currentView == messages.ViewHelp {
			return a, a.switchView(messages.ViewChat)
		}
		return a, a.switchView(messages.ViewHelp)

	case key.Matches(msg, a.keymap.Documents):
		return a, a.switchView(messages.ViewDocuments)

	case key.Matches(msg, a.keymap.Reload):
		return a, a.reload()

	case key.Matches(msg, a.keymap.ToggleContext):
		enabled := !a.chatView.ContextEnabled()
		return a, func() tea.Msg { return messages.ContextToggled{Enabled: enabled} }

	case key.Matches(msg, a.keymap.Clear):
		return a, a.clearHistory()
	}

	switch a.currentView {
	case messages.ViewHelp:
		if key.Matches(msg, a.keymap.Back) {
			return a, a.switchView(messages.ViewChat)
		}
		return a, nil
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd
	}
	return a, nil
}

// switchView activates view, refreshing the documents list when shown.
func (a *App) switchView(view messages.ViewType) tea.Cmd {
	a.currentView = view
	switch view {
	case messages.ViewDocuments:
		return a.documentsView.Refresh()
	case messages.ViewChat:
		return a.chatView.Input().Focus()
	case messages.ViewHelp:
	}
	return nil
}

// loadHistory returns a command reading the session's earlier turns.
func (a *App) loadHistory() tea.Cmd {
	service := a.ports.Chat
	session := a.session
	return func() tea.Msg {
		turns, _ := service.History(session, historyLimit)
		return messages.HistoryLoaded{Turns: turns}
	}
}

// clearHistory returns a command clearing the session history.
func (a *App) clearHistory() tea.Cmd {
	service := a.ports.Chat
	session := a.session
	return func() tea.Msg {
		service.ClearHistory(session)
		return messages.HistoryCleared{}
	}
}

// reload returns a command starting a forced background rebuild.
func (a *App) reload() tea.Cmd {
	index := a.ports.Index
	return func() tea.Msg {
		if index == nil {
			return messages.ReloadStarted{Err: errIndexUnavailable}
		}
		return messages.ReloadStarted{Err: index.ReloadAsync(true)}
	}
}

// pollStatus returns a command reading the index status.
func (a *App) pollStatus() tea.Cmd {
	index := a.ports.Index
	if index == nil {
		return nil
	}
	return func() tea.Msg {
		return messages.IndexStatusUpdated{Status: index.Status()}
	}
}

func tickStatus() tea.Cmd {
	return tea.Tick(statusInterval, func(time.Time) tea.Msg {
		return messages.StatusTick{}
	})
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewChat:
	}
	return a.chatView.View()
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")

	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}

	b.WriteString(a.styles.Muted.Render("Questions use the documents index while context is on."))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Help.Render("[esc] back to chat"))
	return b.String()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Session returns the chat session id.
func (a *App) Session() string {
	return a.session
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.chatView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
}
