// Package status renders the one-line bar under the chat transcript.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docchat/internal/core/domain"
)

// State is what the bar reports on its left edge.
type State string

const (
	StateReady     State = "ready"
	StateThinking  State = "thinking"
	StateError     State = "error"
	StateHelp      State = "help"
	StateDocuments State = "documents"
)

const defaultWidth = 80

// Bar shows the activity, the index summary and the key hints for the
// current screen.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	hints  help.Model

	state      State
	message    string
	index      domain.IndexStatus
	useContext bool
	width      int
}

// NewBar returns a bar in StateReady. Nil arguments use the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	hints := help.New()
	hints.ShortSeparator = " | "
	hints.Styles.ShortKey = s.Muted
	hints.Styles.ShortDesc = s.Muted
	hints.Styles.ShortSeparator = s.Muted
	hints.Styles.Ellipsis = s.Muted

	return &Bar{
		styles:     s,
		keymap:     km,
		hints:      hints,
		state:      StateReady,
		index:      domain.IndexStatus{State: domain.IndexStateUnset},
		useContext: true,
		width:      defaultWidth,
	}
}

func (s *Bar) View() string {
	left := s.activity() + s.styles.Muted.Render("  "+s.summary())

	// The hints take whatever the left side leaves and truncate to fit.
	var right string
	if room := s.width - lipgloss.Width(left) - 1; room > 0 {
		s.hints.Width = room
		right = s.hints.ShortHelpView(s.bindings())
	}

	gap := max(s.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *Bar) activity() string {
	switch s.state {
	case StateThinking:
		return s.styles.Muted.Render("Thinking...")
	case StateError:
		if s.message == "" {
			return s.styles.Error.Render("Error")
		}
		return s.styles.Error.Render("Error: " + s.message)
	case StateHelp:
		return s.styles.Normal.Render("Help")
	case StateDocuments:
		return s.styles.Normal.Render("Documents")
	}
	if s.message != "" {
		return s.styles.Success.Render(s.message)
	}
	return s.styles.Muted.Render("Ready")
}

// summary reads like "index: 42 chunks | context: on".
func (s *Bar) summary() string {
	idx := "index: " + s.index.State.String()
	if s.index.Ready() {
		idx = fmt.Sprintf("index: %d chunks", s.index.Entries)
		if s.index.Rebuilding {
			idx += ", rebuilding"
		}
	}

	mode := "on"
	if !s.useContext {
		mode = "off"
	}
	return idx + " | context: " + mode
}

func (s *Bar) bindings() []key.Binding {
	if s.state == StateDocuments {
		return s.keymap.DocumentsHelp()
	}
	return s.keymap.ShortHelp()
}

func (s *Bar) SetState(state State) { s.state = state }

func (s *Bar) State() State { return s.state }

// SetMessage sets the text shown with StateReady or StateError.
func (s *Bar) SetMessage(message string) { s.message = message }

func (s *Bar) Message() string { return s.message }

func (s *Bar) SetIndexStatus(status domain.IndexStatus) { s.index = status }

func (s *Bar) IndexStatus() domain.IndexStatus { return s.index }

// SetContext records whether answers use retrieved passages.
func (s *Bar) SetContext(enabled bool) { s.useContext = enabled }

func (s *Bar) SetWidth(width int) { s.width = width }

func (s *Bar) Width() int { return s.width }

// Clear returns the bar to StateReady with no message.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
