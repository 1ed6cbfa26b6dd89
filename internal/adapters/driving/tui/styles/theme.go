// Package styles holds the lipgloss palette and styles of the chat TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette names the colours of the chat UI by role. Each colour adapts to
// light and dark terminal backgrounds.
type Palette struct {
	Accent    lipgloss.AdaptiveColor // titles and the assistant label
	User      lipgloss.AdaptiveColor // the user label
	Text      lipgloss.AdaptiveColor
	Dim       lipgloss.AdaptiveColor // hints, citations, secondary text
	OK        lipgloss.AdaptiveColor
	Warn      lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor
	Frame     lipgloss.AdaptiveColor // borders
	StatusBar lipgloss.AdaptiveColor // status bar background
}

// DefaultPalette returns the teal-on-slate palette.
func DefaultPalette() *Palette {
	return &Palette{
		Accent:    lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"},
		User:      lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#93C5FD"},
		Text:      lipgloss.AdaptiveColor{Light: "#1E293B", Dark: "#E2E8F0"},
		Dim:       lipgloss.AdaptiveColor{Light: "#64748B", Dark: "#94A3B8"},
		OK:        lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#86EFAC"},
		Warn:      lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FCD34D"},
		Danger:    lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#FCA5A5"},
		Frame:     lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: "#475569"},
		StatusBar: lipgloss.AdaptiveColor{Light: "#E2E8F0", Dark: "#0F172A"},
	}
}

// Styles are the rendered styles shared by views and components.
type Styles struct {
	palette *Palette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Help     lipgloss.Style

	// InputField frames the question input.
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Border     lipgloss.Style

	// Transcript.
	UserLabel lipgloss.Style
	BotLabel  lipgloss.Style
	Source    lipgloss.Style
}

// NewStyles builds styles from p. A nil palette uses DefaultPalette.
func NewStyles(p *Palette) *Styles {
	if p == nil {
		p = DefaultPalette()
	}

	fg := func(c lipgloss.AdaptiveColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	framed := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Frame)

	return &Styles{
		palette: p,

		Title:    fg(p.Accent).Bold(true),
		Subtitle: fg(p.User).Bold(true),
		Normal:   fg(p.Text),
		Muted:    fg(p.Dim),
		Selected: fg(p.Text).Bold(true).Reverse(true),
		Error:    fg(p.Danger),
		Success:  fg(p.OK),
		Warning:  fg(p.Warn),
		Help:     fg(p.Dim).Faint(true),

		InputField: framed.Padding(0, 1),
		StatusBar:  fg(p.Dim).Background(p.StatusBar).Padding(0, 1),
		Border:     framed,

		UserLabel: fg(p.User).Bold(true),
		BotLabel:  fg(p.Accent).Bold(true),
		Source:    fg(p.Dim).Italic(true),
	}
}

// DefaultStyles returns styles for DefaultPalette.
func DefaultStyles() *Styles {
	return NewStyles(DefaultPalette())
}

// Palette returns the palette the styles were built from.
func (s *Styles) Palette() *Palette {
	return s.palette
}
