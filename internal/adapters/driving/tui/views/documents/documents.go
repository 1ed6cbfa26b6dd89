// Package documents shows the documents directory as a table in the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docchat/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
)

var errNoDocumentService = errors.New("document service not available")

const (
	typeColumn = 6
	sizeColumn = 10
	minName    = 16

	// Lines around the table: title, blank, position, blank, help.
	chromeLines = 6

	helpLine   = "[↑/↓] navigate  [g/G] first/last  [r] refresh  [esc] back"
	emptyState = "No documents. Add PDF, text or Markdown files and press ctrl+r to reload."
)

// View lists the files in the documents directory.
type View struct {
	styles  *styles.Styles
	service driving.DocumentService
	ctx     context.Context

	table   table.Model
	docs    []domain.DocumentInfo
	width   int
	height  int
	loading bool
	err     error
}

// NewView returns a documents view backed by service. Nil styles use the
// default palette.
func NewView(s *styles.Styles, service driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	v := &View{styles: s, service: service, ctx: context.Background()}
	v.table = table.New(
		table.WithColumns(v.columns()),
		table.WithFocused(true),
		table.WithStyles(table.Styles{
			Header:   s.Subtitle.Padding(0, 1),
			Cell:     lipgloss.NewStyle().Padding(0, 1),
			Selected: s.Selected,
		}),
	)
	return v
}

// SetContext sets the context passed to List.
func (v *View) SetContext(ctx context.Context) {
	if ctx != nil {
		v.ctx = ctx
	}
}

func (v *View) Init() tea.Cmd { return nil }

// Refresh starts a listing and returns the command that performs it.
func (v *View) Refresh() tea.Cmd {
	v.loading = true
	service, ctx := v.service, v.ctx
	return func() tea.Msg {
		if service == nil {
			return messages.DocumentsLoaded{Err: errNoDocumentService}
		}
		docs, err := service.List(ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case messages.DocumentsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.setDocuments(msg.Documents)
		}
	case messages.ErrorOccurred:
		v.err = msg.Err
	case tea.KeyMsg:
		return v, v.onKey(msg)
	}
	return v, nil
}

func (v *View) onKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewChat} }
	case "r":
		return v.Refresh()
	}
	if len(v.docs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	v.table, cmd = v.table.Update(msg)
	return cmd
}

func (v *View) setDocuments(docs []domain.DocumentInfo) {
	cursor := v.table.Cursor()
	v.docs = docs
	v.table.SetRows(v.rows())
	if len(docs) > 0 {
		v.table.SetCursor(min(max(cursor, 0), len(docs)-1))
	}
}

func (v *View) columns() []table.Column {
	name := max(v.width-typeColumn-sizeColumn-8, minName)
	return []table.Column{
		{Title: "Name", Width: name},
		{Title: "Type", Width: typeColumn},
		{Title: "Size", Width: sizeColumn},
	}
}

func (v *View) rows() []table.Row {
	width := v.columns()[0].Width
	rows := make([]table.Row, 0, len(v.docs))
	for _, d := range v.docs {
		rows = append(rows, table.Row{
			keepTail(d.Name, width),
			d.Type,
			humanize.IBytes(uint64(max(d.Size, 0))),
		})
	}
	return rows
}

// keepTail shortens name to width runes, keeping the file name end of a path.
func keepTail(name string, width int) string {
	r := []rune(name)
	if len(r) <= width || width < 2 {
		return name
	}
	return "…" + string(r[len(r)-width+1:])
}

func (v *View) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Documents (%d)", len(v.docs))
	if v.service != nil && v.service.Dir() != "" {
		title = fmt.Sprintf("Documents in %s (%d)", v.service.Dir(), len(v.docs))
	}
	b.WriteString(v.styles.Title.Render(title) + "\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.docs) == 0:
		b.WriteString(v.styles.Muted.Render(emptyState))
	default:
		b.WriteString(v.table.View() + "\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%d of %d", v.SelectedIndex()+1, len(v.docs))))
	}

	b.WriteString("\n\n" + v.styles.Help.Render(helpLine))
	return b.String()
}

// SetDimensions resizes the table to fit width x height.
func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
	v.table.SetColumns(v.columns())
	v.table.SetWidth(width)
	v.table.SetHeight(max(height-chromeLines, 3))
	v.table.SetRows(v.rows())
}

// Documents returns the last listing.
func (v *View) Documents() []domain.DocumentInfo {
	return v.docs
}

// SelectedIndex returns the cursor row, 0 when the list is empty.
func (v *View) SelectedIndex() int {
	if len(v.docs) == 0 {
		return 0
	}
	return min(max(v.table.Cursor(), 0), len(v.docs)-1)
}

// SelectedDocument returns the document under the cursor, nil when empty.
func (v *View) SelectedDocument() *domain.DocumentInfo {
	if len(v.docs) == 0 {
		return nil
	}
	return &v.docs[v.SelectedIndex()]
}

func (v *View) Loading() bool { return v.loading }

func (v *View) Err() error { return v.err }
