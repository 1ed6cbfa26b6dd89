package markdown

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/normalisers/plaintext"
)

var _ driven.Extractor = (*Normaliser)(nil)

var md = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
)

// Normaliser extracts the prose of Markdown files.
type Normaliser struct{}

func New() *Normaliser {
	return &Normaliser{}
}

func (n *Normaliser) FileTypes() []domain.FileType {
	return []domain.FileType{domain.FileTypeMarkdown}
}

// Extract returns one document holding the file's text with the markup
// removed. Blocks are separated by blank lines, list items and table rows
// by single newlines. The title is the first level-one heading, or the
// file name when there is none.
func (n *Normaliser) Extract(ctx context.Context, path string) ([]domain.SourceDocument, error) {
	if path == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	title, body := render([]byte(stripFrontMatter(plaintext.NormaliseText(raw))))
	if title == "" {
		title = plaintext.TitleFromPath(path)
	}
	return []domain.SourceDocument{{
		Path:     path,
		FileType: domain.FileTypeMarkdown,
		Title:    title,
		Text:     body,
	}}, nil
}

// stripFrontMatter removes a leading YAML front matter block.
func stripFrontMatter(content string) string {
	if !strings.HasPrefix(content, "---\n") {
		return content
	}
	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return content
	}
	rest = rest[end+len("\n---"):]
	// The closing fence must be on its own line.
	if rest != "" && rest[0] != '\n' {
		return content
	}
	return strings.TrimLeft(rest, "\n")
}

// render parses src and returns its first level-one heading and its text.
func render(src []byte) (title, body string) {
	w := &textWalker{src: src}
	w.blocks(md.Parser().Parse(text.NewReader(src)))
	return w.title, strings.Join(w.out, "\n\n")
}

type textWalker struct {
	src   []byte
	title string
	out   []string
}

func (w *textWalker) emit(s string) {
	if s != "" {
		w.out = append(w.out, s)
	}
}

func (w *textWalker) blocks(parent ast.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Heading:
			s := w.inline(n)
			if n.Level == 1 && w.title == "" {
				w.title = s
			}
			w.emit(s)
		case *ast.Paragraph, *ast.TextBlock:
			w.emit(w.inline(n))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			w.emit(w.code(n))
		case *ast.List:
			w.emit(w.list(n))
		case *ast.Blockquote:
			w.blocks(n)
		case *extast.Table:
			w.emit(w.table(n))
		}
	}
}

// inline concatenates the text under n. Images and raw HTML are dropped.
func (w *textWalker) inline(n ast.Node) string {
	var b strings.Builder
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) { //nolint:errcheck
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Image, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			b.Write(c.Segment.Value(w.src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(c.Value)
		case *ast.AutoLink:
			b.Write(c.Label(w.src))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func (w *textWalker) code(n ast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(w.src))
	}
	return strings.TrimRight(b.String(), "\n")
}

// list puts each item, nested ones included, on its own line.
func (w *textWalker) list(l *ast.List) string {
	var lines []string
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			var s string
			switch c := c.(type) {
			case *ast.List:
				s = w.list(c)
			case *ast.FencedCodeBlock, *ast.CodeBlock:
				s = w.code(c)
			default:
				s = w.inline(c)
			}
			if s != "" {
				lines = append(lines, s)
			}
		}
	}
	return strings.Join(lines, "\n")
}

// table writes one line per row with cells joined by " | ".
func (w *textWalker) table(t *extast.Table) string {
	var rows []string
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		var cells []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, w.inline(c))
		}
		rows = append(rows, strings.Join(cells, " | "))
	}
	return strings.Join(rows, "\n")
}
