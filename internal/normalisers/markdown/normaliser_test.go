package markdown

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileTypes(t *testing.T) {
	assert.Equal(t, []domain.FileType{domain.FileTypeMarkdown}, New().FileTypes())
}

func TestExtract_Success(t *testing.T) {
	path := writeTemp(t, "guide.md", "# Setup Guide\r\n\r\nInstall the **tool** and read [the docs](https://example.com).\r\n")

	docs, err := New().Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, path, doc.Path)
	assert.Equal(t, domain.FileTypeMarkdown, doc.FileType)
	assert.Equal(t, "Setup Guide", doc.Title)
	assert.Equal(t, "Setup Guide\n\nInstall the tool and read the docs.", doc.Text)
}

func TestExtract_EmptyPath(t *testing.T) {
	docs, err := New().Extract(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, docs)
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := New().Extract(context.Background(), filepath.Join(t.TempDir(), "nope.md"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "read markdown")
}

func TestExtract_FrontMatter(t *testing.T) {
	path := writeTemp(t, "post.md", "---\ntitle: ignored\ntags: [a, b]\n---\n# Real Title\n\nBody text.")

	docs, err := New().Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Real Title", docs[0].Title)
	assert.NotContains(t, docs[0].Text, "tags")
	assert.Contains(t, docs[0].Text, "Body text.")
}

func TestStripFrontMatter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no front matter", "# Title\nBody", "# Title\nBody"},
		{"front matter removed", "---\na: 1\n---\nBody", "Body"},
		{"unterminated kept", "---\na: 1\nBody", "---\na: 1\nBody"},
		{"fence must close a line", "---\na: 1\n----x\nBody", "---\na: 1\n----x\nBody"},
		{"only front matter", "---\na: 1\n---", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stripFrontMatter(tc.input))
		})
	}
}

func TestExtract_Titles(t *testing.T) {
	tests := map[string]struct {
		file, content, want string
	}{
		"atx heading":        {"doc.md", "# My Document\n\nContent here.", "My Document"},
		"padded heading":     {"doc.md", "#   Spaced Title   \n\nContent", "Spaced Title"},
		"setext heading":     {"doc.md", "Underlined\n==========\n\nBody", "Underlined"},
		"inline markup":      {"doc.md", "# The `docchat` **guide**", "The docchat guide"},
		"no heading":         {"my_document.md", "Just some content without heading.", "my document"},
		"second level first": {"readme.md", "## Second Level\n\nNo H1.", "readme"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			docs, err := New().Extract(context.Background(), writeTemp(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, docs[0].Title)
		})
	}
}

func TestRender(t *testing.T) {
	tests := map[string]struct {
		in, want string
	}{
		"headings":        {"# Title\n## Subtitle\n### Third", "Title\n\nSubtitle\n\nThird"},
		"emphasis":        {"This is **bold**, *italic* and ~~gone~~ text", "This is bold, italic and gone text"},
		"link text kept":  {"Click [here](https://example.com)", "Click here"},
		"bare url":        {"See https://example.com/docs now", "See https://example.com/docs now"},
		"image dropped":   {"See ![alt text](image.png) here", "See  here"},
		"fenced code":     {"Before\n```go\nfmt.Println(1)\n```\nAfter", "Before\n\nfmt.Println(1)\n\nAfter"},
		"inline code":     {"Use `make test` here", "Use make test here"},
		"blockquote":      {"> This is a quote", "This is a quote"},
		"bullets":         {"- Item 1\n- Item 2", "Item 1\nItem 2"},
		"numbered":        {"1. First\n2. Second", "First\nSecond"},
		"nested list":     {"- a\n  - b\n- c", "a\nb\nc"},
		"table":           {"| A | B |\n|---|---|\n| 1 | 2 |", "A | B\n1 | 2"},
		"html dropped":    {"<div>x</div>\n\nText", "Text"},
		"rule dropped":    {"One\n\n---\n\nTwo", "One\n\nTwo"},
		"soft break":      {"line one\nline two", "line one\nline two"},
		"intraword under": {"call snake_case_name", "call snake_case_name"},
		"blank lines":     {"One\n\n\n\nTwo", "One\n\nTwo"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, body := render([]byte(tt.in))
			assert.Equal(t, tt.want, body)
		})
	}
}
