package pdf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// mockReader is a test double for PageReader.
type mockReader struct {
	pages []string
	err   error
	calls int
}

func (m *mockReader) ReadPages(_ context.Context, _ string) ([]string, error) {
	m.calls++
	return m.pages, m.err
}

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &PDFCPUReader{}, normaliser.reader)
}

func TestFileTypes(t *testing.T) {
	assert.Equal(t, []domain.FileType{domain.FileTypePDF}, New().FileTypes())
}

func TestNewWithReader(t *testing.T) {
	reader := &mockReader{}
	normaliser := NewWithReader(reader)
	require.NotNil(t, normaliser)
	assert.Equal(t, reader, normaliser.reader)
}

func TestExtract_OneDocumentPerPage(t *testing.T) {
	reader := &mockReader{pages: []string{
		"Annual Report\nRevenue grew.",
		"Second page text.",
	}}

	docs, err := NewWithReader(reader).Extract(context.Background(), "/docs/report.pdf")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, 1, docs[0].Page)
	assert.Equal(t, 2, docs[1].Page)
	for _, doc := range docs {
		assert.Equal(t, "/docs/report.pdf", doc.Path)
		assert.Equal(t, domain.FileTypePDF, doc.FileType)
		assert.Equal(t, "Annual Report", doc.Title)
	}
	assert.Equal(t, "Second page text.", docs[1].Text)
}

func TestExtract_BlankPagesDropped(t *testing.T) {
	reader := &mockReader{pages: []string{"", "  \n\t", "Third page."}}

	docs, err := NewWithReader(reader).Extract(context.Background(), "/docs/scan.pdf")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 3, docs[0].Page)
	assert.Equal(t, "Third page.", docs[0].Text)
}

func TestExtract_ReaderError(t *testing.T) {
	reader := &mockReader{err: errors.New("malformed xref")}

	docs, err := NewWithReader(reader).Extract(context.Background(), "/docs/broken.pdf")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pdf extraction failed")
	assert.Contains(t, err.Error(), "malformed xref")
	assert.Nil(t, docs)
}

func TestExtract_EmptyPath(t *testing.T) {
	reader := &mockReader{}

	docs, err := NewWithReader(reader).Extract(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, docs)
	assert.Zero(t, reader.calls)
}

func TestExtract_CancelledContext(t *testing.T) {
	reader := &mockReader{pages: []string{"text"}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewWithReader(reader).Extract(ctx, "/docs/a.pdf")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, reader.calls)
}

func TestCleanPage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"trailing spaces trimmed", "line one   \nline two\t", "line one\nline two"},
		{"blank runs collapsed", "a\n\n\n\nb", "a\n\nb"},
		{"crlf normalised", "a\r\nb", "a\nb"},
		{"whitespace only", " \n \n", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, cleanPage(tc.input))
		})
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		path     string
		expected string
	}{
		{
			name:     "first line as title",
			content:  "Document Title\n\nSome content here.",
			path:     "/doc.pdf",
			expected: "Document Title",
		},
		{
			name:     "skip empty lines",
			content:  "\n\n\nActual Title\nContent",
			path:     "/doc.pdf",
			expected: "Actual Title",
		},
		{
			name:     "fallback to filename",
			content:  "",
			path:     "/path/to/my_document.pdf",
			expected: "my document",
		},
		{
			name:     "skip very long first line",
			content:  string(make([]byte, 250)) + "\nShort Title\nContent",
			path:     "/doc.pdf",
			expected: "Short Title",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, extractTitle(tc.content, tc.path))
		})
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Extractor = (*Normaliser)(nil)
	var _ PageReader = (*PDFCPUReader)(nil)
}
