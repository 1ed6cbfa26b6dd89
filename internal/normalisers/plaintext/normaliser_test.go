package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

func writeTemp(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &Normaliser{}, normaliser)
}

func TestFileTypes(t *testing.T) {
	assert.Equal(t, []domain.FileType{domain.FileTypeText}, New().FileTypes())
}

func TestExtract_Success(t *testing.T) {
	path := writeTemp(t, "document.txt", []byte("This is plain text content."))

	docs, err := New().Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, path, doc.Path)
	assert.Equal(t, domain.FileTypeText, doc.FileType)
	assert.Equal(t, 0, doc.Page)
	assert.Equal(t, "document", doc.Title)
	assert.Equal(t, "This is plain text content.", doc.Text)
}

func TestExtract_EmptyPath(t *testing.T) {
	docs, err := New().Extract(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, docs)
}

func TestExtract_MissingFile(t *testing.T) {
	docs, err := New().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "read text")
	assert.Nil(t, docs)
}

func TestExtract_EmptyContent(t *testing.T) {
	path := writeTemp(t, "empty.txt", nil)

	docs, err := New().Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Empty(t, docs[0].Text)
}

func TestExtract_CancelledContext(t *testing.T) {
	path := writeTemp(t, "a.txt", []byte("x"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Extract(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNormaliseText(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"crlf", []byte("a\r\nb\r\n"), "a\nb\n"},
		{"lone cr", []byte("a\rb"), "a\nb"},
		{"bom stripped", []byte("\xEF\xBB\xBFhello"), "hello"},
		{"invalid utf8 replaced", []byte("ok\xffok"), "ok\uFFFDok"},
		{"unicode kept", []byte("héllo wörld"), "héllo wörld"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormaliseText(tc.input))
		})
	}
}

func TestTitleFromPath(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		expectedTitle string
	}{
		{"simple filename", "/path/to/document.txt", "document"},
		{"underscores to spaces", "/path/my_document_name.txt", "my document name"},
		{"dashes to spaces", "/path/my-document-name.txt", "my document name"},
		{"no extension", "/path/README", "README"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedTitle, TitleFromPath(tc.path))
		})
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Extractor = (*Normaliser)(nil)
}
