package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func TestDocumentsListCmd_Table(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.documents.docs = []domain.DocumentInfo{
		{Name: "guide.pdf", Size: 2048, Type: ".pdf"},
		{Name: "notes.txt", Size: 12, Type: ".txt"},
	}

	out, err := execute(t, "documents", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "Documents in /docs:")
	assert.Contains(t, out, "guide.pdf")
	assert.Contains(t, out, "2.0 KiB")
	assert.Contains(t, out, "12 B")
	assert.Contains(t, out, "Total: 2 document(s)")
}

func TestDocumentsListCmd_Empty(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "docs", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No documents in /docs")
}

func TestDocumentsListCmd_JSON(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.documents.docs = []domain.DocumentInfo{{Name: "a.md", Size: 3, Type: ".md"}}

	out, err := execute(t, "documents", "list", "--json")

	require.NoError(t, err)
	assert.Contains(t, out, `"filename": "a.md"`)
}

func TestDocumentsAddCmd(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.documents.rejects = map[string]error{"image.png": domain.ErrUnsupportedType}

	dir := t.TempDir()
	good := filepath.Join(dir, "notes.txt")
	bad := filepath.Join(dir, "image.png")
	require.NoError(t, os.WriteFile(good, []byte("hello"), 0600))
	require.NoError(t, os.WriteFile(bad, []byte("png"), 0600))

	out, err := execute(t, "documents", "add", good, bad, filepath.Join(dir, "missing.md"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3 file(s) not added")
	assert.Equal(t, []byte("hello"), ts.documents.uploaded["notes.txt"])
	assert.Contains(t, out, "Added notes.txt")
	assert.Contains(t, out, "docchat reload")
}

func TestDocumentsAddCmd_RequiresFile(t *testing.T) {
	_, err := execute(t, "documents", "add")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}
