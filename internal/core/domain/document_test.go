package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileTypeFromPath(t *testing.T) {
	tests := []struct {
		path   string
		want   FileType
		wantOK bool
	}{
		{"manual.pdf", FileTypePDF, true},
		{"docs/NOTES.TXT", FileTypeText, true},
		{"README.md", FileTypeMarkdown, true},
		{"archive/report.Pdf", FileTypePDF, true},
		{"image.png", "", false},
		{"Makefile", "", false},
		{"notes.markdown", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := FileTypeFromPath(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSupportedFileTypes(t *testing.T) {
	assert.ElementsMatch(t, []FileType{FileTypePDF, FileTypeText, FileTypeMarkdown}, SupportedFileTypes())
}

func TestChunk_Citation(t *testing.T) {
	t.Run("pdf page", func(t *testing.T) {
		c := Chunk{SourcePath: "docs/guide.pdf", Page: 2}
		assert.Equal(t, "docs/guide.pdf (page 2)", c.Citation())
	})

	t.Run("whole file", func(t *testing.T) {
		c := Chunk{SourcePath: "docs/notes.txt"}
		assert.Equal(t, "docs/notes.txt", c.Citation())
	})
}

func TestIndexStatus_Ready(t *testing.T) {
	assert.True(t, IndexStatus{State: IndexStateReady}.Ready())
	assert.False(t, IndexStatus{State: IndexStateBuilding}.Ready())
	assert.False(t, IndexStatus{State: IndexStateUnset}.Ready())
}
