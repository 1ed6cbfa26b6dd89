package domain

import (
	"path/filepath"
	"strconv"
	"strings"
)

// FileType identifies a supported document format.
type FileType string

// Supported file types.
const (
	FileTypePDF      FileType = "pdf"
	FileTypeText     FileType = "txt"
	FileTypeMarkdown FileType = "md"
)

// SupportedFileTypes returns every file type the loader understands.
func SupportedFileTypes() []FileType {
	return []FileType{FileTypePDF, FileTypeText, FileTypeMarkdown}
}

// FileTypeFromPath derives the file type from a path's extension.
// The second return value is false for unsupported extensions.
func FileTypeFromPath(path string) (FileType, bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch FileType(ext) {
	case FileTypePDF, FileTypeText, FileTypeMarkdown:
		return FileType(ext), true
	default:
		return "", false
	}
}

// SourceDocument is the text extracted from one file, or from one page of a PDF.
// It is created by the loader and discarded after chunking.
type SourceDocument struct {
	// Path is the file the text came from.
	Path string

	// FileType is the format of the source file.
	FileType FileType

	// Page is the 1-based PDF page number, or 0 for whole-file documents.
	Page int

	// Title is a human-readable title when the format provides one.
	Title string

	// Text is the extracted text.
	Text string
}

// Chunk is a bounded span of source text, the unit of embedding and retrieval.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// SourcePath links to the originating file.
	SourcePath string

	// Page is the PDF page number, or 0 for whole-file documents.
	Page int

	// Sequence is the ordinal position within the source document.
	Sequence int

	// Text is the chunk content.
	Text string

	// Start and End are rune offsets of Text within the source document.
	Start int
	End   int
}

// Citation renders the chunk provenance, e.g. "docs/guide.pdf (page 2)".
func (c Chunk) Citation() string {
	if c.Page > 0 {
		return c.SourcePath + " (page " + strconv.Itoa(c.Page) + ")"
	}
	return c.SourcePath
}

// IndexEntry pairs a chunk with its embedding vector.
type IndexEntry struct {
	Chunk  Chunk
	Vector []float32
}

// ScoredChunk is a search hit with its cosine similarity.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// DocumentInfo describes a file in the documents directory.
type DocumentInfo struct {
	// Name is the path relative to the documents directory.
	Name string `json:"filename"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// Type is the file extension including the dot, e.g. ".pdf".
	Type string `json:"type"`
}
