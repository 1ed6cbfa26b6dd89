package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// contentFile matches the per-page files written by pdfcpu's content extraction.
var contentFile = regexp.MustCompile(`Content_page_(\d+)`)

var disableConfigDir sync.Once

// PDFCPUReader reads page text with pdfcpu. pdfcpu exposes each page's
// decoded content stream; text is recovered from its text-showing operators.
type PDFCPUReader struct{}

// NewPDFCPUReader creates a pdfcpu-backed page reader.
func NewPDFCPUReader() *PDFCPUReader {
	disableConfigDir.Do(api.DisableConfigDir)
	return &PDFCPUReader{}
}

// ReadPages returns the text of every page in order. Pages with no content
// stream yield an empty string so page numbers stay aligned.
func (r *PDFCPUReader) ReadPages(ctx context.Context, path string) ([]string, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	outDir, err := os.MkdirTemp("", "docchat-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("extract content: %w", err)
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("read extracted content: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	pages := make([]strings.Builder, pdfCtx.PageCount)
	for _, name := range names {
		m := contentFile.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		pageNum, err := strconv.Atoi(m[1])
		if err != nil || pageNum < 1 || pageNum > len(pages) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", pageNum, err)
		}
		pages[pageNum-1].WriteString(DecodeContent(data))
	}

	texts := make([]string, len(pages))
	for i := range pages {
		texts[i] = pages[i].String()
	}
	return texts, nil
}
