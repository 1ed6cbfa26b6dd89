package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

const (
	documentsURI   = "docchat://documents"
	documentPrefix = documentsURI + "/"

	mimeJSON = "application/json"
	mimeText = "text/plain"

	// maxDocumentBytes caps the text returned for one document.
	maxDocumentBytes = 4 << 20
)

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         documentsURI,
		Name:        "documents",
		Description: "Supported files in the documents directory, as JSON",
		MIMEType:    mimeJSON,
	}, s.readDocumentList)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: documentPrefix + "{name}",
		Name:        "document",
		Description: "Raw text of a .txt or .md document",
		MIMEType:    mimeText,
	}, s.readDocument)
}

func single(uri, mime, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mime, Text: text}},
	}
}

func (s *Server) readDocumentList(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	docs := []domain.DocumentInfo{}
	if s.ports.Documents != nil {
		listed, err := s.ports.Documents.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing documents: %w", err)
		}
		docs = append(docs, listed...)
	}

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding documents: %w", err)
	}
	return single(req.Params.URI, mimeJSON, string(data)), nil
}

// readDocument serves text and Markdown files. PDFs are reachable only
// through retrieval.
func (s *Server) readDocument(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	name := documentName(uri)
	if name == "" || s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	if ft, ok := domain.FileTypeFromPath(name); !ok || ft == domain.FileTypePDF {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	text, err := readWithin(s.ports.Documents.Dir(), name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return single(uri, mimeText, text), nil
}

// readWithin reads name relative to dir without following paths out of it.
func readWithin(dir, name string) (string, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return "", err
	}
	defer root.Close() //nolint:errcheck

	f, err := root.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(f, maxDocumentBytes))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// documentName returns the slash-separated name in a document URI, or ""
// when the URI is foreign or the name is not a clean relative path.
func documentName(uri string) string {
	name, ok := strings.CutPrefix(uri, documentPrefix)
	if !ok || name == "" || !fs.ValidPath(name) || path.Clean(name) != name {
		return ""
	}
	return name
}
