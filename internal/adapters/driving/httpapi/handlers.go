package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/logger"
)

// defaultHistoryLimit is the number of turns returned when no limit is given.
const defaultHistoryLimit = 50

// multipartMemory is the in-memory budget for parsing upload forms; larger parts spill to disk.
const multipartMemory = 32 << 20

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message        string `json:"message"`
	IncludeContext *bool  `json:"include_context,omitempty"`
	SessionID      string `json:"session_id,omitempty"`
}

// ChatResponse is the reply to POST /api/chat.
type ChatResponse struct {
	Response       string   `json:"response"`
	SessionID      string   `json:"session_id"`
	Timestamp      string   `json:"timestamp"`
	IncludeContext bool     `json:"include_context"`
	ContextUsed    bool     `json:"context_used"`
	Failed         bool     `json:"failed,omitempty"`
	Sources        []string `json:"sources,omitempty"`
}

// StatusResponse is the reply to GET /api/status.
type StatusResponse struct {
	Status           string             `json:"status"`
	Message          string             `json:"message"`
	DocumentsLoaded  int                `json:"documents_loaded"`
	VectorStoreReady bool               `json:"vector_store_ready"`
	Index            domain.IndexStatus `json:"index"`
}

// HistoryResponse is the reply to GET /api/history.
type HistoryResponse struct {
	History    []domain.ChatTurn `json:"history"`
	TotalCount int               `json:"total_count"`
}

// DocumentListResponse is the reply to GET /api/documents.
type DocumentListResponse struct {
	Documents  []domain.DocumentInfo `json:"documents"`
	TotalCount int                   `json:"total_count"`
}

// UploadResponse is the reply to a POST /api/upload that stored at least one file.
type UploadResponse struct {
	Message       string   `json:"message"`
	UploadedCount int      `json:"uploaded_count"`
	Errors        []string `json:"errors"`
}

// MessageResponse is a reply carrying only a message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/chat", s.handleChat)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)
	s.mux.HandleFunc("DELETE /api/history", s.handleClearHistory)
	s.mux.HandleFunc("POST /api/reload", s.handleReload)
	s.mux.HandleFunc("GET /api/documents", s.handleDocuments)
	s.mux.HandleFunc("POST /api/upload", s.handleUpload)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("/", s.handleNotFound)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Status: "ready", Message: "Chatbot is ready"}

	if s.ports.Index != nil {
		resp.Index = s.ports.Index.Status()
		resp.VectorStoreReady = resp.Index.Ready()
		if resp.Index.State == domain.IndexStateBuilding {
			resp.Message = "Index is being built; answers use no document context yet"
		}
	}
	if s.ports.Documents != nil {
		docs, err := s.ports.Documents.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Error checking status", err)
			return
		}
		resp.DocumentsLoaded = len(docs)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Invalid request body", errors.New("message is required"))
		return
	}

	includeContext := true
	if req.IncludeContext != nil {
		includeContext = *req.IncludeContext
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = domain.DefaultSessionID
	}

	turn := s.ports.Chat.Answer(r.Context(), sessionID, req.Message, includeContext)

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:       turn.Response,
		SessionID:      sessionID,
		Timestamp:      s.now().Format(time.RFC3339),
		IncludeContext: includeContext,
		ContextUsed:    turn.ContextUsed,
		Failed:         turn.Failed,
		Sources:        turn.Sources,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	turns, total := s.ports.Chat.History(sessionParam(r), limit)
	writeJSON(w, http.StatusOK, HistoryResponse{History: turns, TotalCount: total})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("session_id"); id != "" {
		s.ports.Chat.ClearHistory(id)
	} else {
		s.ports.Chat.ClearAllHistory()
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Chat history cleared successfully"})
}

func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	if s.ports.Index == nil {
		writeError(w, http.StatusServiceUnavailable, "Index not available", domain.ErrEmbeddingUnavailable)
		return
	}

	if err := s.ports.Index.ReloadAsync(true); err != nil {
		if errors.Is(err, domain.ErrRebuildInProgress) {
			writeError(w, http.StatusConflict, "Reload already running", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Error starting reload", err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageResponse{Message: "Document reload started in background"})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if s.ports.Documents == nil {
		writeJSON(w, http.StatusOK, DocumentListResponse{Documents: []domain.DocumentInfo{}})
		return
	}

	docs, err := s.ports.Documents.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error getting documents", err)
		return
	}
	if docs == nil {
		docs = []domain.DocumentInfo{}
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: docs, TotalCount: len(docs)})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.ports.Documents == nil {
		writeError(w, http.StatusServiceUnavailable, "Uploads not available", errors.New("document service not configured"))
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload", err)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No files uploaded", errors.New(`expected multipart field "files"`))
		return
	}

	uploaded := 0
	problems := []string{}
	for _, fh := range files {
		name := fh.Filename
		if name == "" {
			problems = append(problems, "File has no name")
			continue
		}

		content, err := s.readPart(fh)
		if err == nil {
			err = s.ports.Documents.Upload(r.Context(), name, content)
		}
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		uploaded++
	}

	if uploaded == 0 {
		writeError(w, http.StatusBadRequest, "No files uploaded", errors.New(strings.Join(problems, "; ")))
		return
	}
	writeJSON(w, http.StatusOK, UploadResponse{
		Message:       fmt.Sprintf("Successfully uploaded %d file(s)", uploaded),
		UploadedCount: uploaded,
		Errors:        problems,
	})
}

// readPart reads at most one byte past the upload limit so oversize files are
// rejected without being held in memory whole.
func (s *Server) readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	return io.ReadAll(io.LimitReader(f, s.maxUpload+1))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": s.now().Format(time.RFC3339),
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Endpoint not found", fmt.Errorf("no route for %s %s", r.Method, r.URL.Path))
}

// sessionParam returns the session_id query parameter or the session chat
// requests without one are answered in.
func sessionParam(r *http.Request) string {
	if id := r.URL.Query().Get("session_id"); id != "" {
		return id
	}
	return domain.DefaultSessionID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}
