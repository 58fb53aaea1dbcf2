// ABOUTME: JSON request handlers for the HTTP front end
// ABOUTME: Query results use the tagged Answer shape; failures never fabricate an answer
package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/harper/biorag/internal/assistant"
	"github.com/harper/biorag/internal/models"
	"github.com/harper/biorag/internal/rag"
)

// QueryRequest asks a question
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryResponse is the tagged answer plus the request id
type QueryResponse struct {
	models.Answer
	RequestID string `json:"request_id"`
}

// SearchRequest retrieves chunks without generation
type SearchRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// SearchResponse lists ranked chunks
type SearchResponse struct {
	Results   []models.SearchResult `json:"results"`
	RequestID string                `json:"request_id"`
}

// ResearchRequest asks the research assistant about a topic
type ResearchRequest struct {
	Topic string `json:"topic"`
	Mode  string `json:"mode"`
}

// AddPaperRequest adds a document to the corpus
type AddPaperRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Authors []string `json:"authors,omitempty"`
	Year    string   `json:"year,omitempty"`
	URL     string   `json:"url,omitempty"`
}

// AddPaperResponse reports a successful addition
type AddPaperResponse struct {
	Message   string `json:"message"`
	Chunks    int    `json:"chunks"`
	RequestID string `json:"request_id"`
}

// ErrorResponse is returned for any non-2xx status
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stats := s.engine.Stats()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, struct {
		rag.Stats
		RequestID string `json:"request_id"`
	}{stats, RequestID(r.Context())})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.fail(w, r, http.StatusBadRequest, "No question provided")
		return
	}

	s.mu.Lock()
	answer := s.engine.Answer(r.Context(), req.Question)
	s.mu.Unlock()

	status := http.StatusOK
	if !answer.OK() {
		s.logger.Error("error processing query", "request_id", RequestID(r.Context()), "err", answer.Error)
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, QueryResponse{Answer: answer, RequestID: RequestID(r.Context())})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.fail(w, r, http.StatusBadRequest, "No question provided")
		return
	}

	s.mu.Lock()
	results, err := s.engine.Search(r.Context(), req.Question, req.TopK)
	s.mu.Unlock()
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results, RequestID: RequestID(r.Context())})
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	var req ResearchRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		s.fail(w, r, http.StatusBadRequest, "No topic provided")
		return
	}
	if req.Mode == "" {
		req.Mode = string(assistant.ModeBrainstorm)
	}
	mode, err := assistant.ParseMode(req.Mode)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err.Error())
		return
	}

	// the assistant locks per engine call
	text, err := s.assistant.Run(r.Context(), mode, req.Topic)
	answer := models.Success(text)
	status := http.StatusOK
	if err != nil {
		answer = models.Failure(err)
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, QueryResponse{Answer: answer, RequestID: RequestID(r.Context())})
}

func (s *Server) handleAddPaper(w http.ResponseWriter, r *http.Request) {
	var req AddPaperRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		s.fail(w, r, http.StatusBadRequest, "Title and content are required")
		return
	}

	meta := models.Metadata{
		"title":    req.Title,
		"filename": req.Title,
		"authors":  req.Authors,
		"year":     req.Year,
		"url":      req.URL,
		"source":   "user_upload",
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.engine.AddDocument(r.Context(), req.Content, meta)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	if s.cfg.SnapshotPath != "" {
		if err := s.engine.Save(s.cfg.SnapshotPath); err != nil {
			s.fail(w, r, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, AddPaperResponse{
		Message:   "Successfully added paper: " + req.Title,
		Chunks:    n,
		RequestID: RequestID(r.Context()),
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "err", msg)
	}
	writeJSON(w, status, ErrorResponse{Error: msg, RequestID: RequestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
