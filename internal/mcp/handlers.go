// ABOUTME: MCP tool handler implementations for the biorag server
// ABOUTME: Engine calls are serialized; tool failures are returned as tool errors, not protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/biorag/internal/assistant"
	"github.com/harper/biorag/internal/logging"
	"github.com/harper/biorag/internal/models"
	"github.com/harper/biorag/internal/rag"
)

// Engine is the engine surface the MCP tools use
type Engine interface {
	Answer(ctx context.Context, question string) models.Answer
	Search(ctx context.Context, question string, k int) ([]models.SearchResult, error)
	Generate(ctx context.Context, system, user string) (string, error)
	AddDocument(ctx context.Context, text string, metadata models.Metadata) (int, error)
	Save(path string) error
	Stats() rag.Stats
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	engine       Engine
	snapshotPath string
	assistant    *assistant.Assistant
	logger       *log.Logger
	mu           sync.Mutex
}

// NewHandlers creates Handlers around engine
func NewHandlers(engine Engine, snapshotPath string, logger *log.Logger) *Handlers {
	h := &Handlers{
		engine:       engine,
		snapshotPath: snapshotPath,
		logger:       logging.OrNop(logger).With("component", "mcp"),
	}
	h.assistant = assistant.New(lockedEngine{h}, logger)
	return h
}

// QueryCorpus handles the query_corpus tool
func (h *Handlers) QueryCorpus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}

	h.mu.Lock()
	answer := h.engine.Answer(ctx, question)
	h.mu.Unlock()

	if !answer.OK() {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %s", answer.Error)), nil
	}
	return jsonResult(answer)
}

// SearchCorpus handles the search_corpus tool
func (h *Handlers) SearchCorpus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	maxResults := request.GetInt("max_results", 0)

	h.mu.Lock()
	results, err := h.engine.Search(ctx, query, maxResults)
	h.mu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"results": results,
	})
}

// AddDocument handles the add_document tool
func (h *Handlers) AddDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text argument is required and must be a string"), nil
	}
	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title argument is required and must be a string"), nil
	}

	docID := uuid.New().String()
	meta := models.Metadata{
		"title":       title,
		"filename":    title,
		"url":         request.GetString("url", ""),
		"source":      "mcp",
		"document_id": docID,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	chunks, err := h.engine.AddDocument(ctx, text, meta)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add document: %v", err)), nil
	}
	saved := false
	if h.snapshotPath != "" {
		if err := h.engine.Save(h.snapshotPath); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("document added but snapshot save failed: %v", err)), nil
		}
		saved = true
	}
	h.logger.Info("document added", "title", title, "chunks", chunks, "document_id", docID)

	return jsonResult(map[string]interface{}{
		"document_id": docID,
		"chunks":      chunks,
		"saved":       saved,
	})
}

// CorpusStats handles the corpus_stats tool
func (h *Handlers) CorpusStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h.mu.Lock()
	stats := h.engine.Stats()
	h.mu.Unlock()
	return jsonResult(stats)
}

// Research handles the research tool
func (h *Handlers) Research(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topic, err := request.RequireString("topic")
	if err != nil {
		return mcp.NewToolResultError("topic argument is required and must be a string"), nil
	}
	mode, err := assistant.ParseMode(request.GetString("mode", string(assistant.ModeBrainstorm)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := h.assistant.Run(ctx, mode, topic)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("research failed: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}

// lockedEngine gives the assistant mutex-guarded engine access
type lockedEngine struct{ h *Handlers }

func (l lockedEngine) Search(ctx context.Context, q string, k int) ([]models.SearchResult, error) {
	l.h.mu.Lock()
	defer l.h.mu.Unlock()
	return l.h.engine.Search(ctx, q, k)
}

func (l lockedEngine) Generate(ctx context.Context, system, user string) (string, error) {
	l.h.mu.Lock()
	defer l.h.mu.Unlock()
	return l.h.engine.Generate(ctx, system, user)
}
