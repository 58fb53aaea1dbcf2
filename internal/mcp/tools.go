// ABOUTME: MCP tool definitions and registration for the biorag server
// ABOUTME: Defines JSON schemas for the corpus query, search, ingest, stats and research tools
package mcp

import (
	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/harper/biorag/internal/assistant"
	"github.com/harper/biorag/internal/logging"
)

// RegisterTools registers all MCP tools with the server.
// snapshotPath, when set, is where the corpus is saved after add_document.
func RegisterTools(server *mcpserver.MCPServer, engine Engine, snapshotPath string, logger *log.Logger) *Handlers {
	handlers := NewHandlers(engine, snapshotPath, logger)

	// 1. query_corpus - Answer a question from the corpus
	server.AddTool(mcp.Tool{
		Name:        "query_corpus",
		Description: "Answer a question using retrieval-augmented generation over the ingested papers and code. Repeated questions are served from cache.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "The question to answer",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.QueryCorpus)

	// 2. search_corpus - Retrieve ranked chunks without generation
	server.AddTool(mcp.Tool{
		Name:        "search_corpus",
		Description: "Return the corpus chunks most similar to a query, ranked by cosine similarity, without generating an answer.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of chunks to return (default: configured top_k)",
				},
			},
			Required: []string{"query"},
		},
	}, handlers.SearchCorpus)

	// 3. add_document - Ingest raw text
	server.AddTool(mcp.Tool{
		Name:        "add_document",
		Description: "Chunk, embed and add a document to the corpus. Either every chunk is added or none is.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Document text",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Document title, recorded as its source name",
				},
				"url": map[string]interface{}{
					"type":        "string",
					"description": "Optional source URL",
				},
			},
			Required: []string{"text", "title"},
		},
	}, handlers.AddDocument)

	// 4. corpus_stats - Describe the corpus
	server.AddTool(mcp.Tool{
		Name:        "corpus_stats",
		Description: "Report chunk count, distinct sources, embedding dimension and the models in use.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.CorpusStats)

	// 5. research - Research assistant
	modes := make([]string, len(assistant.Modes))
	for i, m := range assistant.Modes {
		modes[i] = string(m)
	}
	server.AddTool(mcp.Tool{
		Name:        "research",
		Description: "Produce structured research guidance on a topic from the corpus: a research plan, paper/code connections, or implementation suggestions.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"topic": map[string]interface{}{
					"type":        "string",
					"description": "Research topic",
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"enum":        modes,
					"description": "Kind of guidance (default: brainstorm)",
				},
			},
			Required: []string{"topic"},
		},
	}, handlers.Research)

	logging.OrNop(logger).Debug("registered mcp tools", "count", 5)
	return handlers
}
