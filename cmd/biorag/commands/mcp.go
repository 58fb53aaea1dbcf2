// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents to query and extend the corpus via stdio
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harper/biorag/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs BioRAG as an MCP (Model Context Protocol) server, letting LLM
agents query, search and add to the corpus via stdio.

Tools: query_corpus, search_corpus, add_document, corpus_stats, research.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an MCP client)
  biorag mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "biorag": {
  #       "command": "biorag",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol, so logs go to stderr
	a, err := openApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	// Create MCP server
	server := mcpserver.NewMCPServer(
		"BioRAG",
		versionInfo.Version,
	)

	mcp.RegisterTools(server, a.engine, a.cfg.Paths.Snapshot, a.logger)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("MCP server starting on stdio", "chunks", a.engine.Len())

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
