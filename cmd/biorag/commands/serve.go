// ABOUTME: Serve command starts the HTTP API over the corpus
// ABOUTME: Runs until interrupted, then shuts down gracefully
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harper/biorag/internal/server"
)

var (
	serveAddr string
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start an HTTP server exposing the corpus.

Endpoints:
  GET  /health        liveness check
  GET  /api/stats     corpus statistics
  POST /api/query     {"question": "..."}
  POST /api/search    {"question": "...", "top_k": 5}
  POST /api/research  {"topic": "...", "mode": "brainstorm"}
  POST /api/papers    {"title": "...", "content": "..."}

Papers added over HTTP are saved to the snapshot immediately.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "Listen address")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := server.New(server.Config{
		ListenAddr:   serveAddr,
		SnapshotPath: a.cfg.Paths.Snapshot,
	}, a.engine, a.logger)
	if err != nil {
		return err
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "BioRAG API listening on http://%s (%d chunks)\n", serveAddr, a.engine.Len())
	}

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	if !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Shutdown complete\n")
	}
	return nil
}
