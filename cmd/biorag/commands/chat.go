// ABOUTME: Chat command opens the interactive terminal UI over the corpus
// ABOUTME: Logs go to the log file so they do not corrupt the screen
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/biorag/internal/assistant"
	"github.com/harper/biorag/internal/tui"
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive question answering",
		Long: `Open a full-screen chat over the corpus.

Type a question to get an answer, or use a slash command:
  /brainstorm <topic>   research plan
  /papers <topic>       paper and code connections
  /implement <task>     implementation suggestions
  /clear, /help, /quit`,
		Args: cobra.NoArgs,
		RunE: runChat,
	}

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := openApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	stats := a.engine.Stats()
	summary := fmt.Sprintf("%d chunks from %d sources · %s", stats.Chunks, stats.Sources, stats.GenerationModel)
	if stats.Chunks == 0 {
		summary = "Corpus is empty, run 'biorag ingest' first"
	}

	return tui.Run(cmd.Context(), a.engine, assistant.New(a.engine, a.logger), summary)
}
