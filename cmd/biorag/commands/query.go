// ABOUTME: CLI command to answer a question from the corpus
// ABOUTME: Prints the answer text, or the tagged result with --format json
package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewQueryCmd creates the query command
func NewQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Answer a question from the corpus",
		Long: `Retrieve the chunks most similar to the question and ask the language
model to answer from them. Answers are cached per question.

Examples:
  biorag query "What does the paper say about off-target effects?"
  biorag query --format json "Which aligner do the scripts use?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runQuery,
	}

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	a, err := openApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if a.engine.Len() == 0 && !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: corpus is empty, run 'biorag ingest' first\n")
	}

	answer := a.engine.Answer(cmd.Context(), question)

	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
	} else if answer.OK() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", answer.Text)
	}

	if !answer.OK() {
		return fmt.Errorf("query failed: %s", answer.Error)
	}
	return nil
}
