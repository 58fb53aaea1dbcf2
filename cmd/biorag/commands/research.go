// ABOUTME: CLI command for the research assistant modes
// ABOUTME: Brainstorms plans, connects papers with code, or suggests implementations
package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harper/biorag/internal/assistant"
)

var (
	researchMode string
)

// NewResearchCmd creates the research command
func NewResearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "research <topic>",
		Short: "Get research guidance grounded in the corpus",
		Long: `Retrieve context for a topic and ask for structured research guidance.

Modes:
  brainstorm      research questions, methods and analysis plan
  connections     how the papers relate to the code in the corpus
  implementation  steps, tools and pitfalls for implementing a task

Examples:
  biorag research "base editing efficiency"
  biorag research --mode implementation "RNA-seq differential expression"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runResearch,
	}

	cmd.Flags().StringVar(&researchMode, "mode", string(assistant.ModeBrainstorm), "brainstorm, connections or implementation")

	return cmd
}

func runResearch(cmd *cobra.Command, args []string) error {
	mode, err := assistant.ParseMode(researchMode)
	if err != nil {
		return err
	}
	topic := strings.Join(args, " ")

	a, err := openApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := assistant.New(a.engine, a.logger).Run(cmd.Context(), mode, topic)
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}

	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(map[string]string{
			"mode":   string(mode),
			"topic":  topic,
			"result": out,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", out)
	return nil
}
