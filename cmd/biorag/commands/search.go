// ABOUTME: CLI command to search the corpus without generating an answer
// ABOUTME: Shows ranked chunks with their similarity score and source
package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	searchLimit int
)

// NewSearchCmd creates search command
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the corpus",
		Long: `Rank corpus chunks by cosine similarity to the query and show the best
matches. No answer is generated.

Examples:
  biorag search "guide RNA design"
  biorag search --limit 10 "variant calling"
  biorag search --format json "single cell clustering"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().IntVar(&searchLimit, "limit", 5, "Maximum results to return")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	// Validate limit flag
	if err := validatePositiveInt(searchLimit, "limit"); err != nil {
		return err
	}

	query := strings.Join(args, " ")

	a, err := openApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.engine.Search(cmd.Context(), query, searchLimit)
	if err != nil {
		return fmt.Errorf("searching corpus: %w", err)
	}

	if len(results) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No chunks found for query: %s\n", query)
		}
		return nil
	}

	// Format output
	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	// Table format
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SCORE\tSOURCE\tCHUNK\tPREVIEW\n")
	fmt.Fprintf(w, "-----\t------\t-----\t-------\n")

	for _, result := range results {
		source := result.Metadata.String("filename")
		if source == "" {
			source = "(unknown)"
		}
		preview := strings.Join(strings.Fields(result.Text), " ")

		fmt.Fprintf(w, "%.3f\t%s\t%d\t%s\n",
			result.Score,
			truncate(source, 25),
			result.Index,
			truncate(preview, 60))
	}
	w.Flush()

	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nFound %d result(s)\n", len(results))
	}

	return nil
}
