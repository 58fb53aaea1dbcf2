// ABOUTME: CLI command to ingest papers and code into the corpus
// ABOUTME: Each file is added all-or-nothing; failures are reported and skipped
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/biorag/internal/docsource"
)

// ingestResult is one file's outcome
type ingestResult struct {
	Path   string `json:"path"`
	Chunks int    `json:"chunks"`
	Error  string `json:"error,omitempty"`
}

// NewIngestCmd creates the ingest command
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [path...]",
		Short: "Add papers and code to the corpus",
		Long: `Load PDF, text, markdown and source code files, split them into token
chunks, embed every chunk and add them to the corpus.

Paths may be files or directories; directories are searched recursively.
With no paths, the configured papers and code directories are ingested.
A file whose embedding fails is skipped and the corpus is left as it was
before that file. The snapshot is saved once at the end.

Examples:
  biorag ingest
  biorag ingest papers/crispr.pdf
  biorag ingest --format json ~/analysis/scripts`,
		RunE: runIngest,
	}

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	roots := args
	if len(roots) == 0 {
		roots = []string{a.cfg.Paths.Papers, a.cfg.Paths.Code}
	}

	var files []string
	for _, root := range roots {
		found, err := docsource.FindFiles(root)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "No supported files found\n")
		}
		return nil
	}

	ctx := cmd.Context()
	results := make([]ingestResult, 0, len(files))
	added, failed := 0, 0
	for _, path := range files {
		r := ingestResult{Path: path}
		doc, err := docsource.Load(path)
		if err == nil {
			r.Chunks, err = a.engine.AddDocument(ctx, doc.Text, doc.Metadata)
		}
		if err != nil {
			r.Error = err.Error()
			failed++
			a.logger.Warn("skipping file", "path", path, "err", err)
		} else {
			added += r.Chunks
		}
		results = append(results, r)

		if outputFormat != "json" && !quiet {
			if r.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %s\n", path, r.Error)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s (%d chunks)\n", path, r.Chunks)
			}
		}
	}

	if added > 0 {
		if err := a.save(); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
	}

	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
	} else if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "\nAdded %d chunk(s) from %d file(s), %d failed. Corpus now has %d chunks.\n",
			added, len(files)-failed, failed, a.engine.Len())
	}

	if failed == len(files) {
		return fmt.Errorf("all %d file(s) failed to ingest", failed)
	}
	return nil
}
