// ABOUTME: CLI command to describe the saved corpus and active configuration
// ABOUTME: Reads the snapshot directly, so it works without API credentials
package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/biorag/internal/backup"
)

// statsOutput is the JSON shape of the stats command
type statsOutput struct {
	Snapshot     string        `json:"snapshot"`
	Exists       bool          `json:"exists"`
	Corpus       *backup.Stats `json:"corpus,omitempty"`
	Backups      int           `json:"backups"`
	CacheBackend string        `json:"cache_backend"`
	ConfigFile   string        `json:"config_file,omitempty"`
}

// NewStatsCmd creates the stats command
func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show corpus statistics",
		Long: `Show the number of chunks in the saved corpus, the models it was built
with, when it was last saved and how many backups exist.`,
		Args: cobra.NoArgs,
		RunE: runStats,
	}

	return cmd
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mgr := backup.NewManager(cfg.Paths.Snapshot, cfg.Paths.Backups, nil)
	out := statsOutput{
		Snapshot:     cfg.Paths.Snapshot,
		CacheBackend: cfg.RAG.CacheBackend,
		ConfigFile:   cfg.File,
	}
	if cfg.SnapshotExists() {
		out.Exists = true
		out.Corpus, err = mgr.Stats()
		if err != nil {
			return err
		}
	}
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	out.Backups = len(backups)

	if outputFormat == "json" {
		jsonData, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Snapshot:\t%s\n", out.Snapshot)
	if out.Corpus == nil {
		fmt.Fprintf(w, "Status:\tno corpus yet, run 'biorag ingest'\n")
	} else {
		fmt.Fprintf(w, "Chunks:\t%d\n", out.Corpus.Chunks)
		fmt.Fprintf(w, "Embeddings:\t%d\n", out.Corpus.Embeddings)
		fmt.Fprintf(w, "Generation model:\t%s\n", out.Corpus.GenerationModel)
		fmt.Fprintf(w, "Embedding model:\t%s\n", out.Corpus.EmbeddingModel)
		fmt.Fprintf(w, "Saved:\t%s\n", formatTime(out.Corpus.SavedAt))
		fmt.Fprintf(w, "Size:\t%s\n", formatSize(out.Corpus.Size))
	}
	fmt.Fprintf(w, "Backups:\t%d\n", out.Backups)
	fmt.Fprintf(w, "Cache:\t%s\n", out.CacheBackend)
	if out.ConfigFile != "" {
		fmt.Fprintf(w, "Config:\t%s\n", out.ConfigFile)
	} else if verbose {
		fmt.Fprintf(w, "Config:\t(defaults)\n")
	}
	w.Flush()

	return nil
}
