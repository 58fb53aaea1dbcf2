// ABOUTME: Sync commands for the Charm cloud cache backend
// ABOUTME: Provides status and an immediate sync of cached embeddings and answers
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/biorag/internal/charm"
	"github.com/harper/biorag/internal/config"
)

// NewSyncCmd creates the sync command group
func NewSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage Charm cloud synchronization of the cache",
		Long: `Manage synchronization of the cache with Charm cloud.

With cache_backend set to "charm", embeddings and answers are kept in a
Charm KV database that syncs across devices linked to the same Charm
account. Other backends keep the cache local only.`,
	}

	cmd.AddCommand(newSyncStatusCmd())
	cmd.AddCommand(newSyncNowCmd())

	return cmd
}

func openCharm() (*config.Config, *charm.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := charm.NewClient(cfg.Charm)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Charm: %w", err)
	}
	return cfg, client, nil
}

func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status and connection info",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := openCharm()
			if err != nil {
				return err
			}
			defer client.Close()

			keys, err := client.ListKeys(charm.CachePrefix)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Host: %s\n", cfg.Charm.Host)
			fmt.Fprintf(out, "Database: %s\n", cfg.Charm.DBName)
			fmt.Fprintf(out, "Auto sync: %t\n", cfg.Charm.AutoSync)
			fmt.Fprintf(out, "Cached entries: %d\n", len(keys))
			if cfg.RAG.CacheBackend != config.CacheCharm {
				fmt.Fprintf(out, "Note: cache_backend is %q, so new entries are not written here\n", cfg.RAG.CacheBackend)
			}
			return nil
		},
	}
}

func newSyncNowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "now",
		Short: "Force immediate sync with Charm cloud",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, client, err := openCharm()
			if err != nil {
				return err
			}
			defer client.Close()

			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Syncing...\n")
			}
			if err := client.Sync(); err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Sync complete\n")
			}
			return nil
		},
	}
}
