// ABOUTME: Cache commands for the embedding and answer cache
// ABOUTME: Clearing forces later queries and ingests back to the backends
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCacheCmd creates the cache command group
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the embedding and answer cache",
	}

	cmd.AddCommand(newCacheClearCmd())

	return cmd
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached embedding and answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openBase(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			a.cache.Clear()
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared (%s)\n", a.cfg.RAG.CacheBackend)
			}
			return nil
		},
	}
}
