// ABOUTME: Backup commands for the corpus snapshot
// ABOUTME: Provides create, list and restore; restore always backs up the current snapshot first
package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harper/biorag/internal/backup"
)

// NewBackupCmd creates the backup command group
func NewBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage corpus snapshot backups",
		Long: `Create, list and restore timestamped copies of the corpus snapshot.

Backups are plain copies of the snapshot file. Restoring validates the
backup and saves a safety backup of the current snapshot before replacing it.`,
	}

	cmd.AddCommand(newBackupCreateCmd())
	cmd.AddCommand(newBackupListCmd())
	cmd.AddCommand(newBackupRestoreCmd())

	return cmd
}

func backupManager() (*backup.Manager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return backup.NewManager(cfg.Paths.Snapshot, cfg.Paths.Backups, nil), nil
}

func newBackupCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Back up the current snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := backupManager()
			if err != nil {
				return err
			}
			path, err := mgr.Create()
			if err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Backup created: %s\n", path)
			}
			return nil
		},
	}
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := backupManager()
			if err != nil {
				return err
			}
			backups, err := mgr.List()
			if err != nil {
				return err
			}

			if outputFormat == "json" {
				jsonData, err := json.MarshalIndent(backups, "", "  ")
				if err != nil {
					return fmt.Errorf("marshaling JSON: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", jsonData)
				return nil
			}

			if len(backups) == 0 {
				if !quiet {
					fmt.Fprintf(cmd.OutOrStdout(), "No backups found\n")
				}
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "NAME\tSIZE\tCREATED\n")
			fmt.Fprintf(w, "----\t----\t-------\n")
			for _, b := range backups {
				fmt.Fprintf(w, "%s\t%s\t%s\n", b.Name, formatSize(b.Size), formatTime(b.ModTime))
			}
			w.Flush()
			return nil
		},
	}
}

func newBackupRestoreCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "restore <backup>",
		Short: "Replace the snapshot with a backup",
		Long: `Replace the corpus snapshot with a backup. The backup may be a path or a
file name from 'biorag backup list'. The current snapshot is backed up first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				fmt.Fprintf(cmd.OutOrStdout(), "This will replace the current corpus snapshot!\n")
				fmt.Fprintf(cmd.OutOrStdout(), "Run with --confirm to proceed\n")
				return nil
			}

			mgr, err := backupManager()
			if err != nil {
				return err
			}
			safety, err := mgr.Restore(args[0])
			if err != nil {
				return err
			}
			if !quiet {
				if safety != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Previous snapshot saved to %s\n", safety)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the restore operation")

	return cmd
}
