// ABOUTME: Root command and global flags for the biorag CLI
// ABOUTME: Wires every subcommand and the --config/--verbose/--quiet/--format flags
package commands

import (
	"github.com/spf13/cobra"
)

var (
	configPath   string
	verbose      bool
	quiet        bool
	outputFormat string
)

const banner = `
██████╗ ██╗ ██████╗ ██████╗  █████╗  ██████╗
██╔══██╗██║██╔═══██╗██╔══██╗██╔══██╗██╔════╝
██████╔╝██║██║   ██║██████╔╝███████║██║  ███╗
██╔══██╗██║██║   ██║██╔══██╗██╔══██║██║   ██║
██████╔╝██║╚██████╔╝██║  ██║██║  ██║╚██████╔╝
╚═════╝ ╚═╝ ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝`

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "biorag",
		Short: "Question answering over bioinformatics papers and code",
		Long: banner + `

BioRAG ingests papers (PDF, text, markdown) and analysis code into a local
corpus of embedded chunks, then answers questions by retrieving the most
similar chunks and asking a language model to answer from them.

Embeddings and answers are cached, so repeated work is free. The corpus is
saved as a single snapshot file and can be backed up and restored.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: config.yaml searched upward from the working directory)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only print results and errors")
	cmd.PersistentFlags().StringVar(&outputFormat, "format", "auto", "output format: auto, text or json")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(NewIngestCmd())
	cmd.AddCommand(NewQueryCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewStatsCmd())
	cmd.AddCommand(NewResearchCmd())
	cmd.AddCommand(NewEvalCmd())
	cmd.AddCommand(NewChatCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMCPCmd())
	cmd.AddCommand(NewBackupCmd())
	cmd.AddCommand(NewCacheCmd())
	cmd.AddCommand(NewSyncCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
