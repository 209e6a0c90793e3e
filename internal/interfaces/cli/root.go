// Package cli implements the rxmatch command-line client: one-shot matching
// against the configured catalog, schema migration, index rebuilds, and
// catalog dump ingestion.
package cli

import (
	"github.com/spf13/cobra"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var configPath string

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rxmatch",
		Short:         "Medicine mention matching against the ground-truth catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "path to configuration file")

	root.AddCommand(
		newMatchCmd(),
		newMigrateCmd(),
		newSyncCmd(),
		newIngestCmd(),
		newVersionCmd(),
	)
	return root
}
