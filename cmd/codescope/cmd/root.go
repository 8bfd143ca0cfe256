// Package cmd provides the CLI commands for codescope.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codescope/codescope/pkg/version"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	dataDir    string
	offline    bool
	debug      bool
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "codescope",
		Short: "Semantic code search over indexed repositories",
		Long: `codescope finds code by meaning: queries (natural language or code
snippets) are matched against indexed function bodies and call sites,
ranked by combined semantic and lexical relevance, and returned with
file and line provenance.

Index extracted chunk records first, then search:

  codescope index chunks.ndjson --repo my-service
  codescope search "render html template" --repo my-service`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("codescope version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file path (default ./codescope.yaml if present)")
	cmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "Index data directory (overrides config)")
	cmd.PersistentFlags().BoolVar(&flags.offline, "offline", false, "Use static embeddings (no model backend required)")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newSearchCmd(&flags))
	cmd.AddCommand(newSimilarCmd(&flags))
	cmd.AddCommand(newIndexCmd(&flags))
	cmd.AddCommand(newStatsCmd(&flags))
	cmd.AddCommand(newDoctorCmd(&flags))
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI.
func Execute() error {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
