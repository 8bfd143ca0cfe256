package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codescope/codescope/configs"
	"github.com/codescope/codescope/internal/config"
	"github.com/codescope/codescope/internal/output"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter codescope.yaml in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			if _, err := os.Stat(config.DefaultConfigFile); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", config.DefaultConfigFile)
			}
			if err := os.WriteFile(config.DefaultConfigFile, []byte(configs.ExampleConfig), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", config.DefaultConfigFile, err)
			}
			out.Success("Wrote %s", config.DefaultConfigFile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
