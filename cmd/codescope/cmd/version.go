package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/codescope/codescope/internal/output"
	"github.com/codescope/codescope/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())
			info := version.Info()
			if format == "json" {
				payload, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				out.Printf("%s", payload)
				return nil
			}
			out.Printf("%s", info)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}
