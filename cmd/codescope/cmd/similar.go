package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// similarOptions holds CLI flags for similar.
type similarOptions struct {
	limit       int
	repo        string
	language    string
	excludeSelf bool
	format      string
}

func newSimilarCmd(flags *rootFlags) *cobra.Command {
	var opts similarOptions

	cmd := &cobra.Command{
		Use:   "similar [file]",
		Short: "Find code similar to a snippet",
		Long: `Find indexed code similar to a snippet, read from a file or stdin.

Examples:
  codescope similar snippet.py --repo my-service
  cat snippet.py | codescope similar --exclude-self`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snippet, err := readSnippet(cmd, args)
			if err != nil {
				return err
			}
			return runSimilar(cmd, flags, snippet, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.repo, "repo", "r", "", "Restrict to one repository")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Filter by language")
	cmd.Flags().BoolVar(&opts.excludeSelf, "exclude-self", false, "Drop the exact snippet from results")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func readSnippet(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("read snippet: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read snippet from stdin: %w", err)
	}
	return string(data), nil
}

func runSimilar(cmd *cobra.Command, flags *rootFlags, snippet string, opts similarOptions) error {
	a, err := newApp(flags)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.service.FindSimilar(cmd.Context(),
		snippet, opts.limit, opts.repo, opts.language, opts.excludeSelf)
	if err != nil {
		return userFacingError(err)
	}
	return renderResults(cmd, "similar code", results, opts.format)
}
