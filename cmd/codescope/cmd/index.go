package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codescope/codescope/internal/chunk"
	"github.com/codescope/codescope/internal/index"
	"github.com/codescope/codescope/internal/output"
)

func newIndexCmd(flags *rootFlags) *cobra.Command {
	var repo string

	cmd := &cobra.Command{
		Use:   "index <chunks.ndjson>",
		Short: "Index extracted chunk records",
		Long: `Index chunk records produced by an external extraction step.

The input is newline-delimited JSON, one chunk per line, with the fields
repository_id, file_path, language, symbol_type, symbol_name, start_line,
end_line, and source_text.

Example:
  codescope index chunks.ndjson --repo my-service`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, flags, args[0], repo)
		},
	}

	cmd.Flags().StringVarP(&repo, "repo", "r", "", "Repository identifier (required)")
	_ = cmd.MarkFlagRequired("repo")

	return cmd
}

func runIndex(cmd *cobra.Command, flags *rootFlags, path, repo string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open chunk file: %w", err)
	}
	defer f.Close()

	chunks, err := chunk.ReadNDJSON(f)
	if err != nil {
		return userFacingError(err)
	}

	a, err := newApp(flags)
	if err != nil {
		return err
	}
	defer a.Close()

	out := output.New(cmd.OutOrStdout())
	report, err := a.service.IndexRepository(cmd.Context(), repo, chunks)
	if report != nil {
		printReport(out, report)
	}
	if err != nil {
		return userFacingError(err)
	}
	if err := a.index.Flush(); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	return nil
}

func printReport(out *output.Writer, report *index.Report) {
	switch report.Status {
	case index.StatusCompleted:
		out.Success("Indexed %s: %d chunks in %d batches (%s)",
			report.RepositoryID, report.Succeeded, report.Batches, report.Duration.Round(time.Millisecond))
		if report.Failed > 0 {
			out.Warning("%d chunks failed; see logs", report.Failed)
		}
	case index.StatusFailed:
		out.Error("Indexing %s failed: %d succeeded, %d failed",
			report.RepositoryID, report.Succeeded, report.Failed)
		for _, msg := range report.BatchErrors {
			out.Detail("  %s", msg)
		}
	}
}
