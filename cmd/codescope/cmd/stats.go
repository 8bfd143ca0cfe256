package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/codescope/codescope/internal/index"
	"github.com/codescope/codescope/internal/output"
)

func newStatsCmd(flags *rootFlags) *cobra.Command {
	var format string
	var repo string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index and cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, flags, format, repo)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().StringVarP(&repo, "repo", "r", "", "Also show the repository's last indexing run")
	return cmd
}

func runStats(cmd *cobra.Command, flags *rootFlags, format, repo string) error {
	a, err := newApp(flags)
	if err != nil {
		return err
	}
	defer a.Close()

	vectors, err := a.index.Count(cmd.Context())
	if err != nil {
		return userFacingError(err)
	}
	cacheStats := a.service.CacheStats()

	var lastRun any
	if repo != "" {
		if report, ok := a.service.LastIndexReport(cmd.Context(), repo); ok {
			lastRun = report
		}
	}

	out := output.New(cmd.OutOrStdout())
	if format == "json" {
		payload, err := json.MarshalIndent(map[string]any{
			"vectors":  vectors,
			"cache":    cacheStats,
			"last_run": lastRun,
		}, "", "  ")
		if err != nil {
			return err
		}
		out.Printf("%s", payload)
		return nil
	}

	out.Heading("Index")
	out.Printf("  vectors:   %d", vectors)
	out.Printf("  data dir:  %s", a.cfg.Store.DataDir)
	out.Newline()
	out.Heading("Cache")
	out.Printf("  enabled:       %v", a.cfg.Cache.Enabled)
	out.Printf("  remote tier:   %v", cacheStats.RemoteActive)
	out.Printf("  local entries: %d", cacheStats.LocalEntries)
	out.Printf("  hits/misses:   %d/%d", cacheStats.Hits, cacheStats.Misses)

	if report, ok := lastRun.(*index.Report); ok {
		out.Newline()
		out.Heading("Last indexing run (%s)", report.RepositoryID)
		out.Printf("  status:    %s", report.Status)
		out.Printf("  succeeded: %d", report.Succeeded)
		out.Printf("  failed:    %d", report.Failed)
	}
	return nil
}
