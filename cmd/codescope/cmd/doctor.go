package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codescope/codescope/internal/output"
)

func newDoctorCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that collaborating backends are reachable",
		Long: `Check the embedding provider, cache backend, and index data directory.

Each check reports independently; a degraded cache backend is not fatal
because search falls back to the in-process tier.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, flags)
		},
	}
}

func runDoctor(cmd *cobra.Command, flags *rootFlags) error {
	a, err := newApp(flags)
	if err != nil {
		return err
	}
	defer a.Close()

	out := output.New(cmd.OutOrStdout())
	ctx := cmd.Context()
	failed := false

	if a.embedder.Available(ctx) {
		out.Success("embedding provider: ok (%s)", a.embedder.ModelName())
	} else {
		out.Error("embedding provider: unreachable (%s)", a.embedder.ModelName())
		failed = true
	}

	if !a.cfg.Cache.Enabled {
		out.Detail("cache: disabled")
	} else if a.cfg.Cache.RedisAddr == "" {
		out.Detail("cache: local tier only")
	} else if err := a.cache.Ping(ctx); err != nil {
		out.Warning("cache backend %s: unreachable, will fall back to local tier (%v)",
			a.cfg.Cache.RedisAddr, err)
	} else {
		out.Success("cache backend: ok (%s)", a.cfg.Cache.RedisAddr)
	}

	probe := filepath.Join(a.cfg.Store.DataDir, ".probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		out.Error("data dir %s: not writable (%v)", a.cfg.Store.DataDir, err)
		failed = true
	} else {
		_ = os.Remove(probe)
		vectors, _ := a.index.Count(ctx)
		out.Success("data dir: ok (%s, %d vectors)", a.cfg.Store.DataDir, vectors)
	}

	if failed {
		return fmt.Errorf("one or more checks failed")
	}
	return nil
}
