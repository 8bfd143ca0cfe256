package cmd

import (
	"fmt"
	"log/slog"

	"github.com/codescope/codescope/internal/cache"
	"github.com/codescope/codescope/internal/config"
	"github.com/codescope/codescope/internal/embed"
	"github.com/codescope/codescope/internal/logging"
	"github.com/codescope/codescope/internal/search"
	"github.com/codescope/codescope/internal/store"
)

// app owns the wired collaborators for one CLI invocation. Everything is
// constructed once here and passed explicitly into the service.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	embedder embed.Provider
	index    *store.LocalIndex
	cache    *cache.Cache
	service  *search.Service

	logCleanup func()
}

// newApp loads configuration and wires the pipeline.
func newApp(flags *rootFlags) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.dataDir != "" {
		cfg.Store.DataDir = flags.dataDir
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	if flags.debug {
		logCfg = logging.DebugConfig()
	}
	logger, logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, logCleanup: logCleanup}

	a.embedder = buildEmbedder(cfg, flags.offline)
	a.index, err = store.OpenLocalIndex(cfg.Store.DataDir, a.embedder.Dimensions())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open index: %w", err)
	}

	a.cache, err = cache.New(cache.Options{
		Enabled:       cfg.Cache.Enabled,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
		Timeout:       cfg.Cache.Timeout,
		LocalCapacity: cfg.Cache.LocalCapacity,
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init cache: %w", err)
	}

	a.service = search.NewService(cfg, a.embedder, a.index, a.cache, logger)
	return a, nil
}

// buildEmbedder selects the provider and wraps it with the query-embedding
// memoization layer.
func buildEmbedder(cfg *config.Config, offline bool) embed.Provider {
	var inner embed.Provider
	if offline || cfg.Embeddings.Provider == "static" {
		inner = embed.NewStaticProvider(cfg.Embeddings.Dimensions)
	} else {
		inner = embed.NewOllamaProvider(embed.OllamaConfig{
			Host:       cfg.Embeddings.OllamaHost,
			Model:      cfg.Embeddings.Model,
			Dimensions: cfg.Embeddings.Dimensions,
			Timeout:    cfg.Search.EmbedTimeout,
		})
	}
	return embed.NewCachedProvider(inner, cfg.Embeddings.CacheSize)
}

// Close releases resources in reverse construction order.
func (a *app) Close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.index != nil {
		if err := a.index.Close(); err != nil {
			a.logger.Error("closing index", "error", err)
		}
	}
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	if a.logCleanup != nil {
		a.logCleanup()
	}
}
