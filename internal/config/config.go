// Package config loads and validates codescope configuration.
//
// Precedence, lowest to highest:
//  1. Built-in defaults
//  2. YAML config file (--config or ./codescope.yaml)
//  3. Environment variables (CODESCOPE_*)
package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	cserrors "github.com/codescope/codescope/internal/errors"
)

// DefaultConfigFile is the config file looked up in the working directory.
const DefaultConfigFile = "codescope.yaml"

// Config is the complete codescope configuration.
type Config struct {
	Search     SearchConfig     `yaml:"search"`
	Rerank     RerankConfig     `yaml:"rerank"`
	Cache      CacheConfig      `yaml:"cache"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Indexing   IndexingConfig   `yaml:"indexing"`
	Store      StoreConfig      `yaml:"store"`
	LogLevel   string           `yaml:"log_level"`
}

// SearchConfig configures the retrieval pipeline.
type SearchConfig struct {
	// DefaultTopK is the result count used when a query does not set one.
	DefaultTopK int `yaml:"default_top_k"`

	// MaxTopK caps the per-query top_k.
	MaxTopK int `yaml:"max_top_k"`

	// MinScore is the global score threshold; results below it never
	// surface. Queries may override it upward or downward.
	MinScore float64 `yaml:"min_score"`

	// OverfetchFactor multiplies top_k when requesting candidates from the
	// vector index, giving the reranker a larger pool.
	OverfetchFactor int `yaml:"overfetch_factor"`

	// RetrievalTimeout bounds each vector index lookup.
	RetrievalTimeout time.Duration `yaml:"retrieval_timeout"`

	// EmbedTimeout bounds each embedding provider call.
	EmbedTimeout time.Duration `yaml:"embed_timeout"`
}

// RerankConfig holds the rerank signal weights. Weights must sum to 1.0
// so that the final score stays in [0,1].
type RerankConfig struct {
	// VectorWeight is the weight of the raw vector similarity score.
	VectorWeight float64 `yaml:"vector_weight"`

	// LexicalWeight is the weight of the token-overlap score.
	LexicalWeight float64 `yaml:"lexical_weight"`

	// SymbolNameWeight is the bonus weight for an exact symbol-name match.
	SymbolNameWeight float64 `yaml:"symbol_name_weight"`

	// SymbolTypeWeight is the bonus weight when the query asks for a
	// symbol type ("function", "call") and the candidate matches it.
	SymbolTypeWeight float64 `yaml:"symbol_type_weight"`
}

// CacheConfig configures the two-tier result cache.
type CacheConfig struct {
	// Enabled toggles result caching entirely.
	Enabled bool `yaml:"enabled"`

	// RedisAddr is the primary backend address. Empty disables the
	// distributed tier; the local tier is always available.
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Timeout bounds each cache backend call. A timeout is a miss.
	Timeout time.Duration `yaml:"timeout"`

	// SearchTTL is the TTL for cached search results.
	SearchTTL time.Duration `yaml:"search_ttl"`

	// IndexTTL is the TTL for cached index-run status lookups.
	IndexTTL time.Duration `yaml:"index_ttl"`

	// GeneralTTL is the TTL for everything else.
	GeneralTTL time.Duration `yaml:"general_ttl"`

	// LocalCapacity bounds the in-process fallback tier (LRU eviction).
	LocalCapacity int `yaml:"local_capacity"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the embedder: "ollama" or "static".
	Provider string `yaml:"provider"`

	// Model is the embedding model name.
	Model string `yaml:"model"`

	// Dimensions is the fixed embedding dimensionality. All chunks and
	// queries in one deployment share it.
	Dimensions int `yaml:"dimensions"`

	// OllamaHost is the Ollama API endpoint.
	OllamaHost string `yaml:"ollama_host"`

	// CacheSize is the LRU size for memoized query embeddings.
	CacheSize int `yaml:"cache_size"`
}

// IndexingConfig configures the indexing pipeline.
type IndexingConfig struct {
	// BatchSize is the number of chunks embedded and upserted per batch.
	BatchSize int `yaml:"batch_size"`
}

// StoreConfig configures the bundled local vector index.
type StoreConfig struct {
	// DataDir is where the local index persists its graph and payloads.
	DataDir string `yaml:"data_dir"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			DefaultTopK:      10,
			MaxTopK:          100,
			MinScore:         0.30,
			OverfetchFactor:  4,
			RetrievalTimeout: 5 * time.Second,
			EmbedTimeout:     30 * time.Second,
		},
		Rerank: RerankConfig{
			VectorWeight:     0.65,
			LexicalWeight:    0.25,
			SymbolNameWeight: 0.07,
			SymbolTypeWeight: 0.03,
		},
		Cache: CacheConfig{
			Enabled:       true,
			RedisAddr:     "",
			Timeout:       250 * time.Millisecond,
			SearchTTL:     time.Hour,
			IndexTTL:      5 * time.Minute,
			GeneralTTL:    30 * time.Minute,
			LocalCapacity: 1024,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "ollama",
			Model:      "unclemusclez/jina-embeddings-v2-base-code",
			Dimensions: 768,
			OllamaHost: "http://localhost:11434",
			CacheSize:  1000,
		},
		Indexing: IndexingConfig{
			BatchSize: 64,
		},
		Store: StoreConfig{
			DataDir: ".codescope",
		},
		LogLevel: "info",
	}
}

// Load reads configuration from path (optional), applies environment
// overrides, validates, and returns the result.
// An empty path means "use ./codescope.yaml if present".
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, cserrors.New(cserrors.ErrCodeConfigInvalid,
				fmt.Sprintf("parse %s: %v", path, err), err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file is fine; defaults apply.
	default:
		return nil, cserrors.New(cserrors.ErrCodeConfigNotFound,
			fmt.Sprintf("read %s: %v", path, err), err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies CODESCOPE_* environment variables.
// Env vars have the highest precedence.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CODESCOPE_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("CODESCOPE_REDIS_PASSWORD"); v != "" {
		c.Cache.RedisPassword = v
	}
	if v := os.Getenv("CODESCOPE_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("CODESCOPE_EMBED_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("CODESCOPE_DATA_DIR"); v != "" {
		c.Store.DataDir = v
	}
	if v := os.Getenv("CODESCOPE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("CODESCOPE_MIN_SCORE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.MinScore = f
		}
	}
	if v := os.Getenv("CODESCOPE_MAX_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.MaxTopK = n
		}
	}
	if v := os.Getenv("CODESCOPE_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Cache.Enabled = b
		}
	}
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.Search.MaxTopK < 1 {
		return cserrors.New(cserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("search.max_top_k must be >= 1, got %d", c.Search.MaxTopK), nil)
	}
	if c.Search.DefaultTopK < 1 || c.Search.DefaultTopK > c.Search.MaxTopK {
		return cserrors.New(cserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("search.default_top_k must be in [1, %d], got %d",
				c.Search.MaxTopK, c.Search.DefaultTopK), nil)
	}
	if c.Search.MinScore < 0 || c.Search.MinScore > 1 {
		return cserrors.New(cserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("search.min_score must be in [0,1], got %g", c.Search.MinScore), nil)
	}
	if c.Search.OverfetchFactor < 1 {
		return cserrors.New(cserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("search.overfetch_factor must be >= 1, got %d", c.Search.OverfetchFactor), nil)
	}

	sum := c.Rerank.VectorWeight + c.Rerank.LexicalWeight +
		c.Rerank.SymbolNameWeight + c.Rerank.SymbolTypeWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return cserrors.New(cserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("rerank weights must sum to 1.0, got %g", sum), nil)
	}
	for name, w := range map[string]float64{
		"vector_weight":      c.Rerank.VectorWeight,
		"lexical_weight":     c.Rerank.LexicalWeight,
		"symbol_name_weight": c.Rerank.SymbolNameWeight,
		"symbol_type_weight": c.Rerank.SymbolTypeWeight,
	} {
		if w < 0 {
			return cserrors.New(cserrors.ErrCodeConfigInvalid,
				fmt.Sprintf("rerank.%s must be >= 0, got %g", name, w), nil)
		}
	}

	if c.Embeddings.Dimensions < 1 {
		return cserrors.New(cserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("embeddings.dimensions must be >= 1, got %d", c.Embeddings.Dimensions), nil)
	}
	if c.Indexing.BatchSize < 1 {
		return cserrors.New(cserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("indexing.batch_size must be >= 1, got %d", c.Indexing.BatchSize), nil)
	}
	if c.Cache.LocalCapacity < 1 {
		return cserrors.New(cserrors.ErrCodeConfigInvalid,
			fmt.Sprintf("cache.local_capacity must be >= 1, got %d", c.Cache.LocalCapacity), nil)
	}
	return nil
}
