package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/codescope/codescope/internal/cache"
	"github.com/codescope/codescope/internal/chunk"
	"github.com/codescope/codescope/internal/config"
	"github.com/codescope/codescope/internal/embed"
	"github.com/codescope/codescope/internal/index"
	"github.com/codescope/codescope/internal/store"
)

// Service is the search surface offered to transports: cached search,
// code-to-code similarity, repository indexing, and cache stats.
//
// A Service is constructed once at process start with its collaborators
// passed in explicitly; every method is safe for concurrent use.
type Service struct {
	normalizer *Normalizer
	expander   *Expander
	retriever  *Retriever
	reranker   *Reranker
	pipeline   *index.Pipeline
	cache      *cache.Cache
	minScore   float64
	searchTTL  time.Duration
	indexTTL   time.Duration
	logger     *slog.Logger
}

// NewService wires the pipeline from configuration and collaborators.
func NewService(cfg *config.Config, embedder embed.Provider, vectorIndex store.VectorIndex, resultCache *cache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	weights := Weights{
		Vector:     cfg.Rerank.VectorWeight,
		Lexical:    cfg.Rerank.LexicalWeight,
		SymbolName: cfg.Rerank.SymbolNameWeight,
		SymbolType: cfg.Rerank.SymbolTypeWeight,
	}
	return &Service{
		normalizer: NewNormalizer(cfg.Search.MaxTopK),
		expander:   NewExpander(),
		retriever: NewRetriever(embedder, vectorIndex, cfg.Search.OverfetchFactor,
			cfg.Search.EmbedTimeout, cfg.Search.RetrievalTimeout, logger),
		reranker:  NewReranker(weights),
		pipeline:  index.NewPipeline(embedder, vectorIndex, resultCache, cfg.Indexing.BatchSize, logger),
		cache:     resultCache,
		minScore:  cfg.Search.MinScore,
		searchTTL: cfg.Cache.SearchTTL,
		indexTTL:  cfg.Cache.IndexTTL,
		logger:    logger,
	}
}

// Search runs the full pipeline for one query: normalize, cache lookup,
// expand, retrieve, score, rerank, dedupe, threshold, truncate, cache
// store. Validation failures return before any retrieval call.
func (s *Service) Search(ctx context.Context, q Query) ([]*RankedResult, error) {
	q, err := s.normalizer.Normalize(q)
	if err != nil {
		return nil, err
	}

	// A per-query threshold override changes the output for the same key
	// fields, so those requests bypass the cache entirely.
	cacheable := q.MinScore == nil
	key := cache.SearchKey(q.Text, q.TopK, q.RepositoryFilter, q.LanguageFilter,
		string(q.Mode), SynonymsVersion)

	if cacheable {
		if results, ok := s.cachedResults(ctx, key); ok {
			s.logger.Debug("search served from cache", "query", q.Text, "results", len(results))
			return results, nil
		}
	}

	results, err := s.run(ctx, q)
	if err != nil {
		return nil, err
	}

	if cacheable {
		s.storeResults(ctx, key, q.RepositoryFilter, results)
	}
	return results, nil
}

// FindSimilar matches a code snippet against the index (code-to-code
// mode). When excludeSelf is set, results whose source text exactly
// matches the snippet are removed; excluding everything yields a valid
// empty result.
func (s *Service) FindSimilar(ctx context.Context, snippet string, topK int, repositoryFilter, languageFilter string, excludeSelf bool) ([]*RankedResult, error) {
	results, err := s.Search(ctx, Query{
		Text:             snippet,
		TopK:             topK,
		RepositoryFilter: repositoryFilter,
		LanguageFilter:   languageFilter,
		Mode:             ModeCodeToCode,
	})
	if err != nil {
		return nil, err
	}
	if !excludeSelf {
		return results, nil
	}

	self := strings.TrimSpace(snippet)
	kept := make([]*RankedResult, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.Chunk.SourceText) == self {
			continue
		}
		kept = append(kept, r)
	}
	return kept, nil
}

// IndexRepository indexes chunk records for a repository and invalidates
// its cached results on success. The run's report is cached briefly so
// status lookups do not hit the index.
func (s *Service) IndexRepository(ctx context.Context, repositoryID string, chunks []*chunk.Chunk) (*index.Report, error) {
	report, err := s.pipeline.Run(ctx, repositoryID, chunks)
	if err == nil && report != nil {
		if payload, merr := json.Marshal(report); merr == nil {
			s.cache.Set(ctx, cache.IndexReportKey(repositoryID), payload, repositoryID, s.indexTTL)
		}
	}
	return report, err
}

// LastIndexReport returns the cached report of the repository's most
// recent indexing run, if one is still within its TTL.
func (s *Service) LastIndexReport(ctx context.Context, repositoryID string) (*index.Report, bool) {
	payload, ok := s.cache.Get(ctx, cache.IndexReportKey(repositoryID))
	if !ok {
		return nil, false
	}
	var report index.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, false
	}
	return &report, true
}

// CacheStats returns a snapshot of result-cache activity.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// run executes the uncached pipeline stages for a normalized query.
func (s *Service) run(ctx context.Context, q Query) ([]*RankedResult, error) {
	// Synonym expansion bridges natural-language vocabulary to code; a
	// code snippet is already in code vocabulary.
	var expansions []string
	if q.Mode == ModeTextToCode {
		expansions = s.expander.Expand(q.Text)
	}

	candidates, err := s.retriever.Retrieve(ctx, q, expansions)
	if err != nil {
		return nil, err
	}

	lexicalQuery := q.Text
	if len(expansions) > 0 {
		lexicalQuery += " " + strings.Join(expansions, " ")
	}
	for _, cand := range candidates {
		cand.LexicalScore = LexicalScore(lexicalQuery, cand.Chunk.SourceText)
	}

	ranked := Dedupe(s.reranker.Rank(q, candidates))

	minScore := s.minScore
	if q.MinScore != nil {
		minScore = *q.MinScore
	}
	results := make([]*RankedResult, 0, q.TopK)
	for _, r := range ranked {
		if r.Score < minScore {
			continue
		}
		results = append(results, r)
		if len(results) == q.TopK {
			break
		}
	}

	s.logger.Debug("search completed",
		"query", q.Text, "mode", string(q.Mode),
		"candidates", len(candidates), "results", len(results))
	return results, nil
}

// cachedResults decodes a cache hit; a corrupt entry counts as a miss.
func (s *Service) cachedResults(ctx context.Context, key string) ([]*RankedResult, bool) {
	payload, ok := s.cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var results []*RankedResult
	if err := json.Unmarshal(payload, &results); err != nil {
		s.logger.Warn("discarding corrupt cache entry", "key", key, "error", err)
		return nil, false
	}
	return results, true
}

func (s *Service) storeResults(ctx context.Context, key, repositoryID string, results []*RankedResult) {
	payload, err := json.Marshal(results)
	if err != nil {
		s.logger.Warn("failed to encode results for cache", "key", key, "error", err)
		return
	}
	s.cache.Set(ctx, key, payload, repositoryID, s.searchTTL)
}
