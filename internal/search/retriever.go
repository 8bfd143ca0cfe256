package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codescope/codescope/internal/chunk"
	"github.com/codescope/codescope/internal/embed"
	cserrors "github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/store"
)

// embeddingSpaces are the per-symbol-type lookup spaces. The retriever
// issues one nearest-neighbor lookup per space so function bodies and call
// sites both contribute candidates.
var embeddingSpaces = []chunk.SymbolType{
	chunk.SymbolTypeFunction,
	chunk.SymbolTypeCall,
}

// Retriever embeds query texts and gathers a deduplicated candidate union
// from the vector index. Lookups for the original query are required;
// expanded-query lookups are opportunistic and their failures only cost
// recall.
type Retriever struct {
	embedder      embed.Provider
	index         store.VectorIndex
	overfetch     int
	embedTimeout  time.Duration
	lookupTimeout time.Duration
	logger        *slog.Logger
}

// NewRetriever wires a retriever. overfetch multiplies top_k on every
// lookup so the reranker sees a wider pool than the final result size.
func NewRetriever(embedder embed.Provider, index store.VectorIndex, overfetch int, embedTimeout, lookupTimeout time.Duration, logger *slog.Logger) *Retriever {
	if overfetch < 1 {
		overfetch = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder:      embedder,
		index:         index,
		overfetch:     overfetch,
		embedTimeout:  embedTimeout,
		lookupTimeout: lookupTimeout,
		logger:        logger,
	}
}

// Retrieve returns the candidate union for a normalized query and its
// expansions. All texts are embedded in one provider call; per-space
// lookups then run concurrently. A failure on an original-query lookup
// fails the request; expanded-query failures are logged and skipped.
func (r *Retriever) Retrieve(ctx context.Context, q Query, expansions []string) ([]*CandidateResult, error) {
	texts := make([]string, 0, 1+len(expansions))
	texts = append(texts, q.Text)
	texts = append(texts, expansions...)

	embedCtx, cancel := context.WithTimeout(ctx, r.embedTimeout)
	vectors, err := r.embedder.Embed(embedCtx, texts)
	cancel()
	if err != nil {
		return nil, cserrors.Retrieval("embed", err)
	}
	if len(vectors) != len(texts) {
		return nil, cserrors.Retrieval("embed", cserrors.New(cserrors.ErrCodeEmbeddingFailed,
			"embedding count does not match input count", nil))
	}

	fetchK := q.TopK * r.overfetch
	filters := store.Filters{
		RepositoryID: q.RepositoryFilter,
		Language:     q.LanguageFilter,
	}

	merged := make(map[string]*CandidateResult)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, vector := range vectors {
		for _, space := range embeddingSpaces {
			expanded := i > 0
			spaceFilters := filters
			spaceFilters.SymbolType = space

			g.Go(func() error {
				lookupCtx, cancel := context.WithTimeout(gctx, r.lookupTimeout)
				defer cancel()

				hits, err := r.index.Search(lookupCtx, vector, fetchK, spaceFilters)
				if err != nil {
					if expanded {
						r.logger.Warn("expanded-query lookup failed, continuing without it",
							"space", string(space), "error", err)
						return nil
					}
					return cserrors.Retrieval("vector_index", err)
				}

				ch := channelFor(expanded, space)
				mu.Lock()
				defer mu.Unlock()
				for _, hit := range hits {
					cand, ok := merged[hit.ChunkID]
					if !ok {
						cand = &CandidateResult{ChunkID: hit.ChunkID, Chunk: hit.Chunk}
						merged[hit.ChunkID] = cand
					}
					if hit.Score > cand.VectorScore {
						cand.VectorScore = hit.Score
					}
					cand.Channels = appendChannel(cand.Channels, ch)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates := make([]*CandidateResult, 0, len(merged))
	for _, cand := range merged {
		candidates = append(candidates, cand)
	}
	return candidates, nil
}

func appendChannel(channels []Channel, ch Channel) []Channel {
	for _, existing := range channels {
		if existing == ch {
			return channels
		}
	}
	return append(channels, ch)
}
