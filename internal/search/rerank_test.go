package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescope/codescope/internal/chunk"
)

func candidate(id string, symbolName string, symbolType chunk.SymbolType, vector, lexical float64) *CandidateResult {
	return &CandidateResult{
		ChunkID: id,
		Chunk: &chunk.Chunk{
			ID:           id,
			RepositoryID: "repo-a",
			FilePath:     "app.py",
			SymbolType:   symbolType,
			SymbolName:   symbolName,
			StartLine:    1,
			EndLine:      5,
			SourceText:   "def " + symbolName + "(): pass",
		},
		VectorScore:  vector,
		LexicalScore: lexical,
	}
}

func TestRankWeightedSum(t *testing.T) {
	r := NewReranker(DefaultWeights())
	q := Query{Text: "render html template", TopK: 10, Mode: ModeTextToCode}

	ranked := r.Rank(q, []*CandidateResult{
		candidate("a", "render_template", chunk.SymbolTypeFunction, 0.8, 1.0),
		candidate("b", "parse_json", chunk.SymbolTypeFunction, 0.8, 0.0),
	})
	require.Len(t, ranked, 2)

	assert.Equal(t, "render_template", ranked[0].Chunk.SymbolName)
	// Vector and lexical plus the full symbol-name match.
	assert.InDelta(t, 0.65*0.8+0.25*1.0+0.07*1.0, ranked[0].Score, 1e-9)
	assert.InDelta(t, 0.65*0.8, ranked[1].Score, 1e-9)
	assert.Equal(t, 1.0, ranked[0].Signals.SymbolName)
	assert.Equal(t, 0.0, ranked[1].Signals.SymbolName)
}

func TestRankSymbolTypeIntent(t *testing.T) {
	r := NewReranker(DefaultWeights())
	q := Query{Text: "function that retries requests", TopK: 10}

	ranked := r.Rank(q, []*CandidateResult{
		candidate("a", "retry_request", chunk.SymbolTypeCall, 0.5, 0.5),
		candidate("b", "retry_request", chunk.SymbolTypeFunction, 0.5, 0.5),
	})
	require.Len(t, ranked, 2)
	assert.Equal(t, chunk.SymbolTypeFunction, ranked[0].Chunk.SymbolType)
	assert.Equal(t, 1.0, ranked[0].Signals.SymbolType)
	assert.Equal(t, 0.0, ranked[1].Signals.SymbolType)
}

func TestRankTieBreakByVectorThenID(t *testing.T) {
	r := NewReranker(Weights{Vector: 0, Lexical: 1, SymbolName: 0, SymbolType: 0})
	q := Query{Text: "anything", TopK: 10}

	// Identical final scores; higher raw vector wins.
	ranked := r.Rank(q, []*CandidateResult{
		candidate("b", "beta", chunk.SymbolTypeFunction, 0.5, 0.5),
		candidate("a", "alpha", chunk.SymbolTypeFunction, 0.9, 0.5),
	})
	require.Len(t, ranked, 2)
	assert.Equal(t, "a", ranked[0].Chunk.ID)

	// Identical scores and vectors fall back to chunk ID order.
	ranked = r.Rank(q, []*CandidateResult{
		candidate("zz", "zeta", chunk.SymbolTypeFunction, 0.5, 0.5),
		candidate("aa", "alpha", chunk.SymbolTypeFunction, 0.5, 0.5),
	})
	assert.Equal(t, "aa", ranked[0].Chunk.ID)
	assert.Equal(t, "zz", ranked[1].Chunk.ID)
}

func TestRankChainedNearTiesStableAcrossPermutations(t *testing.T) {
	// Three candidates whose final scores step by less than epsilon
	// between neighbors but more than epsilon end to end. A pairwise
	// epsilon comparison cycles on this input; the bucketed comparison
	// must give one order no matter how the candidates arrive.
	r := NewReranker(Weights{Vector: 0, Lexical: 1, SymbolName: 0, SymbolType: 0})
	q := Query{Text: "anything", TopK: 10}

	cands := []*CandidateResult{
		candidate("a", "alpha", chunk.SymbolTypeFunction, 0.7, 0.5),
		candidate("m", "mu", chunk.SymbolTypeFunction, 0.7, 0.5+0.8e-6),
		candidate("z", "zeta", chunk.SymbolTypeFunction, 0.7, 0.5+1.6e-6),
	}

	perms := [][3]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	for _, p := range perms {
		ranked := r.Rank(q, []*CandidateResult{cands[p[0]], cands[p[1]], cands[p[2]]})
		require.Len(t, ranked, 3)
		assert.Equal(t, "z", ranked[0].Chunk.ID, "permutation %v", p)
		assert.Equal(t, "m", ranked[1].Chunk.ID, "permutation %v", p)
		assert.Equal(t, "a", ranked[2].Chunk.ID, "permutation %v", p)
	}
}

func TestRankDeterministicAcrossInputOrder(t *testing.T) {
	r := NewReranker(DefaultWeights())
	q := Query{Text: "parse json", TopK: 10}

	var candidates []*CandidateResult
	for i := range 20 {
		candidates = append(candidates,
			candidate(fmt.Sprintf("c%02d", i), "parse_json", chunk.SymbolTypeFunction, 0.7, 0.5))
	}
	first := r.Rank(q, candidates)

	reversed := make([]*CandidateResult, len(candidates))
	for i, c := range candidates {
		reversed[len(candidates)-1-i] = c
	}
	second := r.Rank(q, reversed)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Chunk.ID, second[i].Chunk.ID, "position %d", i)
	}
}

func TestRankInvalidWeightsFallBack(t *testing.T) {
	r := NewReranker(Weights{Vector: 2, Lexical: -1, SymbolName: 0, SymbolType: 0})
	q := Query{Text: "parse json", TopK: 10}

	ranked := r.Rank(q, []*CandidateResult{
		candidate("a", "parse_json", chunk.SymbolTypeFunction, 1.0, 1.0),
	})
	require.Len(t, ranked, 1)
	assert.LessOrEqual(t, ranked[0].Score, 1.0)
}

func TestDedupeKeepsHighestScored(t *testing.T) {
	high := &RankedResult{
		Chunk: chunk.Chunk{ID: "a", RepositoryID: "r1", FilePath: "app.py",
			StartLine: 10, SymbolName: "render_template"},
		Score: 0.9,
	}
	low := &RankedResult{
		Chunk: chunk.Chunk{ID: "b", RepositoryID: "r1", FilePath: "app.py",
			StartLine: 10, SymbolName: "render_template"},
		Score: 0.4,
	}
	other := &RankedResult{
		Chunk: chunk.Chunk{ID: "c", RepositoryID: "r1", FilePath: "app.py",
			StartLine: 42, SymbolName: "parse_json"},
		Score: 0.6,
	}

	out := Dedupe([]*RankedResult{high, other, low})
	require.Len(t, out, 2)
	assert.Equal(t, 0.9, out[0].Score)
	assert.Equal(t, "parse_json", out[1].Chunk.SymbolName)
}

func TestDedupeEmptyInput(t *testing.T) {
	assert.Empty(t, Dedupe(nil))
}
