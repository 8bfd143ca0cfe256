// Package search implements the retrieval-and-ranking pipeline: query
// normalization, synonym expansion, candidate retrieval from the vector
// index, lexical scoring, weighted reranking, deduplication, and the
// cached service surface on top.
package search

import (
	"github.com/codescope/codescope/internal/chunk"
)

// Mode selects the query interpretation.
type Mode string

const (
	// ModeTextToCode matches a natural-language query against code.
	ModeTextToCode Mode = "text-to-code"

	// ModeCodeToCode matches a code snippet against code.
	ModeCodeToCode Mode = "code-to-code"
)

// Query is a single search request.
type Query struct {
	// Text is the free-form query: natural language or a code snippet.
	Text string `json:"text"`

	// TopK is the maximum number of results, in [1, max_top_k].
	TopK int `json:"top_k"`

	// RepositoryFilter restricts results to one repository. Empty means all.
	RepositoryFilter string `json:"repository_filter,omitempty"`

	// LanguageFilter restricts results by language. Empty means all.
	LanguageFilter string `json:"language_filter,omitempty"`

	// MinScore overrides the configured score threshold when set.
	MinScore *float64 `json:"min_score,omitempty"`

	// Mode defaults to text-to-code when empty.
	Mode Mode `json:"mode,omitempty"`
}

// Channel identifies the retrieval path that produced a candidate.
type Channel string

const (
	ChannelOriginalFunction Channel = "original:function"
	ChannelOriginalCall     Channel = "original:call"
	ChannelExpandedFunction Channel = "expanded:function"
	ChannelExpandedCall     Channel = "expanded:call"
)

// channelFor maps a lookup's origin and embedding space to its channel.
func channelFor(expanded bool, space chunk.SymbolType) Channel {
	switch {
	case !expanded && space == chunk.SymbolTypeFunction:
		return ChannelOriginalFunction
	case !expanded && space == chunk.SymbolTypeCall:
		return ChannelOriginalCall
	case expanded && space == chunk.SymbolTypeFunction:
		return ChannelExpandedFunction
	default:
		return ChannelExpandedCall
	}
}

// CandidateResult is a scored chunk reference produced during retrieval,
// before reranking.
type CandidateResult struct {
	// ChunkID identifies the candidate chunk.
	ChunkID string

	// Chunk is the stored payload.
	Chunk *chunk.Chunk

	// VectorScore is the best similarity in [0,1] across the channels
	// that retrieved this candidate.
	VectorScore float64

	// LexicalScore is the token-overlap score in [0,1]. Zero means no
	// overlap, not missing data.
	LexicalScore float64

	// Channels lists every retrieval path that produced this candidate.
	Channels []Channel
}

// Signals is the per-candidate breakdown behind a final score. Values are
// the raw signal magnitudes in [0,1], before weighting.
type Signals struct {
	Vector     float64 `json:"vector"`
	Lexical    float64 `json:"lexical"`
	SymbolName float64 `json:"symbol_name"`
	SymbolType float64 `json:"symbol_type"`
}

// RankedResult is one output row: the chunk with provenance, its final
// score, and the signal breakdown that produced it.
type RankedResult struct {
	Chunk   chunk.Chunk `json:"chunk"`
	Score   float64     `json:"score"`
	Signals Signals     `json:"signals"`
}
