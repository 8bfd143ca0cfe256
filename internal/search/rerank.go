package search

import (
	"math"
	"sort"

	"github.com/codescope/codescope/internal/chunk"
)

// scoreEpsilon is the tolerance inside which two final scores count as
// tied and the tie-break rule applies.
const scoreEpsilon = 1e-6

// Weights sets the relative importance of each ranking signal. The four
// weights must sum to 1.0 so final scores stay in [0,1].
type Weights struct {
	// Vector weights the raw similarity from the vector index.
	Vector float64 `yaml:"vector"`

	// Lexical weights token overlap between query and source text.
	Lexical float64 `yaml:"lexical"`

	// SymbolName weights an exact symbol-name match against the query.
	SymbolName float64 `yaml:"symbol_name"`

	// SymbolType weights a match between the query's stated intent
	// ("function", "call") and the candidate's symbol type.
	SymbolType float64 `yaml:"symbol_type"`
}

// DefaultWeights returns the tuned signal weights.
func DefaultWeights() Weights {
	return Weights{
		Vector:     0.65,
		Lexical:    0.25,
		SymbolName: 0.07,
		SymbolType: 0.03,
	}
}

// Reranker folds vector, lexical, and structural signals into one final
// score per candidate and imposes a total, reproducible order.
type Reranker struct {
	weights Weights
}

// NewReranker creates a reranker with the given signal weights. Weights
// that are negative or do not sum to 1 fall back to the defaults.
func NewReranker(weights Weights) *Reranker {
	if !validWeights(weights) {
		weights = DefaultWeights()
	}
	return &Reranker{weights: weights}
}

// Rank scores all candidates and returns them ordered best-first.
//
// Scores are compared on a scoreEpsilon grid; scores in the same cell are
// broken by higher raw vector score, then by lexicographic chunk ID. Equal
// inputs always produce the same order.
func (r *Reranker) Rank(q Query, candidates []*CandidateResult) []*RankedResult {
	queryTokens := tokenSet(q.Text)
	wantedType := symbolTypeIntent(queryTokens)

	results := make([]*RankedResult, 0, len(candidates))
	for _, cand := range candidates {
		signals := Signals{
			Vector:     cand.VectorScore,
			Lexical:    cand.LexicalScore,
			SymbolName: symbolNameSignal(queryTokens, cand.Chunk.SymbolName),
			SymbolType: symbolTypeSignal(wantedType, cand.Chunk.SymbolType),
		}
		score := r.weights.Vector*signals.Vector +
			r.weights.Lexical*signals.Lexical +
			r.weights.SymbolName*signals.SymbolName +
			r.weights.SymbolType*signals.SymbolType

		results = append(results, &RankedResult{
			Chunk:   *cand.Chunk,
			Score:   score,
			Signals: signals,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return lessRanked(results[i], results[j])
	})
	return results
}

// lessRanked reports whether a should rank before b. Scores are compared
// on an epsilon grid so the relation stays transitive: a pairwise diff
// check is not, since near-ties can chain (a~b, b~c, but a and c apart)
// and the sort would then depend on input order.
func lessRanked(a, b *RankedResult) bool {
	sa, sb := scoreBucket(a.Score), scoreBucket(b.Score)
	if sa != sb {
		return sa > sb
	}
	if a.Signals.Vector != b.Signals.Vector {
		return a.Signals.Vector > b.Signals.Vector
	}
	return a.Chunk.ID < b.Chunk.ID
}

func scoreBucket(score float64) int64 {
	return int64(math.Round(score / scoreEpsilon))
}

// symbolNameSignal is 1 when every token of the candidate's symbol name
// appears in the query, 0 otherwise. "render html template" fully covers
// render_template; it does not cover parse_json.
func symbolNameSignal(queryTokens map[string]bool, symbolName string) float64 {
	nameTokens := tokenize(symbolName)
	if len(nameTokens) == 0 {
		return 0
	}
	for _, tok := range nameTokens {
		if !queryTokens[tok] {
			return 0
		}
	}
	return 1
}

// symbolTypeIntent extracts an explicit symbol-type ask from the query,
// or "" when the query does not state one.
func symbolTypeIntent(queryTokens map[string]bool) chunk.SymbolType {
	for _, kw := range []string{"function", "func", "def", "method"} {
		if queryTokens[kw] {
			return chunk.SymbolTypeFunction
		}
	}
	for _, kw := range []string{"call", "calls", "invocation", "usage", "caller"} {
		if queryTokens[kw] {
			return chunk.SymbolTypeCall
		}
	}
	return ""
}

func symbolTypeSignal(wanted, got chunk.SymbolType) float64 {
	if wanted != "" && wanted == got {
		return 1
	}
	return 0
}

// validWeights reports whether weights are non-negative and sum to 1.
func validWeights(w Weights) bool {
	for _, v := range []float64{w.Vector, w.Lexical, w.SymbolName, w.SymbolType} {
		if v < 0 {
			return false
		}
	}
	sum := w.Vector + w.Lexical + w.SymbolName + w.SymbolType
	return sum > 1-1e-9 && sum < 1+1e-9
}
