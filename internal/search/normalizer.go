package search

import (
	"fmt"
	"strings"

	cserrors "github.com/codescope/codescope/internal/errors"
)

// Normalizer canonicalizes raw queries so equivalent requests produce the
// same cache key. Normalization is deterministic and idempotent.
type Normalizer struct {
	maxTopK int
}

// NewNormalizer creates a normalizer enforcing the configured top_k bound.
func NewNormalizer(maxTopK int) *Normalizer {
	if maxTopK < 1 {
		maxTopK = 1
	}
	return &Normalizer{maxTopK: maxTopK}
}

// Normalize returns the canonical form of q, or a validation error.
// Whitespace is collapsed, filters are trimmed (language lower-cased),
// an empty mode defaults to text-to-code.
func (n *Normalizer) Normalize(q Query) (Query, error) {
	q.Text = strings.Join(strings.Fields(q.Text), " ")
	if q.Text == "" {
		return Query{}, cserrors.New(cserrors.ErrCodeQueryEmpty,
			"query text is empty after normalization", nil)
	}

	if q.TopK < 1 || q.TopK > n.maxTopK {
		return Query{}, cserrors.New(cserrors.ErrCodeInvalidTopK,
			fmt.Sprintf("top_k must be in [1, %d], got %d", n.maxTopK, q.TopK), nil)
	}

	q.RepositoryFilter = strings.TrimSpace(q.RepositoryFilter)
	q.LanguageFilter = strings.ToLower(strings.TrimSpace(q.LanguageFilter))

	switch q.Mode {
	case "":
		q.Mode = ModeTextToCode
	case ModeTextToCode, ModeCodeToCode:
	default:
		return Query{}, cserrors.Validation(
			fmt.Sprintf("mode must be %q or %q, got %q",
				ModeTextToCode, ModeCodeToCode, q.Mode))
	}

	if q.MinScore != nil && (*q.MinScore < 0 || *q.MinScore > 1) {
		return Query{}, cserrors.Validation(
			fmt.Sprintf("min_score must be in [0, 1], got %g", *q.MinScore))
	}

	return q, nil
}
