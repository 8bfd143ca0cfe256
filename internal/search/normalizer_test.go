package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cserrors "github.com/codescope/codescope/internal/errors"
)

func TestNormalizeCanonicalForm(t *testing.T) {
	n := NewNormalizer(100)

	q, err := n.Normalize(Query{
		Text:             "  render   html\ttemplate ",
		TopK:             10,
		RepositoryFilter: " repo-a ",
		LanguageFilter:   " Python ",
	})
	require.NoError(t, err)
	assert.Equal(t, "render html template", q.Text)
	assert.Equal(t, "repo-a", q.RepositoryFilter)
	assert.Equal(t, "python", q.LanguageFilter)
	assert.Equal(t, ModeTextToCode, q.Mode)
}

func TestNormalizeIdempotent(t *testing.T) {
	n := NewNormalizer(100)

	once, err := n.Normalize(Query{Text: "  parse   JSON ", TopK: 5, LanguageFilter: "GO"})
	require.NoError(t, err)
	twice, err := n.Normalize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNormalizeRejections(t *testing.T) {
	n := NewNormalizer(100)
	bad := 1.5

	tests := []struct {
		name string
		q    Query
		code string
	}{
		{"empty text", Query{Text: "", TopK: 10}, cserrors.ErrCodeQueryEmpty},
		{"whitespace only", Query{Text: "   \t ", TopK: 10}, cserrors.ErrCodeQueryEmpty},
		{"zero top_k", Query{Text: "parse json", TopK: 0}, cserrors.ErrCodeInvalidTopK},
		{"negative top_k", Query{Text: "parse json", TopK: -3}, cserrors.ErrCodeInvalidTopK},
		{"top_k above max", Query{Text: "parse json", TopK: 101}, cserrors.ErrCodeInvalidTopK},
		{"bad mode", Query{Text: "parse json", TopK: 10, Mode: "fuzzy"}, cserrors.ErrCodeInvalidQuery},
		{"bad min_score", Query{Text: "parse json", TopK: 10, MinScore: &bad}, cserrors.ErrCodeInvalidQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := n.Normalize(tt.q)
			require.Error(t, err)
			assert.Equal(t, tt.code, cserrors.GetCode(err))
			assert.True(t, cserrors.IsValidation(err))
		})
	}
}

func TestNormalizeKeepsExplicitMode(t *testing.T) {
	n := NewNormalizer(100)
	q, err := n.Normalize(Query{Text: "def foo(): pass", TopK: 5, Mode: ModeCodeToCode})
	require.NoError(t, err)
	assert.Equal(t, ModeCodeToCode, q.Mode)
}
