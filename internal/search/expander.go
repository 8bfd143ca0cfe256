package search

import (
	"sort"
	"strings"
)

// Expander widens a query with code-vocabulary synonyms, bridging the gap
// between how users describe code and how code names itself ("render html
// template" vs render_template). Expansion only ever augments the query.
type Expander struct {
	synonyms      map[string][]string
	maxExpansions int
}

// ExpanderOption configures the expander.
type ExpanderOption func(*Expander)

// WithMaxExpansions caps the total number of expansion terms per query.
func WithMaxExpansions(n int) ExpanderOption {
	return func(e *Expander) {
		e.maxExpansions = n
	}
}

// WithSynonyms adds entries on top of the built-in table.
func WithSynonyms(extra map[string][]string) ExpanderOption {
	return func(e *Expander) {
		for k, v := range extra {
			e.synonyms[k] = append(e.synonyms[k], v...)
		}
	}
}

// NewExpander creates an expander with the built-in synonym table.
func NewExpander(opts ...ExpanderOption) *Expander {
	e := &Expander{
		synonyms:      make(map[string][]string, len(codeSynonyms)),
		maxExpansions: 8,
	}
	for k, v := range codeSynonyms {
		e.synonyms[k] = v
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand returns expansion terms for normalized query text, most specific
// first: multi-word phrase matches, then single-token matches. The original
// text is never in the output, and a query with no table entry expands to
// nothing. Output order is deterministic for a given table.
func (e *Expander) Expand(text string) []string {
	lower := strings.ToLower(text)
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	var matched []string
	for key := range e.synonyms {
		if strings.Contains(key, " ") && containsPhrase(lower, key) {
			matched = append(matched, key)
		}
	}
	// Phrase keys, longest first, then alphabetical for a stable order.
	sort.Slice(matched, func(i, j int) bool {
		if len(matched[i]) != len(matched[j]) {
			return len(matched[i]) > len(matched[j])
		}
		return matched[i] < matched[j]
	})

	for _, tok := range tokens {
		if _, ok := e.synonyms[tok]; ok && !strings.Contains(tok, " ") {
			matched = append(matched, tok)
		}
	}

	seen := map[string]bool{lower: true}
	for _, tok := range tokens {
		seen[tok] = true
	}

	var expansions []string
	for _, key := range matched {
		for _, syn := range e.synonyms[key] {
			lowerSyn := strings.ToLower(syn)
			if seen[lowerSyn] {
				continue
			}
			seen[lowerSyn] = true
			expansions = append(expansions, syn)
			if len(expansions) == e.maxExpansions {
				return expansions
			}
		}
	}
	return expansions
}

// containsPhrase reports whether phrase occurs in text on word boundaries.
func containsPhrase(text, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		before := start == 0 || text[start-1] == ' '
		after := end == len(text) || text[end] == ' '
		if before && after {
			return true
		}
		idx = start + 1
	}
}
