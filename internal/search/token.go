package search

import (
	"strings"
	"unicode"
)

// stopWords are filler terms that carry no retrieval signal.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "does": true, "for": true,
	"from": true, "how": true, "in": true, "is": true, "it": true,
	"of": true, "on": true, "or": true, "that": true, "the": true,
	"this": true, "to": true, "what": true, "where": true, "which": true,
	"with": true,
}

// tokenize splits text into significant lower-case tokens. Identifiers are
// split on punctuation, snake_case, and camelCase boundaries, so
// "renderTemplate" and "render_template" both yield [render template].
func tokenize(text string) []string {
	var tokens []string
	for _, word := range splitNonAlnum(text) {
		for _, part := range splitCamel(word) {
			part = strings.ToLower(part)
			if len(part) < 2 || stopWords[part] {
				continue
			}
			tokens = append(tokens, part)
		}
	}
	return tokens
}

// tokenSet returns tokenize output as a set.
func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range tokenize(text) {
		set[tok] = true
	}
	return set
}

func splitNonAlnum(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// splitCamel breaks a word at lower-to-upper transitions and before the
// last upper-case letter of an acronym run ("HTTPServer" -> [HTTP Server]).
func splitCamel(word string) []string {
	runes := []rune(word)
	if len(runes) == 0 {
		return nil
	}

	var parts []string
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := false
		if unicode.IsUpper(cur) && !unicode.IsUpper(prev) {
			boundary = true
		} else if i+1 < len(runes) &&
			unicode.IsUpper(prev) && unicode.IsUpper(cur) && unicode.IsLower(runes[i+1]) {
			boundary = true
		}
		if boundary {
			parts = append(parts, string(runes[start:i]))
			start = i
		}
	}
	parts = append(parts, string(runes[start:]))
	return parts
}
