package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeSplitsIdentifiers(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"render_template", []string{"render", "template"}},
		{"renderTemplate", []string{"render", "template"}},
		{"HTTPServer", []string{"http", "server"}},
		{"parse json", []string{"parse", "json"}},
		{"the a of to", nil},
		{"x", nil},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tokenize(tt.input), "input %q", tt.input)
	}
}

func TestLexicalScoreOverlap(t *testing.T) {
	source := "def render_template(name):\n    return jinja_env.get_template(name).render()\n"

	// Both significant query tokens occur in the source.
	assert.InDelta(t, 1.0, LexicalScore("render template", source), 1e-9)

	// One of three significant tokens matches.
	score := LexicalScore("template cache invalidation", source)
	assert.InDelta(t, 1.0/3.0, score, 1e-9)

	// Zero overlap is a valid score.
	assert.Equal(t, 0.0, LexicalScore("websocket handshake", source))
}

func TestLexicalScorePure(t *testing.T) {
	a := LexicalScore("parse json payload", "json.loads(payload)")
	b := LexicalScore("parse json payload", "json.loads(payload)")
	assert.Equal(t, a, b)
}

func TestLexicalScoreCaseInsensitive(t *testing.T) {
	assert.Equal(t,
		LexicalScore("Render Template", "render_template()"),
		LexicalScore("render template", "RENDER_TEMPLATE()"))
}

func TestLexicalScoreEmptyQuery(t *testing.T) {
	assert.Equal(t, 0.0, LexicalScore("", "def foo(): pass"))
	assert.Equal(t, 0.0, LexicalScore("the of", "def foo(): pass"))
}
