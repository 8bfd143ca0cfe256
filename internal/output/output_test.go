package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainWriterHasNoColor(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)

	w.Success("indexed %d chunks", 42)
	w.Warning("cache backend unreachable")
	w.Error("no index found")
	w.Heading("Results")
	w.Detail("repo-a app.py:10")

	out := buf.String()
	assert.Contains(t, out, "indexed 42 chunks")
	assert.Contains(t, out, "cache backend unreachable")
	assert.NotContains(t, out, "\033[", "no ANSI codes without a terminal")
}

func TestNewBufferIsPlain(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	w.Success("ok")
	assert.NotContains(t, buf.String(), "\033[")
}

func TestCodeIndents(t *testing.T) {
	var buf bytes.Buffer
	w := NewPlain(&buf)
	w.Code("def foo():\n    pass\n")
	assert.Equal(t, "    def foo():\n        pass\n", buf.String())
}
