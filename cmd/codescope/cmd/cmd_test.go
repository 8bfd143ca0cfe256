package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cserrors "github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/search"
)

func writeChunkFile(t *testing.T, dir string) string {
	t.Helper()
	records := []map[string]any{
		{
			"repository_id": "r1", "file_path": "app.py", "language": "python",
			"symbol_type": "function", "symbol_name": "render_template",
			"start_line": 10, "end_line": 20,
			"source_text": "def render_template(name):\n    return jinja_env.get_template(name).render()\n",
		},
		{
			"repository_id": "r1", "file_path": "app.py", "language": "python",
			"symbol_type": "function", "symbol_name": "parse_json",
			"start_line": 42, "end_line": 50,
			"source_text": "def parse_json(data):\n    return json.loads(data)\n",
		},
	}

	path := filepath.Join(dir, "chunks.ndjson")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	for _, rec := range records {
		line, err := json.Marshal(rec)
		require.NoError(t, err)
		_, err = fmt.Fprintf(f, "%s\n", line)
		require.NoError(t, err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestIndexThenSearch(t *testing.T) {
	dir := t.TempDir()
	chunkFile := writeChunkFile(t, dir)
	dataDir := filepath.Join(dir, "data")

	out, err := runCLI(t, "index", chunkFile,
		"--repo", "r1", "--offline", "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed r1: 2 chunks")

	out, err = runCLI(t, "search", "render html template",
		"--repo", "r1", "--offline", "--data-dir", dataDir, "--min-score", "0", "--format", "json")
	require.NoError(t, err)

	var results []*search.RankedResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "render_template", results[0].Chunk.SymbolName)
}

func TestSearchWithoutIndexReturnsNoResults(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, "search", "anything at all",
		"--offline", "--data-dir", filepath.Join(dir, "data"))
	require.NoError(t, err)
	assert.Contains(t, out, "No results")
}

func TestIndexRequiresRepoFlag(t *testing.T) {
	dir := t.TempDir()
	chunkFile := writeChunkFile(t, dir)

	_, err := runCLI(t, "index", chunkFile, "--offline",
		"--data-dir", filepath.Join(dir, "data"))
	require.Error(t, err)
}

func TestStatsReportsVectorCount(t *testing.T) {
	dir := t.TempDir()
	chunkFile := writeChunkFile(t, dir)
	dataDir := filepath.Join(dir, "data")

	_, err := runCLI(t, "index", chunkFile,
		"--repo", "r1", "--offline", "--data-dir", dataDir)
	require.NoError(t, err)

	out, err := runCLI(t, "stats",
		"--offline", "--data-dir", dataDir, "--format", "json")
	require.NoError(t, err)

	var stats struct {
		Vectors int `json:"vectors"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 2, stats.Vectors)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "codescope")
}

func TestSimilarFromStdin(t *testing.T) {
	dir := t.TempDir()
	chunkFile := writeChunkFile(t, dir)
	dataDir := filepath.Join(dir, "data")

	_, err := runCLI(t, "index", chunkFile,
		"--repo", "r1", "--offline", "--data-dir", dataDir)
	require.NoError(t, err)

	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetIn(bytes.NewBufferString("def render_template(name):\n    return jinja_env.get_template(name).render()\n"))
	cmd.SetArgs([]string{"similar", "--offline", "--data-dir", dataDir, "--repo", "r1", "--format", "json"})
	require.NoError(t, cmd.Execute())

	var results []*search.RankedResult
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &results))
	require.NotEmpty(t, results)
}

func TestUserFacingErrorByCategory(t *testing.T) {
	verr := cserrors.Validation("top_k must be in [1, 100], got 0")
	assert.Equal(t, "top_k must be in [1, 100], got 0", userFacingError(verr).Error())

	rerr := cserrors.Retrieval("vector_index", fmt.Errorf("connection refused"))
	msg := userFacingError(rerr).Error()
	assert.Contains(t, msg, "search temporarily unavailable")
	assert.Contains(t, msg, cserrors.ErrCodeRetrievalFailed)
	assert.NotContains(t, msg, "connection refused")

	plain := fmt.Errorf("disk full")
	assert.Equal(t, plain, userFacingError(plain))
}
