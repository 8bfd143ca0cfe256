package index

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescope/codescope/internal/cache"
	"github.com/codescope/codescope/internal/chunk"
	cserrors "github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/store"
)

// flakyEmbedder fails selected calls, counted from 1.
type flakyEmbedder struct {
	calls     int
	failCalls map[int]bool
}

func (f *flakyEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.failCalls[f.calls] {
		return nil, fmt.Errorf("model overloaded")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (f *flakyEmbedder) Dimensions() int                  { return 3 }
func (f *flakyEmbedder) ModelName() string                { return "flaky" }
func (f *flakyEmbedder) Available(_ context.Context) bool { return true }
func (f *flakyEmbedder) Close() error                     { return nil }

// memIndex collects upserts.
type memIndex struct {
	records []*store.Record
	fail    bool
}

func (m *memIndex) Search(_ context.Context, _ []float32, _ int, _ store.Filters) ([]*store.Hit, error) {
	return nil, nil
}

func (m *memIndex) Upsert(_ context.Context, records []*store.Record) error {
	if m.fail {
		return fmt.Errorf("disk full")
	}
	m.records = append(m.records, records...)
	return nil
}

func (m *memIndex) Count(_ context.Context) (int, error) { return len(m.records), nil }
func (m *memIndex) Close() error                         { return nil }

func testChunks(t *testing.T, repo string, n int) []*chunk.Chunk {
	t.Helper()
	chunks := make([]*chunk.Chunk, n)
	for i := range n {
		c := &chunk.Chunk{
			RepositoryID: repo,
			FilePath:     "app.py",
			Language:     "python",
			SymbolType:   chunk.SymbolTypeFunction,
			SymbolName:   fmt.Sprintf("fn_%d", i),
			StartLine:    i*10 + 1,
			EndLine:      i*10 + 5,
			SourceText:   fmt.Sprintf("def fn_%d(): pass", i),
		}
		require.NoError(t, c.Validate())
		chunks[i] = c
	}
	return chunks
}

func testCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.New(cache.Options{Enabled: true, LocalCapacity: 16},
		slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return c
}

func newTestPipeline(embedder *flakyEmbedder, idx *memIndex, c *cache.Cache) *Pipeline {
	return NewPipeline(embedder, idx, c, 2, slog.New(slog.DiscardHandler))
}

func TestRunCompletes(t *testing.T) {
	idx := &memIndex{}
	embedder := &flakyEmbedder{}
	p := newTestPipeline(embedder, idx, testCache(t))

	report, err := p.Run(context.Background(), "r1", testChunks(t, "r1", 5))
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, report.Status)
	assert.Equal(t, 5, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 3, report.Batches)
	assert.Len(t, idx.records, 5)
	assert.Equal(t, 3, embedder.calls, "one embed call per batch")
}

func TestRunPartialFailureContinues(t *testing.T) {
	idx := &memIndex{}
	embedder := &flakyEmbedder{failCalls: map[int]bool{2: true}}
	p := newTestPipeline(embedder, idx, testCache(t))

	report, err := p.Run(context.Background(), "r1", testChunks(t, "r1", 6))
	require.NoError(t, err, "a partially failed run still completes")

	assert.Equal(t, StatusCompleted, report.Status)
	assert.Equal(t, 4, report.Succeeded)
	assert.Equal(t, 2, report.Failed)
	assert.Len(t, report.BatchErrors, 1)
	assert.Len(t, idx.records, 4)
}

func TestRunAllBatchesFailedIsFailed(t *testing.T) {
	idx := &memIndex{fail: true}
	embedder := &flakyEmbedder{}
	p := newTestPipeline(embedder, idx, testCache(t))

	report, err := p.Run(context.Background(), "r1", testChunks(t, "r1", 4))
	require.Error(t, err)
	assert.Equal(t, cserrors.ErrCodeIndexingFailed, cserrors.GetCode(err))

	assert.Equal(t, StatusFailed, report.Status)
	assert.Equal(t, 0, report.Succeeded)
	assert.Equal(t, 4, report.Failed)
	assert.Len(t, report.BatchErrors, 2, "one aggregated message per failed batch")
}

func TestRunInvalidatesRepositoryCache(t *testing.T) {
	ctx := context.Background()
	c := testCache(t)

	key := cache.SearchKey("render template", 10, "r1", "", "text-to-code", "v1")
	c.Set(ctx, key, []byte("stale"), "r1", time.Hour)

	idx := &memIndex{}
	p := newTestPipeline(&flakyEmbedder{}, idx, c)
	_, err := p.Run(ctx, "r1", testChunks(t, "r1", 2))
	require.NoError(t, err)

	_, ok := c.Get(ctx, key)
	assert.False(t, ok, "completed run invalidates the repository's entries")
}

func TestRunFailedRunKeepsCache(t *testing.T) {
	ctx := context.Background()
	c := testCache(t)

	key := cache.SearchKey("render template", 10, "r1", "", "text-to-code", "v1")
	c.Set(ctx, key, []byte("current"), "r1", time.Hour)

	idx := &memIndex{fail: true}
	p := newTestPipeline(&flakyEmbedder{}, idx, c)
	_, err := p.Run(ctx, "r1", testChunks(t, "r1", 2))
	require.Error(t, err)

	_, ok := c.Get(ctx, key)
	assert.True(t, ok, "a failed run must not drop valid cached results")
}

func TestRunRejectsEmptyInput(t *testing.T) {
	p := newTestPipeline(&flakyEmbedder{}, &memIndex{}, testCache(t))

	report, err := p.Run(context.Background(), "r1", nil)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, report.Status)

	report, err = p.Run(context.Background(), "", testChunks(t, "r1", 1))
	require.Error(t, err)
	assert.Equal(t, StatusFailed, report.Status)
}

func TestRunRejectsForeignChunks(t *testing.T) {
	idx := &memIndex{}
	p := newTestPipeline(&flakyEmbedder{}, idx, testCache(t))

	report, err := p.Run(context.Background(), "r1", testChunks(t, "r2", 2))
	require.Error(t, err)
	assert.Equal(t, StatusFailed, report.Status)
	assert.Empty(t, idx.records)
}
