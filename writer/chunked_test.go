package writer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/c360/semledger/errors"
)

// fakeSink is a programmable in-memory sink. failures maps a record id
// to how many calls fail before success; -1 fails forever.
type fakeSink struct {
	mu       sync.Mutex
	saved    map[string]int
	calls    map[string]int
	failures map[string]int
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		saved:    make(map[string]int),
		calls:    make(map[string]int),
		failures: make(map[string]int),
	}
}

func (f *fakeSink) Name() string { return "fake" }

func (f *fakeSink) SaveEntity(_ context.Context, _ string, data map[string]any) (string, error) {
	id, _ := data["id"].(string)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++

	if n := f.failures[id]; n != 0 {
		if n > 0 {
			f.failures[id] = n - 1
		}
		return "", errors.WrapTransient(errors.ErrStorageUnavailable, "fakeSink", "SaveEntity", id)
	}

	f.saved[id]++
	return id, nil
}

func (f *fakeSink) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, n := range f.saved {
		total += n
	}
	return total
}

func (f *fakeSink) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func records(ids ...string) []map[string]any {
	recs := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, map[string]any{"id": id})
	}
	return recs
}

func testConfig() Config {
	return Config{
		ChunkSize:  10,
		Workers:    2,
		QueueSize:  4,
		MaxRetries: 3,
		RetryUnit:  time.Millisecond,
	}
}

func TestNewChunkedWriter_Validation(t *testing.T) {
	_, err := NewChunkedWriter("", newFakeSink())
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	_, err = NewChunkedWriter("contract", nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestChunkedWriter_WritesAllRecords(t *testing.T) {
	sink := newFakeSink()
	w, err := NewChunkedWriter("contract", sink, WithConfig(testConfig()))
	require.NoError(t, err)

	ctx := context.Background()
	recs := make([]map[string]any, 0, 25)
	for i := 0; i < 25; i++ {
		recs = append(recs, map[string]any{"id": string(rune('a' + i))})
	}
	require.NoError(t, w.Write(ctx, recs))
	require.NoError(t, w.Flush(ctx))

	assert.Equal(t, 25, sink.savedCount())

	stats := w.Stats()
	assert.Equal(t, int64(25), stats.TotalEntities)
	assert.Equal(t, int64(25), stats.SuccessfulWrites)
	assert.Equal(t, int64(0), stats.FailedWrites)
	assert.Equal(t, int64(3), stats.ChunksProcessed)
	assert.Equal(t, 100, stats.SuccessRate())
}

func TestChunkedWriter_FlushDrainsPartialChunk(t *testing.T) {
	sink := newFakeSink()
	w, err := NewChunkedWriter("contract", sink, WithConfig(testConfig()))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.Write(ctx, records("a", "b", "c")))

	// Below chunk size, nothing reaches the sink until flush.
	assert.Equal(t, 0, sink.savedCount())

	require.NoError(t, w.Flush(ctx))
	assert.Equal(t, 3, sink.savedCount())
	assert.Equal(t, int64(1), w.Stats().ChunksProcessed)
}

func TestChunkedWriter_FlushWithoutWrites(t *testing.T) {
	w, err := NewChunkedWriter("contract", newFakeSink(), WithConfig(testConfig()))
	require.NoError(t, err)

	require.NoError(t, w.Flush(context.Background()))
	assert.Equal(t, Stats{}, w.Stats())
}

func TestChunkedWriter_RetriesTransientFailures(t *testing.T) {
	sink := newFakeSink()
	sink.failures["b"] = 2

	w, err := NewChunkedWriter("contract", sink, WithConfig(testConfig()))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.Write(ctx, records("a", "b", "c")))
	require.NoError(t, w.Flush(ctx))

	stats := w.Stats()
	assert.Equal(t, int64(3), stats.SuccessfulWrites)
	assert.Equal(t, int64(0), stats.FailedWrites)
	assert.Equal(t, int64(2), stats.Retries)
	assert.Equal(t, 3, sink.callCount("b"))
	assert.Equal(t, 1, sink.callCount("a"))
}

func TestChunkedWriter_PermanentFailuresAreStatistics(t *testing.T) {
	sink := newFakeSink()
	sink.failures["c"] = -1

	cfg := testConfig()
	cfg.MaxRetries = 2
	w, err := NewChunkedWriter("contract", sink, WithConfig(cfg))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.Write(ctx, records("a", "b", "c", "d")))
	require.NoError(t, w.Flush(ctx))

	stats := w.Stats()
	assert.Equal(t, int64(4), stats.TotalEntities)
	assert.Equal(t, int64(3), stats.SuccessfulWrites)
	assert.Equal(t, int64(1), stats.FailedWrites)
	assert.Equal(t, int64(2), stats.Retries)
	assert.Equal(t, 75, stats.SuccessRate())

	// Initial pass plus two retry passes.
	assert.Equal(t, 3, sink.callCount("c"))

	// Retried records are attempted alone; healthy ones are not re-sent.
	assert.Equal(t, 1, sink.callCount("a"))
}

func TestChunkedWriter_AccountingAfterFlush(t *testing.T) {
	sink := newFakeSink()
	sink.failures["b"] = -1
	sink.failures["d"] = -1

	cfg := testConfig()
	cfg.MaxRetries = 1
	w, err := NewChunkedWriter("contract", sink, WithConfig(cfg))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.Write(ctx, records("a", "b", "c")))
	require.NoError(t, w.Write(ctx, records("d", "e")))
	require.NoError(t, w.Flush(ctx))

	stats := w.Stats()
	assert.Equal(t, int64(5), stats.TotalEntities)
	assert.Equal(t, stats.TotalEntities, stats.SuccessfulWrites+stats.FailedWrites)
	assert.Equal(t, int64(3), stats.SuccessfulWrites)
	assert.Equal(t, int64(2), stats.FailedWrites)
	assert.Equal(t, 60, stats.SuccessRate())
}

func TestChunkedWriter_ReusableAfterFlush(t *testing.T) {
	sink := newFakeSink()
	w, err := NewChunkedWriter("contract", sink, WithConfig(testConfig()))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.Write(ctx, records("a", "b")))
	require.NoError(t, w.Flush(ctx))
	require.NoError(t, w.Write(ctx, records("c")))
	require.NoError(t, w.Flush(ctx))

	assert.Equal(t, 3, sink.savedCount())

	stats := w.Stats()
	assert.Equal(t, int64(3), stats.TotalEntities)
	assert.Equal(t, int64(2), stats.ChunksProcessed)
}

func TestChunkedWriter_ConcurrentWrites(t *testing.T) {
	sink := newFakeSink()
	cfg := testConfig()
	cfg.ChunkSize = 5
	cfg.QueueSize = 2
	w, err := NewChunkedWriter("contract", sink, WithConfig(cfg))
	require.NoError(t, err)

	ctx := context.Background()
	var g errgroup.Group
	for i := 0; i < 4; i++ {
		prefix := string(rune('w' + i))
		g.Go(func() error {
			for j := 0; j < 50; j++ {
				rec := map[string]any{"id": prefix + "-" + string(rune('A'+j%26)) + "-" + string(rune('0'+j/26))}
				if err := w.Write(ctx, []map[string]any{rec}); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.NoError(t, w.Flush(ctx))

	stats := w.Stats()
	assert.Equal(t, int64(200), stats.TotalEntities)
	assert.Equal(t, int64(200), stats.SuccessfulWrites)
	assert.Equal(t, 200, sink.savedCount())
}

func TestStats_SuccessRate(t *testing.T) {
	tests := []struct {
		name       string
		successful int64
		failed     int64
		want       int
	}{
		{name: "no completed writes", successful: 0, failed: 0, want: 100},
		{name: "all successful", successful: 10, failed: 0, want: 100},
		{name: "all failed", successful: 0, failed: 5, want: 0},
		{name: "one of three", successful: 1, failed: 2, want: 33},
		{name: "two of three", successful: 2, failed: 1, want: 66},
		{name: "three of four", successful: 3, failed: 1, want: 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Stats{SuccessfulWrites: tt.successful, FailedWrites: tt.failed}
			assert.Equal(t, tt.want, s.SuccessRate())
		})
	}
}

func TestChunkedWriter_WriteEmptyBatch(t *testing.T) {
	w, err := NewChunkedWriter("contract", newFakeSink(), WithConfig(testConfig()))
	require.NoError(t, err)

	require.NoError(t, w.Write(context.Background(), nil))
	assert.Equal(t, int64(0), w.Stats().TotalEntities)
}

func TestChunkedWriter_SinkErrorsNeverSurface(t *testing.T) {
	sink := newFakeSink()
	sink.failures["a"] = -1
	sink.failures["b"] = -1

	cfg := testConfig()
	cfg.MaxRetries = 0
	w, err := NewChunkedWriter("contract", sink, WithConfig(cfg))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, w.Write(ctx, records("a", "b")))
	require.NoError(t, w.Flush(ctx))

	stats := w.Stats()
	assert.Equal(t, int64(2), stats.FailedWrites)
	assert.Equal(t, int64(0), stats.Retries)
}
