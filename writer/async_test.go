package writer

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semledger/errors"
)

// gatedSink blocks every save until the gate is closed.
type gatedSink struct {
	*fakeSink
	gate chan struct{}
}

func newGatedSink() *gatedSink {
	return &gatedSink{fakeSink: newFakeSink(), gate: make(chan struct{})}
}

func (g *gatedSink) SaveEntity(ctx context.Context, entityType string, data map[string]any) (string, error) {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return g.fakeSink.SaveEntity(ctx, entityType, data)
}

func newAsyncWriter(t *testing.T, sink Sink, cfg Config, opts ...AsyncOption) *AsyncChunkedWriter {
	t.Helper()

	inner, err := NewChunkedWriter("contract", sink, WithConfig(cfg))
	require.NoError(t, err)

	w, err := NewAsyncChunkedWriter(inner, opts...)
	require.NoError(t, err)
	return w
}

func TestNewAsyncChunkedWriter_Validation(t *testing.T) {
	_, err := NewAsyncChunkedWriter(nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestAsyncChunkedWriter_DeliversAllRecords(t *testing.T) {
	sink := newFakeSink()
	w := newAsyncWriter(t, sink, testConfig())

	ctx := context.Background()
	recs := make([]map[string]any, 0, 30)
	for i := 0; i < 30; i++ {
		recs = append(recs, map[string]any{"id": string(rune('a'+i%26)) + "-" + string(rune('0'+i/26))})
	}
	require.NoError(t, w.Write(ctx, recs))
	require.NoError(t, w.Flush(ctx))

	assert.Equal(t, 30, sink.savedCount())

	stats := w.Stats()
	assert.Equal(t, int64(30), stats.TotalEntities)
	assert.Equal(t, int64(30), stats.SuccessfulWrites)
	assert.Equal(t, stats.TotalEntities, stats.SuccessfulWrites+stats.FailedWrites)
}

func TestAsyncChunkedWriter_WriteDoesNotBlockOnSlowSink(t *testing.T) {
	sink := newGatedSink()
	cfg := testConfig()
	cfg.ChunkSize = 2
	w := newAsyncWriter(t, sink, cfg, WithQueueSize(64))

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		require.NoError(t, w.Write(ctx, records(string(rune('a'+i)))))
	}

	close(sink.gate)
	require.NoError(t, w.Flush(ctx))
	assert.Equal(t, 10, sink.savedCount())
}

func TestAsyncChunkedWriter_DrainsQueueOnFlush(t *testing.T) {
	sink := newFakeSink()
	w := newAsyncWriter(t, sink, testConfig(), WithPollInterval(time.Minute))

	ctx := context.Background()
	require.NoError(t, w.Write(ctx, records("a", "b", "c")))
	require.NoError(t, w.Flush(ctx))

	assert.Equal(t, 3, sink.savedCount())
}

func TestAsyncChunkedWriter_WriteAfterFlushFails(t *testing.T) {
	w := newAsyncWriter(t, newFakeSink(), testConfig())

	ctx := context.Background()
	require.NoError(t, w.Write(ctx, records("a")))
	require.NoError(t, w.Flush(ctx))

	err := w.Write(ctx, records("b"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrAlreadyStopped))
}

func TestAsyncChunkedWriter_FlushIsIdempotent(t *testing.T) {
	sink := newFakeSink()
	w := newAsyncWriter(t, sink, testConfig())

	ctx := context.Background()
	require.NoError(t, w.Write(ctx, records("a", "b")))
	require.NoError(t, w.Flush(ctx))
	require.NoError(t, w.Flush(ctx))

	assert.Equal(t, 2, sink.savedCount())
	assert.Equal(t, int64(2), w.Stats().TotalEntities)
}
