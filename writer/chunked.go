package writer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/c360/semledger/errors"
	"github.com/c360/semledger/metric"
	"github.com/c360/semledger/pkg/buffer"
	"github.com/c360/semledger/pkg/retry"
	"github.com/c360/semledger/pkg/worker"
)

// chunk is one unit of work handed to the pool: a bounded batch of
// records extracted from the staging buffer in FIFO order.
type chunk struct {
	number  int64
	records []map[string]any
}

// ChunkedWriter streams entity records to a sink in bounded-memory
// chunks. Write stages records in a circular buffer; every time the
// buffer holds a full chunk, the chunk is handed to a worker pool that
// attempts each record against the sink, retaining failures for up to
// MaxRetries extra passes with a capped linear pause between passes.
// Records still failing after the budget count as permanent failures in
// the statistics; they are never surfaced as errors, so one bad record
// cannot fail a large streaming job.
//
// The pool starts lazily on the first chunk and stops during Flush,
// after which the writer is idle and can be written to again. Write and
// Flush are safe for concurrent use; chunk completion order across
// workers is unspecified.
type ChunkedWriter struct {
	entityType string
	sink       Sink
	sinkName   string
	config     Config
	logger     *slog.Logger
	registry   *metric.MetricsRegistry
	metrics    *metric.Metrics

	mu         sync.Mutex
	buffer     buffer.Buffer[map[string]any]
	pool       *worker.Pool[*chunk]
	poolCancel context.CancelFunc
	poolStarts int
	chunkSeq   int64

	totalEntities    int64
	successfulWrites int64
	failedWrites     int64
	retries          int64
	chunksProcessed  int64
}

// Option configures a ChunkedWriter.
type Option func(*ChunkedWriter)

// WithConfig sets the writer configuration.
func WithConfig(config Config) Option {
	return func(w *ChunkedWriter) {
		w.config = config
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *ChunkedWriter) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithMetricsRegistry enables buffer, pool and entity-save metrics on
// the registry.
func WithMetricsRegistry(registry *metric.MetricsRegistry) Option {
	return func(w *ChunkedWriter) {
		if registry != nil {
			w.registry = registry
			w.metrics = registry.CoreMetrics()
		}
	}
}

// NewChunkedWriter creates a writer streaming entityType records to
// sink.
func NewChunkedWriter(entityType string, sink Sink, opts ...Option) (*ChunkedWriter, error) {
	if entityType == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"ChunkedWriter", "NewChunkedWriter", "entity type is required")
	}
	if sink == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"ChunkedWriter", "NewChunkedWriter", "sink is required")
	}

	w := &ChunkedWriter{
		entityType: entityType,
		sink:       sink,
		sinkName:   sinkLabel(sink),
		config:     DefaultConfig(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.config = w.config.normalized()

	bufferOpts := []buffer.Option[map[string]any]{
		buffer.WithOverflowPolicy[map[string]any](buffer.Block),
	}
	if w.registry != nil {
		bufferOpts = append(bufferOpts,
			buffer.WithMetrics[map[string]any](w.registry, "writer_"+entityType))
	}

	buf, err := buffer.NewCircularBuffer[map[string]any](w.config.BufferSize, bufferOpts...)
	if err != nil {
		return nil, errors.WrapInvalid(err, "ChunkedWriter", "NewChunkedWriter", "staging buffer")
	}
	w.buffer = buf

	return w, nil
}

// Write stages records and submits full chunks to the pool. It blocks
// when the pool queue is full rather than dropping chunks, and returns
// an error only for context cancellation or a stopped pool; per-record
// sink failures surface in Stats, not here.
func (w *ChunkedWriter) Write(ctx context.Context, recs []map[string]any) error {
	if len(recs) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	atomic.AddInt64(&w.totalEntities, int64(len(recs)))

	for _, rec := range recs {
		if err := w.buffer.WriteWithContext(ctx, rec); err != nil {
			return errors.WrapTransient(err, "ChunkedWriter", "Write", "stage record")
		}
		if w.buffer.Size() >= w.config.ChunkSize {
			if err := w.submitLocked(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush submits whatever is staged as a final chunk, waits for every
// accepted chunk to finish, and stops the pool. The writer is idle
// afterwards; a later Write starts a fresh pool.
func (w *ChunkedWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for !w.buffer.IsEmpty() {
		if err := w.submitLocked(ctx); err != nil {
			return err
		}
	}

	if w.pool == nil {
		return nil
	}

	if err := w.pool.Drain(ctx); err != nil {
		return errors.WrapTransient(err, "ChunkedWriter", "Flush", "drain worker pool")
	}

	w.poolCancel()
	if err := w.pool.Stop(w.config.StopTimeout); err != nil {
		return errors.WrapTransient(err, "ChunkedWriter", "Flush", "stop worker pool")
	}
	w.pool = nil
	w.poolCancel = nil

	stats := w.Stats()
	w.logger.Info("Flushed chunked writer",
		"entity_type", w.entityType,
		"sink", w.sinkName,
		"total", stats.TotalEntities,
		"successful", stats.SuccessfulWrites,
		"failed", stats.FailedWrites,
		"chunks", stats.ChunksProcessed,
		"success_rate", stats.SuccessRate())
	return nil
}

// Stats returns a snapshot of the delivery counters.
func (w *ChunkedWriter) Stats() Stats {
	return Stats{
		TotalEntities:    atomic.LoadInt64(&w.totalEntities),
		SuccessfulWrites: atomic.LoadInt64(&w.successfulWrites),
		FailedWrites:     atomic.LoadInt64(&w.failedWrites),
		Retries:          atomic.LoadInt64(&w.retries),
		ChunksProcessed:  atomic.LoadInt64(&w.chunksProcessed),
	}
}

// submitLocked extracts one chunk from the buffer and hands it to the
// pool, starting the pool on first use. Callers hold w.mu.
func (w *ChunkedWriter) submitLocked(ctx context.Context) error {
	records := w.buffer.ReadBatch(w.config.ChunkSize)
	if len(records) == 0 {
		return nil
	}

	if err := w.ensurePoolLocked(); err != nil {
		return err
	}

	c := &chunk{
		number:  atomic.AddInt64(&w.chunkSeq, 1),
		records: records,
	}
	if err := w.pool.SubmitWait(ctx, c); err != nil {
		return errors.WrapTransient(err, "ChunkedWriter", "Write", "submit chunk")
	}
	return nil
}

// ensurePoolLocked lazily creates and starts the worker pool. The pool
// runs on its own cancellable context so flushing can release the
// metrics updater along with the workers.
func (w *ChunkedWriter) ensurePoolLocked() error {
	if w.pool != nil {
		return nil
	}

	// Pool metric names are registered once per writer; pools started
	// after a flush skip re-registration.
	poolOpts := []worker.Option[*chunk]{}
	if w.registry != nil && w.poolStarts == 0 {
		poolOpts = append(poolOpts,
			worker.WithMetricsRegistry[*chunk](w.registry, "writer_"+w.entityType+"_pool"))
	}
	pool := worker.NewPool[*chunk](w.config.Workers, w.config.QueueSize, w.processChunk, poolOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	if err := pool.Start(ctx); err != nil {
		cancel()
		return errors.WrapTransient(err, "ChunkedWriter", "Write", "start worker pool")
	}

	w.pool = pool
	w.poolCancel = cancel
	w.poolStarts++

	w.logger.Debug("Started chunk worker pool",
		"entity_type", w.entityType,
		"workers", w.config.Workers)
	return nil
}

// processChunk attempts every record in the chunk against the sink,
// then re-attempts the still-failing subset for up to MaxRetries extra
// passes, pausing min(5, pass) retry units between passes. Leftover
// failures are counted, logged and dropped.
func (w *ChunkedWriter) processChunk(ctx context.Context, c *chunk) error {
	failing := w.attemptPass(ctx, c.records)

	for pass := 1; len(failing) > 0 && pass <= w.config.MaxRetries; pass++ {
		atomic.AddInt64(&w.retries, 1)
		if err := retry.Sleep(ctx, retry.CappedLinearDelay(pass, maxBackoffUnits, w.config.RetryUnit)); err != nil {
			break
		}
		failing = w.attemptPass(ctx, failing)
	}

	if len(failing) > 0 {
		atomic.AddInt64(&w.failedWrites, int64(len(failing)))
		if w.metrics != nil {
			for i := 0; i < len(failing); i++ {
				w.metrics.RecordEntitySaved(w.sinkName, w.entityType, "failed")
			}
		}
		w.logger.Warn("Chunk finished with permanent failures",
			"entity_type", w.entityType,
			"chunk", c.number,
			"records", len(c.records),
			"failed", len(failing))
	}

	atomic.AddInt64(&w.chunksProcessed, 1)
	return nil
}

// attemptPass tries each record once and returns the failing subset.
func (w *ChunkedWriter) attemptPass(ctx context.Context, records []map[string]any) []map[string]any {
	var failing []map[string]any
	var lastErr error

	for _, rec := range records {
		if _, err := w.sink.SaveEntity(ctx, w.entityType, rec); err != nil {
			failing = append(failing, rec)
			lastErr = err
			continue
		}
		atomic.AddInt64(&w.successfulWrites, 1)
		if w.metrics != nil {
			w.metrics.RecordEntitySaved(w.sinkName, w.entityType, "success")
		}
	}

	if lastErr != nil {
		w.logger.Debug("Write pass left failing records",
			"entity_type", w.entityType,
			"failing", len(failing),
			"error", lastErr)
	}
	return failing
}
