package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/semledger/errors"
	"github.com/c360/semledger/pkg/buffer"
)

const (
	// DefaultAsyncQueueSize bounds records waiting for the background
	// consumer.
	DefaultAsyncQueueSize = 10000

	// defaultPollInterval is how often the idle consumer re-checks the
	// queue.
	defaultPollInterval = 20 * time.Millisecond
)

// AsyncChunkedWriter decouples callers from sink latency: Write only
// enqueues onto a bounded queue, and a single background goroutine
// drains the queue into the wrapped ChunkedWriter. Flush stops the
// consumer, waits for it to finish draining, then delegates to the
// wrapped writer's Flush. A flushed writer does not accept further
// writes.
type AsyncChunkedWriter struct {
	inner     *ChunkedWriter
	queue     buffer.Buffer[map[string]any]
	logger    *slog.Logger
	poll      time.Duration
	queueSize int

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// AsyncOption configures an AsyncChunkedWriter.
type AsyncOption func(*AsyncChunkedWriter)

// WithQueueSize sets the queue capacity in records.
func WithQueueSize(size int) AsyncOption {
	return func(w *AsyncChunkedWriter) {
		if size > 0 {
			w.queueSize = size
		}
	}
}

// WithPollInterval sets how often the idle consumer re-checks the
// queue.
func WithPollInterval(interval time.Duration) AsyncOption {
	return func(w *AsyncChunkedWriter) {
		if interval > 0 {
			w.poll = interval
		}
	}
}

// NewAsyncChunkedWriter wraps inner with a background consumer. The
// consumer starts immediately and runs until Flush.
func NewAsyncChunkedWriter(inner *ChunkedWriter, opts ...AsyncOption) (*AsyncChunkedWriter, error) {
	if inner == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"AsyncChunkedWriter", "NewAsyncChunkedWriter", "inner writer is required")
	}

	w := &AsyncChunkedWriter{
		inner:     inner,
		logger:    inner.logger,
		poll:      defaultPollInterval,
		queueSize: DefaultAsyncQueueSize,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	queue, err := buffer.NewCircularBuffer[map[string]any](w.queueSize,
		buffer.WithOverflowPolicy[map[string]any](buffer.Block))
	if err != nil {
		return nil, errors.WrapInvalid(err, "AsyncChunkedWriter", "NewAsyncChunkedWriter", "queue")
	}
	w.queue = queue

	go w.run()
	return w, nil
}

// Write enqueues records without waiting on the sink. It blocks only
// when the queue fills faster than the background consumer drains it,
// and fails once the writer has been flushed.
func (w *AsyncChunkedWriter) Write(ctx context.Context, recs []map[string]any) error {
	select {
	case <-w.done:
		return errors.WrapInvalid(errors.ErrAlreadyStopped,
			"AsyncChunkedWriter", "Write", "writer already flushed")
	default:
	}

	for _, rec := range recs {
		if err := w.queue.WriteWithContext(ctx, rec); err != nil {
			return errors.WrapTransient(err, "AsyncChunkedWriter", "Write", "enqueue record")
		}
	}
	return nil
}

// Flush signals the consumer to stop, waits for it to drain the queue,
// then flushes the wrapped writer.
func (w *AsyncChunkedWriter) Flush(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.stop) })

	select {
	case <-w.done:
	case <-ctx.Done():
		return errors.WrapTransient(ctx.Err(),
			"AsyncChunkedWriter", "Flush", "waiting for background consumer")
	}

	return w.inner.Flush(ctx)
}

// Stats returns the wrapped writer's counters. Records still queued
// here are not counted until the consumer hands them over; after Flush
// the snapshot is complete.
func (w *AsyncChunkedWriter) Stats() Stats {
	return w.inner.Stats()
}

// run drains the queue into the inner writer until stopped, then does a
// final drain so nothing enqueued before Flush is lost.
func (w *AsyncChunkedWriter) run() {
	defer close(w.done)

	ctx := context.Background()
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		if recs := w.queue.DrainAll(); len(recs) > 0 {
			if err := w.inner.Write(ctx, recs); err != nil {
				w.logger.Error("Background write failed",
					"entity_type", w.inner.entityType,
					"records", len(recs),
					"error", err)
			}
			continue
		}

		select {
		case <-w.stop:
			if recs := w.queue.DrainAll(); len(recs) > 0 {
				if err := w.inner.Write(ctx, recs); err != nil {
					w.logger.Error("Final drain failed",
						"entity_type", w.inner.entityType,
						"records", len(recs),
						"error", err)
				}
			}
			return
		case <-ticker.C:
		}
	}
}
