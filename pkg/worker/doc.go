// Package worker provides a generic, thread-safe worker pool for concurrent task processing.
//
// # Overview
//
// The worker package implements a production-ready worker pool pattern with:
//   - Generic type support (Go 1.18+) for type-safe work processing
//   - Bounded queues with a choice of backpressure modes (drop or block)
//   - Context-aware cancellation and graceful shutdown
//   - Drain support for flush-style callers that must wait for in-flight work
//   - Dual-tracking observability (always-on statistics + optional Prometheus metrics)
//
// # Core Concepts
//
// Worker Pool Pattern:
//
// The worker pool manages a fixed number of goroutines (workers) that process work items
// from a bounded channel (queue). This pattern provides:
//   - Resource control: Fixed memory and goroutine overhead
//   - Backpressure: Queue fills when workers can't keep up
//   - Load distribution: Work items evenly distributed across workers
//   - Observability: Statistics on throughput, latency, and queue depth
//
// Generic Type Safety:
//
// Using Go generics, the pool can process any work type T without type assertions:
//
//	type chunkJob struct {
//	    Entities []map[string]any
//	}
//
//	pool := worker.NewPool[chunkJob](
//	    4,    // workers
//	    100,  // queue size
//	    func(ctx context.Context, job chunkJob) error {
//	        // Persist chunk
//	        return nil
//	    },
//	)
//
// Two Submission Modes:
//
// Submit() is non-blocking: when the queue is full the item is dropped and
// ErrQueueFull returned. This suits request paths where latency matters more
// than completeness.
//
// SubmitWait(ctx, item) blocks until queue space frees, the context is
// cancelled, or the pool shuts down. It never drops work. Batch pipelines
// such as the chunked entity writer use this mode: every chunk handed to the
// pool must eventually reach a sink, so the producer slows down instead of
// shedding load.
//
// Drain:
//
// Drain(ctx) blocks until every accepted item has been fully processed. It
// does not stop the pool. Flush-style callers pair it with Stop:
//
//	if err := pool.Drain(ctx); err != nil {
//	    return err
//	}
//	if err := pool.Stop(10 * time.Second); err != nil {
//	    return err
//	}
//
// Dual-Tracking Observability:
//
// Following the framework pattern:
//   - Statistics: ALWAYS tracked using atomic operations (zero-allocation)
//   - Metrics: OPTIONAL Prometheus metrics for external monitoring
//
// This ensures internal observability is always available while allowing
// users to opt-in to Prometheus integration.
//
// # Usage Examples
//
// Basic Worker Pool:
//
//	type Job struct {
//	    ID   int
//	    Data string
//	}
//
//	pool := worker.NewPool[Job](
//	    5,     // 5 workers
//	    100,   // queue holds 100 jobs
//	    func(ctx context.Context, job Job) error {
//	        log.Printf("Processing job %d: %s", job.ID, job.Data)
//	        return nil
//	    },
//	)
//
//	ctx := context.Background()
//	if err := pool.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Stop(5 * time.Second)
//
//	for i := 0; i < 1000; i++ {
//	    job := Job{ID: i, Data: fmt.Sprintf("task-%d", i)}
//	    if err := pool.SubmitWait(ctx, job); err != nil {
//	        return err
//	    }
//	}
//
//	// Wait for every job before reporting results
//	if err := pool.Drain(ctx); err != nil {
//	    return err
//	}
//
// With Prometheus Metrics:
//
//	import "github.com/c360/semledger/metric"
//
//	registry := metric.NewMetricsRegistry()
//
//	pool := worker.NewPool[Job](
//	    10, 1000, processJob,
//	    worker.WithMetricsRegistry[Job](registry, "chunk_writer"),
//	)
//
//	// Metrics exposed:
//	// - chunk_writer_queue_depth (current queue depth)
//	// - chunk_writer_utilization (queue depth / queue size)
//	// - chunk_writer_submitted_total (total submitted)
//	// - chunk_writer_processed_total (total processed)
//	// - chunk_writer_failed_total (total failed)
//	// - chunk_writer_dropped_total (total dropped when queue full)
//	// - chunk_writer_processing_duration_seconds (histogram by status)
//
// # Thread Safety
//
// All public methods are safe for concurrent use:
//
//   - Submit(): Protected by lifecycleMu, non-blocking channel send
//   - SubmitWait(): Read-locks the send gate; Stop waits for in-flight sends
//   - Drain(): Condition-variable wait on the pending counter
//   - Start()/Stop(): Protected by lifecycleMu mutex
//   - Stats(): Atomic loads plus a short pending-counter lock
//
// Lifecycle guarantees:
//   - Start() can only be called once
//   - Submit()/SubmitWait() fail if not started or already stopped
//   - Stop() is idempotent (safe to call multiple times)
//   - Stop() drains queued work unless the start context is cancelled
//   - SubmitWait() never sends on a closed channel; Stop's send gate excludes it
//
// # Error Handling
//
// The worker package uses standard sentinel errors (not classified errors)
// because pool errors are always programming errors or resource exhaustion:
//
//   - ErrPoolNotStarted: Submit before Start
//   - ErrPoolAlreadyStarted: Start called twice
//   - ErrPoolStopped: Submit after Stop, or pool shut down mid-SubmitWait
//   - ErrQueueFull: Non-blocking submit found the queue at capacity
//   - ErrNilProcessor: Validation failure at construction
//   - ErrStopTimeout: Workers didn't finish within the Stop timeout
//
// Processor functions can return classified errors (Fatal, Transient, Invalid)
// and the pool will track them in the failed counter, but doesn't interpret them.
//
// # Known Limitations
//
//  1. No per-work-item timeout: Implement in processor function
//  2. No priority queues: All work processed FIFO
//  3. No work cancellation: Can't cancel individual queued items
//  4. Queue depth metrics: 1-second granularity (ticker-based)
//  5. No dynamic worker scaling: Worker count is fixed
//
// # See Also
//
//   - buffer package: For buffering with overflow policies
//   - retry package: For retry pacing of failed chunks
//   - metric package: For metrics registry integration
package worker
