// Package buffer provides thread-safe circular buffers with configurable overflow policies,
// built-in statistics tracking, and optional Prometheus metrics integration.
//
// # Overview
//
// The buffer package implements circular buffers for managing data flow between
// producers and consumers in concurrent systems. Buffers are generic, thread-safe,
// and observable through always-on statistics and optional metrics.
//
// In semledger the primary consumer is the chunked entity writer, which stages
// incoming records here and drains them in fixed-size chunks for the worker pool.
//
// # Quick Start
//
// Basic buffer creation:
//
//	buf, err := buffer.NewCircularBuffer[map[string]any](1000)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	err = buf.Write(record)
//	value, ok := buf.Read()
//
// With overflow policy and metrics:
//
//	buf, err := buffer.NewCircularBuffer[map[string]any](5000,
//		buffer.WithOverflowPolicy[map[string]any](buffer.Block),
//		buffer.WithMetrics[map[string]any](registry, "chunk_writer"),
//	)
//
// # Overflow Policies
//
// The buffer supports three overflow behaviors when capacity is reached:
//
//   - DropOldest: Remove oldest item to make room (default)
//   - DropNewest: Reject new items when full
//   - Block: Write operations wait for available space
//
// Writers that must not lose records use Block, pairing it with
// WriteWithContext so a blocked write can still be cancelled.
//
// # Draining
//
// ReadBatch(n) removes up to n items in FIFO order; DrainAll() removes
// everything at once. Flush paths use DrainAll to form the final chunk.
//
// # Observability
//
// Statistics are always collected via atomic counters and available through
// buf.Stats(): writes, reads, drops, overflows, current and max size, plus
// computed throughput and drop rate. When a metric.MetricsRegistry is supplied
// via WithMetrics, the same figures are exported as Prometheus metrics under
// the semledger_buffer_* names with a component label.
//
// # Thread Safety
//
// All operations are safe for concurrent use. Drop callbacks run outside the
// buffer lock so they may safely re-enter the buffer.
package buffer
