// Package writer streams entity records to pluggable sinks in
// bounded-memory chunks with bounded retry.
//
// ChunkedWriter stages records in a circular buffer, hands full chunks
// to a lazily started worker pool, and attempts each record against the
// sink with capped linear backoff between retry passes. Failures past
// the retry budget become statistics rather than errors, giving large
// streaming jobs at-least-partial-success semantics. AsyncChunkedWriter
// adds a bounded queue and a single background consumer so callers
// never wait on sink latency.
//
// Chunks leave the buffer in FIFO order but complete in unspecified
// order across workers; success and failure are attributed per record,
// not per position.
package writer
