package writer

import "context"

// Sink receives individual entities from a chunked writer. SaveEntity
// returns the sink-assigned identifier for the entity. Implementations
// are called concurrently from worker goroutines and must be safe for
// concurrent use.
type Sink interface {
	SaveEntity(ctx context.Context, entityType string, data map[string]any) (string, error)
}

// EntityWriter is the streaming write surface shared by the synchronous
// and asynchronous chunked writers.
type EntityWriter interface {
	// Write accepts records for delivery. Whether it blocks depends on
	// the implementation.
	Write(ctx context.Context, recs []map[string]any) error

	// Flush delivers everything buffered and blocks until in-flight
	// work is done.
	Flush(ctx context.Context) error

	// Stats returns a snapshot of delivery counters.
	Stats() Stats
}

// Compile-time interface checks
var (
	_ EntityWriter = (*ChunkedWriter)(nil)
	_ EntityWriter = (*AsyncChunkedWriter)(nil)
)

// sinkLabel names the sink in logs and metric labels when the
// implementation exposes a name.
func sinkLabel(s Sink) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "sink"
}
