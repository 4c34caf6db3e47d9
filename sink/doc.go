// Package sink provides delivery targets for the chunked entity writer.
//
// Every sink implements writer.Sink: SaveEntity takes one entity and
// returns an opaque identifier for the stored copy. Sinks classify their
// failures through the errors package so callers can distinguish bad
// records (invalid, not worth retrying) from transport trouble
// (transient, retried by the writer).
//
// JetStream publishes entities to a NATS JetStream subject per entity
// type. File appends JSON Lines to a local file. WebSocket forwards
// entities to a collector over a persistent connection with keepalive.
// RateLimited wraps any sink with a token bucket. Memory is the
// in-process sink used by tests.
package sink
