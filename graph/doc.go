// Package graph maintains the typed relationship structure between entity
// keys: a directed, multi-edge adjacency map with set semantics, paired
// inverse edges, and cycle prevention for hierarchy types.
//
// Edges accumulate and are never deleted in normal operation. AddEdge on a
// cycle-forming relation type first checks whether the edge would make an
// entity its own ancestor; offending edges are dropped and logged with a
// throttle rather than surfaced as errors, so dirty input degrades to a
// counter instead of stopping a run. The check is an iterative walk bounded
// by a visit budget, with confirmed cycles memoized in a per-graph LRU.
//
// Snapshot and Restore convert between the in-memory adjacency and the
// persisted wire shape (relation type -> from key -> sorted to keys).
package graph
