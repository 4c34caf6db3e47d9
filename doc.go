// Package semledger turns flat award extracts into deduplicated entity
// stores with explicit relationship graphs and durable JSON ledgers.
//
// One pass over a transaction-level CSV produces four stores: the
// awarding agency hierarchy, contracts, recipients and individual
// transactions. Each row is mapped through declarative extraction
// tables, validated, keyed deterministically (natural key fields when
// the entity type has them, content hashes when it does not), and
// merged into its store; repeat references reconcile rather than
// duplicate. Relationships between entities, within and across stores,
// are held in a typed graph whose vocabularies pair every relation with
// its inverse and mark the hierarchy chains that must stay acyclic.
//
// # Architecture
//
//	rows ─► extract ─► validate ─► store (key, dedup, merge)
//	                                  │
//	                     graph (typed edges, cycle checks)
//	                                  │
//	              persist (single file or partitions, atomic)
//	                                  │
//	        writer ─► sink (JetStream, WebSocket, file, rate limit)
//
// Saving is size-aware: a sampling pass estimates the output and picks
// a single JSON document or partition files plus an index, written
// atomically either way. The chunked writer streams saved entities to
// pluggable sinks with bounded memory and bounded retry, which is how
// ledgers reach NATS JetStream when publishing is enabled.
//
// # Package Organization
//
//   - entity, relation, graph: records, keys, vocabularies, the
//     relationship graph
//   - extract, validate: row mapping and pre-store validation rules
//   - store: the generic add/merge/link/save flow domain stores build on
//   - award: the four domain stores and the row processor
//   - persist: snapshot layouts, size estimation, atomic writes
//   - writer, sink: chunked streaming delivery and its destinations
//   - natsclient, metric, errors, config: connection management,
//     Prometheus metrics, error classification, layered configuration
//   - pkg/buffer, pkg/cache, pkg/retry, pkg/worker: the buffering,
//     memoization, retry and pooling primitives the writer and graph
//     build on
//   - cmd/semledger: the command line pipeline
package semledger
