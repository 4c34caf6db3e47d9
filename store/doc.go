// Package store provides the deduplicating entity store at the center of
// ledger processing: deterministic keys, shallow field merges, a typed
// relationship graph with cycle prevention, and size-aware persistence.
//
// A store is configured with an entity type, key fields (or a level
// table for hierarchical stores), and an output path. Flat stores accept
// records through Add; hierarchical stores split rows into per-level
// entities through AddLevels. Forward references to parents not yet seen
// are held pending and either resolved when the real record arrives or
// materialized as synthetic entities by Finalize, which Save runs before
// writing.
//
// Every add attempt is counted. Records that cannot be keyed are skipped
// with a reason rather than returned as errors; processing always
// continues. Skip counts, relationship counts and key provenance are
// persisted in the output file metadata.
package store
