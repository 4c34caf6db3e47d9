// Package entity defines the record model shared by every store: the
// deduplicated Record, the AddResult outcome type with its skip reasons,
// per-store Stats, and the KeyGenerator that derives deterministic keys.
//
// Keys come in two provenances. A natural key is built from configured key
// fields ("agency:code=012"); a hash key is a name-based UUID over the full
// record content, used when no natural key is available. Stats track both
// counts, and they travel into persisted file metadata.
//
// Skips are deliberately not errors: an empty record, a missing key field,
// or a row with nothing relevant increments a counter and processing moves
// on. AddResult carries that branch structure explicitly, so store callers
// switch on Outcome instead of unwrapping errors for expected conditions.
package entity
