// Package relation defines the typed edge vocabulary for entity graphs.
//
// A relation type is an UPPER_SNAKE label on a directed edge between two
// entity keys. A Vocabulary groups the types one store understands and
// records two pieces of semantics the graph relies on:
//
//   - Inverse pairs: when a type has a registered inverse, adding a forward
//     edge adds the reverse edge atomically (HAS_SUBAGENCY pairs with
//     BELONGS_TO_AGENCY, AWARDED_BY with AWARDED, and so on).
//   - Cycle classification: hierarchy chain types (PARENT_OF, CHILD_OF,
//     BELONGS_TO, SUBSIDIARY_OF, PARENT_AWARDED_BY) are traversed by the
//     graph's cycle detector; annotation types such as LOCATED_AT are not.
//
// Each store owns its own Vocabulary instance, built from Core plus the
// store's domain constructor (AgencyVocabulary, ContractVocabulary,
// RecipientVocabulary, TransactionVocabulary). There is no process-global
// registry: two stores can carry different metadata for the same label
// without interfering.
//
// Relation type strings appear verbatim in persisted ledger files, both as
// adjacency keys and in per-type relationship counts, so the constants in
// this package are part of the on-disk format.
package relation
