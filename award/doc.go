// Package award holds the four domain stores built on the generic entity
// store, plus the processor that routes raw rows through all of them.
//
// Each store fixes its relation vocabulary and layers domain behavior on
// the shared add/merge/save flow:
//
//   - Agency: the three-level awarding hierarchy. One row can carry a
//     department, an agency and an office; each present level is cached
//     as its own entity and consecutive levels are linked with
//     HAS_SUBAGENCY/BELONGS_TO_AGENCY and HAS_OFFICE/BELONGS_TO_SUBAGENCY.
//   - Contract: awards keyed by piid. Merging keeps the maximum current
//     and potential values, sums obligations, and accumulates the set of
//     modification numbers. Contracts link to awarding and funding
//     agencies (AWARDED_BY/FUNDED_BY) and to parent awards
//     (PARENT_AWARDED_BY), holding unseen parents pending until save.
//   - Recipient: organizations keyed by UEI, with business-characteristic
//     flag sets grouped by category, SUBSIDIARY_OF ownership links under
//     cycle protection, and LOCATED_AT location references.
//   - Transaction: individual award actions under content-hash keys,
//     grouped per award with BELONGS_TO edges and per-award modification
//     tracking.
//
// Rows reach the stores through the extract collaborator; every store
// consults the shared validate.Validator before accepting extracted data.
// A Processor feeds one row stream to all four stores and saves them
// concurrently, each to its own file.
package award
