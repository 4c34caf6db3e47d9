// Package validate defines the validation contract consumed by domain
// stores.
//
// A Validator inspects extracted entity data before it enters a store and
// returns a Result per finding. Results are observations, not errors: a
// store counts or logs failures and decides for itself whether to skip the
// record, so validation never interrupts a processing run.
//
// The package ships the contract plus the small reusable rules the ledger
// stores need (required fields, mutually exclusive flag sets). Heavier
// rule engines implement Validator externally and plug in through the same
// interface.
package validate
