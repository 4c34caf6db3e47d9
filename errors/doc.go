// Package errors provides standardized error handling patterns for semledger components.
//
// # Overview
//
// The errors package implements a three-class error classification system for the
// entity extraction and persistence pipeline: Transient (temporary, retryable),
// Invalid (bad input, non-retryable), and Fatal (unrecoverable, stop processing).
//
// Classification lets stores, writers, and sinks make consistent decisions about
// retries and failure handling without hardcoded error string matching.
//
// # Error Classification
//
//   - Transient: connection loss, publish timeouts, storage temporarily unavailable (retry)
//   - Invalid: malformed records, extraction failures, records with no relevant data (do not retry)
//   - Fatal: bad configuration, inconsistent partition indexes, resource exhaustion (stop)
//
// The classification integrates with Go's standard error handling, supporting
// errors.Is(), errors.As(), and wrapping chains.
//
// # Quick Start
//
// Return standard error variables for known conditions:
//
//	if conn == nil {
//	    return errors.ErrNoConnection
//	}
//
// Wrap errors with component context:
//
//	if err := mgr.writePartition(ctx, part); err != nil {
//	    return errors.WrapTransient(err, "PersistenceManager", "Save", "write partition")
//	}
//
// Check classification when deciding whether a failed entity write goes back on
// the retry list:
//
//	if err := sink.SaveEntity(ctx, typ, data); err != nil {
//	    if errors.IsTransient(err) {
//	        retryList = append(retryList, data)
//	    } else {
//	        stats.RecordFailure()
//	    }
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// The format keeps log parsing and debugging consistent across the pipeline. The
// Wrap family applies the pattern while preserving classification through the chain:
//
//	errors.WrapTransient(err, "Component", "Method", "action")
//	errors.WrapInvalid(err, "Component", "Method", "action")
//	errors.WrapFatal(err, "Component", "Method", "action")
//
// The generic Wrap() preserves the original error's classification.
//
// # Retry Integration
//
// RetryConfig bridges classification to the pkg/retry framework:
//
//	cfg := errors.DefaultRetryConfig()
//	err := retry.Do(ctx, cfg.ToRetryConfig(), func() error {
//	    return sink.SaveEntity(ctx, typ, data)
//	})
//
// Skip conditions during extraction (missing key fields, irrelevant records) are
// not errors at all: stores record them as statistics and keep going. Only
// persistence and transport failures travel through this package.
package errors
