package entity

// SkipReason classifies why a record was not added to a store. Skips are
// statistics, not errors; processing always continues past them.
type SkipReason string

const (
	// SkipInvalidData marks an empty or nil record.
	SkipInvalidData SkipReason = "invalid_data"

	// SkipMissingKeyFields marks a record missing one or more configured
	// key fields, so no deterministic key could be derived.
	SkipMissingKeyFields SkipReason = "missing_key_fields"

	// SkipNoRelevantData marks a row that contained none of the fields a
	// store extracts.
	SkipNoRelevantData SkipReason = "no_relevant_data"

	// SkipExtractionError marks a row the extraction collaborator could
	// not turn into entity data.
	SkipExtractionError SkipReason = "extraction_error"

	// SkipInvalidInput marks input rejected before extraction, such as a
	// malformed row.
	SkipInvalidInput SkipReason = "invalid_input"
)

// String returns the string representation of the SkipReason.
func (sr SkipReason) String() string {
	return string(sr)
}

// IsValid checks if the SkipReason is one of the defined constants.
func (sr SkipReason) IsValid() bool {
	switch sr {
	case SkipInvalidData, SkipMissingKeyFields, SkipNoRelevantData,
		SkipExtractionError, SkipInvalidInput:
		return true
	default:
		return false
	}
}

// Outcome classifies what a store did with one Add call.
type Outcome string

const (
	// OutcomeInserted indicates a new key entered the cache.
	OutcomeInserted Outcome = "inserted"

	// OutcomeMerged indicates the key already existed and its fields were
	// merged.
	OutcomeMerged Outcome = "merged"

	// OutcomeSkipped indicates the record was counted and dropped; the
	// result carries the SkipReason.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeFailed indicates an unexpected error; the result carries it.
	OutcomeFailed Outcome = "failed"
)

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	return string(o)
}

// AddResult reports the outcome of a single Add call. Exactly one
// constructor applies: Inserted and Merged carry the record key, Skipped
// carries the reason, Failed carries the error. Routine skips flow through
// this type rather than error returns, so callers branch on Outcome.
type AddResult struct {
	Outcome Outcome
	Key     string
	Reason  SkipReason
	Err     error
}

// Inserted reports that key entered the cache for the first time.
func Inserted(key string) AddResult {
	return AddResult{Outcome: OutcomeInserted, Key: key}
}

// Merged reports that key already existed and absorbed the new fields.
func Merged(key string) AddResult {
	return AddResult{Outcome: OutcomeMerged, Key: key}
}

// Skipped reports that the record was dropped for the given reason.
func Skipped(reason SkipReason) AddResult {
	return AddResult{Outcome: OutcomeSkipped, Reason: reason}
}

// Failed reports an unexpected error while adding the record.
func Failed(err error) AddResult {
	return AddResult{Outcome: OutcomeFailed, Err: err}
}

// Accepted returns true when the record landed in the cache, whether by
// insert or merge.
func (r AddResult) Accepted() bool {
	return r.Outcome == OutcomeInserted || r.Outcome == OutcomeMerged
}

// IsInserted returns true for a first-time insert.
func (r AddResult) IsInserted() bool {
	return r.Outcome == OutcomeInserted
}

// IsMerged returns true when the record merged into an existing entry.
func (r AddResult) IsMerged() bool {
	return r.Outcome == OutcomeMerged
}

// IsSkipped returns true when the record was dropped with a reason.
func (r AddResult) IsSkipped() bool {
	return r.Outcome == OutcomeSkipped
}

// IsFailed returns true when an unexpected error occurred.
func (r AddResult) IsFailed() bool {
	return r.Outcome == OutcomeFailed
}
