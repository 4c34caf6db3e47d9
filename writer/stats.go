package writer

// Stats is a point-in-time snapshot of a writer's delivery counters.
// TotalEntities counts every record ever passed to Write; after a Flush
// it equals SuccessfulWrites + FailedWrites.
type Stats struct {
	// TotalEntities counts records accepted by Write
	TotalEntities int64 `json:"total_entities"`

	// SuccessfulWrites counts records the sink accepted, on any pass
	SuccessfulWrites int64 `json:"successful_writes"`

	// FailedWrites counts records still failing after the retry budget
	FailedWrites int64 `json:"failed_writes"`

	// Retries counts retry passes across all chunks
	Retries int64 `json:"retries"`

	// ChunksProcessed counts chunks fully processed by the pool
	ChunksProcessed int64 `json:"chunks_processed"`
}

// SuccessRate returns the integer percentage of completed writes that
// succeeded, floor(successful*100/(successful+failed)). A writer with no
// completed writes reports 100.
func (s Stats) SuccessRate() int {
	completed := s.SuccessfulWrites + s.FailedWrites
	if completed == 0 {
		return 100
	}
	return int(s.SuccessfulWrites * 100 / completed)
}
