package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddResultConstructors(t *testing.T) {
	failure := errors.New("disk full")

	tests := []struct {
		name         string
		result       AddResult
		wantOutcome  Outcome
		wantKey      string
		wantReason   SkipReason
		wantErr      error
		wantAccepted bool
	}{
		{
			name:         "inserted",
			result:       Inserted("agency:code=012"),
			wantOutcome:  OutcomeInserted,
			wantKey:      "agency:code=012",
			wantAccepted: true,
		},
		{
			name:         "merged",
			result:       Merged("agency:code=012"),
			wantOutcome:  OutcomeMerged,
			wantKey:      "agency:code=012",
			wantAccepted: true,
		},
		{
			name:        "skipped",
			result:      Skipped(SkipMissingKeyFields),
			wantOutcome: OutcomeSkipped,
			wantReason:  SkipMissingKeyFields,
		},
		{
			name:        "failed",
			result:      Failed(failure),
			wantOutcome: OutcomeFailed,
			wantErr:     failure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantOutcome, tt.result.Outcome)
			assert.Equal(t, tt.wantKey, tt.result.Key)
			assert.Equal(t, tt.wantReason, tt.result.Reason)
			assert.Equal(t, tt.wantErr, tt.result.Err)
			assert.Equal(t, tt.wantAccepted, tt.result.Accepted())

			assert.Equal(t, tt.wantOutcome == OutcomeInserted, tt.result.IsInserted())
			assert.Equal(t, tt.wantOutcome == OutcomeMerged, tt.result.IsMerged())
			assert.Equal(t, tt.wantOutcome == OutcomeSkipped, tt.result.IsSkipped())
			assert.Equal(t, tt.wantOutcome == OutcomeFailed, tt.result.IsFailed())
		})
	}
}

func TestSkipReasonIsValid(t *testing.T) {
	valid := []SkipReason{
		SkipInvalidData,
		SkipMissingKeyFields,
		SkipNoRelevantData,
		SkipExtractionError,
		SkipInvalidInput,
	}
	for _, reason := range valid {
		assert.True(t, reason.IsValid(), "reason %s", reason)
	}

	assert.False(t, SkipReason("out_of_coffee").IsValid())
	assert.False(t, SkipReason("").IsValid())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "inserted", OutcomeInserted.String())
	assert.Equal(t, "merged", OutcomeMerged.String())
	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
}
