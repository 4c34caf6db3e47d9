package award

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semledger/entity"
	"github.com/c360/semledger/relation"
)

func newTestRecipient(t *testing.T, deps Deps) *Recipient {
	t.Helper()
	r, err := NewRecipient(RecipientConfig{
		OutputPath: filepath.Join(t.TempDir(), "recipients.json"),
	}, deps)
	require.NoError(t, err)
	return r
}

func TestNewRecipient(t *testing.T) {
	r := newTestRecipient(t, Deps{})

	assert.Equal(t, "recipients", r.Name())
	assert.Equal(t, "recipient", r.EntityType())
}

func TestRecipient_AddRowFoldsCharacteristics(t *testing.T) {
	r := newTestRecipient(t, Deps{})

	result := r.AddRow(map[string]any{
		"recipient_uei":           "abc123def456",
		"recipient_name":          "Example Corp",
		"for_profit_organization": "Y",
		"woman_owned_business":    "true",
		"veteran_owned_business":  "N",
	})
	require.True(t, result.IsInserted())
	assert.Equal(t, "recipient:uei=ABC123DEF456", result.Key)

	rec, ok := r.Get(result.Key)
	require.True(t, ok)
	assert.Equal(t, map[string][]string{
		"structure": {"for_profit"},
		"ownership": {"woman_owned"},
	}, rec.Fields["business_characteristics"])

	assert.NotContains(t, rec.Fields, "for_profit")
	assert.NotContains(t, rec.Fields, "woman_owned")
	assert.NotContains(t, rec.Fields, "veteran_owned")
}

func TestRecipient_AddRowNoFlagsNoCharacteristics(t *testing.T) {
	r := newTestRecipient(t, Deps{})

	result := r.AddRow(map[string]any{
		"recipient_uei":  "UEI000000001",
		"recipient_name": "Plain Corp",
	})
	require.True(t, result.IsInserted())

	rec, _ := r.Get(result.Key)
	assert.NotContains(t, rec.Fields, "business_characteristics")
}

func TestRecipient_MergeUnionsCharacteristics(t *testing.T) {
	r := newTestRecipient(t, Deps{})

	first := r.AddRow(map[string]any{
		"recipient_uei":        "UEI000000001",
		"woman_owned_business": "Y",
	})
	require.True(t, first.IsInserted())

	second := r.AddRow(map[string]any{
		"recipient_uei":          "UEI000000001",
		"veteran_owned_business": "Y",
	})
	require.True(t, second.IsMerged())

	rec, _ := r.Get(first.Key)
	assert.Equal(t, map[string][]string{
		"ownership": {"veteran_owned", "woman_owned"},
	}, rec.Fields["business_characteristics"])
}

func TestRecipient_MergeKeepsExistingCharacteristics(t *testing.T) {
	r := newTestRecipient(t, Deps{})

	r.AddRow(map[string]any{
		"recipient_uei":           "UEI000000001",
		"for_profit_organization": "Y",
	})
	r.AddRow(map[string]any{
		"recipient_uei":  "UEI000000001",
		"recipient_name": "Example Corp",
	})

	rec, _ := r.Get("recipient:uei=UEI000000001")
	assert.Equal(t, "Example Corp", rec.Fields["name"])
	assert.Equal(t, map[string][]string{
		"structure": {"for_profit"},
	}, rec.Fields["business_characteristics"])
}

func TestRecipient_ConflictingStructureFlagsRejected(t *testing.T) {
	r := newTestRecipient(t, Deps{Validator: DefaultValidator()})

	result := r.AddRow(map[string]any{
		"recipient_uei":           "UEI000000001",
		"for_profit_organization": "Y",
		"nonprofit_organization":  "Y",
	})
	require.True(t, result.IsSkipped())
	assert.Equal(t, entity.SkipInvalidInput, result.Reason)
	assert.Zero(t, r.Len())
	assert.Equal(t, 1, r.Stats().Skipped[entity.SkipInvalidInput])
}

func TestRecipient_ParentPendingThenFinalize(t *testing.T) {
	r := newTestRecipient(t, Deps{})

	result := r.AddRow(map[string]any{
		"recipient_uei":         "UEI0000CHILD",
		"recipient_parent_uei":  "UEI000PARENT",
		"recipient_parent_name": "Parent Holdings",
	})
	require.True(t, result.IsInserted())

	pending := r.PendingParents()
	require.Len(t, pending, 1)
	assert.Equal(t, "UEI000PARENT", pending[0].Code)
	assert.Equal(t, "Parent Holdings", pending[0].Name)

	g := r.Graph()
	assert.Equal(t, []string{"recipient:uei=UEI000PARENT"},
		g.Related(result.Key, relation.SubsidiaryOf))
	assert.Equal(t, []string{result.Key},
		g.Related("recipient:uei=UEI000PARENT", relation.HasSubsidiary))

	assert.Equal(t, 1, r.Finalize())

	parent, ok := r.Get("recipient:uei=UEI000PARENT")
	require.True(t, ok)
	assert.Equal(t, "UEI000PARENT", parent.Fields["uei"])
	assert.Equal(t, "Parent Holdings", parent.Fields["name"])
}

func TestRecipient_OwnershipCycleRejected(t *testing.T) {
	r := newTestRecipient(t, Deps{})

	r.AddRow(map[string]any{
		"recipient_uei":        "UEI0000000AA",
		"recipient_parent_uei": "UEI0000000BB",
	})
	r.AddRow(map[string]any{
		"recipient_uei":        "UEI0000000BB",
		"recipient_parent_uei": "UEI0000000AA",
	})

	g := r.Graph()
	assert.Equal(t, []string{"recipient:uei=UEI0000000BB"},
		g.Related("recipient:uei=UEI0000000AA", relation.SubsidiaryOf))
	assert.False(t, g.HasRelated("recipient:uei=UEI0000000BB", relation.SubsidiaryOf))
	assert.EqualValues(t, 1, g.CycleRejections())

	// The second row still resolved the pending parent entry.
	assert.Empty(t, r.PendingParents())
	assert.Equal(t, 2, r.Len())
}

func TestRecipient_LocationEdge(t *testing.T) {
	r := newTestRecipient(t, Deps{})

	first := r.AddRow(map[string]any{
		"recipient_uei":          "UEI000000001",
		"recipient_city_name":    "Springfield",
		"recipient_state_code":   "il",
		"recipient_country_code": "usa",
	})
	require.True(t, first.IsInserted())

	g := r.Graph()
	locations := g.Related(first.Key, relation.LocatedAt)
	require.Len(t, locations, 1)
	assert.True(t, strings.HasPrefix(locations[0], "location:"))

	// LOCATED_AT has no inverse, so only the forward edge is counted.
	assert.Equal(t, 1, r.Stats().RelationshipTotal())

	// The same address from another recipient lands on the same key.
	second := r.AddRow(map[string]any{
		"recipient_uei":          "UEI000000002",
		"recipient_city_name":    "Springfield",
		"recipient_state_code":   "IL",
		"recipient_country_code": "USA",
	})
	require.True(t, second.IsInserted())
	assert.Equal(t, locations, g.Related(second.Key, relation.LocatedAt))
}

func TestRecipient_PartialAddressStillLinks(t *testing.T) {
	r := newTestRecipient(t, Deps{})

	result := r.AddRow(map[string]any{
		"recipient_uei":        "UEI000000001",
		"recipient_state_code": "IL",
	})
	require.True(t, result.IsInserted())
	assert.True(t, r.Graph().HasRelated(result.Key, relation.LocatedAt))
}

func TestRecipient_AddRowMissingUEI(t *testing.T) {
	r := newTestRecipient(t, Deps{})

	result := r.AddRow(map[string]any{
		"recipient_name": "No Identifier Corp",
	})
	require.True(t, result.IsSkipped())
	assert.Equal(t, entity.SkipMissingKeyFields, result.Reason)
}

func TestRecipient_AddRowNoRelevantData(t *testing.T) {
	r := newTestRecipient(t, Deps{})

	result := r.AddRow(map[string]any{"award_id_piid": "ABC123"})
	require.True(t, result.IsSkipped())
	assert.Equal(t, entity.SkipNoRelevantData, result.Reason)
}
