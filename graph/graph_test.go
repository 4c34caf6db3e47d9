package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semledger/relation"
)

func TestGraph_AddEdge(t *testing.T) {
	g := NewGraph(relation.AgencyVocabulary(), WithName("agency_store"))

	added := g.AddEdge("dept:1", relation.HasSubagency, "agency:2")
	require.True(t, added)

	// Forward and inverse recorded atomically.
	assert.Equal(t, []string{"agency:2"}, g.Related("dept:1", relation.HasSubagency))
	assert.Equal(t, []string{"dept:1"}, g.Related("agency:2", relation.BelongsToAgency))

	// Duplicate is a no-op.
	assert.False(t, g.AddEdge("dept:1", relation.HasSubagency, "agency:2"))
	assert.Equal(t, 1, g.Count(relation.HasSubagency))
	assert.Equal(t, 1, g.Count(relation.BelongsToAgency))
}

func TestGraph_AddEdgeRejectsInvalid(t *testing.T) {
	g := NewGraph(relation.Core())

	tests := []struct {
		name string
		from string
		to   string
	}{
		{name: "self edge", from: "agency:1", to: "agency:1"},
		{name: "empty from", from: "", to: "agency:1"},
		{name: "empty to", from: "agency:1", to: ""},
		{name: "both empty", from: "", to: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, g.AddEdge(tt.from, relation.ChildOf, tt.to))
		})
	}

	assert.Equal(t, 0, g.Count(relation.ChildOf))
	assert.Equal(t, 0, g.Count(relation.ParentOf))
}

func TestGraph_RelatedSorted(t *testing.T) {
	g := NewGraph(relation.AgencyVocabulary())

	g.AddEdge("dept:1", relation.HasSubagency, "agency:zulu")
	g.AddEdge("dept:1", relation.HasSubagency, "agency:alpha")
	g.AddEdge("dept:1", relation.HasSubagency, "agency:mike")

	assert.Equal(t,
		[]string{"agency:alpha", "agency:mike", "agency:zulu"},
		g.Related("dept:1", relation.HasSubagency))

	assert.Nil(t, g.Related("dept:1", relation.HasOffice))
	assert.Nil(t, g.Related("unknown", relation.HasSubagency))
}

func TestGraph_HasRelated(t *testing.T) {
	g := NewGraph(relation.ContractVocabulary())

	g.AddEdge("contract:1", relation.AwardedBy, "agency:7")

	assert.True(t, g.HasRelated("contract:1", relation.AwardedBy))
	assert.True(t, g.HasRelated("agency:7", relation.Awarded))
	assert.False(t, g.HasRelated("contract:1", relation.FundedBy))
	assert.False(t, g.HasRelated("contract:2", relation.AwardedBy))
}

func TestGraph_Counts(t *testing.T) {
	g := NewGraph(relation.ContractVocabulary())

	g.AddEdge("contract:1", relation.AwardedBy, "agency:1")
	g.AddEdge("contract:2", relation.AwardedBy, "agency:1")
	g.AddEdge("contract:1", relation.FundedBy, "agency:2")

	counts := g.Counts()
	assert.Equal(t, 2, counts[relation.AwardedBy])
	assert.Equal(t, 2, counts[relation.Awarded])
	assert.Equal(t, 1, counts[relation.FundedBy])
	assert.Equal(t, 1, counts[relation.Funded])

	_, present := counts[relation.ParentAwardedBy]
	assert.False(t, present, "types without edges stay out of the counts")
}

func TestGraph_SnapshotRestore(t *testing.T) {
	g := NewGraph(relation.AgencyVocabulary(), WithName("agency_store"))

	g.AddEdge("dept:1", relation.HasSubagency, "agency:2")
	g.AddEdge("dept:1", relation.HasSubagency, "agency:3")
	g.AddEdge("agency:2", relation.HasOffice, "office:4")

	snap := g.Snapshot()
	require.Equal(t, []string{"agency:2", "agency:3"}, snap[relation.HasSubagency]["dept:1"])
	require.Equal(t, []string{"office:4"}, snap[relation.HasOffice]["agency:2"])

	// The snapshot is detached from later mutation.
	g.AddEdge("dept:1", relation.HasSubagency, "agency:5")
	assert.Len(t, snap[relation.HasSubagency]["dept:1"], 2)

	restored := NewGraph(relation.AgencyVocabulary())
	restored.Restore(snap)

	assert.Equal(t, []string{"agency:2", "agency:3"}, restored.Related("dept:1", relation.HasSubagency))
	assert.Equal(t, []string{"dept:1"}, restored.Related("agency:2", relation.BelongsToAgency))
	assert.Equal(t, 2, restored.Count(relation.HasSubagency))
}

func TestGraph_NilVocabularyDefaultsToCore(t *testing.T) {
	g := NewGraph(nil)

	require.NotNil(t, g.Vocabulary())
	assert.True(t, g.Vocabulary().Has(relation.ParentOf))

	g.AddEdge("child:1", relation.ChildOf, "parent:1")
	assert.Equal(t, []string{"child:1"}, g.Related("parent:1", relation.ParentOf))
}
