package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semledger/persist"
	"github.com/c360/semledger/relation"
)

func TestStore_AddParentChildHoldsPending(t *testing.T) {
	st := newRecipientStore(t)

	child := st.Add(map[string]any{"duns": "111111111", "name": "Subsidiary Inc"})
	require.True(t, child.IsInserted())

	added := st.AddParentChild(child.Key, relation.SubsidiaryOf, ParentRef{
		Code:   "999999999",
		Name:   "Parent Holdings",
		Fields: map[string]any{"duns": "999999999", "name": "Parent Holdings"},
	})
	require.True(t, added)

	parentKey := "recipient:duns=999999999"
	g := st.Graph()
	assert.Equal(t, []string{parentKey}, g.Related(child.Key, relation.SubsidiaryOf))
	assert.Equal(t, []string{child.Key}, g.Related(parentKey, relation.HasSubsidiary))

	pending := st.PendingParents()
	require.Len(t, pending, 1)
	assert.Equal(t, "999999999", pending[0].Code)
	assert.Equal(t, "Parent Holdings", pending[0].Name)
	assert.Equal(t, parentKey, pending[0].Key)

	// The placeholder is not an entity yet.
	assert.Equal(t, 1, st.Len())

	stats := st.Stats()
	assert.Equal(t, 1, stats.Relationships[relation.SubsidiaryOf])
	assert.Equal(t, 1, stats.Relationships[relation.HasSubsidiary])
}

func TestStore_PendingResolvedOnArrival(t *testing.T) {
	st := newRecipientStore(t)

	child := st.Add(map[string]any{"duns": "111111111"})
	st.AddParentChild(child.Key, relation.SubsidiaryOf, ParentRef{
		Code:   "999999999",
		Fields: map[string]any{"duns": "999999999"},
	})
	require.Len(t, st.PendingParents(), 1)

	parent := st.Add(map[string]any{"duns": "999999999", "name": "Parent Holdings", "state": "DE"})
	require.True(t, parent.IsInserted())

	assert.Empty(t, st.PendingParents())
	assert.Equal(t, 0, st.Finalize())

	rec, ok := st.Get(parent.Key)
	require.True(t, ok)
	assert.Equal(t, "Parent Holdings", rec.Fields["name"])
}

func TestStore_FinalizeMaterializesLeftovers(t *testing.T) {
	st := newRecipientStore(t)

	child := st.Add(map[string]any{"duns": "111111111"})
	st.AddParentChild(child.Key, relation.SubsidiaryOf, ParentRef{
		Code:   "999999999",
		Name:   "Parent Holdings",
		Fields: map[string]any{"duns": "999999999", "name": "Parent Holdings"},
	})

	created := st.Finalize()
	assert.Equal(t, 1, created)
	assert.Empty(t, st.PendingParents())

	rec, ok := st.Get("recipient:duns=999999999")
	require.True(t, ok)
	assert.Equal(t, "recipient", rec.Type)
	assert.Equal(t, "999999999", rec.Fields["duns"])
	assert.Equal(t, "Parent Holdings", rec.Fields["name"])

	// Materialization counts a unique entity, not an add attempt.
	stats := st.Stats()
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 2, stats.Unique)
	assert.Equal(t, 1, stats.NaturalKeys)

	assert.Equal(t, 0, st.Finalize())
}

func TestStore_SaveFinalizesPending(t *testing.T) {
	cfg := recipientConfig(t)
	st, err := New(cfg, relation.RecipientVocabulary())
	require.NoError(t, err)

	child := st.Add(map[string]any{"duns": "111111111", "name": "Subsidiary Inc"})
	st.AddParentChild(child.Key, relation.SubsidiaryOf, ParentRef{
		Code:   "999999999",
		Fields: map[string]any{"duns": "999999999"},
	})

	result, err := st.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.EntityCount)

	loaded, err := persist.Load(cfg.OutputPath)
	require.NoError(t, err)

	// Every relationship endpoint exists as an entity.
	require.Contains(t, loaded.Entities, "recipient:duns=999999999")
	for rel, edges := range loaded.Relationships {
		for from, tos := range edges {
			assert.Contains(t, loaded.Entities, from, "relation %s", rel)
			for _, to := range tos {
				assert.Contains(t, loaded.Entities, to, "relation %s", rel)
			}
		}
	}
}

func TestStore_AddParentChildRejectsInvalid(t *testing.T) {
	st := newRecipientStore(t)
	child := st.Add(map[string]any{"duns": "111111111"})

	tests := []struct {
		name     string
		childKey string
		rel      relation.Type
		parent   ParentRef
	}{
		{
			name:     "empty child key",
			childKey: "",
			rel:      relation.SubsidiaryOf,
			parent:   ParentRef{Fields: map[string]any{"duns": "999999999"}},
		},
		{
			name:     "empty relation",
			childKey: child.Key,
			rel:      "",
			parent:   ParentRef{Fields: map[string]any{"duns": "999999999"}},
		},
		{
			name:     "no seed fields",
			childKey: child.Key,
			rel:      relation.SubsidiaryOf,
			parent:   ParentRef{Code: "999999999"},
		},
		{
			name:     "seed missing key field",
			childKey: child.Key,
			rel:      relation.SubsidiaryOf,
			parent:   ParentRef{Fields: map[string]any{"name": "Parent Holdings"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, st.AddParentChild(tt.childKey, tt.rel, tt.parent))
		})
	}

	assert.Empty(t, st.PendingParents())
	assert.Equal(t, 0, st.Stats().RelationshipTotal())
}

func TestStore_AddParentChildHashKeyStoreUnsupported(t *testing.T) {
	cfg := Config{
		Name:       "transactions",
		EntityType: "transaction",
		OutputPath: "out/transactions.json",
	}
	st, err := New(cfg, nil)
	require.NoError(t, err)

	child := st.Add(map[string]any{"award_id": "A-1"})
	added := st.AddParentChild(child.Key, relation.ChildOf, ParentRef{
		Fields: map[string]any{"award_id": "A-0"},
	})
	assert.False(t, added)
	assert.Empty(t, st.PendingParents())
}

func TestStore_AddParentChildDuplicateEdge(t *testing.T) {
	st := newRecipientStore(t)
	child := st.Add(map[string]any{"duns": "111111111"})

	ref := ParentRef{
		Code:   "999999999",
		Fields: map[string]any{"duns": "999999999"},
	}
	assert.True(t, st.AddParentChild(child.Key, relation.SubsidiaryOf, ref))
	assert.False(t, st.AddParentChild(child.Key, relation.SubsidiaryOf, ref))

	assert.Len(t, st.PendingParents(), 1)
	assert.Equal(t, 1, st.Stats().Relationships[relation.SubsidiaryOf])
}

func TestStore_AddParentChildRejectsOwnershipCycle(t *testing.T) {
	st := newRecipientStore(t)

	first := st.Add(map[string]any{"duns": "111111111"})
	second := st.Add(map[string]any{"duns": "222222222"})

	added := st.AddParentChild(first.Key, relation.SubsidiaryOf, ParentRef{
		Code:   "222222222",
		Fields: map[string]any{"duns": "222222222"},
	})
	require.True(t, added)

	// The reverse ownership edge would make each company its own
	// ancestor.
	added = st.AddParentChild(second.Key, relation.SubsidiaryOf, ParentRef{
		Code:   "111111111",
		Fields: map[string]any{"duns": "111111111"},
	})
	assert.False(t, added)

	assert.Equal(t, uint64(1), st.Graph().CycleRejections())
	assert.Equal(t, 1, st.Stats().Relationships[relation.SubsidiaryOf])
	assert.Empty(t, st.PendingParents())
}

func TestStore_PendingParentsSorted(t *testing.T) {
	st := newRecipientStore(t)
	child := st.Add(map[string]any{"duns": "111111111"})

	for _, code := range []string{"300000000", "100000000", "200000000"} {
		st.AddParentChild(child.Key, relation.SubsidiaryOf, ParentRef{
			Code:   code,
			Fields: map[string]any{"duns": code},
		})
	}

	pending := st.PendingParents()
	require.Len(t, pending, 3)
	assert.Equal(t, "recipient:duns=100000000", pending[0].Key)
	assert.Equal(t, "recipient:duns=200000000", pending[1].Key)
	assert.Equal(t, "recipient:duns=300000000", pending[2].Key)
}
