package award

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/semledger/entity"
	"github.com/c360/semledger/relation"
)

func newTestTransaction(t *testing.T, deps Deps) *Transaction {
	t.Helper()
	tx, err := NewTransaction(TransactionConfig{
		OutputPath: filepath.Join(t.TempDir(), "transactions.json"),
	}, deps)
	require.NoError(t, err)
	return tx
}

func transactionRow(txID, piid, mod string) map[string]any {
	return map[string]any{
		"contract_transaction_unique_key": txID,
		"award_id_piid":                   piid,
		"modification_number":             mod,
		"action_date":                     "2024-01-15",
		"federal_action_obligation":       "1000",
	}
}

func TestNewTransaction(t *testing.T) {
	tx := newTestTransaction(t, Deps{})

	assert.Equal(t, "transactions", tx.Name())
	assert.Equal(t, "transaction", tx.EntityType())
}

func TestTransaction_HashKeys(t *testing.T) {
	tx := newTestTransaction(t, Deps{})

	result := tx.AddRow(transactionRow("TX1", "ABC123", "0"))
	require.True(t, result.IsInserted())
	assert.True(t, strings.HasPrefix(result.Key, "transaction:"))

	stats := tx.Stats()
	assert.Equal(t, 1, stats.HashKeys)
	assert.Zero(t, stats.NaturalKeys)

	rec, ok := tx.Get(result.Key)
	require.True(t, ok)
	assert.Equal(t, "TX1", rec.Fields["transaction_id"])
	assert.Equal(t, 1000.0, rec.Fields["obligated"])
}

func TestTransaction_IdenticalRowsDeduplicate(t *testing.T) {
	tx := newTestTransaction(t, Deps{})

	first := tx.AddRow(transactionRow("TX1", "ABC123", "0"))
	second := tx.AddRow(transactionRow("TX1", "ABC123", "0"))

	require.True(t, first.IsInserted())
	require.True(t, second.IsMerged())
	assert.Equal(t, first.Key, second.Key)
	assert.Equal(t, 1, tx.Stats().Unique)
}

func TestTransaction_DifferentContentDistinctKeys(t *testing.T) {
	tx := newTestTransaction(t, Deps{})

	first := tx.AddRow(transactionRow("TX1", "ABC123", "0"))
	second := tx.AddRow(transactionRow("TX1", "ABC123", "1"))

	require.True(t, first.IsInserted())
	require.True(t, second.IsInserted())
	assert.NotEqual(t, first.Key, second.Key)
	assert.Equal(t, 2, tx.Stats().Unique)
}

func TestTransaction_GroupsByAward(t *testing.T) {
	tx := newTestTransaction(t, Deps{})

	first := tx.AddRow(transactionRow("TX1", "ABC123", "0"))
	second := tx.AddRow(transactionRow("TX2", "ABC123", "1"))
	third := tx.AddRow(transactionRow("TX3", "XYZ789", "0"))

	g := tx.Graph()
	assert.Equal(t, []string{"contract:piid=ABC123"},
		g.Related(first.Key, relation.BelongsTo))
	assert.Equal(t, []string{"contract:piid=ABC123"},
		g.Related(second.Key, relation.BelongsTo))
	assert.Equal(t, []string{"contract:piid=XYZ789"},
		g.Related(third.Key, relation.BelongsTo))

	assert.Equal(t, []string{"ABC123", "XYZ789"}, tx.Awards())

	keys := tx.AwardTransactions("ABC123")
	require.Len(t, keys, 2)
	assert.Contains(t, keys, first.Key)
	assert.Contains(t, keys, second.Key)
	assert.True(t, slices.IsSorted(keys))

	assert.Equal(t, []string{"0", "1"}, tx.AwardModifications("ABC123"))
	assert.Equal(t, []string{"0"}, tx.AwardModifications("XYZ789"))
}

func TestTransaction_MergedRowGroupsOnce(t *testing.T) {
	tx := newTestTransaction(t, Deps{})

	tx.AddRow(transactionRow("TX1", "ABC123", "0"))
	tx.AddRow(transactionRow("TX1", "ABC123", "0"))

	assert.Len(t, tx.AwardTransactions("ABC123"), 1)
	assert.Equal(t, []string{"0"}, tx.AwardModifications("ABC123"))
}

func TestTransaction_NoAwardIDNoGroup(t *testing.T) {
	tx := newTestTransaction(t, Deps{})

	result := tx.AddRow(map[string]any{
		"contract_transaction_unique_key": "TX1",
		"action_date":                     "2024-01-15",
	})
	require.True(t, result.IsInserted())

	assert.Empty(t, tx.Awards())
	assert.Nil(t, tx.AwardTransactions("ABC123"))
	assert.Nil(t, tx.AwardModifications("ABC123"))
	assert.Zero(t, tx.Stats().RelationshipTotal())
}

func TestTransaction_CoercesActionFields(t *testing.T) {
	tx := newTestTransaction(t, Deps{})

	result := tx.AddRow(map[string]any{
		"contract_transaction_unique_key": "TX1",
		"action_date":                     "01/15/2024",
		"federal_action_obligation":       "$1,000.00",
	})
	require.True(t, result.IsInserted())

	rec, _ := tx.Get(result.Key)
	assert.Equal(t, "2024-01-15", rec.Fields["action_date"])
	assert.Equal(t, 1000.0, rec.Fields["obligated"])
}

func TestTransaction_AddRowNoRelevantData(t *testing.T) {
	tx := newTestTransaction(t, Deps{})

	result := tx.AddRow(map[string]any{"recipient_uei": "UEI000000001"})
	require.True(t, result.IsSkipped())
	assert.Equal(t, entity.SkipNoRelevantData, result.Reason)
}
