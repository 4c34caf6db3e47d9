package award

import (
	"log/slog"
	"slices"

	"github.com/c360/semledger/entity"
	"github.com/c360/semledger/errors"
	"github.com/c360/semledger/extract"
	"github.com/c360/semledger/persist"
	"github.com/c360/semledger/relation"
	"github.com/c360/semledger/store"
	"github.com/c360/semledger/validate"
)

// TransactionConfig configures the transaction store.
type TransactionConfig struct {
	// OutputPath is the canonical save target
	OutputPath string

	// Persist sets the save size thresholds
	Persist persist.Options

	// Mappings overrides the default extraction
	Mappings []extract.Mapping
}

// Transaction caches individual award actions. Transactions have no
// natural key column set, so records are keyed by content hash; a row
// repeated verbatim deduplicates, any difference yields a new entity.
// Transactions group under their award with BELONGS_TO edges, and the
// store tracks per-award transaction lists and modification numbers.
type Transaction struct {
	*store.Store

	ex        extract.Extractor
	keygen    *entity.KeyGenerator
	validator validate.Validator
	logger    *slog.Logger

	byAward map[string]*awardGroup
}

// awardGroup accumulates the transactions and modification numbers seen
// for one award id.
type awardGroup struct {
	txKeys []string
	mods   map[string]struct{}
}

// defaultTransactionMappings extracts the action identity and value
// columns.
func defaultTransactionMappings() []extract.Mapping {
	return []extract.Mapping{
		{Source: []string{"contract_transaction_unique_key"}, Target: "transaction_id", Transforms: []string{"trim"}},
		{Source: []string{"award_id_piid"}, Target: "piid", Transforms: []string{"trim"}},
		{Source: []string{"modification_number"}, Target: "modification", Transforms: []string{"trim"}},
		{Source: []string{"action_date"}, Target: "action_date", Transforms: []string{"date"}},
		{Source: []string{"action_type"}, Target: "action_type", Transforms: []string{"trim"}},
		{Source: []string{"federal_action_obligation"}, Target: "obligated", Transforms: []string{"number"}},
	}
}

// NewTransaction creates the transaction store. The vocabulary is the
// core set unchanged: grouping reuses BELONGS_TO rather than introducing
// transaction-specific relation types.
func NewTransaction(cfg TransactionConfig, deps Deps) (*Transaction, error) {
	deps = deps.normalized()

	st, err := store.New(store.Config{
		Name:       "transactions",
		EntityType: "transaction",
		OutputPath: cfg.OutputPath,
		Persist:    cfg.Persist,
	}, relation.TransactionVocabulary(), storeOptions(deps)...)
	if err != nil {
		return nil, err
	}

	mappings := cfg.Mappings
	if mappings == nil {
		mappings = defaultTransactionMappings()
	}
	ex, err := extract.NewFieldExtractor(mappings, extract.WithTypeAdapter(deps.Adapter))
	if err != nil {
		return nil, errors.Wrap(err, "Transaction", "NewTransaction", "build extractor")
	}

	return &Transaction{
		Store:     st,
		ex:        ex,
		keygen:    entity.NewKeyGenerator(),
		validator: deps.Validator,
		logger:    deps.Logger,
		byAward:   make(map[string]*awardGroup),
	}, nil
}

// AddRow extracts the action fields from the row, caches the transaction
// under its content hash, and groups it under its award.
func (t *Transaction) AddRow(row map[string]any) entity.AddResult {
	data, err := t.ex.Extract(row)
	if err != nil {
		t.logger.Debug("Transaction extraction failed",
			"store", t.Store.Name(),
			"error", err)
		return t.Store.Skip(entity.SkipExtractionError)
	}
	if len(data) == 0 {
		return t.Store.Skip(entity.SkipNoRelevantData)
	}
	if !runValidator(t.validator, t.logger, t.Store.Name(), t.Store.EntityType(), data, row) {
		return t.Store.Skip(entity.SkipInvalidInput)
	}

	result := t.Store.Add(data)
	if !result.Accepted() {
		return result
	}

	if piid, ok := stringField(data, "piid"); ok {
		t.group(piid, result, data)
	}
	return result
}

// group links the transaction under its award and records it in the
// per-award tracking.
func (t *Transaction) group(piid string, result entity.AddResult, data map[string]any) {
	if awardKey, err := t.keygen.Generate("contract", []string{"piid"}, map[string]any{"piid": piid}); err == nil {
		t.Store.Relate(result.Key, relation.BelongsTo, awardKey)
	}

	g := t.byAward[piid]
	if g == nil {
		g = &awardGroup{mods: make(map[string]struct{})}
		t.byAward[piid] = g
	}
	if result.IsInserted() {
		g.txKeys = append(g.txKeys, result.Key)
	}
	if mod, ok := stringField(data, "modification"); ok {
		g.mods[mod] = struct{}{}
	}
}

// Awards returns the award ids with at least one grouped transaction,
// sorted.
func (t *Transaction) Awards() []string {
	out := make([]string, 0, len(t.byAward))
	for piid := range t.byAward {
		out = append(out, piid)
	}
	slices.Sort(out)
	return out
}

// AwardTransactions returns the transaction keys grouped under an award
// id, sorted.
func (t *Transaction) AwardTransactions(piid string) []string {
	g := t.byAward[piid]
	if g == nil {
		return nil
	}
	out := slices.Clone(g.txKeys)
	slices.Sort(out)
	return out
}

// AwardModifications returns the modification numbers seen for an award
// id, sorted.
func (t *Transaction) AwardModifications(piid string) []string {
	g := t.byAward[piid]
	if g == nil {
		return nil
	}
	out := make([]string, 0, len(g.mods))
	for mod := range g.mods {
		out = append(out, mod)
	}
	slices.Sort(out)
	return out
}
