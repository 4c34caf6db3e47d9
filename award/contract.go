package award

import (
	"log/slog"

	"github.com/c360/semledger/entity"
	"github.com/c360/semledger/errors"
	"github.com/c360/semledger/extract"
	"github.com/c360/semledger/persist"
	"github.com/c360/semledger/relation"
	"github.com/c360/semledger/store"
	"github.com/c360/semledger/validate"
)

// ContractConfig configures the contract store.
type ContractConfig struct {
	// OutputPath is the canonical save target
	OutputPath string

	// Persist sets the save size thresholds
	Persist persist.Options

	// Mappings overrides the default extraction
	Mappings []extract.Mapping
}

// Contract caches awards keyed by piid. Repeated rows for one award
// merge: current and potential values keep their maximum, obligations
// sum, and the set of modification numbers grows. Each accepted award
// links to its awarding and funding agencies, and to its parent award
// through the pending-parent mechanism when the parent has not arrived.
type Contract struct {
	*store.Store

	ex        extract.Extractor
	keygen    *entity.KeyGenerator
	validator validate.Validator
	logger    *slog.Logger
}

// defaultContractMappings extracts the award identity, value, and
// reference columns.
func defaultContractMappings() []extract.Mapping {
	return []extract.Mapping{
		{Source: []string{"award_id_piid"}, Target: "piid", Transforms: []string{"trim"}},
		{Source: []string{"award_description"}, Target: "description", Transforms: []string{"trim"}},
		{Source: []string{"current_total_value_of_award"}, Target: "current", Transforms: []string{"number"}},
		{Source: []string{"potential_total_value_of_award"}, Target: "potential", Transforms: []string{"number"}},
		{Source: []string{"federal_action_obligation"}, Target: "obligated", Transforms: []string{"number"}},
		{Source: []string{"modification_number"}, Target: "modification", Transforms: []string{"trim"}},
		{Source: []string{"awarding_sub_agency_code"}, Target: "awarding_agency_code", Transforms: []string{"trim"}},
		{Source: []string{"funding_sub_agency_code"}, Target: "funding_agency_code", Transforms: []string{"trim"}},
		{Source: []string{"parent_award_id_piid"}, Target: "parent_piid", Transforms: []string{"trim"}},
	}
}

// contractMerge reconciles the accumulator fields before the shallow
// overwrite: value maxima, obligation sum, modification set union.
func contractMerge(existing *entity.Record, incoming map[string]any) {
	mergeMax(existing.Fields, incoming, "current")
	mergeMax(existing.Fields, incoming, "potential")
	mergeSum(existing.Fields, incoming, "obligated")
	mergeStringSet(existing.Fields, incoming, "modifications")
	existing.Merge(incoming)
}

// NewContract creates the contract store over the contract vocabulary.
func NewContract(cfg ContractConfig, deps Deps) (*Contract, error) {
	deps = deps.normalized()

	opts := append(storeOptions(deps), store.WithMergeFunc(contractMerge))
	st, err := store.New(store.Config{
		Name:       "contracts",
		EntityType: "contract",
		KeyFields:  []string{"piid"},
		OutputPath: cfg.OutputPath,
		Persist:    cfg.Persist,
	}, relation.ContractVocabulary(), opts...)
	if err != nil {
		return nil, err
	}

	mappings := cfg.Mappings
	if mappings == nil {
		mappings = defaultContractMappings()
	}
	ex, err := extract.NewFieldExtractor(mappings, extract.WithTypeAdapter(deps.Adapter))
	if err != nil {
		return nil, errors.Wrap(err, "Contract", "NewContract", "build extractor")
	}

	return &Contract{
		Store:     st,
		ex:        ex,
		keygen:    entity.NewKeyGenerator(),
		validator: deps.Validator,
		logger:    deps.Logger,
	}, nil
}

// AddRow extracts award fields from the row, folds the row's
// modification number into the award's modification set, caches the
// award, and registers its agency and parent-award links.
func (c *Contract) AddRow(row map[string]any) entity.AddResult {
	data, err := c.ex.Extract(row)
	if err != nil {
		c.logger.Debug("Contract extraction failed",
			"store", c.Store.Name(),
			"error", err)
		return c.Store.Skip(entity.SkipExtractionError)
	}
	if len(data) == 0 {
		return c.Store.Skip(entity.SkipNoRelevantData)
	}
	if !runValidator(c.validator, c.logger, c.Store.Name(), c.Store.EntityType(), data, row) {
		return c.Store.Skip(entity.SkipInvalidInput)
	}

	if mod, ok := stringField(data, "modification"); ok {
		data["modifications"] = []string{mod}
	}
	delete(data, "modification")

	result := c.Store.Add(data)
	if !result.Accepted() {
		return result
	}

	c.link(result.Key, data)
	return result
}

// link registers the award's relationships. Agency endpoints are foreign
// keys synthesized with the agency key derivation; parent awards live in
// this store and go through the pending-parent path.
func (c *Contract) link(key string, data map[string]any) {
	if code, ok := stringField(data, "awarding_agency_code"); ok {
		if agencyKey, ok := c.agencyKey(code); ok {
			c.Store.Relate(key, relation.AwardedBy, agencyKey)
		}
	}
	if code, ok := stringField(data, "funding_agency_code"); ok {
		if agencyKey, ok := c.agencyKey(code); ok {
			c.Store.Relate(key, relation.FundedBy, agencyKey)
		}
	}
	if parent, ok := stringField(data, "parent_piid"); ok {
		c.Store.AddParentChild(key, relation.ParentAwardedBy, store.ParentRef{
			Code:   parent,
			Fields: map[string]any{"piid": parent},
		})
	}
}

// agencyKey synthesizes the key an awarding or funding agency carries in
// the agency store, so cross-store edges land on real entities.
func (c *Contract) agencyKey(code string) (string, bool) {
	key, err := c.keygen.Generate("agency", []string{"subtier_code"}, map[string]any{"subtier_code": code})
	if err != nil {
		return "", false
	}
	return key, true
}
