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

// RecipientConfig configures the recipient store.
type RecipientConfig struct {
	// OutputPath is the canonical save target
	OutputPath string

	// Persist sets the save size thresholds
	Persist persist.Options

	// Mappings overrides the default extraction
	Mappings []extract.Mapping
}

// Recipient caches awarded organizations keyed by UEI. Boolean business
// flags fold into per-category characteristic sets, parent organizations
// link through SUBSIDIARY_OF with cycle protection and pending-parent
// resolution, and address fields become LOCATED_AT references to
// content-hashed location keys.
type Recipient struct {
	*store.Store

	ex        extract.Extractor
	keygen    *entity.KeyGenerator
	validator validate.Validator
	logger    *slog.Logger
}

// businessCategories groups the boolean characteristic fields into the
// flag sets kept per recipient. The structure flags are mutually
// exclusive, enforced by the validator rather than here.
var businessCategories = map[string][]string{
	"structure": {"for_profit", "nonprofit"},
	"size":      {"small_business"},
	"ownership": {"minority_owned", "veteran_owned", "woman_owned"},
}

// defaultRecipientMappings extracts the organization identity, address,
// and business flag columns.
func defaultRecipientMappings() []extract.Mapping {
	return []extract.Mapping{
		{Source: []string{"recipient_uei"}, Target: "uei", Transforms: []string{"trim", "uppercase"}},
		{Source: []string{"recipient_name"}, Target: "name", Transforms: []string{"trim"}},
		{Source: []string{"recipient_parent_uei"}, Target: "parent_uei", Transforms: []string{"trim", "uppercase"}},
		{Source: []string{"recipient_parent_name"}, Target: "parent_name", Transforms: []string{"trim"}},
		{Source: []string{"recipient_city_name"}, Target: "city", Transforms: []string{"trim"}},
		{Source: []string{"recipient_state_code"}, Target: "state", Transforms: []string{"trim", "uppercase"}},
		{Source: []string{"recipient_country_code"}, Target: "country", Transforms: []string{"trim", "uppercase"}},
		{Source: []string{"contracting_officers_small_business_determination"}, Target: "small_business", Transforms: []string{"boolean"}},
		{Source: []string{"woman_owned_business"}, Target: "woman_owned", Transforms: []string{"boolean"}},
		{Source: []string{"veteran_owned_business"}, Target: "veteran_owned", Transforms: []string{"boolean"}},
		{Source: []string{"minority_owned_business"}, Target: "minority_owned", Transforms: []string{"boolean"}},
		{Source: []string{"nonprofit_organization"}, Target: "nonprofit", Transforms: []string{"boolean"}},
		{Source: []string{"for_profit_organization"}, Target: "for_profit", Transforms: []string{"boolean"}},
	}
}

// recipientMerge unions the characteristic sets per category before the
// shallow overwrite.
func recipientMerge(existing *entity.Record, incoming map[string]any) {
	mergeCharacteristics(existing.Fields, incoming)
	existing.Merge(incoming)
}

// NewRecipient creates the recipient store over the recipient vocabulary.
func NewRecipient(cfg RecipientConfig, deps Deps) (*Recipient, error) {
	deps = deps.normalized()

	opts := append(storeOptions(deps), store.WithMergeFunc(recipientMerge))
	st, err := store.New(store.Config{
		Name:       "recipients",
		EntityType: "recipient",
		KeyFields:  []string{"uei"},
		OutputPath: cfg.OutputPath,
		Persist:    cfg.Persist,
	}, relation.RecipientVocabulary(), opts...)
	if err != nil {
		return nil, err
	}

	mappings := cfg.Mappings
	if mappings == nil {
		mappings = defaultRecipientMappings()
	}
	ex, err := extract.NewFieldExtractor(mappings, extract.WithTypeAdapter(deps.Adapter))
	if err != nil {
		return nil, errors.Wrap(err, "Recipient", "NewRecipient", "build extractor")
	}

	return &Recipient{
		Store:     st,
		ex:        ex,
		keygen:    entity.NewKeyGenerator(),
		validator: deps.Validator,
		logger:    deps.Logger,
	}, nil
}

// AddRow extracts recipient fields from the row, folds boolean flags
// into characteristic sets, caches the organization, and registers its
// ownership and location links.
func (r *Recipient) AddRow(row map[string]any) entity.AddResult {
	data, err := r.ex.Extract(row)
	if err != nil {
		r.logger.Debug("Recipient extraction failed",
			"store", r.Store.Name(),
			"error", err)
		return r.Store.Skip(entity.SkipExtractionError)
	}
	if len(data) == 0 {
		return r.Store.Skip(entity.SkipNoRelevantData)
	}
	if !runValidator(r.validator, r.logger, r.Store.Name(), r.Store.EntityType(), data, row) {
		return r.Store.Skip(entity.SkipInvalidInput)
	}

	foldCharacteristics(data)

	result := r.Store.Add(data)
	if !result.Accepted() {
		return result
	}

	r.link(result.Key, data)
	return result
}

// link registers the recipient's relationships: the parent organization
// through the pending-parent path, and the address as a LOCATED_AT edge
// to a content-hashed location key.
func (r *Recipient) link(key string, data map[string]any) {
	if parentUEI, ok := stringField(data, "parent_uei"); ok {
		parentName, _ := stringField(data, "parent_name")
		fields := map[string]any{"uei": parentUEI}
		if parentName != "" {
			fields["name"] = parentName
		}
		r.Store.AddParentChild(key, relation.SubsidiaryOf, store.ParentRef{
			Code:   parentUEI,
			Name:   parentName,
			Fields: fields,
		})
	}

	locFields := make(map[string]any, 3)
	for _, f := range []string{"city", "state", "country"} {
		if v, ok := stringField(data, f); ok {
			locFields[f] = v
		}
	}
	if len(locFields) > 0 {
		locKey := r.keygen.GenerateHash("location", locFields)
		r.Store.Relate(key, relation.LocatedAt, locKey)
	}
}

// foldCharacteristics replaces the boolean flag fields with per-category
// sets of the flags that are on. Categories with no flags on are absent.
func foldCharacteristics(data map[string]any) {
	var characteristics map[string][]string
	for category, flags := range businessCategories {
		var on []string
		for _, flag := range flags {
			if validate.Truthy(data[flag]) {
				on = append(on, flag)
			}
			delete(data, flag)
		}
		if len(on) == 0 {
			continue
		}
		slices.Sort(on)
		if characteristics == nil {
			characteristics = make(map[string][]string, len(businessCategories))
		}
		characteristics[category] = on
	}
	if characteristics != nil {
		data["business_characteristics"] = characteristics
	}
}

// mergeCharacteristics rewrites the incoming characteristic map to the
// category-wise union of both sides.
func mergeCharacteristics(existing, incoming map[string]any) {
	ex, exOK := existing["business_characteristics"].(map[string][]string)
	in, inOK := incoming["business_characteristics"].(map[string][]string)
	if !exOK {
		return
	}
	if !inOK {
		in = make(map[string][]string, len(ex))
	}

	for category, flags := range ex {
		seen := make(map[string]struct{}, len(flags)+len(in[category]))
		union := make([]string, 0, len(flags)+len(in[category]))
		for _, f := range append(slices.Clone(flags), in[category]...) {
			if _, dup := seen[f]; !dup {
				seen[f] = struct{}{}
				union = append(union, f)
			}
		}
		slices.Sort(union)
		in[category] = union
	}
	incoming["business_characteristics"] = in
}
