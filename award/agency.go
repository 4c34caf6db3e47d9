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

// Agency hierarchy levels in order. The names label entity records and
// key the per-level extraction overrides.
const (
	LevelDepartment = "department"
	LevelAgency     = "agency"
	LevelOffice     = "office"
)

// AgencyConfig configures the agency hierarchy store.
type AgencyConfig struct {
	// OutputPath is the canonical save target
	OutputPath string

	// Persist sets the save size thresholds
	Persist persist.Options

	// LevelMappings overrides the default per-level extraction, keyed by
	// level name. Levels without an override use the defaults.
	LevelMappings map[string][]extract.Mapping
}

// Agency caches the three-level awarding hierarchy. One row can carry a
// department, an agency and an office; each present level becomes its
// own entity, and consecutive present levels are linked both ways
// through the agency vocabulary.
type Agency struct {
	*store.Store

	levels    []levelExtractor
	validator validate.Validator
	logger    *slog.Logger
}

// levelExtractor pairs a hierarchy level with the extractor that pulls
// its fields out of a raw row.
type levelExtractor struct {
	name string
	ex   extract.Extractor
}

// defaultAgencyMappings extracts the awarding-side hierarchy columns.
func defaultAgencyMappings() map[string][]extract.Mapping {
	return map[string][]extract.Mapping{
		LevelDepartment: {
			{Source: []string{"awarding_agency_code"}, Target: "toptier_code", Transforms: []string{"trim"}},
			{Source: []string{"awarding_agency_name"}, Target: "name", Transforms: []string{"trim"}},
		},
		LevelAgency: {
			{Source: []string{"awarding_sub_agency_code"}, Target: "subtier_code", Transforms: []string{"trim"}},
			{Source: []string{"awarding_sub_agency_name"}, Target: "name", Transforms: []string{"trim"}},
		},
		LevelOffice: {
			{Source: []string{"awarding_office_code"}, Target: "office_code", Transforms: []string{"trim"}},
			{Source: []string{"awarding_office_name"}, Target: "name", Transforms: []string{"trim"}},
		},
	}
}

// NewAgency creates the agency store with the fixed three-level
// configuration over the agency vocabulary.
func NewAgency(cfg AgencyConfig, deps Deps) (*Agency, error) {
	deps = deps.normalized()

	st, err := store.New(store.Config{
		Name:       "agencies",
		EntityType: "agency",
		Levels: []store.LevelConfig{
			{Name: LevelDepartment, KeyFields: []string{"toptier_code"}, ChildRelation: relation.HasSubagency},
			{Name: LevelAgency, KeyFields: []string{"subtier_code"}, ChildRelation: relation.HasOffice},
			{Name: LevelOffice, KeyFields: []string{"office_code"}},
		},
		OutputPath: cfg.OutputPath,
		Persist:    cfg.Persist,
	}, relation.AgencyVocabulary(), storeOptions(deps)...)
	if err != nil {
		return nil, err
	}

	defaults := defaultAgencyMappings()
	levels := make([]levelExtractor, 0, len(defaults))
	for _, name := range []string{LevelDepartment, LevelAgency, LevelOffice} {
		mappings, ok := cfg.LevelMappings[name]
		if !ok {
			mappings = defaults[name]
		}
		ex, err := extract.NewFieldExtractor(mappings, extract.WithTypeAdapter(deps.Adapter))
		if err != nil {
			return nil, errors.Wrap(err, "Agency", "NewAgency", name+" extractor")
		}
		levels = append(levels, levelExtractor{name: name, ex: ex})
	}

	return &Agency{
		Store:     st,
		levels:    levels,
		validator: deps.Validator,
		logger:    deps.Logger,
	}, nil
}

// AddRow extracts each hierarchy level from the row and caches every
// level that produced data. Results are keyed by level name. A row with
// no hierarchy columns counts as one skipped attempt.
func (a *Agency) AddRow(row map[string]any) map[string]entity.AddResult {
	levelData := make(map[string]map[string]any, len(a.levels))
	counted := false

	for _, lvl := range a.levels {
		data, err := lvl.ex.Extract(row)
		if err != nil {
			counted = true
			a.Store.Skip(entity.SkipExtractionError)
			a.logger.Debug("Level extraction failed",
				"store", a.Store.Name(),
				"level", lvl.name,
				"error", err)
			continue
		}
		if len(data) == 0 {
			continue
		}
		if !runValidator(a.validator, a.logger, a.Store.Name(), a.Store.EntityType(), data, row) {
			counted = true
			a.Store.Skip(entity.SkipInvalidInput)
			continue
		}
		levelData[lvl.name] = data
	}

	if len(levelData) == 0 {
		if !counted {
			a.Store.Skip(entity.SkipNoRelevantData)
		}
		return nil
	}
	return a.Store.AddLevels(levelData)
}

// storeOptions builds the generic store options every domain store
// shares from the dependency set.
func storeOptions(deps Deps) []store.Option {
	opts := []store.Option{store.WithLogger(deps.Logger)}
	if deps.Registry != nil {
		opts = append(opts, store.WithMetricsRegistry(deps.Registry))
	}
	return opts
}
