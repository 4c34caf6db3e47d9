package store

import (
	"fmt"

	"github.com/c360/semledger/errors"
	"github.com/c360/semledger/persist"
	"github.com/c360/semledger/relation"
)

// LevelConfig describes one level of a fixed entity hierarchy, such as
// the department level of department/agency/office. A hierarchical store
// splits a single input record into one entity per present level.
type LevelConfig struct {
	// Name labels the level and is recorded on each entity's Level field
	Name string `json:"name" yaml:"name"`

	// KeyFields derive the level's entity key from the level's field map
	KeyFields []string `json:"key_fields" yaml:"key_fields"`

	// ChildRelation links an entity at this level to the entity one level
	// down in the same record. Empty on the last level.
	ChildRelation relation.Type `json:"child_relation,omitempty" yaml:"child_relation,omitempty"`
}

// Config configures a Store.
type Config struct {
	// Name identifies the store in logs and metric labels
	Name string `json:"name" yaml:"name"`

	// EntityType prefixes every key the store derives and is written to
	// the output file metadata
	EntityType string `json:"entity_type" yaml:"entity_type"`

	// KeyFields derive natural keys for flat stores. Empty switches the
	// store to content-hash keys.
	KeyFields []string `json:"key_fields,omitempty" yaml:"key_fields,omitempty"`

	// Levels describes the fixed hierarchy for stores that split one
	// record into several entities. Empty for flat stores.
	Levels []LevelConfig `json:"levels,omitempty" yaml:"levels,omitempty"`

	// OutputPath is the canonical file the store saves to
	OutputPath string `json:"output_path" yaml:"output_path"`

	// Persist sets the size thresholds for this store's output files
	Persist persist.Options `json:"persist" yaml:"persist"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "name is required")
	}

	if c.EntityType == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "entity_type is required")
	}

	if c.OutputPath == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "output_path is required")
	}

	if len(c.KeyFields) > 0 && len(c.Levels) > 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"key_fields and levels are mutually exclusive")
	}

	for i, level := range c.Levels {
		if level.Name == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				fmt.Sprintf("level %d: name is required", i))
		}
		if len(level.KeyFields) == 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				fmt.Sprintf("level %q: key_fields are required", level.Name))
		}
		if i < len(c.Levels)-1 && level.ChildRelation == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				fmt.Sprintf("level %q: child_relation is required on non-terminal levels", level.Name))
		}
	}

	return nil
}
