package award

import (
	"log/slog"

	"github.com/c360/semledger/extract"
	"github.com/c360/semledger/metric"
	"github.com/c360/semledger/validate"
)

// Deps carries the collaborators shared by the domain stores. The zero
// value works: a nil Logger falls back to slog.Default, a nil Adapter to
// the standard coercions, a nil Validator skips validation, and a nil
// Registry disables metrics.
type Deps struct {
	Logger    *slog.Logger
	Registry  *metric.MetricsRegistry
	Validator validate.Validator
	Adapter   extract.TypeAdapter
}

func (d Deps) normalized() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Adapter == nil {
		d.Adapter = extract.Coercions()
	}
	return d
}

// DefaultValidator returns the standard rule set consulted before rows
// enter the stores: the recipient structure flags are mutually exclusive.
// NewProcessor installs it when Deps carries no validator.
func DefaultValidator() validate.Validator {
	return validate.MutuallyExclusive("structure", "for_profit", "nonprofit")
}

// runValidator consults the shared validator for one extracted record and
// logs every failure. It returns true when the record may proceed.
func runValidator(v validate.Validator, logger *slog.Logger, storeName, entityType string, data, row map[string]any) bool {
	if v == nil {
		return true
	}
	failures := validate.Failures(v.Validate(entityType, data, row))
	if len(failures) == 0 {
		return true
	}
	for _, f := range failures {
		logger.Debug("Validation rejected record",
			"store", storeName,
			"entity_type", entityType,
			"field", f.FieldName,
			"error_type", f.ErrorType,
			"message", f.Message)
	}
	return false
}
