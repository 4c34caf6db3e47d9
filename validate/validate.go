package validate

import "fmt"

// ErrorType classifies a validation failure. The strings appear in logs
// and skip reporting, so they are stable identifiers.
const (
	// ErrorTypeMissingField marks a required field that is absent or blank.
	ErrorTypeMissingField = "missing_field"

	// ErrorTypeInvalidValue marks a field whose value fails a rule.
	ErrorTypeInvalidValue = "invalid_value"

	// ErrorTypeMutuallyExclusive marks two or more flags set together when
	// at most one may be.
	ErrorTypeMutuallyExclusive = "mutually_exclusive"
)

// Result is one validation finding. A passing check returns Valid true
// with the other fields empty; a failure names the error type, the field
// involved, and a human-readable message.
type Result struct {
	Valid     bool   `json:"valid"`
	Message   string `json:"message,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

// Pass returns a passing Result.
func Pass() Result {
	return Result{Valid: true}
}

// Fail returns a failing Result for the given field.
func Fail(errorType, fieldName, format string, args ...any) Result {
	return Result{
		ErrorType: errorType,
		FieldName: fieldName,
		Message:   fmt.Sprintf(format, args...),
	}
}

// Validator checks extracted entity data. EntityType names the store the
// data is bound for; context carries row-level values a rule may need
// beyond the extracted fields (raw column values, line numbers). Both maps
// are read-only to the validator.
//
// An empty slice, a nil slice, and a slice of passing Results all mean the
// data passed.
type Validator interface {
	Validate(entityType string, data map[string]any, context map[string]any) []Result
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(entityType string, data map[string]any, context map[string]any) []Result

// Validate calls f.
func (f ValidatorFunc) Validate(entityType string, data map[string]any, context map[string]any) []Result {
	return f(entityType, data, context)
}

// Chain combines validators into one that runs each in order and
// concatenates their results. A nil validator in the chain is skipped.
func Chain(validators ...Validator) Validator {
	return ValidatorFunc(func(entityType string, data map[string]any, context map[string]any) []Result {
		var results []Result
		for _, v := range validators {
			if v == nil {
				continue
			}
			results = append(results, v.Validate(entityType, data, context)...)
		}
		return results
	})
}

// AllValid reports whether every result passed. An empty slice passes.
func AllValid(results []Result) bool {
	for _, r := range results {
		if !r.Valid {
			return false
		}
	}
	return true
}

// Failures returns only the failing results, in order.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Valid {
			failed = append(failed, r)
		}
	}
	return failed
}
