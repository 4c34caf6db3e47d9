package validate

import "strings"

// RequiredFields returns a Validator that fails for each named field that
// is absent, nil, or blank in the data.
func RequiredFields(fields ...string) Validator {
	return ValidatorFunc(func(entityType string, data map[string]any, _ map[string]any) []Result {
		var results []Result
		for _, f := range fields {
			v, ok := data[f]
			if !ok || v == nil || blank(v) {
				results = append(results, Fail(ErrorTypeMissingField, f,
					"%s requires field %q", entityType, f))
			}
		}
		return results
	})
}

// MutuallyExclusive returns a Validator that fails when more than one of
// the named flag fields is set in the data. Category labels the flag group
// in the failure message. Recipient business characteristics use this rule:
// an organization cannot be both for-profit and nonprofit.
func MutuallyExclusive(category string, fields ...string) Validator {
	return ValidatorFunc(func(entityType string, data map[string]any, _ map[string]any) []Result {
		var set []string
		for _, f := range fields {
			if Truthy(data[f]) {
				set = append(set, f)
			}
		}
		if len(set) <= 1 {
			return nil
		}
		results := make([]Result, 0, len(set))
		for _, f := range set {
			results = append(results, Fail(ErrorTypeMutuallyExclusive, f,
				"%s %s flags %s are mutually exclusive", entityType, category,
				strings.Join(set, ", ")))
		}
		return results
	})
}

// Truthy interprets a flag value the way tabular sources encode booleans:
// true, "t", "true", "y", "yes", "1", and nonzero numbers are set;
// everything else, including absence, is clear.
func Truthy(v any) bool {
	switch tv := v.(type) {
	case bool:
		return tv
	case string:
		switch strings.ToLower(strings.TrimSpace(tv)) {
		case "t", "true", "y", "yes", "1":
			return true
		}
		return false
	case float64:
		return tv != 0
	case float32:
		return tv != 0
	case int:
		return tv != 0
	case int64:
		return tv != 0
	default:
		return false
	}
}

// blank reports whether v is a string of only whitespace. Non-string
// values are never blank; presence suffices for them.
func blank(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}
