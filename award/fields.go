package award

import (
	"slices"
	"strings"
)

// stringField returns the named field as a trimmed non-blank string.
func stringField(data map[string]any, name string) (string, bool) {
	s, ok := data[name].(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}

// toFloat widens the numeric types a coerced field can hold.
func toFloat(v any) (float64, bool) {
	switch tv := v.(type) {
	case float64:
		return tv, true
	case float32:
		return float64(tv), true
	case int:
		return float64(tv), true
	case int64:
		return float64(tv), true
	}
	return 0, false
}

// toStringSlice reads a set-valued field. Within a run sets are []string;
// after a JSON reload they come back as []any of strings.
func toStringSlice(v any) []string {
	switch tv := v.(type) {
	case []string:
		return tv
	case []any:
		out := make([]string, 0, len(tv))
		for _, item := range tv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// mergeMax rewrites incoming[field] to the larger of the existing and
// incoming values when both are present. With only one side present the
// shallow merge already keeps the right value.
func mergeMax(existing, incoming map[string]any, field string) {
	in, inOK := toFloat(incoming[field])
	ex, exOK := toFloat(existing[field])
	if inOK && exOK && ex > in {
		incoming[field] = ex
	}
}

// mergeSum rewrites incoming[field] to the sum of the existing and
// incoming values when both are present.
func mergeSum(existing, incoming map[string]any, field string) {
	in, inOK := toFloat(incoming[field])
	ex, exOK := toFloat(existing[field])
	if inOK && exOK {
		incoming[field] = ex + in
	}
}

// mergeStringSet rewrites incoming[field] to the sorted union of both
// sides' set members.
func mergeStringSet(existing, incoming map[string]any, field string) {
	in := toStringSlice(incoming[field])
	ex := toStringSlice(existing[field])
	if len(in) == 0 && len(ex) == 0 {
		return
	}

	seen := make(map[string]struct{}, len(in)+len(ex))
	union := make([]string, 0, len(in)+len(ex))
	for _, s := range ex {
		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			union = append(union, s)
		}
	}
	for _, s := range in {
		if _, dup := seen[s]; !dup {
			seen[s] = struct{}{}
			union = append(union, s)
		}
	}
	slices.Sort(union)
	incoming[field] = union
}
