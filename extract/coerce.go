package extract

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order when coercing dates. Tabular exports mix
// ISO dates with US-style slashes and the occasional timestamp.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
}

// Coercions returns the standard type adapter. It understands the hints
// "number", "integer", "boolean" and "date" over raw column values;
// unknown hints and inconvertible values yield nil, which omits the field
// from the extracted data.
func Coercions() TypeAdapter {
	return TypeAdapterFunc(func(value any, hint string) any {
		switch hint {
		case "number":
			return coerceNumber(value)
		case "integer":
			return coerceInteger(value)
		case "boolean":
			return coerceBoolean(value)
		case "date":
			return coerceDate(value)
		}
		return nil
	})
}

// coerceNumber parses monetary and numeric text into float64. Currency
// symbols and thousands separators are stripped first, so "$1,234.56"
// and "-$5,000" both parse.
func coerceNumber(v any) any {
	switch tv := v.(type) {
	case float64:
		return tv
	case float32:
		return float64(tv)
	case int:
		return float64(tv)
	case int64:
		return float64(tv)
	case string:
		s := strings.TrimSpace(tv)
		s = strings.ReplaceAll(s, ",", "")
		s = strings.ReplaceAll(s, "$", "")
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return f
	}
	return nil
}

// coerceInteger parses whole numbers into int64. Fractional values are
// rejected rather than truncated; a count or identifier with a fraction
// is malformed input.
func coerceInteger(v any) any {
	switch tv := v.(type) {
	case int:
		return int64(tv)
	case int64:
		return tv
	case float64:
		if tv != float64(int64(tv)) {
			return nil
		}
		return int64(tv)
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(tv, ",", ""))
		if s == "" {
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil
		}
		return n
	}
	return nil
}

// coerceBoolean parses flag text the way tabular sources encode it.
func coerceBoolean(v any) any {
	switch tv := v.(type) {
	case bool:
		return tv
	case string:
		switch strings.ToLower(strings.TrimSpace(tv)) {
		case "t", "true", "y", "yes", "1":
			return true
		case "f", "false", "n", "no", "0":
			return false
		}
	}
	return nil
}

// coerceDate normalizes date text to ISO "2006-01-02" form so keys and
// comparisons built on date fields are stable across source formats.
func coerceDate(v any) any {
	switch tv := v.(type) {
	case time.Time:
		return tv.Format("2006-01-02")
	case string:
		s := strings.TrimSpace(tv)
		if s == "" {
			return nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format("2006-01-02")
			}
		}
	}
	return nil
}
