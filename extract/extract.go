package extract

import (
	"fmt"
	"strings"

	"github.com/c360/semledger/errors"
)

// Extractor produces entity data from one raw row. A nil map with a nil
// error means the row held no relevant data for this entity type; the
// caller counts it and moves on. An error means the row could not be
// interpreted at all.
type Extractor interface {
	Extract(row map[string]any) (map[string]any, error)
}

// TypeAdapter converts a raw value according to a transform hint such as
// "number" or "date". A nil return means the value could not be
// converted; the evaluator then omits the field.
type TypeAdapter interface {
	Convert(value any, hint string) any
}

// TypeAdapterFunc adapts a function to the TypeAdapter interface.
type TypeAdapterFunc func(value any, hint string) any

// Convert calls f.
func (f TypeAdapterFunc) Convert(value any, hint string) any {
	return f(value, hint)
}

// FieldExtractor evaluates a fixed list of mapping descriptors against
// each row. One evaluator serves every entity type; the descriptors carry
// all type-specific knowledge.
type FieldExtractor struct {
	mappings []Mapping
	adapter  TypeAdapter
}

// ExtractorOption configures a FieldExtractor.
type ExtractorOption func(*FieldExtractor)

// WithTypeAdapter installs the conversion collaborator consulted for
// transform steps beyond the built-in string set.
func WithTypeAdapter(adapter TypeAdapter) ExtractorOption {
	return func(e *FieldExtractor) {
		if adapter != nil {
			e.adapter = adapter
		}
	}
}

// NewFieldExtractor validates the descriptors and returns an evaluator
// over them. Non-builtin transform steps require a TypeAdapter option.
func NewFieldExtractor(mappings []Mapping, opts ...ExtractorOption) (*FieldExtractor, error) {
	e := &FieldExtractor{mappings: mappings}
	for _, opt := range opts {
		opt(e)
	}

	if len(mappings) == 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"FieldExtractor", "NewFieldExtractor", "no mappings configured")
	}
	for i, m := range mappings {
		if err := m.Validate(e.adapter != nil); err != nil {
			return nil, errors.WrapInvalid(err,
				"FieldExtractor", "NewFieldExtractor",
				fmt.Sprintf("mapping %d (%s)", i, m.Target))
		}
	}
	return e, nil
}

// Extract evaluates every mapping against the row. Absent source paths
// and inconvertible values omit their field rather than failing the row.
// A row matching no mapping returns nil.
func (e *FieldExtractor) Extract(row map[string]any) (map[string]any, error) {
	if len(row) == 0 {
		return nil, nil
	}

	out := make(map[string]any, len(e.mappings))
	for _, m := range e.mappings {
		value, ok := lookupPath(row, m.Source)
		if !ok || value == nil {
			continue
		}
		value, ok = e.applyTransforms(value, m.Transforms)
		if !ok {
			continue
		}
		writePath(out, m.Target, value)
	}

	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// builtinTransform reports whether step is handled without an adapter.
func builtinTransform(step string) bool {
	switch step {
	case "", "copy", "trim", "uppercase", "lowercase":
		return true
	}
	return false
}

// applyTransforms runs the ordered steps over value. The second return is
// false when a step drops the value: a conversion that fails, or a value
// reduced to nothing.
func (e *FieldExtractor) applyTransforms(value any, steps []string) (any, bool) {
	for _, step := range steps {
		switch step {
		case "", "copy":
		case "trim":
			if s, ok := value.(string); ok {
				value = strings.TrimSpace(s)
			}
		case "uppercase":
			if s, ok := value.(string); ok {
				value = strings.ToUpper(s)
			}
		case "lowercase":
			if s, ok := value.(string); ok {
				value = strings.ToLower(s)
			}
		default:
			if e.adapter == nil {
				return nil, false
			}
			value = e.adapter.Convert(value, step)
		}
		if value == nil {
			return nil, false
		}
	}
	return value, true
}
