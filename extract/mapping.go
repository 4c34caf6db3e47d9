package extract

import (
	"strings"

	"github.com/c360/semledger/errors"
)

// Mapping declares how one output field derives from a raw row: walk the
// Source path segments through nested maps, apply the Transforms in
// order, write the result at the Target path. Targets use dots to nest;
// most mappings target a flat field name.
type Mapping struct {
	Source     []string `json:"source"               yaml:"source"`
	Target     string   `json:"target"               yaml:"target"`
	Transforms []string `json:"transforms,omitempty" yaml:"transforms,omitempty"`
}

// Validate checks the descriptor is interpretable. Transform step names
// are checked against the built-in set only when no adapter will be
// available to take the rest.
func (m Mapping) Validate(hasAdapter bool) error {
	if len(m.Source) == 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Mapping", "Validate", "source path is empty")
	}
	for _, seg := range m.Source {
		if strings.TrimSpace(seg) == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig,
				"Mapping", "Validate", "source path has a blank segment")
		}
	}
	if strings.TrimSpace(m.Target) == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Mapping", "Validate", "target path is empty")
	}
	if !hasAdapter {
		for _, step := range m.Transforms {
			if !builtinTransform(step) {
				return errors.WrapInvalid(errors.ErrInvalidConfig,
					"Mapping", "Validate",
					"transform "+step+" requires a type adapter")
			}
		}
	}
	return nil
}

// lookupPath walks the source segments through nested maps. The second
// return is false when any segment is absent or a non-map intervenes.
func lookupPath(row map[string]any, path []string) (any, bool) {
	var current any = row
	for _, seg := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// writePath sets value at the dot-separated target path, creating nested
// maps as needed. An intervening non-map value is replaced.
func writePath(out map[string]any, target string, value any) {
	segs := strings.Split(target, ".")
	current := out
	for _, seg := range segs[:len(segs)-1] {
		next, ok := current[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[seg] = next
		}
		current = next
	}
	current[segs[len(segs)-1]] = value
}
