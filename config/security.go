package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/c360/semledger/errors"
)

const (
	// maxConfigSize caps config file size at 10MB
	maxConfigSize = 10 << 20

	// maxDocumentDepth caps nesting in a decoded document
	maxDocumentDepth = 100

	// maxEnvVarLen caps override variable value length
	maxEnvVarLen = 10000

	// maxPathLen caps config file path length
	maxPathLen = 4096
)

// validateConfigPath does basic path validation.
func validateConfigPath(path string) error {
	if path == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Loader", "validateConfigPath", "empty config path")
	}

	if len(path) > maxPathLen {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Loader", "validateConfigPath",
			fmt.Sprintf("path too long: %d > %d", len(path), maxPathLen))
	}

	if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") &&
		!strings.HasSuffix(path, ".json") {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Loader", "validateConfigPath",
			"config files must end in .yaml, .yml or .json: "+path)
	}

	return nil
}

// safeReadFile reads a config file after checking the path, the size
// reported by stat and that the target is a regular file.
func safeReadFile(path string) ([]byte, error) {
	if err := validateConfigPath(path); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "Loader", "safeReadFile", "stat config file")
	}

	if info.Size() > maxConfigSize {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"Loader", "safeReadFile",
			fmt.Sprintf("config file too large: %d bytes > %d", info.Size(), maxConfigSize))
	}

	if !info.Mode().IsRegular() {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"Loader", "safeReadFile", "not a regular file: "+path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "Loader", "safeReadFile", "read config file")
	}

	return data, nil
}

// validateEnvVar does basic checks on one override variable.
func validateEnvVar(key, value string) error {
	if value == "" {
		return nil
	}

	if len(value) > maxEnvVarLen {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Loader", "validateEnvVar",
			fmt.Sprintf("%s too long: %d > %d", key, len(value), maxEnvVarLen))
	}

	if strings.Contains(value, "\x00") {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Loader", "validateEnvVar", "null byte in "+key)
	}

	return nil
}

// validateDocumentDepth rejects decoded documents nested deeper than
// maxDocumentDepth before they reach the schema check and the merge.
func validateDocumentDepth(raw map[string]any) error {
	if d := documentDepth(raw, 1); d > maxDocumentDepth {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Loader", "validateDocumentDepth",
			fmt.Sprintf("nesting too deep: %d > %d", d, maxDocumentDepth))
	}
	return nil
}

// documentDepth walks maps and sequences, stopping one level past the
// cap so pathological documents cannot recurse unbounded.
func documentDepth(v any, depth int) int {
	if depth > maxDocumentDepth {
		return depth
	}

	deepest := depth
	switch t := v.(type) {
	case map[string]any:
		for _, child := range t {
			if d := documentDepth(child, depth+1); d > deepest {
				deepest = d
			}
		}
	case []any:
		for _, child := range t {
			if d := documentDepth(child, depth+1); d > deepest {
				deepest = d
			}
		}
	}
	return deepest
}
