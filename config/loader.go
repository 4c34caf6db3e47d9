package config

import (
	"encoding/json"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360/semledger/errors"
)

// Loader assembles a Config from defaults, file layers and environment
// overrides. Layers apply in the order added and later layers win; keys
// a layer omits keep their current value.
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a loader with no layers and semantic validation
// disabled.
func NewLoader() *Loader {
	return &Loader{
		layers:    []string{},
		envPrefix: "SEMLEDGER",
	}
}

// AddLayer appends a configuration file layer.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables Validate on the merged result.
// Layer files are always checked against the document schema.
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file, replacing any layers
// added earlier.
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load merges defaults, file layers and environment overrides into one
// configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	for _, path := range l.layers {
		raw, err := l.loadRawYAML(path)
		if err != nil {
			return nil, errors.Wrap(err, "Loader", "Load", "layer "+path)
		}
		cfg = l.mergeFromMap(cfg, raw)
	}

	l.applyEnvOverrides(cfg)

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// loadRawYAML reads one layer into a raw map, checks it against the
// document schema and converts duration strings so the merged map can
// unmarshal into Config. An empty file yields a nil map, which merges
// as a no-op.
func (l *Loader) loadRawYAML(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "loadRawYAML", "decode yaml")
	}
	if raw == nil {
		return nil, nil
	}

	if err := validateDocumentDepth(raw); err != nil {
		return nil, err
	}
	if err := validateDocument(raw); err != nil {
		return nil, err
	}

	l.parseDurations(raw)

	return raw, nil
}

// mergeFromMap merges one raw layer over the base config, only
// overriding keys present in the layer.
func (l *Loader) mergeFromMap(base *Config, override map[string]any) *Config {
	if override == nil {
		return base
	}

	baseJSON, err := json.Marshal(base)
	if err != nil {
		return base
	}

	var baseMap map[string]any
	if err := json.Unmarshal(baseJSON, &baseMap); err != nil {
		return base
	}

	mergedMap := l.deepMergeMaps(baseMap, override)

	mergedJSON, err := json.Marshal(mergedMap)
	if err != nil {
		return base
	}

	var merged Config
	if err := json.Unmarshal(mergedJSON, &merged); err != nil {
		return base
	}

	return &merged
}

// deepMergeMaps recursively merges two maps, with override taking
// precedence. Nil override values are skipped so explicit nulls cannot
// erase defaults.
func (l *Loader) deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base)+len(override))

	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		if v == nil {
			continue
		}

		if baseMap, baseOk := base[k].(map[string]any); baseOk {
			if overrideMap, overrideOk := v.(map[string]any); overrideOk {
				result[k] = l.deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}

		result[k] = v
	}

	return result
}

// parseDurations converts duration strings at the known duration keys
// to nanoseconds so encoding/json can unmarshal them into time.Duration
// fields. Strings that do not parse are left alone.
func (l *Loader) parseDurations(raw map[string]any) {
	if w, ok := raw["writer"].(map[string]any); ok {
		parseDurationKey(w, "retry_unit")
		parseDurationKey(w, "stop_timeout")
	}
	if p, ok := raw["publish"].(map[string]any); ok {
		parseDurationKey(p, "reconnect_wait")
		if s, ok := p["stream"].(map[string]any); ok {
			parseDurationKey(s, "retry_delay")
		}
	}
}

func parseDurationKey(section map[string]any, key string) {
	if s, ok := section[key].(string); ok {
		if d, err := time.ParseDuration(s); err == nil {
			section[key] = d.Nanoseconds()
		}
	}
}

// applyEnvOverrides applies SEMLEDGER_* environment variables on top of
// the merged configuration.
func (l *Loader) applyEnvOverrides(cfg *Config) {
	if val := l.envValue("INPUT_PATH"); val != "" {
		cfg.Input.Path = val
	}
	if val := l.envValue("OUTPUT_DIR"); val != "" {
		cfg.Output.Dir = val
	}
	if val := l.envValue("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := l.envValue("LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
	if val := l.envValue("NATS_URL"); val != "" {
		cfg.Publish.URL = val
	}
	if val := l.envValue("NATS_USERNAME"); val != "" {
		cfg.Publish.Username = val
	}
	if val := l.envValue("NATS_PASSWORD"); val != "" {
		cfg.Publish.Password = val
	}
	if val := l.envValue("NATS_TOKEN"); val != "" {
		cfg.Publish.Token = val
	}
}

// envValue reads one override variable, dropping values that fail the
// basic environment checks.
func (l *Loader) envValue(name string) string {
	key := l.envPrefix + "_" + name
	val := os.Getenv(key)
	if val == "" {
		return ""
	}
	if err := validateEnvVar(key, val); err != nil {
		return ""
	}
	return val
}
