package config

import (
	"strings"
	"time"

	"github.com/c360/semledger/errors"
	"github.com/c360/semledger/extract"
	"github.com/c360/semledger/persist"
	"github.com/c360/semledger/sink"
	"github.com/c360/semledger/writer"
)

// Config is the complete configuration of one processing run: where rows
// come from, where ledger files go, how the chunked writer is tuned,
// whether entities are published to JetStream, and how logging behaves.
type Config struct {
	Input    InputConfig    `json:"input" yaml:"input"`
	Output   OutputConfig   `json:"output" yaml:"output"`
	Writer   writer.Config  `json:"writer" yaml:"writer"`
	Publish  PublishConfig  `json:"publish" yaml:"publish"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging"`
	Mappings MappingsConfig `json:"mappings" yaml:"mappings"`
}

// InputConfig describes the tabular source.
type InputConfig struct {
	// Path is the CSV file to process
	Path string `json:"path" yaml:"path"`

	// Delimiter is the single-character field separator
	Delimiter string `json:"delimiter" yaml:"delimiter"`

	// MaxRows stops processing after this many rows; zero reads all
	MaxRows int `json:"max_rows" yaml:"max_rows"`
}

// OutputConfig describes the ledger file destination.
type OutputConfig struct {
	// Dir receives one ledger file per store
	Dir string `json:"dir" yaml:"dir"`

	// Persist sets the size thresholds for single versus partitioned
	// output
	Persist persist.Options `json:"persist" yaml:"persist"`
}

// PublishConfig describes optional JetStream delivery of saved entities.
type PublishConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// URL is the NATS server address
	URL string `json:"url" yaml:"url"`

	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`

	// MaxReconnects caps client reconnect attempts; negative retries
	// forever
	MaxReconnects int `json:"max_reconnects" yaml:"max_reconnects"`

	// ReconnectWait is the pause between reconnect attempts
	ReconnectWait time.Duration `json:"reconnect_wait" yaml:"reconnect_wait"`

	// Stream configures the JetStream sink: subject prefix, stream name,
	// per-publish retry budget
	Stream sink.JetStreamConfig `json:"stream" yaml:"stream"`

	// RatePerSecond throttles publishes; zero means unlimited
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second"`

	// Burst is the throttle burst size when a rate is set
	Burst int `json:"burst" yaml:"burst"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error
	Level string `json:"level" yaml:"level"`

	// Format is text or json
	Format string `json:"format" yaml:"format"`
}

// MappingsConfig overrides the built-in extraction tables per store.
// Absent sections keep the defaults.
type MappingsConfig struct {
	// Agency maps level name (department, agency, office) to that
	// level's extraction table
	Agency map[string][]extract.Mapping `json:"agency,omitempty" yaml:"agency,omitempty"`

	Contract    []extract.Mapping `json:"contract,omitempty" yaml:"contract,omitempty"`
	Recipient   []extract.Mapping `json:"recipient,omitempty" yaml:"recipient,omitempty"`
	Transaction []extract.Mapping `json:"transaction,omitempty" yaml:"transaction,omitempty"`
}

// Default returns the configuration a run starts from before layers and
// environment overrides apply.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Delimiter: ",",
		},
		Output: OutputConfig{
			Dir:     "ledger",
			Persist: persist.DefaultOptions(),
		},
		Writer: writer.DefaultConfig(),
		Publish: PublishConfig{
			URL:           "nats://localhost:4222",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
			Stream:        sink.DefaultJetStreamConfig(),
			Burst:         1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the semantic constraints the schema cannot express.
func (c *Config) Validate() error {
	if c.Output.Dir == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"output.dir is required")
	}

	if len(c.Input.Delimiter) > 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"input.delimiter must be a single character")
	}
	if c.Input.MaxRows < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"input.max_rows cannot be negative")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"logging.level must be debug, info, warn or error")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"logging.format must be text or json")
	}

	if c.Publish.Enabled {
		if c.Publish.URL == "" {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"publish.url is required when publishing is enabled")
		}
		if err := c.Publish.Stream.Validate(); err != nil {
			return errors.Wrap(err, "Config", "Validate", "publish.stream")
		}
		if c.Publish.RatePerSecond < 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				"publish.rate_per_second cannot be negative")
		}
	}

	return nil
}
