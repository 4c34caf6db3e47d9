package sink

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/semledger/errors"
	"github.com/c360/semledger/natsclient"
	"github.com/c360/semledger/pkg/retry"
	"github.com/c360/semledger/writer"
)

var _ writer.Sink = (*JetStream)(nil)

// JetStreamConfig holds configuration for the JetStream sink.
type JetStreamConfig struct {
	// SubjectPrefix is prepended to the entity type to form the publish
	// subject, as in entities.contract.
	SubjectPrefix string `json:"subject_prefix" yaml:"subject_prefix"`
	// StreamName is the stream EnsureStream creates for the prefix.
	StreamName string `json:"stream_name" yaml:"stream_name"`
	// MaxAttempts bounds publish attempts per entity.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`
	// RetryDelay is the initial backoff between publish attempts.
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`
}

// DefaultJetStreamConfig returns default configuration for the
// JetStream sink.
func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		SubjectPrefix: "entities",
		StreamName:    "ENTITIES",
		MaxAttempts:   3,
		RetryDelay:    100 * time.Millisecond,
	}
}

// Validate checks the configuration for errors.
func (c *JetStreamConfig) Validate() error {
	if c.SubjectPrefix == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "JetStreamConfig", "Validate", "subject_prefix is required")
	}
	if c.StreamName == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "JetStreamConfig", "Validate", "stream_name is required")
	}
	if c.MaxAttempts < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "JetStreamConfig", "Validate", "max_attempts must be at least 1")
	}
	return nil
}

// JetStream publishes entities to a NATS JetStream subject per entity
// type.
type JetStream struct {
	client   *natsclient.Client
	config   JetStreamConfig
	retryCfg retry.Config
	logger   *slog.Logger
}

// NewJetStream creates a JetStream sink on an already constructed NATS
// client. The client connection is managed by the caller.
func NewJetStream(client *natsclient.Client, config JetStreamConfig, logger *slog.Logger) (*JetStream, error) {
	if client == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "JetStream", "NewJetStream", "nats client is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &JetStream{
		client: client,
		config: config,
		retryCfg: retry.Config{
			MaxAttempts:  config.MaxAttempts,
			InitialDelay: config.RetryDelay,
			Multiplier:   2.0,
			AddJitter:    true,
		},
		logger: logger,
	}, nil
}

// Name identifies the sink in writer logs and metrics.
func (s *JetStream) Name() string { return "jetstream" }

// EnsureStream creates the stream covering the configured subject
// prefix if it does not exist yet.
func (s *JetStream) EnsureStream(ctx context.Context) error {
	cfg := jetstream.StreamConfig{
		Name:     s.config.StreamName,
		Subjects: []string{s.config.SubjectPrefix + ".>"},
	}

	if _, err := s.client.CreateStream(ctx, cfg); err != nil {
		if stderrors.Is(err, jetstream.ErrStreamNameAlreadyInUse) {
			return nil
		}
		return errors.WrapTransient(err, "JetStream", "EnsureStream", s.config.StreamName)
	}

	s.logger.Info("Ensured entity stream",
		"stream", s.config.StreamName,
		"subjects", s.config.SubjectPrefix+".>")
	return nil
}

// SaveEntity publishes the entity as JSON to <prefix>.<entityType>,
// retrying transient publish failures with bounded backoff. The
// returned id is a fresh UUID naming this publication.
func (s *JetStream) SaveEntity(ctx context.Context, entityType string, data map[string]any) (string, error) {
	if entityType == "" {
		return "", errors.WrapInvalid(errors.ErrInvalidData, "JetStream", "SaveEntity", "entity type is required")
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return "", errors.WrapInvalid(err, "JetStream", "SaveEntity", "marshal entity")
	}

	subject := fmt.Sprintf("%s.%s", s.config.SubjectPrefix, entityType)
	err = retry.Do(ctx, s.retryCfg, func() error {
		return s.client.PublishToStream(ctx, subject, payload)
	})
	if err != nil {
		return "", errors.WrapTransient(err, "JetStream", "SaveEntity", subject)
	}

	return uuid.NewString(), nil
}
