package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/c360/semledger/award"
	"github.com/c360/semledger/config"
	"github.com/c360/semledger/entity"
	"github.com/c360/semledger/metric"
	"github.com/c360/semledger/natsclient"
	"github.com/c360/semledger/sink"
	"github.com/c360/semledger/writer"
)

// entitySource is the slice of store behavior publishing needs.
type entitySource interface {
	EntityType() string
	Keys() []string
	Get(key string) (*entity.Record, bool)
	Len() int
}

// publishEntities streams every stored entity to the configured
// JetStream subject per entity type, through the chunked writer and an
// optional rate limit.
func publishEntities(
	ctx context.Context,
	cfg *config.Config,
	proc *award.Processor,
	registry *metric.MetricsRegistry,
	logger *slog.Logger,
) error {
	client, err := connectNATS(ctx, cfg, registry, logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close(context.Background()) }()

	js, err := sink.NewJetStream(client, cfg.Publish.Stream, logger)
	if err != nil {
		return err
	}
	if err := js.EnsureStream(ctx); err != nil {
		return err
	}

	var out writer.Sink = js
	if cfg.Publish.RatePerSecond > 0 {
		limited, err := sink.NewRateLimited(js,
			rate.Limit(cfg.Publish.RatePerSecond), cfg.Publish.Burst)
		if err != nil {
			return err
		}
		out = limited
	}

	stores := []entitySource{
		proc.Agencies(),
		proc.Contracts(),
		proc.Recipients(),
		proc.Transactions(),
	}

	var failed int64
	for _, st := range stores {
		stats, err := publishStore(ctx, st, out, cfg, registry, logger)
		if err != nil {
			return fmt.Errorf("publish %s entities: %w", st.EntityType(), err)
		}
		failed += stats.FailedWrites
	}

	if failed > 0 {
		return fmt.Errorf("publish incomplete: %d entities failed", failed)
	}
	return nil
}

// connectNATS builds the client from the publish configuration and
// waits for the connection to come up.
func connectNATS(
	ctx context.Context,
	cfg *config.Config,
	registry *metric.MetricsRegistry,
	logger *slog.Logger,
) (*natsclient.Client, error) {
	opts := []natsclient.ClientOption{
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(cfg.Publish.MaxReconnects),
		natsclient.WithReconnectWait(cfg.Publish.ReconnectWait),
		natsclient.WithLogger(logger),
		natsclient.WithMetrics(registry),
	}
	if cfg.Publish.Username != "" {
		opts = append(opts,
			natsclient.WithCredentials(cfg.Publish.Username, cfg.Publish.Password))
	}
	if cfg.Publish.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.Publish.Token))
	}

	client, err := natsclient.NewClient(cfg.Publish.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("create nats client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.WaitForConnection(connCtx); err != nil {
		_ = client.Close(context.Background())
		return nil, fmt.Errorf("nats connection timeout: %w", err)
	}

	return client, nil
}

// publishStore feeds one store's records through a chunked writer and
// returns the delivery counters.
func publishStore(
	ctx context.Context,
	st entitySource,
	out writer.Sink,
	cfg *config.Config,
	registry *metric.MetricsRegistry,
	logger *slog.Logger,
) (writer.Stats, error) {
	w, err := writer.NewChunkedWriter(st.EntityType(), out,
		writer.WithConfig(cfg.Writer),
		writer.WithLogger(logger),
		writer.WithMetricsRegistry(registry))
	if err != nil {
		return writer.Stats{}, err
	}

	batchSize := cfg.Writer.ChunkSize
	if batchSize <= 0 {
		batchSize = writer.DefaultChunkSize
	}

	logger.Info("Publishing entities",
		"entity_type", st.EntityType(), "count", st.Len())

	recs := make([]map[string]any, 0, batchSize)
	for _, key := range st.Keys() {
		rec, ok := st.Get(key)
		if !ok {
			continue
		}
		recs = append(recs, recordDoc(rec))
		if len(recs) == batchSize {
			if err := w.Write(ctx, recs); err != nil {
				return w.Stats(), err
			}
			recs = recs[:0]
		}
	}
	if len(recs) > 0 {
		if err := w.Write(ctx, recs); err != nil {
			return w.Stats(), err
		}
	}

	if err := w.Flush(ctx); err != nil {
		return w.Stats(), err
	}

	stats := w.Stats()
	logger.Info("Published entities",
		"entity_type", st.EntityType(),
		"succeeded", stats.SuccessfulWrites,
		"failed", stats.FailedWrites,
		"retries", stats.Retries)
	return stats, nil
}

// recordDoc shapes one record as the publish payload.
func recordDoc(rec *entity.Record) map[string]any {
	doc := map[string]any{
		"key":    rec.Key,
		"type":   rec.Type,
		"fields": rec.Fields,
	}
	if rec.Level != "" {
		doc["level"] = rec.Level
	}
	return doc
}
