package store

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/c360/semledger/entity"
	"github.com/c360/semledger/graph"
	"github.com/c360/semledger/metric"
	"github.com/c360/semledger/persist"
	"github.com/c360/semledger/relation"
)

// MergeFunc reconciles incoming fields into an existing cached record.
// The default performs a shallow field-by-field overwrite. Domain stores
// install their own to handle accumulator fields, such as running sums
// or set membership, before the overwrite.
type MergeFunc func(existing *entity.Record, incoming map[string]any)

// Store deduplicates entity records under deterministic keys, tracks
// typed relationships between them, and persists the full state through
// a persistence manager. One store holds one entity type for one
// processing run.
//
// A Store has a single logical writer. Saves of different stores may run
// concurrently because their output files are disjoint, but calls on one
// store are not safe to interleave.
type Store struct {
	name       string
	entityType string
	keyFields  []string
	levels     []LevelConfig
	outputPath string

	keygen  *entity.KeyGenerator
	cache   map[string]*entity.Record
	graph   *graph.Graph
	stats   *entity.Stats
	pending map[string]pendingEntry
	merge   MergeFunc

	manager  *persist.Manager
	logger   *slog.Logger
	registry *metric.MetricsRegistry
	metrics  *metric.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRegistry enables entity and relationship metrics on the
// registry's core collectors.
func WithMetricsRegistry(registry *metric.MetricsRegistry) Option {
	return func(s *Store) {
		if registry != nil {
			s.registry = registry
			s.metrics = registry.CoreMetrics()
		}
	}
}

// WithManager sets the persistence manager, overriding the thresholds in
// Config.Persist. Used to share one manager across stores or to inject a
// manager with a controlled clock.
func WithManager(manager *persist.Manager) Option {
	return func(s *Store) {
		if manager != nil {
			s.manager = manager
		}
	}
}

// WithMergeFunc replaces the default shallow merge.
func WithMergeFunc(merge MergeFunc) Option {
	return func(s *Store) {
		if merge != nil {
			s.merge = merge
		}
	}
}

// New creates a Store from config over the given relation vocabulary.
// A nil vocabulary gets relation.Core().
func New(config Config, vocab *relation.Vocabulary, opts ...Option) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		name:       config.Name,
		entityType: config.EntityType,
		keyFields:  slices.Clone(config.KeyFields),
		levels:     slices.Clone(config.Levels),
		outputPath: config.OutputPath,
		keygen:     entity.NewKeyGenerator(),
		cache:      make(map[string]*entity.Record),
		stats:      entity.NewStats(),
		pending:    make(map[string]pendingEntry),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.merge == nil {
		s.merge = func(existing *entity.Record, incoming map[string]any) {
			existing.Merge(incoming)
		}
	}

	graphOpts := []graph.Option{
		graph.WithName(s.name),
		graph.WithLogger(s.logger),
	}
	if s.registry != nil {
		graphOpts = append(graphOpts, graph.WithMetricsRegistry(s.registry))
	}
	s.graph = graph.NewGraph(vocab, graphOpts...)

	if s.manager == nil {
		managerOpts := []persist.Option{
			persist.WithOptions(config.Persist),
			persist.WithLogger(s.logger),
		}
		if s.registry != nil {
			managerOpts = append(managerOpts, persist.WithMetricsRegistry(s.registry))
		}
		s.manager = persist.NewManager(managerOpts...)
	}

	return s, nil
}

// Add records one entity occurrence for a flat store. Every call counts
// toward the total, whatever the outcome: empty records and records
// missing key fields are skipped with a reason, new keys insert, and
// existing keys merge.
func (s *Store) Add(rec map[string]any) entity.AddResult {
	s.stats.Total++

	if len(rec) == 0 {
		return s.skip(entity.SkipInvalidData)
	}

	key, err := s.deriveKey(s.keyFields, rec)
	if err != nil {
		return s.skip(entity.SkipMissingKeyFields)
	}

	return s.insertOrMerge(key, "", rec)
}

// deriveKey produces the entity key and counts its provenance. Stores
// with configured key fields never fall back to hash keys: a record
// missing one is skipped rather than keyed by content.
func (s *Store) deriveKey(keyFields []string, rec map[string]any) (string, error) {
	if len(keyFields) == 0 {
		key := s.keygen.GenerateHash(s.entityType, rec)
		s.stats.HashKeys++
		return key, nil
	}

	key, err := s.keygen.Generate(s.entityType, keyFields, rec)
	if err != nil {
		return "", err
	}
	s.stats.NaturalKeys++
	return key, nil
}

// insertOrMerge lands fields in the cache under key. The cache owns its
// records, so fields are cloned on first insert. An insert resolves any
// pending parent held under the same key.
func (s *Store) insertOrMerge(key, level string, fields map[string]any) entity.AddResult {
	if rec, ok := s.cache[key]; ok {
		s.merge(rec, fields)
		return s.report(entity.Merged(key))
	}

	s.cache[key] = &entity.Record{
		Key:    key,
		Type:   s.entityType,
		Fields: maps.Clone(fields),
		Level:  level,
	}
	s.stats.Unique++
	delete(s.pending, key)

	return s.report(entity.Inserted(key))
}

// skip counts one dropped record under reason and reports it.
func (s *Store) skip(reason entity.SkipReason) entity.AddResult {
	s.stats.RecordSkip(reason)
	return s.report(entity.Skipped(reason))
}

// Skip counts one row dropped before keying. Domain stores call it when
// extraction yields nothing for a row or validation rejects it, so those
// drops land in the same statistics as in-store skips.
func (s *Store) Skip(reason entity.SkipReason) entity.AddResult {
	s.stats.Total++
	return s.skip(reason)
}

// report publishes the outcome to metrics and passes the result through.
func (s *Store) report(result entity.AddResult) entity.AddResult {
	if s.metrics != nil {
		s.metrics.RecordEntityProcessed(s.name, result.Outcome.String())
	}
	return result
}

// Relate adds a typed edge from a cached entity to any key, including
// keys held by other stores, counting the edge and its vocabulary
// inverse. It returns false when the graph rejects the edge.
func (s *Store) Relate(from string, rel relation.Type, to string) bool {
	return s.relate(from, rel, to)
}

// relate adds a typed edge and counts it, with its vocabulary inverse,
// in the store's statistics. Cycle-forming edges that would close a loop
// are rejected inside the graph and counted nowhere here.
func (s *Store) relate(from string, rel relation.Type, to string) bool {
	if !s.graph.AddEdge(from, rel, to) {
		return false
	}

	s.stats.RecordRelationship(rel)
	if inv, ok := s.graph.Vocabulary().Inverse(rel); ok {
		s.stats.RecordRelationship(inv)
	}
	return true
}

// Save materializes pending parents and writes the store's full state
// through the persistence manager: entity cache, relationship adjacency,
// and statistics. The store stays usable afterwards and its counters
// keep accumulating.
func (s *Store) Save(ctx context.Context) (*persist.Result, error) {
	s.Finalize()

	snap := persist.Snapshot{
		EntityType:    s.entityType,
		Entities:      s.cache,
		Relationships: s.graph.Snapshot(),
		Stats:         s.stats.Clone(),
	}
	return s.manager.Save(ctx, s.outputPath, snap)
}

// Name returns the store's configured name.
func (s *Store) Name() string {
	return s.name
}

// EntityType returns the entity type this store holds.
func (s *Store) EntityType() string {
	return s.entityType
}

// Get returns the cached record for key.
func (s *Store) Get(key string) (*entity.Record, bool) {
	rec, ok := s.cache[key]
	return rec, ok
}

// Len returns the number of distinct entities currently cached.
func (s *Store) Len() int {
	return len(s.cache)
}

// Keys returns the cached entity keys in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.cache))
	for k := range s.cache {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Stats returns an independent copy of the store's counters.
func (s *Store) Stats() *entity.Stats {
	return s.stats.Clone()
}

// Graph returns the store's relationship graph.
func (s *Store) Graph() *graph.Graph {
	return s.graph
}
