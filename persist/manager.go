package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/c360/semledger/entity"
	"github.com/c360/semledger/errors"
	"github.com/c360/semledger/metric"
	"github.com/c360/semledger/relation"
)

// Manager writes store snapshots to disk. It estimates output size with
// one sampling pass, picks single-file or partitioned layout, and writes
// every file atomically: temp file in the target directory, fsync, rename.
// A failed save removes everything it created, so the canonical path holds
// either the previous valid file or nothing.
type Manager struct {
	opts    Options
	logger  *slog.Logger
	metrics *metric.Metrics

	now func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithOptions sets the persistence thresholds.
func WithOptions(opts Options) Option {
	return func(m *Manager) {
		m.opts = opts
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetricsRegistry enables save-duration metrics on the registry's core
// collectors.
func WithMetricsRegistry(registry *metric.MetricsRegistry) Option {
	return func(m *Manager) {
		if registry != nil {
			m.metrics = registry.CoreMetrics()
		}
	}
}

// NewManager creates a Manager with default thresholds.
func NewManager(options ...Option) *Manager {
	m := &Manager{
		opts:   DefaultOptions(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	m.opts = m.opts.normalized()
	return m
}

// sizeEstimate is the one sampling pass reused for the layout decision and
// for partition sizing.
type sizeEstimate struct {
	avgEntitySize int64
	totalSize     int64
	sampled       int
}

// estimate marshals up to SampleSize entities and extrapolates the average
// to the full count. Sampling is best effort: entities that refuse to
// marshal are skipped here and surface as real errors during the write.
func (m *Manager) estimate(entities map[string]*entity.Record) sizeEstimate {
	var total int64
	sampled := 0
	for _, rec := range entities {
		if sampled >= m.opts.SampleSize {
			break
		}
		data, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		total += int64(len(data))
		sampled++
	}

	if sampled == 0 {
		return sizeEstimate{}
	}

	avg := total / int64(sampled)
	return sizeEstimate{
		avgEntitySize: avg,
		totalSize:     avg * int64(len(entities)),
		sampled:       sampled,
	}
}

// Save writes the snapshot to path, switching to partitioned layout when
// the entity count exceeds PartitionThreshold or the size estimate exceeds
// MaxFileSize. The returned Result names the canonical file written.
func (m *Manager) Save(ctx context.Context, path string, snap Snapshot) (*Result, error) {
	if path == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig,
			"PersistManager", "Save", "output path cannot be empty")
	}
	if snap.Entities == nil {
		snap.Entities = make(map[string]*entity.Record)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.WrapTransient(err, "PersistManager", "Save", "create output directory")
	}

	start := m.now()
	est := m.estimate(snap.Entities)
	count := len(snap.Entities)
	partitioned := count > m.opts.PartitionThreshold || est.totalSize > m.opts.MaxFileSize

	var (
		result *Result
		err    error
	)
	if partitioned {
		result, err = m.savePartitioned(ctx, path, snap, est)
	} else {
		result, err = m.saveSingle(path, snap, est)
	}
	if err != nil {
		if m.metrics != nil {
			m.metrics.RecordError("persistence_manager", "save_failed")
		}
		return nil, err
	}

	duration := m.now().Sub(start)
	if m.metrics != nil {
		m.metrics.RecordSaveDuration("persistence_manager", "save", duration)
	}
	m.logger.Info("Saved entity store",
		"entity_type", snap.EntityType,
		"path", result.Path,
		"entities", count,
		"partitioned", partitioned,
		"estimated_bytes", est.totalSize,
		"duration_ms", duration.Milliseconds())

	return result, nil
}

// saveSingle writes the whole snapshot as one atomic document.
func (m *Manager) saveSingle(path string, snap Snapshot, est sizeEstimate) (*Result, error) {
	doc := Document{
		Metadata:      m.buildMetadata(snap),
		Entities:      snap.Entities,
		Relationships: nonNilRelationships(snap.Relationships),
	}

	if err := writeJSONAtomic(path, doc); err != nil {
		return nil, err
	}

	return &Result{
		Path:          path,
		EntityCount:   len(snap.Entities),
		EstimatedSize: est.totalSize,
	}, nil
}

// savePartitioned slices the entities into size-targeted partition files
// and writes the index last, after every partition it references exists.
// Any failure removes every file this call created before returning.
func (m *Manager) savePartitioned(ctx context.Context, path string, snap Snapshot, est sizeEstimate) (*Result, error) {
	base := strings.TrimSuffix(path, filepath.Ext(path))

	perPartition := m.opts.PartitionThreshold
	if est.avgEntitySize > 0 {
		bySize := int(m.opts.PartitionSize / est.avgEntitySize)
		if bySize < 1 {
			bySize = 1
		}
		if bySize < perPartition {
			perPartition = bySize
		}
	}
	if perPartition < 1 {
		perPartition = 1
	}

	keys := make([]string, 0, len(snap.Entities))
	for k := range snap.Entities {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var created []string
	cleanup := func() {
		for _, p := range created {
			if removeErr := os.Remove(p); removeErr != nil {
				m.logger.Warn("Failed to remove partition file after save error",
					"path", p, "error", removeErr)
			}
		}
	}

	var infos []PartitionInfo
	number := 0
	for offset := 0; offset < len(keys); offset += perPartition {
		if err := ctx.Err(); err != nil {
			cleanup()
			return nil, errors.WrapTransient(err, "PersistManager", "savePartitioned", "save cancelled")
		}

		end := min(offset+perPartition, len(keys))
		number++

		part := make(map[string]*entity.Record, end-offset)
		for _, k := range keys[offset:end] {
			part[k] = snap.Entities[k]
		}

		partPath := fmt.Sprintf("%s_part%d.json", base, number)
		if err := writeJSONAtomic(partPath, PartitionDocument{Entities: part}); err != nil {
			cleanup()
			return nil, err
		}
		created = append(created, partPath)

		infos = append(infos, PartitionInfo{
			PartitionNumber: number,
			EntityCount:     end - offset,
			FilePath:        filepath.Base(partPath),
		})
	}

	indexPath := base + "_index.json"
	index := IndexDocument{
		Metadata:      m.buildMetadata(snap),
		Partitions:    infos,
		Relationships: nonNilRelationships(snap.Relationships),
	}
	if err := writeJSONAtomic(indexPath, index); err != nil {
		cleanup()
		return nil, err
	}

	return &Result{
		Path:          indexPath,
		Partitioned:   true,
		EntityCount:   len(keys),
		EstimatedSize: est.totalSize,
		Partitions:    infos,
	}, nil
}

// buildMetadata assembles the metadata block from the snapshot. The
// relationship counts are derived from the adjacency being written so the
// two always agree.
func (m *Manager) buildMetadata(snap Snapshot) Metadata {
	stats := snap.Stats
	if stats == nil {
		stats = entity.NewStats()
	}

	counts := make(map[relation.Type]int, len(snap.Relationships))
	for rel, fromMap := range snap.Relationships {
		n := 0
		for _, tos := range fromMap {
			n += len(tos)
		}
		if n > 0 {
			counts[rel] = n
		}
	}

	skipped := stats.Skipped
	if skipped == nil {
		skipped = make(map[entity.SkipReason]int)
	}

	return Metadata{
		EntityType:         snap.EntityType,
		TotalReferences:    stats.Total,
		UniqueEntities:     stats.Unique,
		RelationshipCounts: counts,
		SkippedEntities:    skipped,
		GeneratedDate:      m.now().UTC().Format(time.RFC3339),
		NaturalKeysUsed:    stats.NaturalKeys,
		HashKeysUsed:       stats.HashKeys,
	}
}

// writeJSONAtomic writes v as JSON to path through a temp file in the same
// directory: encode, fsync, chmod, then atomic rename. The temp file is
// removed on any failure.
func writeJSONAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return errors.WrapTransient(err, "PersistManager", "writeJSONAtomic", "create temp file")
	}
	tmpPath := tmp.Name()

	if err := json.NewEncoder(tmp).Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.WrapFatal(err, "PersistManager", "writeJSONAtomic", "encode document")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.WrapTransient(err, "PersistManager", "writeJSONAtomic", "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.WrapTransient(err, "PersistManager", "writeJSONAtomic", "close temp file")
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return errors.WrapTransient(err, "PersistManager", "writeJSONAtomic", "chmod temp file")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.WrapTransient(err, "PersistManager", "writeJSONAtomic", "atomic rename")
	}

	return nil
}

func nonNilRelationships(rels map[relation.Type]map[string][]string) map[relation.Type]map[string][]string {
	if rels == nil {
		return make(map[relation.Type]map[string][]string)
	}
	return rels
}
