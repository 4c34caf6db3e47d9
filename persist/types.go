package persist

import (
	"github.com/c360/semledger/entity"
	"github.com/c360/semledger/relation"
)

// Snapshot is the in-memory state a store hands to Save: its entity cache,
// the relationship adjacency in wire shape, and the run statistics.
type Snapshot struct {
	EntityType    string
	Entities      map[string]*entity.Record
	Relationships map[relation.Type]map[string][]string
	Stats         *entity.Stats
}

// Metadata is the persisted metadata block. Its JSON keys are a stable
// contract read by downstream consumers.
type Metadata struct {
	EntityType         string                    `json:"entity_type"`
	TotalReferences    int                       `json:"total_references"`
	UniqueEntities     int                       `json:"unique_entities"`
	RelationshipCounts map[relation.Type]int     `json:"relationship_counts"`
	SkippedEntities    map[entity.SkipReason]int `json:"skipped_entities"`
	GeneratedDate      string                    `json:"generated_date"`
	NaturalKeysUsed    int                       `json:"natural_keys_used"`
	HashKeysUsed       int                       `json:"hash_keys_used"`
}

// Document is the single-file layout: everything in one JSON object.
type Document struct {
	Metadata      Metadata                              `json:"metadata"`
	Entities      map[string]*entity.Record             `json:"entities"`
	Relationships map[relation.Type]map[string][]string `json:"relationships"`
}

// PartitionDocument is the layout of one partition file.
type PartitionDocument struct {
	Entities map[string]*entity.Record `json:"entities"`
}

// PartitionInfo records one partition in the index. Entity counts are
// write-once: they never change after the index is written.
type PartitionInfo struct {
	PartitionNumber int    `json:"partition_number"`
	EntityCount     int    `json:"entity_count"`
	FilePath        string `json:"file_path"`
}

// IndexDocument is the partitioned-mode index layout, written after every
// partition file it references.
type IndexDocument struct {
	Metadata      Metadata                              `json:"metadata"`
	Partitions    []PartitionInfo                       `json:"partitions"`
	Relationships map[relation.Type]map[string][]string `json:"relationships"`
}

// Result reports what a Save produced.
type Result struct {
	// Path is the canonical output: the single file, or the index file in
	// partitioned mode.
	Path string

	// Partitioned reports which layout was written.
	Partitioned bool

	// EntityCount is the number of entities written.
	EntityCount int

	// EstimatedSize is the sampling-pass size estimate in bytes.
	EstimatedSize int64

	// Partitions lists the partition files, nil in single-file mode.
	Partitions []PartitionInfo
}
