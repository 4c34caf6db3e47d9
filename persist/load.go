package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/c360/semledger/entity"
	"github.com/c360/semledger/errors"
	"github.com/c360/semledger/relation"
)

// Load reads a single-file document back into a Snapshot.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapTransient(err, "PersistManager", "Load", "read file")
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapFatal(err, "PersistManager", "Load", "unmarshal document")
	}

	return snapshotFromParts(doc.Metadata, doc.Entities, doc.Relationships), nil
}

// LoadPartitioned reads an index file and every partition it references
// back into a Snapshot. Partition paths resolve relative to the index's
// directory unless absolute. A partition whose entity count disagrees with
// the index is reported as ErrIndexInconsistent.
func LoadPartitioned(indexPath string) (*Snapshot, error) {
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, errors.WrapTransient(err, "PersistManager", "LoadPartitioned", "read index")
	}

	var index IndexDocument
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, errors.WrapFatal(err, "PersistManager", "LoadPartitioned", "unmarshal index")
	}

	dir := filepath.Dir(indexPath)
	entities := make(map[string]*entity.Record)

	for _, info := range index.Partitions {
		partPath := info.FilePath
		if !filepath.IsAbs(partPath) {
			partPath = filepath.Join(dir, partPath)
		}

		partData, err := os.ReadFile(partPath)
		if err != nil {
			return nil, errors.WrapTransient(err, "PersistManager", "LoadPartitioned",
				fmt.Sprintf("read partition %d", info.PartitionNumber))
		}

		var part PartitionDocument
		if err := json.Unmarshal(partData, &part); err != nil {
			return nil, errors.WrapFatal(err, "PersistManager", "LoadPartitioned",
				fmt.Sprintf("unmarshal partition %d", info.PartitionNumber))
		}

		if len(part.Entities) != info.EntityCount {
			return nil, errors.WrapFatal(errors.ErrIndexInconsistent,
				"PersistManager", "LoadPartitioned",
				fmt.Sprintf("partition %d holds %d entities, index records %d",
					info.PartitionNumber, len(part.Entities), info.EntityCount))
		}

		for key, rec := range part.Entities {
			entities[key] = rec
		}
	}

	return snapshotFromParts(index.Metadata, entities, index.Relationships), nil
}

// snapshotFromParts rebuilds a Snapshot, with Stats reconstructed from the
// metadata block.
func snapshotFromParts(
	meta Metadata,
	entities map[string]*entity.Record,
	rels map[relation.Type]map[string][]string,
) *Snapshot {
	stats := &entity.Stats{
		Total:       meta.TotalReferences,
		Unique:      meta.UniqueEntities,
		NaturalKeys: meta.NaturalKeysUsed,
		HashKeys:    meta.HashKeysUsed,
	}
	if meta.SkippedEntities != nil {
		stats.Skipped = meta.SkippedEntities
	}
	if meta.RelationshipCounts != nil {
		stats.Relationships = meta.RelationshipCounts
	}

	if entities == nil {
		entities = make(map[string]*entity.Record)
	}

	return &Snapshot{
		EntityType:    meta.EntityType,
		Entities:      entities,
		Relationships: nonNilRelationships(rels),
		Stats:         stats,
	}
}
