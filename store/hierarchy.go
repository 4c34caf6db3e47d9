package store

import "github.com/c360/semledger/entity"

// AddLevels records one input row already split into per-level field
// maps, keyed by configured level name. Each present level is keyed and
// cached as its own entity, counted as its own add attempt, with the
// level name recorded on the entity. Level names outside the
// configuration are ignored.
//
// Hierarchy edges are added only between consecutive configured levels
// that are both present and keyed in this row, using the upper level's
// ChildRelation. A row carrying a single level yields an entity and no
// edges; a row with a gap, such as department and office without the
// agency between them, links nothing across the gap.
//
// An empty row counts as one skipped add. The result map is keyed by
// level name.
func (s *Store) AddLevels(levelData map[string]map[string]any) map[string]entity.AddResult {
	if len(levelData) == 0 {
		s.stats.Total++
		s.skip(entity.SkipInvalidData)
		return nil
	}

	results := make(map[string]entity.AddResult, len(levelData))
	keys := make([]string, len(s.levels))

	for i, level := range s.levels {
		fields, ok := levelData[level.Name]
		if !ok {
			continue
		}

		s.stats.Total++

		if len(fields) == 0 {
			results[level.Name] = s.skip(entity.SkipInvalidData)
			continue
		}

		key, err := s.deriveKey(level.KeyFields, fields)
		if err != nil {
			results[level.Name] = s.skip(entity.SkipMissingKeyFields)
			continue
		}

		keys[i] = key
		results[level.Name] = s.insertOrMerge(key, level.Name, fields)
	}

	for i := 0; i < len(s.levels)-1; i++ {
		if keys[i] == "" || keys[i+1] == "" {
			continue
		}
		s.relate(keys[i], s.levels[i].ChildRelation, keys[i+1])
	}

	return results
}
