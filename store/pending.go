package store

import (
	"maps"
	"slices"
	"strings"

	"github.com/c360/semledger/entity"
	"github.com/c360/semledger/relation"
)

// ParentRef identifies a parent entity by external code before any
// record for it has arrived.
type ParentRef struct {
	// Code is the external identifier the child used to reference the
	// parent, such as a parent organization code
	Code string

	// Name is the display name carried alongside the reference, if any
	Name string

	// Fields seeds the synthetic parent entity when no real record ever
	// arrives. Must include the store's key fields.
	Fields map[string]any
}

// PendingParent reports one still-unresolved parent reference: the
// external code and name the children used, and the key synthesized
// from the reference fields.
type PendingParent struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
	Key  string `json:"key"`
}

// pendingEntry holds the bookkeeping and seed fields for one pending
// parent, keyed in the pending map by synthesized key so an arriving
// real record resolves it in one cache insert.
type pendingEntry struct {
	code string
	name string
	seed map[string]any
}

// AddParentChild links childKey to a parent that may not have been seen
// yet. The parent key is synthesized from the reference fields using the
// store's key fields, the edge is added with its vocabulary inverse, and
// when no record for the parent exists the reference is held pending. A
// later record with the same key resolves it; Finalize materializes the
// rest.
//
// It returns true when the edge was added. Cycle-forming relation types
// go through the graph's cycle check. Stores without configured key
// fields cannot synthesize parent keys and always return false.
func (s *Store) AddParentChild(childKey string, rel relation.Type, parent ParentRef) bool {
	if childKey == "" || rel == "" || len(parent.Fields) == 0 {
		return false
	}

	if len(s.keyFields) == 0 {
		s.logger.Debug("Parent linking requires natural key fields",
			"store", s.name,
			"child", childKey)
		return false
	}

	parentKey, err := s.keygen.Generate(s.entityType, s.keyFields, parent.Fields)
	if err != nil {
		s.logger.Debug("Parent reference missing key fields",
			"store", s.name,
			"child", childKey,
			"parent_code", parent.Code,
			"error", err)
		return false
	}

	if !s.relate(childKey, rel, parentKey) {
		return false
	}

	if _, ok := s.cache[parentKey]; !ok {
		s.pending[parentKey] = pendingEntry{
			code: parent.Code,
			name: parent.Name,
			seed: maps.Clone(parent.Fields),
		}
	}
	return true
}

// Finalize materializes every still-unresolved pending parent as a
// synthetic entity so persisted relationship endpoints all exist. It
// returns the number of entities created and leaves the pending set
// empty. Save calls it; calling it earlier is harmless.
func (s *Store) Finalize() int {
	if len(s.pending) == 0 {
		return 0
	}

	count := 0
	for key, entry := range s.pending {
		s.cache[key] = &entity.Record{
			Key:    key,
			Type:   s.entityType,
			Fields: entry.seed,
		}
		s.stats.Unique++
		s.report(entity.Inserted(key))
		count++
	}
	s.pending = make(map[string]pendingEntry)

	s.logger.Info("Materialized pending parents",
		"store", s.name,
		"count", count)
	return count
}

// PendingParents returns the still-unresolved parent references sorted
// by synthesized key.
func (s *Store) PendingParents() []PendingParent {
	if len(s.pending) == 0 {
		return nil
	}

	out := make([]PendingParent, 0, len(s.pending))
	for key, entry := range s.pending {
		out = append(out, PendingParent{
			Code: entry.code,
			Name: entry.name,
			Key:  key,
		})
	}
	slices.SortFunc(out, func(a, b PendingParent) int {
		return strings.Compare(a.Key, b.Key)
	})
	return out
}
