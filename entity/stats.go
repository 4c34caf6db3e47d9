package entity

import (
	"maps"

	"github.com/c360/semledger/relation"
)

// Stats accumulates per-store counters: every add attempt, distinct keys,
// skips by reason, relationships by type, and key provenance. Counters are
// monotonic for the lifetime of a store instance. The zero value is ready
// to use; maps allocate on first write.
//
// Stats is not safe for concurrent mutation. A store has a single logical
// writer; hand a Clone to anything that reads while the store keeps
// counting.
type Stats struct {
	// Total counts every add attempt, accepted or not.
	Total int `json:"total"`

	// Unique counts distinct keys ever inserted.
	Unique int `json:"unique"`

	// Skipped counts dropped records by reason.
	Skipped map[SkipReason]int `json:"skipped"`

	// Relationships counts edges added by relation type, inverse edges
	// included.
	Relationships map[relation.Type]int `json:"relationships"`

	// NaturalKeys counts keys derived from configured key fields.
	NaturalKeys int `json:"natural_keys"`

	// HashKeys counts keys derived from the content-hash fallback.
	HashKeys int `json:"hash_keys"`
}

// NewStats returns Stats with the reason and relationship maps allocated.
func NewStats() *Stats {
	return &Stats{
		Skipped:       make(map[SkipReason]int),
		Relationships: make(map[relation.Type]int),
	}
}

// RecordSkip counts one dropped record under reason.
func (s *Stats) RecordSkip(reason SkipReason) {
	if s.Skipped == nil {
		s.Skipped = make(map[SkipReason]int)
	}
	s.Skipped[reason]++
}

// RecordRelationship counts one edge of the given type.
func (s *Stats) RecordRelationship(rel relation.Type) {
	if s.Relationships == nil {
		s.Relationships = make(map[relation.Type]int)
	}
	s.Relationships[rel]++
}

// SkippedTotal returns the number of dropped records across all reasons.
func (s *Stats) SkippedTotal() int {
	total := 0
	for _, n := range s.Skipped {
		total += n
	}
	return total
}

// RelationshipTotal returns the number of edges across all relation types.
func (s *Stats) RelationshipTotal() int {
	total := 0
	for _, n := range s.Relationships {
		total += n
	}
	return total
}

// Clone returns an independent copy safe to read while the original keeps
// counting.
func (s *Stats) Clone() *Stats {
	c := &Stats{
		Total:       s.Total,
		Unique:      s.Unique,
		NaturalKeys: s.NaturalKeys,
		HashKeys:    s.HashKeys,
	}
	if s.Skipped != nil {
		c.Skipped = maps.Clone(s.Skipped)
	}
	if s.Relationships != nil {
		c.Relationships = maps.Clone(s.Relationships)
	}
	return c
}
