package entity

// Record is a deduplicated entity held in a store's cache. The cache owns
// the record exclusively; fields change only through insert-or-merge.
type Record struct {
	// Key is the deterministic identity of the record within its store,
	// produced by KeyGenerator.
	Key string `json:"key"`

	// Type names the entity type, e.g. "agency" or "contract".
	Type string `json:"type"`

	// Fields holds the extracted attribute values.
	Fields map[string]any `json:"fields"`

	// Level marks the hierarchy level for hierarchical entity types
	// (e.g. "department", "agency", "office"). Empty for flat types.
	Level string `json:"level,omitempty"`
}

// Merge overwrites the record's fields with the incoming values, field by
// field. Nested structures are replaced wholesale; set and accumulator
// fields are reconciled by the domain store before it merges.
func (r *Record) Merge(fields map[string]any) {
	if r.Fields == nil {
		r.Fields = make(map[string]any, len(fields))
	}
	for k, v := range fields {
		r.Fields[k] = v
	}
}

// Field returns the named field value and whether it is present.
func (r *Record) Field(name string) (any, bool) {
	v, ok := r.Fields[name]
	return v, ok
}
