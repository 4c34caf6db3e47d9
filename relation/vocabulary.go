package relation

import (
	"sort"
	"sync"
)

// Metadata provides semantic information about a relation type.
// The graph consults it for inverse pairing and cycle classification.
type Metadata struct {
	// Type is the relation constant (e.g. HAS_SUBAGENCY)
	Type Type

	// Description provides human-readable documentation
	Description string

	// Inverse names the paired reverse-direction type, if any.
	// When set, adding a forward edge adds the inverse edge atomically.
	Inverse Type

	// CycleForming marks types whose edges the cycle detector traverses.
	// Upward hierarchy types (SUBSIDIARY_OF, BELONGS_TO, PARENT_OF,
	// CHILD_OF) are cycle-forming; annotation types like LOCATED_AT are not.
	CycleForming bool
}

// Option is a functional option for configuring relation registration.
type Option func(*Metadata)

// WithDescription sets the human-readable description of the relation type.
func WithDescription(desc string) Option {
	return func(m *Metadata) {
		m.Description = desc
	}
}

// WithInverse sets the paired reverse-direction type. Both directions must
// be registered; pairing is not symmetric automatically.
func WithInverse(inverse Type) Option {
	return func(m *Metadata) {
		m.Inverse = inverse
	}
}

// WithCycleForming marks the type for traversal during cycle detection.
func WithCycleForming() Option {
	return func(m *Metadata) {
		m.CycleForming = true
	}
}

// Vocabulary is the set of relation types one store understands, with
// their inverse pairs and cycle classification. Each store owns its own
// vocabulary instance; there is no process-global registry.
type Vocabulary struct {
	mu    sync.RWMutex
	types map[Type]Metadata
}

// NewVocabulary creates an empty vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{
		types: make(map[Type]Metadata),
	}
}

// Register adds a relation type with its metadata. Re-registering a type
// overwrites the previous metadata, which lets domain vocabularies refine
// the core defaults.
func (v *Vocabulary) Register(t Type, opts ...Option) {
	meta := Metadata{Type: t}
	for _, opt := range opts {
		opt(&meta)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.types[t] = meta
}

// Metadata retrieves metadata for a relation type.
func (v *Vocabulary) Metadata(t Type) (Metadata, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	meta, ok := v.types[t]
	return meta, ok
}

// Has reports whether the type is registered.
func (v *Vocabulary) Has(t Type) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	_, ok := v.types[t]
	return ok
}

// Inverse returns the paired reverse-direction type, if one is registered.
func (v *Vocabulary) Inverse(t Type) (Type, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	meta, ok := v.types[t]
	if !ok || meta.Inverse == "" {
		return "", false
	}
	return meta.Inverse, true
}

// IsCycleForming reports whether edges of this type participate in
// cycle detection.
func (v *Vocabulary) IsCycleForming(t Type) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.types[t].CycleForming
}

// CycleForming returns the cycle-forming types in sorted order.
func (v *Vocabulary) CycleForming() []Type {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var out []Type
	for t, meta := range v.types {
		if meta.CycleForming {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Types returns all registered types in sorted order.
func (v *Vocabulary) Types() []Type {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]Type, 0, len(v.types))
	for t := range v.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of registered types.
func (v *Vocabulary) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return len(v.types)
}

// Core returns the vocabulary shared by every store: the generic
// parent/child hierarchy pair and membership type, all cycle-forming.
func Core() *Vocabulary {
	v := NewVocabulary()

	v.Register(ParentOf,
		WithDescription("Direct parent-to-child hierarchy edge"),
		WithInverse(ChildOf),
		WithCycleForming())

	v.Register(ChildOf,
		WithDescription("Direct child-to-parent hierarchy edge"),
		WithInverse(ParentOf),
		WithCycleForming())

	v.Register(BelongsTo,
		WithDescription("Membership in a containing entity"),
		WithCycleForming())

	return v
}

// AgencyVocabulary extends Core with the three-level agency hierarchy
// (department -> agency -> office).
func AgencyVocabulary() *Vocabulary {
	v := Core()

	v.Register(HasSubagency,
		WithDescription("Department to agency containment"),
		WithInverse(BelongsToAgency))

	v.Register(BelongsToAgency,
		WithDescription("Agency to parent department"),
		WithInverse(HasSubagency))

	v.Register(HasOffice,
		WithDescription("Agency to office containment"),
		WithInverse(BelongsToSubagency))

	v.Register(BelongsToSubagency,
		WithDescription("Office to parent agency"),
		WithInverse(HasOffice))

	return v
}

// ContractVocabulary extends Core with award, funding and parent-award
// pairs. PARENT_AWARDED_BY is cycle-forming: parent-award chains must
// stay acyclic.
func ContractVocabulary() *Vocabulary {
	v := Core()

	v.Register(AwardedBy,
		WithDescription("Contract to awarding agency"),
		WithInverse(Awarded))

	v.Register(Awarded,
		WithDescription("Awarding agency to contract"),
		WithInverse(AwardedBy))

	v.Register(FundedBy,
		WithDescription("Contract to funding agency"),
		WithInverse(Funded))

	v.Register(Funded,
		WithDescription("Funding agency to contract"),
		WithInverse(FundedBy))

	v.Register(ParentAwardedBy,
		WithDescription("Child award to parent award"),
		WithInverse(ParentAwarded),
		WithCycleForming())

	v.Register(ParentAwarded,
		WithDescription("Parent award to child award"),
		WithInverse(ParentAwardedBy))

	return v
}

// RecipientVocabulary extends Core with ownership and location types.
// SUBSIDIARY_OF is cycle-forming: corporate ownership chains must stay
// acyclic.
func RecipientVocabulary() *Vocabulary {
	v := Core()

	v.Register(SubsidiaryOf,
		WithDescription("Recipient to parent organization"),
		WithInverse(HasSubsidiary),
		WithCycleForming())

	v.Register(HasSubsidiary,
		WithDescription("Parent organization to subsidiary"),
		WithInverse(SubsidiaryOf))

	v.Register(LocatedAt,
		WithDescription("Recipient to location entity"))

	return v
}

// TransactionVocabulary is Core unchanged: transactions group awards and
// modifications without introducing relation types of their own.
func TransactionVocabulary() *Vocabulary {
	return Core()
}
