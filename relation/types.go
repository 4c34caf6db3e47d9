package relation

// Relation types use UPPER_SNAKE notation. The strings are part of the
// persisted file format: relationship adjacency and per-type counts are
// keyed by these values, so renaming a constant is a breaking change to
// saved ledgers.
//
// Naming conventions:
//   - Forward types read subject-first: "D HAS_SUBAGENCY A" links D to A.
//   - Inverse types are registered as pairs in the vocabulary; adding a
//     forward edge adds the inverse atomically.
//   - Upward hierarchy types (child points at ancestor) participate in
//     cycle detection; see Vocabulary.IsCycleForming.

// Type labels a directed edge between two entity keys.
type Type string

// String returns the string representation of the relation type
func (t Type) String() string {
	return string(t)
}

// Valid reports whether the type follows UPPER_SNAKE notation: ASCII
// upper-case letters, digits and single underscores, starting with a letter.
func (t Type) Valid() bool {
	if t == "" {
		return false
	}
	prev := byte('_')
	for i := 0; i < len(t); i++ {
		c := t[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		case c == '_':
			if prev == '_' {
				return false
			}
		default:
			return false
		}
		prev = c
	}
	return prev != '_'
}

// Generic hierarchy types used by parent/child linking across all stores

const (
	// ParentOf links a parent to a direct child (downward)
	ParentOf Type = "PARENT_OF"

	// ChildOf links a child to its direct parent (upward)
	ChildOf Type = "CHILD_OF"

	// BelongsTo links a member to its containing entity (upward)
	BelongsTo Type = "BELONGS_TO"
)

// Agency hierarchy types (department -> agency -> office)

const (
	// HasSubagency links a department to one of its agencies
	HasSubagency Type = "HAS_SUBAGENCY"

	// BelongsToAgency links an agency back to its department
	BelongsToAgency Type = "BELONGS_TO_AGENCY"

	// HasOffice links an agency to one of its offices
	HasOffice Type = "HAS_OFFICE"

	// BelongsToSubagency links an office back to its agency
	BelongsToSubagency Type = "BELONGS_TO_SUBAGENCY"
)

// Contract award types

const (
	// AwardedBy links a contract to its awarding agency
	AwardedBy Type = "AWARDED_BY"

	// Awarded links an awarding agency to a contract
	Awarded Type = "AWARDED"

	// FundedBy links a contract to its funding agency
	FundedBy Type = "FUNDED_BY"

	// Funded links a funding agency to a contract
	Funded Type = "FUNDED"

	// ParentAwardedBy links a child award to its parent award
	ParentAwardedBy Type = "PARENT_AWARDED_BY"

	// ParentAwarded links a parent award to a child award
	ParentAwarded Type = "PARENT_AWARDED"
)

// Recipient types

const (
	// SubsidiaryOf links a recipient to its parent organization (upward)
	SubsidiaryOf Type = "SUBSIDIARY_OF"

	// HasSubsidiary links a parent organization to a subsidiary
	HasSubsidiary Type = "HAS_SUBSIDIARY"

	// LocatedAt links a recipient to a location entity; no inverse
	LocatedAt Type = "LOCATED_AT"
)
