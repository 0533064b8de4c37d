package types

// PlaceholderEntityName is substituted for blank or missing entity names by
// the resolver. It doubles as a vagueness marker for the automation rules.
const PlaceholderEntityName = "Unknown Entity"

// Entity is a record in the relationship directory: a person, company,
// project, or other named thing. Name is the resolution key (case-insensitive
// exact match; near-duplicates like "Acme Corp" vs "Acme Corp." resolve as
// distinct entities).
type Entity struct {
	// Core identification fields
	ID   string     `json:"id"`   // Unique identifier (uuid v4)
	Name string     `json:"name"` // Display name and resolution key
	Type EntityType `json:"type"` // Person, Company, Project, or Other

	// Contact and role details, merged fill-empty-only by the resolver.
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"`

	// ParentID references the Company or Project this entity belongs to.
	// When present it must reference an existing entity and must not
	// create a cycle.
	ParentID string `json:"parent_id,omitempty"`

	// NoteIDs lists related notes recorded directly on the entity.
	NoteIDs []string `json:"notes"`

	// Status is the lifecycle state: active, archived, or incomplete.
	Status EntityStatus `json:"status"`
}
