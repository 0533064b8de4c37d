package types

// Task is an actionable item extracted from a note. Tasks should reference
// exactly one context entity of type Company or Project; the
// TASK_REQUIRES_CONTEXT automation rule enforces this at save time when
// active.
type Task struct {
	ID          string       `json:"id"`          // Unique identifier (uuid v4)
	Description string       `json:"description"` // What needs doing
	Priority    TaskPriority `json:"priority"`    // High, Medium, or Low

	// SuggestedDate is the extractor-suggested due date, free-form.
	SuggestedDate string `json:"suggested_date,omitempty"`

	Completed bool `json:"completed"`

	// SourceNoteID references the originating note. It may dangle after
	// the source note is deleted; readers must treat a missing note as
	// unknown provenance, not as an error.
	SourceNoteID string `json:"source_note_id"`

	// RelatedEntityID is the context entity, if any. Absent means the
	// task is context-less and will be surfaced by the audit engine.
	RelatedEntityID string `json:"related_entity_id,omitempty"`
}
