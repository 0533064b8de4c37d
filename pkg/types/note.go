package types

import "time"

// Note is a captured free-text note together with the structured records
// extracted from it. Notes are the provenance root of the graph: tasks and
// knowledge items point back at their source note via SourceNoteID.
type Note struct {
	// Core identification fields
	ID        string    `json:"id"`         // Unique identifier (uuid v4)
	Content   string    `json:"content"`    // Raw note content as captured
	Summary   string    `json:"summary"`    // Extractor-supplied short title
	Category  string    `json:"category"`   // Category name from AppConfig
	CreatedAt time.Time `json:"created_at"` // Creation timestamp

	// IsSensitive marks content the extractor flagged as containing
	// credentials, payment data, or similar.
	IsSensitive bool `json:"is_sensitive"`

	// Cross-references (by ID, set semantics, order not significant).
	RelatedEntityIDs []string `json:"related_entity_ids"` // Entities mentioned in this note
	RelatedNoteIDs   []string `json:"related_note_ids"`   // Cross-linked notes (not merged)

	// Records derived from this note during ingestion.
	ExtractedTaskIDs      []string `json:"extracted_task_ids"`
	ExtractedKnowledgeIDs []string `json:"extracted_knowledge_ids"`
}

// ReferencesEntity reports whether the note references the given entity.
func (n *Note) ReferencesEntity(entityID string) bool {
	for _, id := range n.RelatedEntityIDs {
		if id == entityID {
			return true
		}
	}
	return false
}
