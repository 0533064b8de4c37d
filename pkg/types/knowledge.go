package types

import "time"

// KnowledgeHistory is one entry in a knowledge item's provenance trail.
// The history sequence is append-only and ordered; every update appends
// exactly one entry.
type KnowledgeHistory struct {
	Date         time.Time     `json:"date"`
	SourceNoteID string        `json:"source_note_id"`
	Action       HistoryAction `json:"action"` // create or update
	Summary      string        `json:"summary,omitempty"`
}

// KnowledgeItem is a versioned knowledge-base article built up from one or
// more notes. When a later extraction is judged a topic match, its content is
// appended with a dated separator and the history grows by one update entry.
type KnowledgeItem struct {
	ID      string   `json:"id"`      // Unique identifier (uuid v4)
	Topic   string   `json:"topic"`   // Article topic, dedup key
	Content string   `json:"content"` // Accumulated article body
	Tags    []string `json:"tags"`    // Keywords from the seeding extraction

	// SourceNoteID references the note that created the article. Like
	// task provenance, it may dangle after note deletion.
	SourceNoteID string `json:"source_note_id"`

	// RelatedEntityIDs links the article to directory entities (set
	// semantics).
	RelatedEntityIDs []string `json:"related_entity_ids,omitempty"`

	History     []KnowledgeHistory `json:"history"`
	LastUpdated time.Time          `json:"last_updated"`
}
