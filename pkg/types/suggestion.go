package types

// Suggestion is an ephemeral, derived recommendation produced by the audit
// engine. Suggestions are recomputed on demand and never persisted.
type Suggestion struct {
	ID     string            `json:"id"`
	Type   SuggestionType    `json:"type"`
	Title  string            `json:"title"`
	Reason string            `json:"reason"`
	Data   map[string]string `json:"data"` // Action payload (entity name, record id, ...)
}
