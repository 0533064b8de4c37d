package types

// ExtractedEntity is one entity candidate in an extraction result.
type ExtractedEntity struct {
	Name        string     `json:"name"`
	Type        EntityType `json:"type"`
	ContactInfo string     `json:"contact_info,omitempty"`
	Role        string     `json:"role,omitempty"`

	// AssociatedWith names the parent Company this entity belongs to,
	// if the extractor detected a hierarchy. The name may refer to an
	// existing entity or to another entity in the same batch.
	AssociatedWith string `json:"associated_with,omitempty"`
}

// ExtractedTask is one task candidate in an extraction result.
type ExtractedTask struct {
	Description string       `json:"description"`
	Priority    TaskPriority `json:"priority"`
	Date        string       `json:"date,omitempty"`
}

// ExtractedKnowledge is one knowledge candidate in an extraction result.
type ExtractedKnowledge struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

// AnalysisResult is the structured output of one extraction call over a raw
// note. The whole batch is committed together in one ingestion run.
type AnalysisResult struct {
	Summary     string               `json:"summary"`
	Category    string               `json:"category"`
	IsSensitive bool                 `json:"is_sensitive"`
	Entities    []ExtractedEntity    `json:"entities"`
	Tasks       []ExtractedTask      `json:"tasks"`
	Knowledge   []ExtractedKnowledge `json:"knowledge"`
	Keywords    []string             `json:"keywords"`
}

// ImagePayload is an optional image attached to an extraction call.
type ImagePayload struct {
	Data     string `json:"data"` // base64-encoded bytes
	MimeType string `json:"mime_type"`
}
