package types

// CategoryDefinition is a user-defined note category. Synonyms feed the
// extraction prompt so the model can map free text onto the category.
type CategoryDefinition struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	ParentID string   `json:"parent_id,omitempty" yaml:"parent_id,omitempty"` // For subcategories
	Color    string   `json:"color" yaml:"color"`
	Synonyms []string `json:"synonyms" yaml:"synonyms"`
}

// NoteTypeField is a typed field on a note-type definition.
type NoteTypeField struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"` // text, date, boolean, number
	Required bool   `json:"required" yaml:"required"`
}

// NoteTypeDefinition describes a structured note template (e.g. Meeting,
// Bug, Credential).
type NoteTypeDefinition struct {
	ID       string          `json:"id" yaml:"id"`
	Name     string          `json:"name" yaml:"name"`
	Fields   []NoteTypeField `json:"fields" yaml:"fields"`
	IconName string          `json:"icon_name,omitempty" yaml:"icon_name,omitempty"`
}

// AutomationRule is a configurable write-time rule. Trigger, Condition, and
// Action are human-readable descriptions; Code is the only field the engine
// interprets. Rules whose Code matches no known constant are display-only.
type AutomationRule struct {
	ID        string `json:"id" yaml:"id"`
	Trigger   string `json:"trigger" yaml:"trigger"`
	Condition string `json:"condition" yaml:"condition"`
	Action    string `json:"action" yaml:"action"`
	IsActive  bool   `json:"is_active" yaml:"is_active"`
	Code      string `json:"code" yaml:"code"`
}

// AppConfig is the configuration data the engine consumes: categories,
// note-type definitions, and automation rules. The engine reads it; editing
// is an external concern.
type AppConfig struct {
	Categories      []CategoryDefinition `json:"categories" yaml:"categories"`
	NoteTypes       []NoteTypeDefinition `json:"note_types" yaml:"note_types"`
	QuickActions    []string             `json:"quick_actions" yaml:"quick_actions"`
	AutomationRules []AutomationRule     `json:"automation_rules" yaml:"automation_rules"`
}

// RuleActive reports whether the automation rule with the given code is
// active. A rule absent from the config counts as active; deactivation has
// to be explicit.
func (c AppConfig) RuleActive(code string) bool {
	for _, rule := range c.AutomationRules {
		if rule.Code == code {
			return rule.IsActive
		}
	}
	return true
}

// FindCategory returns the category definition with the given ID.
func (c AppConfig) FindCategory(id string) (CategoryDefinition, bool) {
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return CategoryDefinition{}, false
}
