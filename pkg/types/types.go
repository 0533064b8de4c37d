// Package types defines the core data structures for the Recall knowledge
// system. These types represent notes, entities, tasks, knowledge articles,
// and the configuration data the engine consumes. All cross-references between
// records are by ID; existence must be checked at read time because cascade
// cleanup is best-effort.
package types

// EntityType classifies a directory entity.
type EntityType string

// Entity type constants
const (
	EntityTypePerson  EntityType = "Person"
	EntityTypeCompany EntityType = "Company"
	EntityTypeProject EntityType = "Project"
	EntityTypeOther   EntityType = "Other"
)

// ValidEntityTypes is a slice of all valid entity types for validation.
var ValidEntityTypes = []EntityType{
	EntityTypePerson,
	EntityTypeCompany,
	EntityTypeProject,
	EntityTypeOther,
}

// IsValidEntityType checks if the given entity type is valid.
func IsValidEntityType(entityType EntityType) bool {
	for _, validType := range ValidEntityTypes {
		if validType == entityType {
			return true
		}
	}
	return false
}

// EntityStatus represents the lifecycle state of an entity.
type EntityStatus string

// Entity status constants
const (
	// EntityActive indicates a normal, in-use entity.
	EntityActive EntityStatus = "active"

	// EntityArchived indicates the entity was archived instead of deleted.
	EntityArchived EntityStatus = "archived"

	// EntityIncomplete indicates the entity was created from vague input
	// and needs review before it can be trusted.
	EntityIncomplete EntityStatus = "incomplete"
)

// TaskPriority represents the urgency of a task.
type TaskPriority string

// Task priority constants
const (
	PriorityHigh   TaskPriority = "High"
	PriorityMedium TaskPriority = "Medium"
	PriorityLow    TaskPriority = "Low"
)

// IsValidTaskPriority checks if the given priority is valid.
func IsValidTaskPriority(priority TaskPriority) bool {
	switch priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// HistoryAction records how a knowledge item changed.
type HistoryAction string

// Knowledge history action constants
const (
	HistoryCreate HistoryAction = "create"
	HistoryUpdate HistoryAction = "update"
)

// Automation rule codes. Code is the only machine-checked field on an
// AutomationRule; rules with other codes are display-only.
const (
	// RuleTaskRequiresContext blocks saving a task edit without a related
	// entity while active.
	RuleTaskRequiresContext = "TASK_REQUIRES_CONTEXT"

	// RuleEntityVagueIncomplete creates vaguely named entities with
	// status incomplete instead of active while active.
	RuleEntityVagueIncomplete = "ENTITY_VAGUE_INCOMPLETE"
)

// SuggestionType classifies an autonomy suggestion.
type SuggestionType string

// Suggestion type constants
const (
	SuggestCreateEntity  SuggestionType = "CREATE_ENTITY"
	SuggestArchiveEntity SuggestionType = "ARCHIVE_ENTITY"
	SuggestMergeNotes    SuggestionType = "MERGE_NOTES"
)
