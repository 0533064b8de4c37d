package store

// EventKind identifies what a store event describes.
type EventKind string

// Store event kinds
const (
	// EventRecordsChanged fires after a collection mutation has been
	// applied and flushed. Collection names the changed collection.
	EventRecordsChanged EventKind = "records_changed"

	// EventNotification carries a user-facing message (e.g. the
	// post-commit audit summary). Notifications never indicate failure
	// of the operation that produced them.
	EventNotification EventKind = "notification"
)

// Notification levels
const (
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelInfo    = "info"
)

// Event is delivered synchronously to subscribers after store mutations.
// Derived views (suggestions, audits) recompute on demand when they see a
// records-changed event; there is no implicit reactive tracking.
type Event struct {
	Kind       EventKind
	Collection string // collection key for EventRecordsChanged
	Level      string // notification level for EventNotification
	Message    string // notification text for EventNotification
}
