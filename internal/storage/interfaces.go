// Package storage provides the persistence contract for the Recall system.
//
// Persistence is a generic keyed collection store: each record collection
// (notes, entities, tasks, knowledge, config) is saved as one JSON document
// under its own key. Backends implement CollectionStore independently; the
// record store owns serialization and performs full-collection
// read-modify-write flushes.
package storage

import "context"

// Collection keys. One key per record collection.
const (
	KeyNotes     = "notes"
	KeyEntities  = "entities"
	KeyTasks     = "tasks"
	KeyKnowledge = "knowledge"
	KeyConfig    = "config"
)

// CollectionStore persists JSON collection documents by key.
type CollectionStore interface {
	// Load retrieves the document stored under key.
	// Returns ErrNotFound if the key has never been saved.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save writes the document under key (upsert semantics).
	Save(ctx context.Context, key string, data []byte) error

	// Close releases any resources held by the store.
	Close() error
}
