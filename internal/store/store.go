// Package store implements the in-memory record store that owns all Notes,
// Entities, Tasks, and KnowledgeItems, plus the application config.
//
// The store is the single owner of every collection. All mutations go
// through its methods, which serialize behind one mutex (the Go stand-in for
// the original single-threaded event loop), apply the change in memory,
// flush the affected collection to the persistence backend, and notify
// subscribers. Reads return snapshot copies of the collection slices; nested
// id slices still share backing arrays, so snapshots are read-only views and
// mutators must build fresh slices rather than edit them in place.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/scrypster/recall/internal/config"
	"github.com/scrypster/recall/internal/storage"
	"github.com/scrypster/recall/pkg/types"
)

// RecordStore holds every record collection in memory and persists them
// through a storage.CollectionStore, one JSON document per collection.
type RecordStore struct {
	mu      sync.RWMutex
	backend storage.CollectionStore

	notes     []types.Note
	entities  []types.Entity
	tasks     []types.Task
	knowledge []types.KnowledgeItem
	appConfig *types.AppConfig

	subscribers map[int]func(Event)
	nextSubID   int
}

// Open loads all collections from the backend into a new RecordStore.
// Missing collections default to empty; a missing config collection defaults
// to the built-in application config. Any other load failure is terminal.
func Open(ctx context.Context, backend storage.CollectionStore) (*RecordStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("store: backend is required")
	}

	s := &RecordStore{
		backend:     backend,
		subscribers: make(map[int]func(Event)),
	}

	if err := loadCollection(ctx, backend, storage.KeyNotes, &s.notes); err != nil {
		return nil, err
	}
	if err := loadCollection(ctx, backend, storage.KeyEntities, &s.entities); err != nil {
		return nil, err
	}
	if err := loadCollection(ctx, backend, storage.KeyTasks, &s.tasks); err != nil {
		return nil, err
	}
	if err := loadCollection(ctx, backend, storage.KeyKnowledge, &s.knowledge); err != nil {
		return nil, err
	}

	var cfg types.AppConfig
	err := loadCollection(ctx, backend, storage.KeyConfig, &cfg)
	switch {
	case err != nil:
		return nil, err
	case len(cfg.Categories) == 0 && len(cfg.AutomationRules) == 0:
		s.appConfig = config.DefaultAppConfig()
	default:
		s.appConfig = &cfg
	}

	return s, nil
}

// loadCollection unmarshals one collection document into dst.
// storage.ErrNotFound leaves dst at its zero value.
func loadCollection(ctx context.Context, backend storage.CollectionStore, key string, dst interface{}) error {
	data, err := backend.Load(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("store: failed to decode %s: %w", key, err)
	}
	return nil
}

// Subscribe registers a callback for store events. The returned function
// cancels the subscription. Callbacks run synchronously on the mutating
// goroutine and must not call back into the store.
func (s *RecordStore) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// publish delivers an event to all subscribers. Callers must hold s.mu.
func (s *RecordStore) publish(evt Event) {
	for _, fn := range s.subscribers {
		fn(evt)
	}
}

// PublishNotification delivers a user-facing notification event.
func (s *RecordStore) PublishNotification(level, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish(Event{Kind: EventNotification, Level: level, Message: message})
}

// flush persists one collection and publishes a records-changed event.
// Callers must hold s.mu. Flush failures surface to the caller and are not
// retried; the in-memory mutation stays applied.
func (s *RecordStore) flush(ctx context.Context, key string) error {
	var payload interface{}
	switch key {
	case storage.KeyNotes:
		payload = s.notes
	case storage.KeyEntities:
		payload = s.entities
	case storage.KeyTasks:
		payload = s.tasks
	case storage.KeyKnowledge:
		payload = s.knowledge
	case storage.KeyConfig:
		payload = s.appConfig
	default:
		return fmt.Errorf("store: unknown collection %q", key)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("store: failed to encode %s: %w", key, err)
	}
	if err := s.backend.Save(ctx, key, data); err != nil {
		log.Printf("store: flush of %s failed: %v", key, err)
		return err
	}

	s.publish(Event{Kind: EventRecordsChanged, Collection: key})
	return nil
}

// Close closes the persistence backend.
func (s *RecordStore) Close() error {
	return s.backend.Close()
}

// --- snapshot reads ---

// Notes returns a snapshot copy of all notes, newest first.
func (s *RecordStore) Notes() []types.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// Entities returns a snapshot copy of all entities.
func (s *RecordStore) Entities() []types.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Entity, len(s.entities))
	copy(out, s.entities)
	return out
}

// Tasks returns a snapshot copy of all tasks.
func (s *RecordStore) Tasks() []types.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Knowledge returns a snapshot copy of all knowledge items.
func (s *RecordStore) Knowledge() []types.KnowledgeItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.KnowledgeItem, len(s.knowledge))
	copy(out, s.knowledge)
	return out
}

// Config returns a copy of the application config.
func (s *RecordStore) Config() types.AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.appConfig
}

// Note looks up a note by ID. The second return value reports existence;
// a stale ID after cascade cleanup is unknown provenance, not an error.
func (s *RecordStore) Note(id string) (types.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.notes {
		if n.ID == id {
			return n, true
		}
	}
	return types.Note{}, false
}

// Entity looks up an entity by ID.
func (s *RecordStore) Entity(id string) (types.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entities {
		if e.ID == id {
			return e, true
		}
	}
	return types.Entity{}, false
}

// Task looks up a task by ID.
func (s *RecordStore) Task(id string) (types.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return types.Task{}, false
}

// KnowledgeItem looks up a knowledge item by ID.
func (s *RecordStore) KnowledgeItem(id string) (types.KnowledgeItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.knowledge {
		if k.ID == id {
			return k, true
		}
	}
	return types.KnowledgeItem{}, false
}

// EntityByName resolves an entity by case-insensitive exact name match.
// This is deliberately a linear scan: at this data scale an index buys
// nothing, and keeping the scan behind one named function means an index
// could replace it later without touching call sites.
func (s *RecordStore) EntityByName(name string) (types.Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lower := strings.ToLower(name)
	for _, e := range s.entities {
		if strings.ToLower(e.Name) == lower {
			return e, true
		}
	}
	return types.Entity{}, false
}

// --- mutations ---

// PutNote inserts or replaces a note. New notes are prepended so the
// collection stays newest-first.
func (s *RecordStore) PutNote(ctx context.Context, note types.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notes {
		if s.notes[i].ID == note.ID {
			s.notes[i] = note
			return s.flush(ctx, storage.KeyNotes)
		}
	}
	s.notes = append([]types.Note{note}, s.notes...)
	return s.flush(ctx, storage.KeyNotes)
}

// PutEntity inserts or replaces an entity.
func (s *RecordStore) PutEntity(ctx context.Context, entity types.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entities {
		if s.entities[i].ID == entity.ID {
			s.entities[i] = entity
			return s.flush(ctx, storage.KeyEntities)
		}
	}
	s.entities = append(s.entities, entity)
	return s.flush(ctx, storage.KeyEntities)
}

// PutTask inserts or replaces a task.
func (s *RecordStore) PutTask(ctx context.Context, task types.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == task.ID {
			s.tasks[i] = task
			return s.flush(ctx, storage.KeyTasks)
		}
	}
	s.tasks = append(s.tasks, task)
	return s.flush(ctx, storage.KeyTasks)
}

// PutKnowledge inserts or replaces a knowledge item.
func (s *RecordStore) PutKnowledge(ctx context.Context, item types.KnowledgeItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.knowledge {
		if s.knowledge[i].ID == item.ID {
			s.knowledge[i] = item
			return s.flush(ctx, storage.KeyKnowledge)
		}
	}
	s.knowledge = append(s.knowledge, item)
	return s.flush(ctx, storage.KeyKnowledge)
}

// RemoveNote deletes a note by ID. Removing a missing ID is a no-op.
func (s *RecordStore) RemoveNote(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.notes[:0]
	for _, n := range s.notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	s.notes = kept
	return s.flush(ctx, storage.KeyNotes)
}

// RemoveEntity deletes an entity by ID. Removing a missing ID is a no-op.
func (s *RecordStore) RemoveEntity(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.entities[:0]
	for _, e := range s.entities {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.entities = kept
	return s.flush(ctx, storage.KeyEntities)
}

// RemoveTask deletes a task by ID. Removing a missing ID is a no-op.
func (s *RecordStore) RemoveTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	return s.flush(ctx, storage.KeyTasks)
}

// RemoveKnowledge deletes a knowledge item by ID. Removing a missing ID is a
// no-op.
func (s *RecordStore) RemoveKnowledge(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.knowledge[:0]
	for _, k := range s.knowledge {
		if k.ID != id {
			kept = append(kept, k)
		}
	}
	s.knowledge = kept
	return s.flush(ctx, storage.KeyKnowledge)
}

// ReplaceNotes swaps the whole notes collection in one mutation. Used by
// cascade cleanup where many notes change together.
func (s *RecordStore) ReplaceNotes(ctx context.Context, notes []types.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = notes
	return s.flush(ctx, storage.KeyNotes)
}

// ReplaceEntities swaps the whole entities collection in one mutation.
func (s *RecordStore) ReplaceEntities(ctx context.Context, entities []types.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = entities
	return s.flush(ctx, storage.KeyEntities)
}

// ReplaceTasks swaps the whole tasks collection in one mutation.
func (s *RecordStore) ReplaceTasks(ctx context.Context, tasks []types.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
	return s.flush(ctx, storage.KeyTasks)
}

// ReplaceKnowledge swaps the whole knowledge collection in one mutation.
func (s *RecordStore) ReplaceKnowledge(ctx context.Context, items []types.KnowledgeItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.knowledge = items
	return s.flush(ctx, storage.KeyKnowledge)
}

// SetConfig replaces the application config.
func (s *RecordStore) SetConfig(ctx context.Context, cfg types.AppConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appConfig = &cfg
	return s.flush(ctx, storage.KeyConfig)
}
