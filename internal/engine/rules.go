package engine

import (
	"context"
	"fmt"

	"github.com/scrypster/recall/pkg/types"
)

// SaveTask persists a task edit after evaluating the automation rules.
// When TASK_REQUIRES_CONTEXT is active and the task has no related entity,
// the save is rejected with ErrRuleViolation and the store is left
// unchanged; the caller keeps the in-progress edit and must assign context
// or deactivate the rule.
func (e *Engine) SaveTask(ctx context.Context, task types.Task) error {
	if e.store.Config().RuleActive(types.RuleTaskRequiresContext) && task.RelatedEntityID == "" {
		return fmt.Errorf("engine: task %q needs a Company or Project context: %w",
			task.Description, ErrRuleViolation)
	}
	return e.store.PutTask(ctx, task)
}

// ToggleTask flips a task's completion state.
func (e *Engine) ToggleTask(ctx context.Context, id string) error {
	task, ok := e.store.Task(id)
	if !ok {
		return fmt.Errorf("engine: task %s: %w", id, ErrNotFound)
	}
	task.Completed = !task.Completed
	return e.store.PutTask(ctx, task)
}

// UpdateNote persists a note edit.
func (e *Engine) UpdateNote(ctx context.Context, note types.Note) error {
	if _, ok := e.store.Note(note.ID); !ok {
		return fmt.Errorf("engine: note %s: %w", note.ID, ErrNotFound)
	}
	return e.store.PutNote(ctx, note)
}

// UpdateEntity persists an entity edit.
func (e *Engine) UpdateEntity(ctx context.Context, entity types.Entity) error {
	if _, ok := e.store.Entity(entity.ID); !ok {
		return fmt.Errorf("engine: entity %s: %w", entity.ID, ErrNotFound)
	}
	return e.store.PutEntity(ctx, entity)
}

// UpdateKnowledge persists a knowledge item edit.
func (e *Engine) UpdateKnowledge(ctx context.Context, item types.KnowledgeItem) error {
	if _, ok := e.store.KnowledgeItem(item.ID); !ok {
		return fmt.Errorf("engine: knowledge item %s: %w", item.ID, ErrNotFound)
	}
	return e.store.PutKnowledge(ctx, item)
}

// ArchiveEntity marks an entity archived. Archiving is the non-destructive
// alternative the impact report suggests when deletion would orphan records.
func (e *Engine) ArchiveEntity(ctx context.Context, id string) error {
	return e.setEntityStatus(ctx, id, types.EntityArchived)
}

// RestoreEntity reactivates an archived or incomplete entity.
func (e *Engine) RestoreEntity(ctx context.Context, id string) error {
	return e.setEntityStatus(ctx, id, types.EntityActive)
}

func (e *Engine) setEntityStatus(ctx context.Context, id string, status types.EntityStatus) error {
	entity, ok := e.store.Entity(id)
	if !ok {
		return fmt.Errorf("engine: entity %s: %w", id, ErrNotFound)
	}
	entity.Status = status
	return e.store.PutEntity(ctx, entity)
}

// MergeCategories rewrites every note in the source category to the target
// category. The category definitions themselves are left for the config
// owner to clean up.
func (e *Engine) MergeCategories(ctx context.Context, fromID, toID string) error {
	cfg := e.store.Config()
	source, ok := cfg.FindCategory(fromID)
	if !ok {
		return fmt.Errorf("engine: category %s: %w", fromID, ErrNotFound)
	}
	target, ok := cfg.FindCategory(toID)
	if !ok {
		return fmt.Errorf("engine: category %s: %w", toID, ErrNotFound)
	}

	notes := e.store.Notes()
	for i := range notes {
		if notes[i].Category == source.Name {
			notes[i].Category = target.Name
		}
	}
	return e.store.ReplaceNotes(ctx, notes)
}

// AddCategory appends a new category definition to the application config.
func (e *Engine) AddCategory(ctx context.Context, name string) error {
	cfg := e.store.Config()
	cfg.Categories = append(cfg.Categories, types.CategoryDefinition{
		ID:       newID(),
		Name:     name,
		Color:    "slate",
		Synonyms: []string{},
	})
	return e.store.SetConfig(ctx, cfg)
}
