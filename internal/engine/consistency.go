package engine

import (
	"context"
	"fmt"
	"time"
)

// NoteImpact enumerates the records that would lose provenance if a note
// were deleted. Dependent tasks and knowledge items are never cascade-deleted;
// their SourceNoteID dangles and readers degrade to unknown provenance.
type NoteImpact struct {
	NoteID             string
	DependentTaskIDs   []string
	DependentKnowledge []string
}

// HasDependents reports whether deleting the note affects other records.
func (i NoteImpact) HasDependents() bool {
	return len(i.DependentTaskIDs) > 0 || len(i.DependentKnowledge) > 0
}

// EntityImpact enumerates the records affected by deleting an entity.
type EntityImpact struct {
	EntityID    string
	EntityName  string
	LinkedNotes []string // notes whose RelatedEntityIDs contain the entity
	LinkedTasks []string // tasks whose RelatedEntityID is the entity
	LinkedItems []string // knowledge items referencing the entity
	ChildIDs    []string // entities whose ParentID is the entity

	// ArchiveInstead is set when dependents exist: archiving keeps the
	// graph intact and is the recommended alternative.
	ArchiveInstead bool
}

// HasDependents reports whether deleting the entity affects other records.
func (i EntityImpact) HasDependents() bool {
	return len(i.LinkedNotes) > 0 || len(i.LinkedTasks) > 0 ||
		len(i.LinkedItems) > 0 || len(i.ChildIDs) > 0
}

// ImpactError is returned when a destructive operation needs explicit
// confirmation. It wraps ErrConfirmationRequired and carries the impact
// report so callers can present it.
type ImpactError struct {
	Note   *NoteImpact
	Entity *EntityImpact
}

func (e *ImpactError) Error() string {
	switch {
	case e.Entity != nil:
		return fmt.Sprintf("deleting entity %q affects %d notes, %d tasks, %d knowledge items, %d children: %v",
			e.Entity.EntityName, len(e.Entity.LinkedNotes), len(e.Entity.LinkedTasks),
			len(e.Entity.LinkedItems), len(e.Entity.ChildIDs), ErrConfirmationRequired)
	case e.Note != nil:
		return fmt.Sprintf("deleting note %s orphans %d tasks and %d knowledge items: %v",
			e.Note.NoteID, len(e.Note.DependentTaskIDs), len(e.Note.DependentKnowledge), ErrConfirmationRequired)
	default:
		return ErrConfirmationRequired.Error()
	}
}

// Unwrap lets errors.Is(err, ErrConfirmationRequired) match.
func (e *ImpactError) Unwrap() error {
	return ErrConfirmationRequired
}

// PreviewNoteDeletion computes the impact of deleting a note without
// mutating anything.
func (e *Engine) PreviewNoteDeletion(id string) (NoteImpact, error) {
	if _, ok := e.store.Note(id); !ok {
		return NoteImpact{}, fmt.Errorf("engine: note %s: %w", id, ErrNotFound)
	}

	impact := NoteImpact{NoteID: id}
	for _, t := range e.store.Tasks() {
		if t.SourceNoteID == id {
			impact.DependentTaskIDs = append(impact.DependentTaskIDs, t.ID)
		}
	}
	for _, k := range e.store.Knowledge() {
		if k.SourceNoteID == id {
			impact.DependentKnowledge = append(impact.DependentKnowledge, k.ID)
		}
	}
	return impact, nil
}

// DeleteNote removes a note. When dependent tasks or knowledge items exist
// and confirmed is false, it fails with an ImpactError naming them; the
// caller must obtain explicit confirmation and retry. Dependents survive
// unmutated — their provenance link dangles by design.
func (e *Engine) DeleteNote(ctx context.Context, id string, confirmed bool) error {
	impact, err := e.PreviewNoteDeletion(id)
	if err != nil {
		return err
	}
	if !confirmed && impact.HasDependents() {
		return &ImpactError{Note: &impact}
	}
	return e.store.RemoveNote(ctx, id)
}

// PreviewEntityDeletion computes the full impact of deleting an entity
// without mutating anything.
func (e *Engine) PreviewEntityDeletion(id string) (EntityImpact, error) {
	entity, ok := e.store.Entity(id)
	if !ok {
		return EntityImpact{}, fmt.Errorf("engine: entity %s: %w", id, ErrNotFound)
	}

	impact := EntityImpact{EntityID: id, EntityName: entity.Name}
	for _, n := range e.store.Notes() {
		if n.ReferencesEntity(id) {
			impact.LinkedNotes = append(impact.LinkedNotes, n.ID)
		}
	}
	for _, t := range e.store.Tasks() {
		if t.RelatedEntityID == id {
			impact.LinkedTasks = append(impact.LinkedTasks, t.ID)
		}
	}
	for _, k := range e.store.Knowledge() {
		if contains(k.RelatedEntityIDs, id) {
			impact.LinkedItems = append(impact.LinkedItems, k.ID)
		}
	}
	for _, child := range e.store.Entities() {
		if child.ParentID == id {
			impact.ChildIDs = append(impact.ChildIDs, child.ID)
		}
	}
	impact.ArchiveInstead = impact.HasDependents()
	return impact, nil
}

// DeleteEntity removes an entity and cleans every reference to it: the id is
// stripped from note and knowledge reference sets, matching tasks lose their
// context (cleared, not deleted), and child entities are un-parented (never
// deleted or re-parented). With dependents and confirmed false it fails with
// an ImpactError suggesting archive instead.
func (e *Engine) DeleteEntity(ctx context.Context, id string, confirmed bool) error {
	impact, err := e.PreviewEntityDeletion(id)
	if err != nil {
		return err
	}
	if !confirmed && impact.HasDependents() {
		return &ImpactError{Entity: &impact}
	}

	if err := e.store.RemoveEntity(ctx, id); err != nil {
		return err
	}

	notes := e.store.Notes()
	for i := range notes {
		notes[i].RelatedEntityIDs = remove(notes[i].RelatedEntityIDs, id)
	}
	if err := e.store.ReplaceNotes(ctx, notes); err != nil {
		return err
	}

	tasks := e.store.Tasks()
	for i := range tasks {
		if tasks[i].RelatedEntityID == id {
			tasks[i].RelatedEntityID = ""
		}
	}
	if err := e.store.ReplaceTasks(ctx, tasks); err != nil {
		return err
	}

	knowledge := e.store.Knowledge()
	for i := range knowledge {
		knowledge[i].RelatedEntityIDs = remove(knowledge[i].RelatedEntityIDs, id)
	}
	if err := e.store.ReplaceKnowledge(ctx, knowledge); err != nil {
		return err
	}

	entities := e.store.Entities()
	for i := range entities {
		if entities[i].ParentID == id {
			entities[i].ParentID = ""
		}
	}
	return e.store.ReplaceEntities(ctx, entities)
}

// MergeEntities absorbs the source entity into the target: every reference
// to source is rewritten to target with set semantics (a record referencing
// both before the merge references target exactly once after), parent links
// are repointed, and the source record is removed. This is destructive and
// unconditional — the caller is expected to have confirmed.
func (e *Engine) MergeEntities(ctx context.Context, sourceID, targetID string) error {
	if sourceID == targetID {
		return nil
	}
	if _, ok := e.store.Entity(sourceID); !ok {
		return fmt.Errorf("engine: merge source %s: %w", sourceID, ErrNotFound)
	}
	if _, ok := e.store.Entity(targetID); !ok {
		return fmt.Errorf("engine: merge target %s: %w", targetID, ErrNotFound)
	}

	notes := e.store.Notes()
	for i := range notes {
		notes[i].RelatedEntityIDs = replaceDedup(notes[i].RelatedEntityIDs, sourceID, targetID)
	}
	if err := e.store.ReplaceNotes(ctx, notes); err != nil {
		return err
	}

	tasks := e.store.Tasks()
	for i := range tasks {
		if tasks[i].RelatedEntityID == sourceID {
			tasks[i].RelatedEntityID = targetID
		}
	}
	if err := e.store.ReplaceTasks(ctx, tasks); err != nil {
		return err
	}

	knowledge := e.store.Knowledge()
	for i := range knowledge {
		knowledge[i].RelatedEntityIDs = replaceDedup(knowledge[i].RelatedEntityIDs, sourceID, targetID)
	}
	if err := e.store.ReplaceKnowledge(ctx, knowledge); err != nil {
		return err
	}

	entities := e.store.Entities()
	kept := entities[:0]
	for _, ent := range entities {
		if ent.ID == sourceID {
			continue
		}
		if ent.ParentID == sourceID {
			// Repointing the target's own parent link to itself would
			// create a self-cycle; the merged entity becomes a root.
			if ent.ID == targetID {
				ent.ParentID = ""
			} else {
				ent.ParentID = targetID
			}
		}
		kept = append(kept, ent)
	}

	// Repointing can also close a loop when the source was a deeper ancestor
	// of the target. Any cycle introduced here must pass through the target,
	// so walk its ancestor chain and break the first link that reaches back.
	index := make(map[string]int, len(kept))
	for i, ent := range kept {
		index[ent.ID] = i
	}
	seen := map[string]bool{targetID: true}
	for cur, ok := index[targetID]; ok && kept[cur].ParentID != ""; {
		parent := kept[cur].ParentID
		if seen[parent] {
			kept[cur].ParentID = ""
			break
		}
		seen[parent] = true
		cur, ok = index[parent]
	}

	return e.store.ReplaceEntities(ctx, kept)
}

// MergeNotes folds the drop note into the keep note: content is concatenated
// beneath a dated separator, entity references are unioned, and dependent
// tasks and knowledge items are repointed. The kept note's summary,
// category, and creation time are preserved as-is.
func (e *Engine) MergeNotes(ctx context.Context, keepID, dropID string) error {
	keep, ok := e.store.Note(keepID)
	if !ok {
		return fmt.Errorf("engine: keep note %s: %w", keepID, ErrNotFound)
	}
	drop, ok := e.store.Note(dropID)
	if !ok {
		return fmt.Errorf("engine: drop note %s: %w", dropID, ErrNotFound)
	}

	keep.Content = fmt.Sprintf("%s\n\n--- Merged content (%s) ---\n%s",
		keep.Content, time.Now().Format("2006-01-02"), drop.Content)
	keep.RelatedEntityIDs = union(keep.RelatedEntityIDs, drop.RelatedEntityIDs)

	tasks := e.store.Tasks()
	for i := range tasks {
		if tasks[i].SourceNoteID == dropID {
			tasks[i].SourceNoteID = keepID
		}
	}
	if err := e.store.ReplaceTasks(ctx, tasks); err != nil {
		return err
	}

	knowledge := e.store.Knowledge()
	for i := range knowledge {
		if knowledge[i].SourceNoteID == dropID {
			knowledge[i].SourceNoteID = keepID
		}
	}
	if err := e.store.ReplaceKnowledge(ctx, knowledge); err != nil {
		return err
	}

	if err := e.store.PutNote(ctx, keep); err != nil {
		return err
	}
	return e.store.RemoveNote(ctx, dropID)
}

// DeleteTask removes a task. Tasks have no dependents, so there is no
// impact gate; the caller confirms trivially.
func (e *Engine) DeleteTask(ctx context.Context, id string) error {
	if _, ok := e.store.Task(id); !ok {
		return fmt.Errorf("engine: task %s: %w", id, ErrNotFound)
	}
	return e.store.RemoveTask(ctx, id)
}

// DeleteKnowledge removes a knowledge item. Explicit delete is the only way
// a knowledge item is destroyed.
func (e *Engine) DeleteKnowledge(ctx context.Context, id string) error {
	if _, ok := e.store.KnowledgeItem(id); !ok {
		return fmt.Errorf("engine: knowledge item %s: %w", id, ErrNotFound)
	}
	return e.store.RemoveKnowledge(ctx, id)
}

// --- slice set helpers ---

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// remove filters id out into a fresh slice. The input backing array may be
// shared with snapshots handed to callers, so it is never written.
func remove(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}

// replaceDedup substitutes target for every occurrence of source, then
// de-duplicates preserving first-occurrence order.
func replaceDedup(ids []string, source, target string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == source {
			id = target
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// union concatenates two id sets preserving order, de-duplicated.
func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, id := range append(append([]string{}, a...), b...) {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
