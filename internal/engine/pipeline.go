package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/scrypster/recall/internal/store"
	"github.com/scrypster/recall/pkg/types"
)

// CommitReport summarizes the post-commit audit over the records one
// ingestion run created. It is informational only: the commit has already
// succeeded when the report is produced, and nothing in it is ever undone.
type CommitReport struct {
	NoteID           string
	EntityIDs        []string
	TaskIDs          []string
	KnowledgeIDs     []string
	VagueEntityCount int // freshly resolved entities with vague names
	ContextlessTasks int // created tasks with no context entity
}

// HasWarnings reports whether the audit found inconsistencies worth showing.
func (r *CommitReport) HasWarnings() bool {
	return r.VagueEntityCount > 0 || r.ContextlessTasks > 0
}

// Commit applies one extraction batch to the store: it resolves entities,
// creates tasks and knowledge items wired to a fresh note id, cross-links
// requested existing notes, persists the note itself, and finally runs a
// non-blocking audit over what it just created.
//
// rawContent is the text the user captured (the note body); result carries
// the extractor's structured output, already filtered by the user's
// inclusion choices. knowledgeMerges maps extracted knowledge indexes to
// existing article ids (normally the decisions from Analyze, possibly
// overridden by the user).
//
// Steps execute in order with per-step persistence; a failure partway leaves
// earlier steps committed (there is no rollback).
func (e *Engine) Commit(ctx context.Context, result *types.AnalysisResult, rawContent string, linkToNoteIDs []string, knowledgeMerges map[int]string) (*types.Note, *CommitReport, error) {
	if result == nil {
		return nil, nil, fmt.Errorf("engine: analysis result is required")
	}

	// The note id is generated up front; every derived record references
	// it as its provenance source.
	noteID := newID()
	report := &CommitReport{NoteID: noteID}

	// Companies first, stable otherwise, so a company resolved earlier in
	// the batch can serve as parent for a Project or Person whose
	// associated_with names it.
	ordered := companiesFirst(result.Entities)

	// batch maps lowercase entity name → resolved id for this run only.
	batch := make(map[string]string, len(ordered))
	var relatedEntityIDs []string

	for _, ent := range ordered {
		parentID := ""
		if ent.AssociatedWith != "" {
			parentID = e.resolveParent(ctx, ent.AssociatedWith, batch)
		}
		entID := e.Resolve(ctx, ent.Name, ent.Type, EntityDetails{ContactInfo: ent.ContactInfo, Role: ent.Role}, parentID)
		relatedEntityIDs = appendUnique(relatedEntityIDs, entID)
		batch[strings.ToLower(strings.TrimSpace(ent.Name))] = entID
	}
	report.EntityIDs = relatedEntityIDs

	contextID := e.autoContext(ordered, batch, relatedEntityIDs)
	for _, extracted := range result.Tasks {
		task := types.Task{
			ID:              newID(),
			Description:     extracted.Description,
			Priority:        extracted.Priority,
			SuggestedDate:   extracted.Date,
			Completed:       false,
			SourceNoteID:    noteID,
			RelatedEntityID: contextID,
		}
		if err := e.store.PutTask(ctx, task); err != nil {
			return nil, nil, fmt.Errorf("engine: failed to store task: %w", err)
		}
		report.TaskIDs = append(report.TaskIDs, task.ID)
	}

	for idx, extracted := range result.Knowledge {
		id, err := e.commitKnowledge(ctx, extracted, noteID, relatedEntityIDs, result.Keywords, knowledgeMerges[idx])
		if err != nil {
			return nil, nil, err
		}
		report.KnowledgeIDs = append(report.KnowledgeIDs, id)
	}

	// Cross-link, don't merge: each named existing note gains a forward
	// reference to the new note.
	for _, linkID := range linkToNoteIDs {
		existing, ok := e.store.Note(linkID)
		if !ok {
			continue
		}
		existing.RelatedNoteIDs = appendUnique(existing.RelatedNoteIDs, noteID)
		if err := e.store.PutNote(ctx, existing); err != nil {
			return nil, nil, fmt.Errorf("engine: failed to cross-link note %s: %w", linkID, err)
		}
	}

	note := types.Note{
		ID:                    noteID,
		Content:               rawContent,
		Summary:               result.Summary,
		Category:              result.Category,
		IsSensitive:           result.IsSensitive,
		CreatedAt:             time.Now(),
		RelatedEntityIDs:      relatedEntityIDs,
		RelatedNoteIDs:        append([]string{}, linkToNoteIDs...),
		ExtractedTaskIDs:      report.TaskIDs,
		ExtractedKnowledgeIDs: report.KnowledgeIDs,
	}
	if err := e.store.PutNote(ctx, note); err != nil {
		return nil, nil, fmt.Errorf("engine: failed to store note: %w", err)
	}

	e.auditCommit(report)
	return &note, report, nil
}

// resolveParent maps an associated_with name onto a parent entity id:
// an existing entity wins, then an entity created earlier in this batch,
// else a fresh Company entity is resolved and recorded in the batch map.
func (e *Engine) resolveParent(ctx context.Context, associatedWith string, batch map[string]string) string {
	parentName := strings.ToLower(strings.TrimSpace(associatedWith))

	if existing, ok := e.store.EntityByName(associatedWith); ok {
		return existing.ID
	}
	if id, ok := batch[parentName]; ok {
		return id
	}

	id := e.Resolve(ctx, associatedWith, types.EntityTypeCompany, EntityDetails{}, "")
	batch[parentName] = id
	return id
}

// autoContext picks the context entity new tasks are assigned to: the single
// Company or Project in the batch if there is exactly one, else the single
// batch entity if the batch produced exactly one overall, else none.
func (e *Engine) autoContext(ordered []types.ExtractedEntity, batch map[string]string, relatedEntityIDs []string) string {
	var contextIDs []string
	for _, ent := range ordered {
		if ent.Type != types.EntityTypeCompany && ent.Type != types.EntityTypeProject {
			continue
		}
		if id, ok := batch[strings.ToLower(strings.TrimSpace(ent.Name))]; ok {
			contextIDs = appendUnique(contextIDs, id)
		}
	}

	if len(contextIDs) == 1 {
		return contextIDs[0]
	}
	if len(relatedEntityIDs) == 1 {
		return relatedEntityIDs[0]
	}
	return ""
}

// commitKnowledge applies one extracted knowledge item: appending to the
// merge target when one was decided, otherwise creating a fresh article
// seeded with a create history entry.
func (e *Engine) commitKnowledge(ctx context.Context, extracted types.ExtractedKnowledge, noteID string, relatedEntityIDs, keywords []string, mergeTargetID string) (string, error) {
	if mergeTargetID != "" {
		target, ok := e.store.KnowledgeItem(mergeTargetID)
		if !ok {
			return "", fmt.Errorf("engine: knowledge merge target %s: %w", mergeTargetID, ErrNotFound)
		}
		target.Content = fmt.Sprintf("%s\n\n--- Update (%s) ---\n%s",
			target.Content, time.Now().Format("2006-01-02"), extracted.Content)
		target.LastUpdated = time.Now()
		target.History = append(target.History, types.KnowledgeHistory{
			Date:         time.Now(),
			SourceNoteID: noteID,
			Action:       types.HistoryUpdate,
			Summary:      "Content appended from new note",
		})
		if err := e.store.PutKnowledge(ctx, target); err != nil {
			return "", fmt.Errorf("engine: failed to update knowledge %s: %w", mergeTargetID, err)
		}
		return mergeTargetID, nil
	}

	item := types.KnowledgeItem{
		ID:               newID(),
		Topic:            extracted.Topic,
		Content:          extracted.Content,
		Tags:             append([]string{}, keywords...),
		SourceNoteID:     noteID,
		RelatedEntityIDs: append([]string{}, relatedEntityIDs...),
		LastUpdated:      time.Now(),
		History: []types.KnowledgeHistory{{
			Date:         time.Now(),
			SourceNoteID: noteID,
			Action:       types.HistoryCreate,
		}},
	}
	if err := e.store.PutKnowledge(ctx, item); err != nil {
		return "", fmt.Errorf("engine: failed to store knowledge item: %w", err)
	}
	return item.ID, nil
}

// auditCommit inspects the records a commit just created and publishes a
// summary notification. It never fails the commit.
func (e *Engine) auditCommit(report *CommitReport) {
	for _, id := range report.EntityIDs {
		if ent, ok := e.store.Entity(id); ok && ent.Status == types.EntityIncomplete {
			report.VagueEntityCount++
		}
	}
	for _, id := range report.TaskIDs {
		if task, ok := e.store.Task(id); ok && task.RelatedEntityID == "" {
			report.ContextlessTasks++
		}
	}

	if report.HasWarnings() {
		e.store.PublishNotification(
			store.LevelWarning,
			fmt.Sprintf("Note saved, but inconsistencies were detected: %d vague entities, %d tasks without context. Check the review panel.",
				report.VagueEntityCount, report.ContextlessTasks),
		)
		return
	}
	e.store.PublishNotification(store.LevelSuccess, "Note saved and processed. All information is linked.")
}

// companiesFirst returns the batch entities with Company-typed entries moved
// to the front, preserving relative order otherwise (stable partition).
func companiesFirst(entities []types.ExtractedEntity) []types.ExtractedEntity {
	ordered := make([]types.ExtractedEntity, 0, len(entities))
	for _, ent := range entities {
		if ent.Type == types.EntityTypeCompany {
			ordered = append(ordered, ent)
		}
	}
	for _, ent := range entities {
		if ent.Type != types.EntityTypeCompany {
			ordered = append(ordered, ent)
		}
	}
	return ordered
}

// appendUnique appends id to ids unless already present.
func appendUnique(ids []string, id string) []string {
	if contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
