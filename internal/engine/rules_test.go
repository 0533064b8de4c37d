package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/recall/pkg/types"
)

func TestSaveTask_BlockedWithoutContext(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	err := eng.SaveTask(ctx, types.Task{ID: "t1", Description: "floating work"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRuleViolation)

	assert.Empty(t, eng.Store().Tasks(), "rejected save must leave the store unchanged")
}

func TestSaveTask_AllowedWithContext(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.SaveTask(ctx, types.Task{ID: "t1", Description: "scoped work", RelatedEntityID: "e1"}))

	_, ok := eng.Store().Task("t1")
	assert.True(t, ok)
}

func TestSaveTask_AllowedWhenRuleOff(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	deactivateRule(t, eng, types.RuleTaskRequiresContext)

	require.NoError(t, eng.SaveTask(ctx, types.Task{ID: "t1", Description: "floating work"}))
}

func TestSaveTask_RuleMissingFromConfigStillApplies(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	// A config that omits the rule entirely gets the default-active
	// behavior; only an explicit IsActive=false turns it off.
	cfg := eng.Store().Config()
	cfg.AutomationRules = nil
	require.NoError(t, eng.Store().SetConfig(ctx, cfg))

	err := eng.SaveTask(ctx, types.Task{ID: "t1", Description: "floating work"})
	assert.ErrorIs(t, err, ErrRuleViolation)
}

func TestToggleTask(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Store().PutTask(ctx, types.Task{ID: "t1"}))

	require.NoError(t, eng.ToggleTask(ctx, "t1"))
	task, _ := eng.Store().Task("t1")
	assert.True(t, task.Completed)

	require.NoError(t, eng.ToggleTask(ctx, "t1"))
	task, _ = eng.Store().Task("t1")
	assert.False(t, task.Completed)

	assert.ErrorIs(t, eng.ToggleTask(ctx, "ghost"), ErrNotFound)
}

func TestUpdateOperationsRequireExistingRecords(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	assert.ErrorIs(t, eng.UpdateNote(ctx, types.Note{ID: "ghost"}), ErrNotFound)
	assert.ErrorIs(t, eng.UpdateEntity(ctx, types.Entity{ID: "ghost"}), ErrNotFound)
	assert.ErrorIs(t, eng.UpdateKnowledge(ctx, types.KnowledgeItem{ID: "ghost"}), ErrNotFound)
}

func TestUpdateNote(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Store().PutNote(ctx, types.Note{ID: "n1", Summary: "before"}))
	require.NoError(t, eng.UpdateNote(ctx, types.Note{ID: "n1", Summary: "after"}))

	note, _ := eng.Store().Note("n1")
	assert.Equal(t, "after", note.Summary)
}

func TestArchiveAndRestoreEntity(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "e1", Name: "Acme", Status: types.EntityActive}))

	require.NoError(t, eng.ArchiveEntity(ctx, "e1"))
	ent, _ := eng.Store().Entity("e1")
	assert.Equal(t, types.EntityArchived, ent.Status)

	require.NoError(t, eng.RestoreEntity(ctx, "e1"))
	ent, _ = eng.Store().Entity("e1")
	assert.Equal(t, types.EntityActive, ent.Status)

	assert.ErrorIs(t, eng.ArchiveEntity(ctx, "ghost"), ErrNotFound)
}

func TestMergeCategories(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	// Default config ships Meeting (id 1) and Idea (id 2).
	require.NoError(t, eng.Store().PutNote(ctx, types.Note{ID: "n1", Category: "Meeting"}))
	require.NoError(t, eng.Store().PutNote(ctx, types.Note{ID: "n2", Category: "Idea"}))

	require.NoError(t, eng.MergeCategories(ctx, "1", "2"))

	n1, _ := eng.Store().Note("n1")
	assert.Equal(t, "Idea", n1.Category)
	n2, _ := eng.Store().Note("n2")
	assert.Equal(t, "Idea", n2.Category)

	assert.ErrorIs(t, eng.MergeCategories(ctx, "ghost", "2"), ErrNotFound)
	assert.ErrorIs(t, eng.MergeCategories(ctx, "1", "ghost"), ErrNotFound)
}

func TestAddCategory(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	before := len(eng.Store().Config().Categories)
	require.NoError(t, eng.AddCategory(ctx, "Research"))

	cfg := eng.Store().Config()
	require.Len(t, cfg.Categories, before+1)
	assert.Equal(t, "Research", cfg.Categories[before].Name)
	assert.NotEmpty(t, cfg.Categories[before].ID)
}
