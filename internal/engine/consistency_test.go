package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/recall/pkg/types"
)

func TestDeleteNote_RequiresConfirmationWithDependents(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Store().PutNote(ctx, types.Note{ID: "n1", Content: "meeting"}))
	require.NoError(t, eng.Store().PutTask(ctx, types.Task{ID: "t1", Description: "follow up", SourceNoteID: "n1"}))

	err := eng.DeleteNote(ctx, "n1", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfirmationRequired)

	var impact *ImpactError
	require.True(t, errors.As(err, &impact))
	assert.Equal(t, []string{"t1"}, impact.Note.DependentTaskIDs)

	// Nothing was mutated.
	_, ok := eng.Store().Note("n1")
	assert.True(t, ok)
}

func TestDeleteNote_DependentsSurviveWithDanglingProvenance(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Store().PutNote(ctx, types.Note{ID: "n1", Content: "meeting"}))
	require.NoError(t, eng.Store().PutTask(ctx, types.Task{ID: "t1", Description: "follow up", SourceNoteID: "n1"}))
	require.NoError(t, eng.Store().PutKnowledge(ctx, types.KnowledgeItem{ID: "k1", Topic: "Setup", SourceNoteID: "n1"}))

	require.NoError(t, eng.DeleteNote(ctx, "n1", true))

	_, ok := eng.Store().Note("n1")
	assert.False(t, ok)

	task, ok := eng.Store().Task("t1")
	require.True(t, ok)
	assert.Equal(t, "n1", task.SourceNoteID, "provenance link dangles, never cleared")

	item, ok := eng.Store().KnowledgeItem("k1")
	require.True(t, ok)
	assert.Equal(t, "n1", item.SourceNoteID)
}

func TestDeleteNote_NoDependentsNeedsNoConfirmation(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Store().PutNote(ctx, types.Note{ID: "n1"}))
	require.NoError(t, eng.DeleteNote(ctx, "n1", false))

	_, ok := eng.Store().Note("n1")
	assert.False(t, ok)
}

func TestDeleteNote_Missing(t *testing.T) {
	eng := newTestEngine(t)

	err := eng.DeleteNote(context.Background(), "ghost", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteEntity_CascadeCleansEveryReference(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "e1", Name: "Acme Corp", Type: types.EntityTypeCompany, Status: types.EntityActive}))
	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "e2", Name: "Phoenix", Type: types.EntityTypeProject, ParentID: "e1", Status: types.EntityActive}))
	require.NoError(t, eng.Store().PutNote(ctx, types.Note{ID: "n1", RelatedEntityIDs: []string{"e1", "e2"}}))
	require.NoError(t, eng.Store().PutTask(ctx, types.Task{ID: "t1", Description: "work", RelatedEntityID: "e1"}))
	require.NoError(t, eng.Store().PutKnowledge(ctx, types.KnowledgeItem{ID: "k1", Topic: "Setup", RelatedEntityIDs: []string{"e1"}}))

	require.NoError(t, eng.DeleteEntity(ctx, "e1", true))

	_, ok := eng.Store().Entity("e1")
	assert.False(t, ok)

	note, _ := eng.Store().Note("n1")
	assert.Equal(t, []string{"e2"}, note.RelatedEntityIDs)

	task, _ := eng.Store().Task("t1")
	assert.Empty(t, task.RelatedEntityID, "task keeps living, context cleared")

	item, _ := eng.Store().KnowledgeItem("k1")
	assert.Empty(t, item.RelatedEntityIDs)

	child, _ := eng.Store().Entity("e2")
	assert.Empty(t, child.ParentID, "children are un-parented, never deleted")
}

func TestDeleteEntity_LeavesEarlierSnapshotsIntact(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "e1", Name: "Acme", Type: types.EntityTypeCompany, Status: types.EntityActive}))
	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "e2", Name: "Phoenix", Type: types.EntityTypeProject, Status: types.EntityActive}))
	require.NoError(t, eng.Store().PutNote(ctx, types.Note{ID: "n1", RelatedEntityIDs: []string{"e1", "e2"}}))

	before := eng.Store().Notes()
	require.NoError(t, eng.DeleteEntity(ctx, "e1", true))

	// Cascade cleanup builds fresh reference slices; the snapshot a caller
	// took before the delete keeps what it saw.
	require.Len(t, before, 1)
	assert.Equal(t, []string{"e1", "e2"}, before[0].RelatedEntityIDs)

	after, _ := eng.Store().Note("n1")
	assert.Equal(t, []string{"e2"}, after.RelatedEntityIDs)
}

func TestDeleteEntity_ImpactSuggestsArchive(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "e1", Name: "Acme Corp", Type: types.EntityTypeCompany, Status: types.EntityActive}))
	require.NoError(t, eng.Store().PutNote(ctx, types.Note{ID: "n1", RelatedEntityIDs: []string{"e1"}}))

	err := eng.DeleteEntity(ctx, "e1", false)
	require.Error(t, err)

	var impact *ImpactError
	require.True(t, errors.As(err, &impact))
	assert.True(t, impact.Entity.ArchiveInstead)
	assert.Equal(t, []string{"n1"}, impact.Entity.LinkedNotes)
}

func TestMergeEntities_SetSemantics(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "src", Name: "Acme", Type: types.EntityTypeCompany, Status: types.EntityActive}))
	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "dst", Name: "Acme Corp", Type: types.EntityTypeCompany, Status: types.EntityActive}))

	// This note references both sides of the merge.
	require.NoError(t, eng.Store().PutNote(ctx, types.Note{ID: "n1", RelatedEntityIDs: []string{"src", "dst"}}))
	require.NoError(t, eng.Store().PutNote(ctx, types.Note{ID: "n2", RelatedEntityIDs: []string{"src"}}))
	require.NoError(t, eng.Store().PutTask(ctx, types.Task{ID: "t1", RelatedEntityID: "src"}))
	require.NoError(t, eng.Store().PutKnowledge(ctx, types.KnowledgeItem{ID: "k1", RelatedEntityIDs: []string{"src", "dst"}}))

	require.NoError(t, eng.MergeEntities(ctx, "src", "dst"))

	_, ok := eng.Store().Entity("src")
	assert.False(t, ok)

	n1, _ := eng.Store().Note("n1")
	assert.Equal(t, []string{"dst"}, n1.RelatedEntityIDs, "no duplicate reference after merge")

	n2, _ := eng.Store().Note("n2")
	assert.Equal(t, []string{"dst"}, n2.RelatedEntityIDs)

	t1, _ := eng.Store().Task("t1")
	assert.Equal(t, "dst", t1.RelatedEntityID)

	k1, _ := eng.Store().KnowledgeItem("k1")
	assert.Equal(t, []string{"dst"}, k1.RelatedEntityIDs)
}

func TestMergeEntities_RepointsChildren(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "src", Name: "Acme", Type: types.EntityTypeCompany, Status: types.EntityActive}))
	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "dst", Name: "Acme Corp", Type: types.EntityTypeCompany, Status: types.EntityActive}))
	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "child", Name: "Phoenix", Type: types.EntityTypeProject, ParentID: "src", Status: types.EntityActive}))

	require.NoError(t, eng.MergeEntities(ctx, "src", "dst"))

	child, _ := eng.Store().Entity("child")
	assert.Equal(t, "dst", child.ParentID)
}

func TestMergeEntities_NeverCreatesSelfCycle(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	// dst is a child of src; absorbing src must not leave dst its own parent.
	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "src", Name: "Acme Group", Type: types.EntityTypeCompany, Status: types.EntityActive}))
	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "dst", Name: "Acme Corp", Type: types.EntityTypeCompany, ParentID: "src", Status: types.EntityActive}))

	require.NoError(t, eng.MergeEntities(ctx, "src", "dst"))

	dst, _ := eng.Store().Entity("dst")
	assert.Empty(t, dst.ParentID)
}

func TestMergeEntities_BreaksDeepAncestorCycle(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	// src is dst's grandparent: dst -> mid -> src. Absorbing src repoints
	// mid at dst, which would close a dst <-> mid loop unless broken.
	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "src", Name: "Acme Group", Type: types.EntityTypeCompany, Status: types.EntityActive}))
	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "mid", Name: "Acme Holdings", Type: types.EntityTypeCompany, ParentID: "src", Status: types.EntityActive}))
	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "dst", Name: "Acme Corp", Type: types.EntityTypeCompany, ParentID: "mid", Status: types.EntityActive}))

	require.NoError(t, eng.MergeEntities(ctx, "src", "dst"))

	dst, _ := eng.Store().Entity("dst")
	assert.Equal(t, "mid", dst.ParentID)

	mid, _ := eng.Store().Entity("mid")
	assert.Empty(t, mid.ParentID, "the link closing the loop is cleared")

	// The surviving ancestor chain terminates.
	seen := map[string]bool{}
	for cur, ok := eng.Store().Entity("dst"); ok && cur.ParentID != ""; cur, ok = eng.Store().Entity(cur.ParentID) {
		require.False(t, seen[cur.ID], "parent cycle through %q", cur.ID)
		seen[cur.ID] = true
	}
}

func TestMergeEntities_SameIDNoop(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "e1", Name: "Acme", Type: types.EntityTypeCompany, Status: types.EntityActive}))
	require.NoError(t, eng.MergeEntities(ctx, "e1", "e1"))

	_, ok := eng.Store().Entity("e1")
	assert.True(t, ok)
}

func TestMergeEntities_MissingRecords(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Store().PutEntity(ctx, types.Entity{ID: "e1", Name: "Acme", Type: types.EntityTypeCompany, Status: types.EntityActive}))

	assert.ErrorIs(t, eng.MergeEntities(ctx, "ghost", "e1"), ErrNotFound)
	assert.ErrorIs(t, eng.MergeEntities(ctx, "e1", "ghost"), ErrNotFound)
}

func TestMergeNotes_ContentAndReferences(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Store().PutNote(ctx, types.Note{
		ID: "keep", Content: "original", Summary: "keep summary", Category: "Meeting",
		RelatedEntityIDs: []string{"e1"},
	}))
	require.NoError(t, eng.Store().PutNote(ctx, types.Note{
		ID: "drop", Content: "absorbed", RelatedEntityIDs: []string{"e1", "e2"},
	}))
	require.NoError(t, eng.Store().PutTask(ctx, types.Task{ID: "t1", SourceNoteID: "drop"}))
	require.NoError(t, eng.Store().PutKnowledge(ctx, types.KnowledgeItem{ID: "k1", SourceNoteID: "drop"}))

	require.NoError(t, eng.MergeNotes(ctx, "keep", "drop"))

	_, ok := eng.Store().Note("drop")
	assert.False(t, ok)

	keep, _ := eng.Store().Note("keep")
	assert.True(t, strings.HasPrefix(keep.Content, "original"))
	assert.Contains(t, keep.Content, "--- Merged content (")
	assert.True(t, strings.HasSuffix(keep.Content, "absorbed"))
	assert.Equal(t, "keep summary", keep.Summary)
	assert.Equal(t, "Meeting", keep.Category)
	assert.Equal(t, []string{"e1", "e2"}, keep.RelatedEntityIDs)

	task, _ := eng.Store().Task("t1")
	assert.Equal(t, "keep", task.SourceNoteID)

	item, _ := eng.Store().KnowledgeItem("k1")
	assert.Equal(t, "keep", item.SourceNoteID)
}

func TestDeleteTaskAndKnowledge(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	require.NoError(t, eng.Store().PutTask(ctx, types.Task{ID: "t1"}))
	require.NoError(t, eng.Store().PutKnowledge(ctx, types.KnowledgeItem{ID: "k1"}))

	require.NoError(t, eng.DeleteTask(ctx, "t1"))
	require.NoError(t, eng.DeleteKnowledge(ctx, "k1"))

	assert.ErrorIs(t, eng.DeleteTask(ctx, "t1"), ErrNotFound)
	assert.ErrorIs(t, eng.DeleteKnowledge(ctx, "k1"), ErrNotFound)
}
