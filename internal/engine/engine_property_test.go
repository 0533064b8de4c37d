package engine

import (
	"context"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/scrypster/recall/pkg/types"
)

// TestResolveIdempotentUnderCaseAndWhitespace verifies that resolving any
// name repeatedly, with arbitrary casing and surrounding whitespace, always
// yields one entity.
func TestResolveIdempotentUnderCaseAndWhitespace(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		eng := newTestEngine(t)
		ctx := context.Background()

		name := rapid.StringMatching(`[A-Za-z][A-Za-z0-9 ]{2,20}[A-Za-z0-9]`).Draw(rt, "name")

		first := eng.Resolve(ctx, name, types.EntityTypeCompany, EntityDetails{}, "")

		n := rapid.IntRange(1, 5).Draw(rt, "resolutions")
		for i := 0; i < n; i++ {
			variant := name
			switch rapid.IntRange(0, 2).Draw(rt, "casing") {
			case 0:
				variant = strings.ToUpper(name)
			case 1:
				variant = strings.ToLower(name)
			}
			if rapid.Bool().Draw(rt, "pad") {
				variant = "  " + variant + " "
			}

			id := eng.Resolve(ctx, variant, types.EntityTypeCompany, EntityDetails{}, "")
			if id != first {
				rt.Fatalf("Resolve(%q) = %s, want %s", variant, id, first)
			}
		}

		if got := len(eng.Store().Entities()); got != 1 {
			rt.Fatalf("store holds %d entities, want 1", got)
		}
	})
}

// TestMergeEntitiesLeavesNoSourceReferences verifies that after any merge,
// no surviving record references the absorbed entity, and no reference list
// contains duplicates.
func TestMergeEntitiesLeavesNoSourceReferences(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		eng := newTestEngine(t)
		ctx := context.Background()

		ids := []string{"e0", "e1", "e2"}
		for _, id := range ids {
			put(t, eng.Store().PutEntity(ctx, types.Entity{ID: id, Name: "Entity " + id, Status: types.EntityActive}))
		}

		noteCount := rapid.IntRange(0, 5).Draw(rt, "notes")
		for i := 0; i < noteCount; i++ {
			refs := rapid.SliceOfDistinct(rapid.SampledFrom(ids), func(s string) string { return s }).Draw(rt, "refs")
			put(t, eng.Store().PutNote(ctx, types.Note{ID: newID(), RelatedEntityIDs: refs}))
		}

		taskCount := rapid.IntRange(0, 3).Draw(rt, "tasks")
		for i := 0; i < taskCount; i++ {
			ref := rapid.SampledFrom(append([]string{""}, ids...)).Draw(rt, "task_ref")
			put(t, eng.Store().PutTask(ctx, types.Task{ID: newID(), RelatedEntityID: ref}))
		}

		source := rapid.SampledFrom(ids).Draw(rt, "source")
		target := rapid.SampledFrom(ids).Draw(rt, "target")
		if source == target {
			return
		}

		if err := eng.MergeEntities(ctx, source, target); err != nil {
			rt.Fatalf("MergeEntities failed: %v", err)
		}

		if _, ok := eng.Store().Entity(source); ok {
			rt.Fatalf("source entity %s still exists", source)
		}
		for _, note := range eng.Store().Notes() {
			assertCleanRefs(rt, note.RelatedEntityIDs, source)
		}
		for _, task := range eng.Store().Tasks() {
			if task.RelatedEntityID == source {
				rt.Fatalf("task %s still references source", task.ID)
			}
		}
		for _, ent := range eng.Store().Entities() {
			if ent.ParentID == source {
				rt.Fatalf("entity %s still parented to source", ent.ID)
			}
			if ent.ParentID == ent.ID {
				rt.Fatalf("entity %s is its own parent", ent.ID)
			}
		}
	})
}

func put(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("setup write failed: %v", err)
	}
}

func assertCleanRefs(rt *rapid.T, refs []string, banned string) {
	seen := make(map[string]bool, len(refs))
	for _, id := range refs {
		if id == banned {
			rt.Fatalf("reference list still contains %s", banned)
		}
		if seen[id] {
			rt.Fatalf("reference list contains %s twice", id)
		}
		seen[id] = true
	}
}
