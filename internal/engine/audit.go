package engine

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/scrypster/recall/pkg/types"
)

// Similarity thresholds. The asymmetry is deliberate: the dashboard is a
// glance-level nudge, the review panel an exhaustive audit. Do not unify.
const (
	// DashboardSimilarityThreshold gates duplicate surfacing on the
	// dashboard (strict greater-than, top 3 by score).
	DashboardSimilarityThreshold = 0.4

	// ReviewSimilarityThreshold gates the review panel's duplicate list
	// (strict greater-than, unbounded).
	ReviewSimilarityThreshold = 0.6
)

// staleAfter is how long an entity can go without note activity before it
// becomes an archival candidate.
const staleAfter = 30 * 24 * time.Hour

// DuplicatePair is a pair of notes the similarity scan flagged, with their
// Jaccard score.
type DuplicatePair struct {
	NoteA types.Note
	NoteB types.Note
	Score float64
}

// capitalizedWord matches capitalized words for pattern-based entity
// detection (Project Alpha, Acme Corp).
var capitalizedWord = regexp.MustCompile(`\b[A-Z][a-zA-Z0-9]+\b`)

// DuplicateNotes scans all note pairs and returns those whose token Jaccard
// score strictly exceeds threshold, sorted by score descending. A limit of 0
// means unbounded. Tokens are the lowercase whitespace-split words of
// summary plus content, longer than 3 characters.
func (e *Engine) DuplicateNotes(threshold float64, limit int) []DuplicatePair {
	notes := e.store.Notes()
	var pairs []DuplicatePair
	for i := 0; i < len(notes); i++ {
		for j := i + 1; j < len(notes); j++ {
			score := jaccard(
				noteTokens(notes[i]),
				noteTokens(notes[j]),
			)
			if score > threshold {
				pairs = append(pairs, DuplicatePair{NoteA: notes[i], NoteB: notes[j], Score: score})
			}
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].Score > pairs[b].Score })
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// DashboardDuplicates is the dashboard surfacing: 0.4 threshold, top 3.
func (e *Engine) DashboardDuplicates() []DuplicatePair {
	return e.DuplicateNotes(DashboardSimilarityThreshold, 3)
}

// ReviewDuplicates is the review surfacing: 0.6 threshold, all matches.
func (e *Engine) ReviewDuplicates() []DuplicatePair {
	return e.DuplicateNotes(ReviewSimilarityThreshold, 0)
}

// IncompleteEntities returns entities flagged incomplete by the vague-name
// rule or manual edits.
func (e *Engine) IncompleteEntities() []types.Entity {
	var out []types.Entity
	for _, ent := range e.store.Entities() {
		if ent.Status == types.EntityIncomplete {
			out = append(out, ent)
		}
	}
	return out
}

// ContextlessTasks returns incomplete tasks with no context entity.
func (e *Engine) ContextlessTasks() []types.Task {
	var out []types.Task
	for _, task := range e.store.Tasks() {
		if !task.Completed && task.RelatedEntityID == "" {
			out = append(out, task)
		}
	}
	return out
}

// OrphanProjects returns Project entities with no parent.
func (e *Engine) OrphanProjects() []types.Entity {
	var out []types.Entity
	for _, ent := range e.store.Entities() {
		if ent.Type == types.EntityTypeProject && ent.ParentID == "" {
			out = append(out, ent)
		}
	}
	return out
}

// StaleEntities returns active entities with no referencing notes, or whose
// most recent related note is older than 30 days as of now.
func (e *Engine) StaleEntities(now time.Time) []types.Entity {
	notes := e.store.Notes()
	var out []types.Entity
	for _, ent := range e.store.Entities() {
		if ent.Status != types.EntityActive {
			continue
		}
		var newest time.Time
		referenced := false
		for _, note := range notes {
			if !note.ReferencesEntity(ent.ID) {
				continue
			}
			referenced = true
			if note.CreatedAt.After(newest) {
				newest = note.CreatedAt
			}
		}
		if !referenced || now.Sub(newest) > staleAfter {
			out = append(out, ent)
		}
	}
	return out
}

// Suggestions recomputes the pending suggestion list: pattern-detected
// entity candidates and stale-entity archival nudges, capped to the top 3.
// Suggestions the user dismissed since the last recompute stay suppressed
// via DismissSuggestion.
func (e *Engine) Suggestions(now time.Time) []types.Suggestion {
	var suggestions []types.Suggestion

	for _, candidate := range e.patternCandidates() {
		suggestions = append(suggestions, types.Suggestion{
			ID:     "create-" + candidate.word,
			Type:   types.SuggestCreateEntity,
			Title:  fmt.Sprintf("Create entity: %q", candidate.word),
			Reason: fmt.Sprintf("Mentioned in %d distinct notes.", candidate.noteCount),
			Data:   map[string]string{"name": candidate.word},
		})
	}

	for _, ent := range e.StaleEntities(now) {
		suggestions = append(suggestions, types.Suggestion{
			ID:     "archive-" + ent.ID,
			Type:   types.SuggestArchiveEntity,
			Title:  fmt.Sprintf("Archive %q", ent.Name),
			Reason: "No recent activity (30+ days).",
			Data:   map[string]string{"id": ent.ID},
		})
	}

	var pending []types.Suggestion
	for _, s := range suggestions {
		if !e.dismissed[s.ID] {
			pending = append(pending, s)
		}
	}
	if len(pending) > 3 {
		pending = pending[:3]
	}
	return pending
}

type patternCandidate struct {
	word      string
	noteCount int
}

// patternCandidates scans note content for capitalized words (4+ chars) not
// already matching an entity name, counting the distinct notes each appears
// in. Words seen in 3 or more notes become create-entity candidates.
func (e *Engine) patternCandidates() []patternCandidate {
	existing := make(map[string]bool)
	for _, ent := range e.store.Entities() {
		existing[strings.ToLower(ent.Name)] = true
	}

	counts := make(map[string]int)
	for _, note := range e.store.Notes() {
		seenInNote := make(map[string]bool)
		for _, word := range capitalizedWord.FindAllString(note.Content, -1) {
			if len(word) <= 3 || existing[strings.ToLower(word)] || seenInNote[word] {
				continue
			}
			seenInNote[word] = true
			counts[word]++
		}
	}

	var candidates []patternCandidate
	for word, count := range counts {
		if count >= 3 {
			candidates = append(candidates, patternCandidate{word: word, noteCount: count})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].noteCount != candidates[j].noteCount {
			return candidates[i].noteCount > candidates[j].noteCount
		}
		return candidates[i].word < candidates[j].word
	})
	return candidates
}

// ApplySuggestion executes a suggestion and removes it from the pending
// list. Create-entity suggestions resolve a new Project entity; archive
// suggestions flip the entity's status.
func (e *Engine) ApplySuggestion(ctx context.Context, suggestion types.Suggestion) error {
	switch suggestion.Type {
	case types.SuggestCreateEntity:
		e.Resolve(ctx, suggestion.Data["name"], types.EntityTypeProject, EntityDetails{}, "")
	case types.SuggestArchiveEntity:
		if err := e.ArchiveEntity(ctx, suggestion.Data["id"]); err != nil {
			return err
		}
	}
	e.DismissSuggestion(suggestion.ID)
	return nil
}

// DismissSuggestion removes a suggestion from the pending list without
// acting on it.
func (e *Engine) DismissSuggestion(id string) {
	if e.dismissed == nil {
		e.dismissed = make(map[string]bool)
	}
	e.dismissed[id] = true
}

// noteTokens builds the similarity token set for a note.
func noteTokens(note types.Note) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(note.Summary + " " + note.Content)) {
		if len(tok) > 3 {
			tokens[tok] = true
		}
	}
	return tokens
}

// jaccard computes the Jaccard index of two token sets. Two empty sets score
// zero, not one.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	unionSize := len(a) + len(b) - intersection
	if unionSize == 0 {
		return 0
	}
	return float64(intersection) / float64(unionSize)
}
