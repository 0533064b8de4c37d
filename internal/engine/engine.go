// Package engine implements the entity-resolution and consistency-maintenance
// core: the ingestion pipeline, entity resolver, graph consistency engine,
// knowledge deduplication, audit queries, and the automation rule gate.
//
// The engine owns no state of its own; every operation reads and mutates the
// record store. Operations execute as ordered synchronous steps, not as a
// transaction with rollback: a partial failure mid-pipeline leaves earlier
// steps committed.
package engine

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/scrypster/recall/internal/llm"
	"github.com/scrypster/recall/internal/store"
	"github.com/scrypster/recall/pkg/types"
)

var (
	// ErrConfirmationRequired is returned by destructive operations when
	// the caller has not confirmed. Use errors.As with *ImpactError to
	// recover the impact report.
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrRuleViolation is returned when an automation rule blocks a save.
	ErrRuleViolation = errors.New("automation rule violation")

	// ErrNotFound is returned when an operation targets a record that
	// does not exist.
	ErrNotFound = errors.New("record not found")
)

// Engine exposes every core operation to the UI layer. It has no process
// boundary of its own; callers invoke it directly.
type Engine struct {
	store     *store.RecordStore
	extractor llm.Extractor

	// dismissed suppresses suggestion ids the user has dismissed or
	// applied. Ephemeral, like the suggestions themselves.
	dismissed map[string]bool
}

// New creates an engine over the given record store. The extractor may be
// nil when only local operations are needed (audits, edits, deletions).
func New(recordStore *store.RecordStore, extractor llm.Extractor) *Engine {
	return &Engine{
		store:     recordStore,
		extractor: extractor,
		dismissed: make(map[string]bool),
	}
}

// Store returns the underlying record store for read access and
// subscriptions.
func (e *Engine) Store() *store.RecordStore {
	return e.store
}

// newID generates a record identifier.
func newID() string {
	return uuid.NewString()
}

// AnalysisPreview is what the input surface shows before the user commits:
// the extraction result, notes that look similar to the new content, and the
// knowledge merge decisions the pipeline would make.
type AnalysisPreview struct {
	Result *types.AnalysisResult

	// SimilarNotes are existing notes sharing keywords with the new
	// content, capped to 4. A glance-level nudge, not an audit.
	SimilarNotes []types.Note

	// KnowledgeMerges maps the index of each extracted knowledge item to
	// the existing article it would update. Items absent from the map
	// would create new articles.
	KnowledgeMerges map[int]string
}

// Analyze runs the external extraction call over raw text (and an optional
// image) and precomputes the similar-note and knowledge-merge previews the
// commit surface needs. Extraction failure aborts with no records created;
// the caller keeps the input text for retry.
func (e *Engine) Analyze(ctx context.Context, text string, image *types.ImagePayload) (*AnalysisPreview, error) {
	if e.extractor == nil {
		return nil, errors.New("engine: no extractor configured")
	}

	cfg := e.store.Config()
	result, err := e.extractor.Extract(ctx, text, image, &cfg)
	if err != nil {
		return nil, err
	}

	preview := &AnalysisPreview{
		Result:          result,
		SimilarNotes:    e.similarByKeywords(result.Keywords, 4),
		KnowledgeMerges: make(map[int]string),
	}
	for idx, k := range result.Knowledge {
		if matchID, ok := e.ClassifyKnowledge(k.Topic); ok {
			preview.KnowledgeMerges[idx] = matchID
		}
	}

	log.Printf("engine: analysis extracted %d entities, %d tasks, %d knowledge items",
		len(result.Entities), len(result.Tasks), len(result.Knowledge))
	return preview, nil
}

// similarByKeywords returns existing notes whose summary or content match
// any extraction keyword longer than 3 characters, capped to limit.
func (e *Engine) similarByKeywords(keywords []string, limit int) []types.Note {
	var matches []types.Note
	for _, note := range e.store.Notes() {
		if len(matches) >= limit {
			break
		}
		summaryWords := strings.Fields(note.Summary)
		content := strings.ToLower(note.Content)
		for _, kw := range keywords {
			if len(kw) <= 3 {
				continue
			}
			if containsWord(summaryWords, kw) || strings.Contains(content, strings.ToLower(kw)) {
				matches = append(matches, note)
				break
			}
		}
	}
	return matches
}

func containsWord(words []string, w string) bool {
	for _, word := range words {
		if word == w {
			return true
		}
	}
	return false
}
