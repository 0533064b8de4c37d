package engine

import (
	"context"
	"strings"

	"github.com/scrypster/recall/pkg/types"
)

// EntityDetails carries the optional fields an extraction supplies for an
// entity candidate. Only currently-empty fields on an existing record are
// filled from it; populated fields are never overwritten.
type EntityDetails struct {
	ContactInfo string
	Role        string
}

// Resolve finds or creates the canonical entity for the given name and type
// and returns its ID. It never fails: blank names fall back to the
// placeholder, and every code path ends with a usable entity.
//
// Matching is case-insensitive exact on the trimmed name. There is no fuzzy
// matching, so near-duplicate names ("Acme Corp" vs "Acme Corp.") resolve as
// distinct entities. That is a known limitation, kept deliberately.
func (e *Engine) Resolve(ctx context.Context, name string, entityType types.EntityType, details EntityDetails, parentIDCandidate string) string {
	safeName := strings.TrimSpace(name)
	if safeName == "" {
		safeName = types.PlaceholderEntityName
	}

	if existing, ok := e.store.EntityByName(safeName); ok {
		merged, changed := mergeEntityDetails(existing, details, parentIDCandidate)
		if changed {
			// Persist only when something actually changed.
			_ = e.store.PutEntity(ctx, merged)
		}
		return existing.ID
	}

	status := types.EntityActive
	if e.store.Config().RuleActive(types.RuleEntityVagueIncomplete) && isVagueName(safeName) {
		status = types.EntityIncomplete
	}

	entity := types.Entity{
		ID:       newID(),
		Name:     safeName,
		Type:     entityType,
		Email:    details.ContactInfo,
		Role:     details.Role,
		ParentID: parentIDCandidate,
		NoteIDs:  []string{},
		Status:   status,
	}
	_ = e.store.PutEntity(ctx, entity)
	return entity.ID
}

// mergeEntityDetails fills empty fields of existing from the supplied
// details. It reports whether anything changed.
func mergeEntityDetails(existing types.Entity, details EntityDetails, parentIDCandidate string) (types.Entity, bool) {
	changed := false
	if details.ContactInfo != "" && existing.Email == "" {
		existing.Email = details.ContactInfo
		changed = true
	}
	if details.Role != "" && existing.Role == "" {
		existing.Role = details.Role
		changed = true
	}
	if parentIDCandidate != "" && existing.ParentID == "" {
		existing.ParentID = parentIDCandidate
		changed = true
	}
	return existing, changed
}

// isVagueName reports whether a name is too generic to trust: the
// placeholder itself, or anything shorter than 3 characters.
func isVagueName(name string) bool {
	return name == types.PlaceholderEntityName || len(name) < 3
}
