package engine

import "strings"

// ClassifyKnowledge decides whether an extracted topic updates an existing
// article or creates a new one. It returns the matched article's id, or
// ok=false to create.
//
// Both topics are tokenized on whitespace keeping tokens longer than 3
// characters. A candidate matches when the shared-token count reaches
// min(newTokenCount, 2), or when either topic contains the other as a
// case-insensitive substring. Existing items are scanned in natural order
// and the first match wins; ties are not specially broken.
//
// The UI preview and the ingestion pipeline both call this, so both see the
// same decision.
func (e *Engine) ClassifyKnowledge(topic string) (string, bool) {
	newTokens := topicTokens(topic)
	lowerTopic := strings.ToLower(topic)

	required := len(newTokens)
	if required > 2 {
		required = 2
	}

	for _, item := range e.store.Knowledge() {
		existingTokens := topicTokens(item.Topic)
		lowerExisting := strings.ToLower(item.Topic)

		shared := 0
		for tok := range newTokens {
			if existingTokens[tok] {
				shared++
			}
		}

		if (required > 0 && shared >= required) ||
			strings.Contains(lowerExisting, lowerTopic) ||
			strings.Contains(lowerTopic, lowerExisting) {
			return item.ID, true
		}
	}
	return "", false
}

// topicTokens splits a topic into its significant lowercase tokens
// (whitespace-separated, longer than 3 characters).
func topicTokens(topic string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(topic)) {
		if len(tok) > 3 {
			tokens[tok] = true
		}
	}
	return tokens
}
