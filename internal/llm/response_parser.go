package llm

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/scrypster/recall/pkg/types"
)

// extractJSON extracts the first balanced JSON object from a string that may
// contain extra text. This handles models that add explanations before or
// after the JSON despite instructions.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text // no JSON found, let the parser fail with context
	}

	braceCount := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]

		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch char {
		case '{':
			braceCount++
		case '}':
			braceCount--
			if braceCount == 0 {
				return text[start : i+1]
			}
		}
	}
	return text[start:]
}

// ParseAnalysisResult parses a raw model response into an AnalysisResult.
// Unknown entity types fall back to Other and unknown priorities to Medium;
// a response with no parseable JSON object is an error.
func ParseAnalysisResult(raw string) (*types.AnalysisResult, error) {
	cleaned := extractJSON(raw)

	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("llm: failed to parse analysis response: %w", err)
	}

	for i := range result.Entities {
		if !types.IsValidEntityType(result.Entities[i].Type) {
			log.Printf("llm: unknown entity type %q for %q, falling back to Other",
				result.Entities[i].Type, result.Entities[i].Name)
			result.Entities[i].Type = types.EntityTypeOther
		}
	}
	for i := range result.Tasks {
		if !types.IsValidTaskPriority(result.Tasks[i].Priority) {
			result.Tasks[i].Priority = types.PriorityMedium
		}
	}

	return &result, nil
}
