package llm

import (
	"fmt"
	"strings"

	"github.com/scrypster/recall/pkg/types"
)

// ExtractionPrompt builds the analysis prompt for one note capture. The
// category list (with synonyms) and note types come from the application
// config so user-defined taxonomy flows straight into the model.
func ExtractionPrompt(text string, hasImage bool, cfg *types.AppConfig) string {
	var categories []string
	for _, cat := range cfg.Categories {
		categories = append(categories, fmt.Sprintf("- %s (synonyms: %s)", cat.Name, strings.Join(cat.Synonyms, ", ")))
	}
	var noteTypes []string
	for _, nt := range cfg.NoteTypes {
		noteTypes = append(noteTypes, nt.Name)
	}

	var b strings.Builder
	b.WriteString(`Analyze the provided content (text, and image if present) for an intelligent business knowledge system.

`)
	if hasImage {
		b.WriteString(`IF THERE IS AN IMAGE:
- Briefly describe its content in the summary.
- If it contains text (OCR), read it and process it as if it were typed input.
- If it is a software screenshot, extract the intent (a bug, a configuration).
- If it is a whiteboard or meeting photo, extract the diagrams or lists as tasks or knowledge.

`)
	}
	b.WriteString(`DATA SAFETY (CRITICAL):
- Check whether the content contains sensitive information: passwords, API keys, credit cards, medical data.
- Set "is_sensitive": true if you detect any of these.

RELATIONAL STRUCTURE:
- Detect Companies, Projects, and People.
- Identify hierarchical relationships (associated_with).

CLASSIFICATION:
- Categorize the note using ONLY one of the following categories:
`)
	b.WriteString(strings.Join(categories, "\n"))
	b.WriteString(fmt.Sprintf(`
- If applicable, suggest one of the following NOTE TYPES in the summary or category: %s

KNOWLEDGE BASE:
- If the content explains a process, a decision, or "how to do something": extract it as knowledge.

EXTRACT:
1. A short summary (title).
2. Category.
3. is_sensitive (boolean).
4. Entities (name, type one of Person/Company/Project/Other, contact_info, role, associated_with).
5. Tasks (description, priority one of High/Medium/Low, date).
6. Knowledge (topic, content).
7. Keywords.

OUTPUT: ONLY valid JSON matching the schema. NO markdown. NO code blocks.

Input text: %q`, strings.Join(noteTypes, ", "), text))

	return b.String()
}
