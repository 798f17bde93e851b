package aijokes

import (
	"fmt"
	"sort"
	"strings"
)

// Tag values considered broadly safe when nothing is known about the user
var fallbackTags = map[string][]string{
	"style": {"puns", "wordplay", "observational"},
	"topic": {"animals", "food", "everyday-life"},
	"tone":  {"wholesome", "lighthearted"},
}

const systemPrompt = `You are a comedy writer for a joke app. Write short, ` +
	`original, family-friendly jokes. Respond with a JSON object of the form ` +
	`{"jokes": [{"text": "...", "tags": [{"category": "...", "value": "...", ` +
	`"confidence": 0.0}], "confidence": 0.0}]}. Tag categories are style, ` +
	`format, topic and tone. Confidence values are between 0 and 1. ` +
	`Do not include any text outside the JSON object.`

// buildPersonalizedPrompt renders the user message for a generation call
// targeting specific tag preferences. Categories are emitted in sorted
// order so the same input always yields the same prompt.
func buildPersonalizedPrompt(tagsByCategory map[string][]string, language string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d jokes in language %q.\n", count, language)
	b.WriteString("The reader's preferences:\n")

	categories := make([]string, 0, len(tagsByCategory))
	for category := range tagsByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		values := tagsByCategory[category]
		if len(values) == 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", category, strings.Join(values, ", "))
	}

	b.WriteString("Match these preferences and tag every joke accordingly.")
	return b.String()
}

// buildFallbackPrompt renders the user message for a generic generation
// call with no personalization signal
func buildFallbackPrompt(language string, count int) string {
	return buildPersonalizedPrompt(fallbackTags, language, count)
}
