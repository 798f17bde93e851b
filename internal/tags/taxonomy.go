package tags

import "giggle-glide/internal/models"

// TagDefinition describes one entry in the default taxonomy
type TagDefinition struct {
	Name        string
	Category    string
	Value       string
	Description string
}

// DefaultTaxonomy is the seed tag set: 10 styles, 10 formats, 20 topics and
// 10 tones. Seeding is idempotent because tag creation is idempotent on name.
func DefaultTaxonomy() []TagDefinition {
	return []TagDefinition{
		// Style tags
		{"Observational", models.CategoryStyle, "observational", "Observational comedy style"},
		{"Absurd", models.CategoryStyle, "absurd", "Absurd or surreal humor style"},
		{"Wordplay", models.CategoryStyle, "wordplay", "Puns and word-based humor"},
		{"Sarcastic", models.CategoryStyle, "sarcastic", "Sarcastic or ironic humor"},
		{"Physical", models.CategoryStyle, "physical", "Physical comedy and slapstick"},
		{"Storytelling", models.CategoryStyle, "storytelling", "Narrative-based humor"},
		{"One Liner", models.CategoryStyle, "one_liner", "Short, punchy jokes"},
		{"Prop Comedy", models.CategoryStyle, "prop_comedy", "Comedy using props or visual elements"},
		{"Impressions", models.CategoryStyle, "impressions", "Mimicry and character impressions"},
		{"Self Deprecating", models.CategoryStyle, "self_deprecating", "Self-deprecating humor"},

		// Format tags
		{"Question Answer", models.CategoryFormat, "question_answer", "Q&A format jokes"},
		{"Setup Punchline", models.CategoryFormat, "setup_punchline", "Traditional setup and punchline"},
		{"List", models.CategoryFormat, "list", "List-based humor"},
		{"Dialogue", models.CategoryFormat, "dialogue", "Conversation-based jokes"},
		{"Narrative", models.CategoryFormat, "narrative", "Story-format jokes"},
		{"Riddle", models.CategoryFormat, "riddle", "Riddle-format humor"},
		{"Knock Knock", models.CategoryFormat, "knock_knock", "Knock-knock jokes"},
		{"Meme", models.CategoryFormat, "meme", "Meme-style humor"},
		{"Quote", models.CategoryFormat, "quote", "Quotable one-liners"},
		{"Comparison", models.CategoryFormat, "comparison", "Comparison-based humor"},

		// Topic tags
		{"Relationships", models.CategoryTopic, "relationships", "Dating, marriage, and relationships"},
		{"Work", models.CategoryTopic, "work", "Office and workplace humor"},
		{"Technology", models.CategoryTopic, "technology", "Tech and digital life"},
		{"Food", models.CategoryTopic, "food", "Food and cooking humor"},
		{"Animals", models.CategoryTopic, "animals", "Pet and animal jokes"},
		{"Travel", models.CategoryTopic, "travel", "Travel and vacation humor"},
		{"Family", models.CategoryTopic, "family", "Family life and relatives"},
		{"Sports", models.CategoryTopic, "sports", "Sports and fitness humor"},
		{"Politics", models.CategoryTopic, "politics", "Political and current events"},
		{"Science", models.CategoryTopic, "science", "Science and education"},
		{"Celebrities", models.CategoryTopic, "celebrities", "Celebrity and pop culture"},
		{"Movies Tv", models.CategoryTopic, "movies_tv", "Entertainment and media"},
		{"Music", models.CategoryTopic, "music", "Music and musicians"},
		{"Health", models.CategoryTopic, "health", "Health and medical humor"},
		{"Money", models.CategoryTopic, "money", "Finance and money jokes"},
		{"School", models.CategoryTopic, "school", "Education and school life"},
		{"Weather", models.CategoryTopic, "weather", "Weather and seasons"},
		{"Holidays", models.CategoryTopic, "holidays", "Holiday and celebration humor"},
		{"Aging", models.CategoryTopic, "aging", "Age and getting older"},
		{"Parenting", models.CategoryTopic, "parenting", "Parenting and children"},

		// Tone tags
		{"Lighthearted", models.CategoryTone, "lighthearted", "Light and cheerful mood"},
		{"Witty", models.CategoryTone, "witty", "Clever and sharp humor"},
		{"Silly", models.CategoryTone, "silly", "Playful and nonsensical"},
		{"Clever", models.CategoryTone, "clever", "Intelligent and sophisticated"},
		{"Dark", models.CategoryTone, "dark", "Dark or black humor"},
		{"Wholesome", models.CategoryTone, "wholesome", "Clean and family-friendly"},
		{"Edgy", models.CategoryTone, "edgy", "Provocative and boundary-pushing"},
		{"Nostalgic", models.CategoryTone, "nostalgic", "Nostalgic and reminiscent"},
		{"Optimistic", models.CategoryTone, "optimistic", "Positive and upbeat"},
		{"Cynical", models.CategoryTone, "cynical", "Cynical and pessimistic"},
	}
}
