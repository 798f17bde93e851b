package recommend

import (
	"giggle-glide/internal/models"
)

// primaryCategory returns the category of a joke's highest-confidence tag,
// or "" when the joke is untagged. Expects Tags with their Tag relation
// preloaded.
func primaryCategory(joke *models.Joke) string {
	best := ""
	bestConfidence := -1.0
	for _, link := range joke.Tags {
		if link.Confidence > bestConfidence {
			bestConfidence = link.Confidence
			best = link.Tag.Category
		}
	}
	return best
}

// Diversify re-ranks recommendations so consecutive jokes come from
// different taxonomy categories where possible. Items are grouped by
// primary category preserving their score order, then drawn round-robin
// until the limit is reached.
func Diversify(items []Recommendation, limit int) []Recommendation {
	if len(items) <= 1 {
		return items
	}

	var order []string
	groups := make(map[string][]Recommendation)
	for _, item := range items {
		category := primaryCategory(&item.Joke)
		if _, seen := groups[category]; !seen {
			order = append(order, category)
		}
		groups[category] = append(groups[category], item)
	}

	result := make([]Recommendation, 0, limit)
	for len(result) < limit {
		progressed := false
		for _, category := range order {
			group := groups[category]
			if len(group) == 0 {
				continue
			}
			result = append(result, group[0])
			groups[category] = group[1:]
			progressed = true
			if len(result) == limit {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return result
}
