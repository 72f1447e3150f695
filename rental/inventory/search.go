package inventory

import (
	"sort"
	"strings"

	contractx "github.com/metroequip/rentflow/rental/contract"
)

// matchScore ranks an item against a free-text query: one point per
// query token found in the item's descriptive fields. An empty query
// matches everything.
func matchScore(item contractx.Item, query string) int {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return 1
	}
	haystack := strings.ToLower(strings.Join([]string{
		item.ID, item.Name, item.Category, item.WeightClass, item.Location, item.RequiredCert,
	}, " "))

	score := 0
	for _, tok := range tokens {
		if strings.Contains(haystack, tok) {
			score++
		}
	}
	return score
}

// rankAvailable filters to AVAILABLE matches and orders them by
// relevance, ties broken by ascending id so results are deterministic.
func rankAvailable(items []contractx.Item, query string) []contractx.Item {
	type scored struct {
		item  contractx.Item
		score int
	}
	matches := make([]scored, 0, len(items))
	for _, item := range items {
		if item.Status != contractx.StatusAvailable {
			continue
		}
		if s := matchScore(item, query); s > 0 {
			matches = append(matches, scored{item: item, score: s})
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].item.ID < matches[j].item.ID
	})

	out := make([]contractx.Item, len(matches))
	for i, m := range matches {
		out[i] = m.item
	}
	return out
}
