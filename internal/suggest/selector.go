// Package suggest picks notes to resurface, one per category, with a
// fairness bias toward the least-shown candidates so old notes are not
// starved by popular ones.
package suggest

import (
	"math/rand"

	"github.com/abhisek/memotag/internal/store"
)

// DefaultLeastShownWeight is the probability mass given to the
// least-shown candidates of each category.
const DefaultLeastShownWeight = 0.7

// SelectOnePerCategory picks one candidate per category. With
// probability weight the pick is uniform over the category's
// least-shown candidates (impression count equal to the category
// minimum); otherwise it is uniform over the whole category. Categories
// with no candidates map to nil. The function is pure given the rng:
// it mutates neither the candidates nor any external state.
func SelectOnePerCategory(candidates []store.SuggestionCandidate, weight float64, rng *rand.Rand) map[string]*store.SuggestionCandidate {
	byCategory := make(map[string][]store.SuggestionCandidate)
	for _, c := range candidates {
		byCategory[c.Category] = append(byCategory[c.Category], c)
	}

	picks := make(map[string]*store.SuggestionCandidate, len(byCategory))
	for category, group := range byCategory {
		picks[category] = pickOne(group, weight, rng)
	}
	return picks
}

func pickOne(group []store.SuggestionCandidate, weight float64, rng *rand.Rand) *store.SuggestionCandidate {
	if len(group) == 0 {
		return nil
	}

	pool := group
	if rng.Float64() < weight {
		pool = leastShown(group)
	}

	pick := pool[rng.Intn(len(pool))]
	return &pick
}

// leastShown filters a category group down to the candidates at the
// category's minimum impression count.
func leastShown(group []store.SuggestionCandidate) []store.SuggestionCandidate {
	min := group[0].CategoryMinImpressions
	out := make([]store.SuggestionCandidate, 0, len(group))
	for _, c := range group {
		if c.Impressions == min {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		// The snapshot's minimum disagrees with the rows, which means
		// the counters moved between query and selection. Fall back to
		// the whole group rather than returning nothing.
		return group
	}
	return out
}
