package suggest

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"github.com/abhisek/memotag/internal/store"
)

// Suggestion is one surfaced note.
type Suggestion struct {
	Category string
	NoteID   string
	Content  string
}

// Service selects suggestions from engagement counters and records the
// impressions its picks cause.
type Service struct {
	repo   store.NoteRepo
	weight float64
	rng    *rand.Rand
}

// NewService creates a suggestion Service. The rng is injected so runs
// are reproducible under test; pass rand.New(rand.NewSource(...)).
func NewService(repo store.NoteRepo, weight float64, rng *rand.Rand) *Service {
	return &Service{repo: repo, weight: weight, rng: rng}
}

// GetSuggestions returns at most one note per category, drawn from
// confirmed category labels on notes captured within the last daysBack
// days. Every returned note's impression counter is incremented, so a
// note shown now competes on equal terms a little less next time.
func (s *Service) GetSuggestions(ctx context.Context, daysBack int) ([]Suggestion, error) {
	candidates, err := s.repo.EngagementCounters(ctx, daysBack)
	if err != nil {
		return nil, fmt.Errorf("loading engagement counters: %w", err)
	}

	picks := SelectOnePerCategory(candidates, s.weight, s.rng)

	var out []Suggestion
	var shown []string
	for category, pick := range picks {
		if pick == nil {
			continue
		}
		out = append(out, Suggestion{
			Category: category,
			NoteID:   pick.NoteID,
			Content:  pick.Content,
		})
		shown = append(shown, pick.NoteID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })

	if len(shown) > 0 {
		if err := s.repo.AddImpressions(ctx, shown); err != nil {
			return nil, fmt.Errorf("recording impressions: %w", err)
		}
	}
	return out, nil
}
