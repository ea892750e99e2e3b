package suggest

import (
	"context"
	"math/rand"
	"testing"

	"github.com/abhisek/memotag/internal/store"
)

func candidate(id, category string, impressions, catMin int) store.SuggestionCandidate {
	return store.SuggestionCandidate{
		NoteID:                 id,
		Category:               category,
		Content:                "content of " + id,
		Impressions:            impressions,
		CategoryMinImpressions: catMin,
	}
}

func TestSelectOnePerCategory_OnePickPerCategory(t *testing.T) {
	candidates := []store.SuggestionCandidate{
		candidate("a1", "todo", 0, 0),
		candidate("a2", "todo", 3, 0),
		candidate("b1", "idea", 1, 1),
	}
	rng := rand.New(rand.NewSource(1))

	picks := SelectOnePerCategory(candidates, DefaultLeastShownWeight, rng)
	if len(picks) != 2 {
		t.Fatalf("expected picks for 2 categories, got %d", len(picks))
	}
	if picks["idea"] == nil || picks["idea"].NoteID != "b1" {
		t.Fatalf("single-candidate category must pick it: %+v", picks["idea"])
	}
	if picks["todo"] == nil {
		t.Fatal("todo category must produce a pick")
	}
}

func TestSelectOnePerCategory_EmptyInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	picks := SelectOnePerCategory(nil, DefaultLeastShownWeight, rng)
	if len(picks) != 0 {
		t.Fatalf("expected no picks, got %+v", picks)
	}
}

func TestSelectOnePerCategory_DoesNotMutateInput(t *testing.T) {
	candidates := []store.SuggestionCandidate{
		candidate("a1", "todo", 0, 0),
		candidate("a2", "todo", 5, 0),
	}
	before := append([]store.SuggestionCandidate(nil), candidates...)
	rng := rand.New(rand.NewSource(7))

	SelectOnePerCategory(candidates, DefaultLeastShownWeight, rng)

	for i := range candidates {
		if candidates[i] != before[i] {
			t.Fatalf("input mutated at %d: %+v != %+v", i, candidates[i], before[i])
		}
	}
}

// With weight 0.7, the sole least-shown candidate should win roughly
// 0.7 + 0.3/n of the time. Here n=2, so a1 wins ~0.85 and the
// least-shown branch itself fires ~0.70 of trials.
func TestSelectOnePerCategory_FairnessBias(t *testing.T) {
	candidates := []store.SuggestionCandidate{
		candidate("a1", "todo", 0, 0),
		candidate("a2", "todo", 10, 0),
	}
	rng := rand.New(rand.NewSource(42))

	const trials = 1000
	leastShownWins := 0
	for i := 0; i < trials; i++ {
		picks := SelectOnePerCategory(candidates, 0.7, rng)
		if picks["todo"].NoteID == "a1" {
			leastShownWins++
		}
	}

	got := float64(leastShownWins) / trials
	want := 0.7 + 0.3/2
	if got < want-0.05 || got > want+0.05 {
		t.Fatalf("least-shown win rate %.3f outside %.2f±0.05", got, want)
	}
}

func TestSelectOnePerCategory_WeightOneAlwaysLeastShown(t *testing.T) {
	candidates := []store.SuggestionCandidate{
		candidate("a1", "todo", 2, 2),
		candidate("a2", "todo", 9, 2),
	}
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 100; i++ {
		picks := SelectOnePerCategory(candidates, 1.0, rng)
		if picks["todo"].NoteID != "a1" {
			t.Fatalf("weight 1.0 must always pick the least shown, got %q", picks["todo"].NoteID)
		}
	}
}

type counterRepo struct {
	store.NoteRepo
	candidates  []store.SuggestionCandidate
	impressions []string
}

func (r *counterRepo) EngagementCounters(context.Context, int) ([]store.SuggestionCandidate, error) {
	return r.candidates, nil
}

func (r *counterRepo) AddImpressions(_ context.Context, ids []string) error {
	r.impressions = append(r.impressions, ids...)
	return nil
}

func TestService_GetSuggestionsRecordsImpressions(t *testing.T) {
	repo := &counterRepo{candidates: []store.SuggestionCandidate{
		candidate("a1", "todo", 0, 0),
		candidate("b1", "idea", 0, 0),
	}}
	svc := NewService(repo, DefaultLeastShownWeight, rand.New(rand.NewSource(1)))

	got, err := svc.GetSuggestions(context.Background(), 30)
	if err != nil {
		t.Fatalf("GetSuggestions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
	if got[0].Category != "idea" || got[1].Category != "todo" {
		t.Fatalf("suggestions not in category order: %+v", got)
	}
	if len(repo.impressions) != 2 {
		t.Fatalf("expected 2 impression writes, got %v", repo.impressions)
	}
}

func TestService_NoCandidatesNoImpressions(t *testing.T) {
	repo := &counterRepo{}
	svc := NewService(repo, DefaultLeastShownWeight, rand.New(rand.NewSource(1)))

	got, err := svc.GetSuggestions(context.Background(), 30)
	if err != nil {
		t.Fatalf("GetSuggestions: %v", err)
	}
	if len(got) != 0 || len(repo.impressions) != 0 {
		t.Fatalf("expected nothing, got %v / %v", got, repo.impressions)
	}
}
