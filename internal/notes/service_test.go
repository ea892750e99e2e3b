package notes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/memotag/internal/classify"
	"github.com/abhisek/memotag/internal/llm"
	"github.com/abhisek/memotag/internal/ratelimit"
	"github.com/abhisek/memotag/internal/store"
)

type captureRepo struct {
	mu      sync.Mutex
	notes   []store.Note
	labels  []store.NoteLabel
	saveErr error
}

func (r *captureRepo) SaveNote(_ context.Context, n *store.Note) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, *n)
	return nil
}

func (r *captureRepo) GetNote(context.Context, string) (*store.Note, error) { return nil, nil }

func (r *captureRepo) UnscoredNotes(context.Context, int) ([]store.Note, error) { return nil, nil }

func (r *captureRepo) SaveLabel(_ context.Context, noteID, label, kind string, confidence float64, confirmed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = append(r.labels, store.NoteLabel{
		NoteID: noteID, Label: label, Kind: kind,
		Confidence: confidence, Confirmed: confirmed,
	})
	return nil
}

func (r *captureRepo) EngagementCounters(context.Context, int) ([]store.SuggestionCandidate, error) {
	return nil, nil
}

func (r *captureRepo) AddImpressions(context.Context, []string) error { return nil }

func (r *captureRepo) LabelCounts(context.Context) ([]store.LabelCount, error) { return nil, nil }

func newService(repo *captureRepo, provider llm.Provider, labels []classify.Label) *Service {
	bucket := ratelimit.NewBucket(ratelimit.BucketConfig{
		MaxTokens:      1000,
		RefillTokens:   1000,
		RefillInterval: time.Second,
	})
	chain := classify.NewChain([]classify.Backend{{Provider: provider, Limiter: bucket}})
	return NewService(repo, classify.NewScorer(chain), labels)
}

func oneLabel(name string) []classify.Label {
	return []classify.Label{{Name: name, Kind: classify.KindCategory, Thresholds: classify.DefaultThresholds()}}
}

func TestCapture_SavesNoteAndConfirmsHighScore(t *testing.T) {
	repo := &captureRepo{}
	provider := llm.NewRepeatingMockProvider(llm.MockResponse{Content: "97"})
	svc := newService(repo, provider, oneLabel("todo"))

	n, err := svc.Capture(context.Background(), "don't forget the backup", nil)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if n.ID == "" {
		t.Fatal("captured note must have an id")
	}
	svc.Wait()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.notes) != 1 || repo.notes[0].ID != n.ID {
		t.Fatalf("note not persisted: %+v", repo.notes)
	}
	if len(repo.labels) != 1 {
		t.Fatalf("expected 1 label, got %+v", repo.labels)
	}
	l := repo.labels[0]
	if l.Label != "todo" || !l.Confirmed || l.Confidence != 0.97 {
		t.Fatalf("unexpected label: %+v", l)
	}
}

func TestCapture_SuggestScoreStoredUnconfirmed(t *testing.T) {
	repo := &captureRepo{}
	provider := llm.NewRepeatingMockProvider(llm.MockResponse{Content: "74"})
	svc := newService(repo, provider, oneLabel("idea"))

	if _, err := svc.Capture(context.Background(), "what if notes tagged themselves", nil); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	svc.Wait()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.labels) != 1 || repo.labels[0].Confirmed {
		t.Fatalf("expected one unconfirmed label, got %+v", repo.labels)
	}
}

func TestCapture_SkipScoreNotPersisted(t *testing.T) {
	repo := &captureRepo{}
	provider := llm.NewRepeatingMockProvider(llm.MockResponse{Content: "20"})
	svc := newService(repo, provider, oneLabel("quote"))

	if _, err := svc.Capture(context.Background(), "plain text", nil); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	svc.Wait()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.labels) != 0 {
		t.Fatalf("skip-tier labels must not persist, got %+v", repo.labels)
	}
}

func TestCapture_BackendFailureNeverSurfaces(t *testing.T) {
	repo := &captureRepo{}
	down := llm.NewRepeatingMockProvider(
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}},
	)
	svc := newService(repo, down, oneLabel("todo"))

	n, err := svc.Capture(context.Background(), "still captured", nil)
	if err != nil {
		t.Fatalf("Capture must not fail on backend trouble: %v", err)
	}
	svc.Wait()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if len(repo.notes) != 1 || repo.notes[0].ID != n.ID {
		t.Fatal("note must persist even when classification fails")
	}
	if len(repo.labels) != 0 {
		t.Fatalf("failed classification must write nothing, got %+v", repo.labels)
	}
}

func TestCapture_SaveErrorReturned(t *testing.T) {
	repo := &captureRepo{saveErr: errors.New("disk full")}
	provider := llm.NewRepeatingMockProvider(llm.MockResponse{Content: "97"})
	svc := newService(repo, provider, oneLabel("todo"))

	if _, err := svc.Capture(context.Background(), "text", nil); err == nil {
		t.Fatal("expected save error to surface")
	}
	svc.Wait()
}
