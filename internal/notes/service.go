// Package notes is the capture entry point: persist first, classify in
// the background. A note is never lost because a scoring backend was
// slow or down.
package notes

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/memotag/internal/classify"
	"github.com/abhisek/memotag/internal/llm"
	"github.com/abhisek/memotag/internal/store"
)

// classifyTimeout bounds a background classification run as a whole,
// independent of the caller's context lifetime.
const classifyTimeout = 2 * time.Minute

// Service captures notes and classifies them asynchronously.
type Service struct {
	repo   store.NoteRepo
	scorer *classify.Scorer
	labels []classify.Label

	// wg tracks detached classification goroutines so a short-lived
	// process can drain them before exiting.
	wg sync.WaitGroup
}

// NewService creates a capture Service. ValidateLabels must have been
// called on the label set already; invalid thresholds are a startup
// error, not a capture-time one.
func NewService(repo store.NoteRepo, scorer *classify.Scorer, labels []classify.Label) *Service {
	return &Service{repo: repo, scorer: scorer, labels: labels}
}

// Capture persists a note and kicks off classification in a detached
// goroutine. The returned note is already saved; classification
// failures are logged to stderr and never surface to the caller.
func (s *Service) Capture(ctx context.Context, content string, urls []string) (*store.Note, error) {
	n := &store.Note{
		ID:        uuid.NewString(),
		Content:   content,
		URLs:      urls,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.SaveNote(ctx, n); err != nil {
		return nil, fmt.Errorf("saving note: %w", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.classify(n)
	}()

	return n, nil
}

// Wait blocks until every in-flight classification has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// classify scores the note against every label and persists the
// verdicts worth keeping. It runs detached, on its own context, with
// an error boundary: nothing here can take the process down.
func (s *Service) classify(n *store.Note) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "warning: classification panicked for note %s: %v\n", n.ID, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), classifyTimeout)
	defer cancel()
	ctx = llm.WithPurpose(ctx, "classify-live")

	scores := s.scorer.ScoreAll(ctx, n.Content, n.URLs, s.labels)
	for _, sc := range scores {
		switch sc.Action {
		case classify.ActionConfirm:
			s.saveLabel(ctx, n.ID, sc, true)
		case classify.ActionSuggest:
			s.saveLabel(ctx, n.ID, sc, false)
		}
	}
}

func (s *Service) saveLabel(ctx context.Context, noteID string, sc classify.LabelScore, confirmed bool) {
	confidence := float64(sc.Score) / 100
	if err := s.repo.SaveLabel(ctx, noteID, sc.Label, string(sc.Kind), confidence, confirmed); err != nil {
		fmt.Fprintf(os.Stderr, "warning: saving label %q for note %s: %v\n", sc.Label, noteID, err)
	}
}
