package classify

import (
	"context"
	"sync"
)

// Scorer fans one subject text out across candidate labels, one chain
// call per label, all in parallel. Concurrency is bounded by the rate
// limiter's available tokens, not an artificial worker cap.
type Scorer struct {
	chain *Chain
}

// NewScorer creates a Scorer over the given fallback chain.
func NewScorer(chain *Chain) *Scorer {
	return &Scorer{chain: chain}
}

// ScoreAll scores every candidate label against the subject text and
// returns verdicts sorted by score descending.
//
// Per label: the fast-path rules run first; a rule score at or above
// the label's auto-confirm threshold short-circuits the backend call
// entirely (and spends no tokens). Otherwise the chain is consulted and
// the higher of the two scores wins. One label's failure never blocks
// or delays the others, and all labels are awaited before returning.
func (s *Scorer) ScoreAll(ctx context.Context, subject string, aux []string, labels []Label) []LabelScore {
	results := make([]LabelScore, len(labels))

	var wg sync.WaitGroup
	for i, label := range labels {
		wg.Add(1)
		go func(i int, label Label) {
			defer wg.Done()
			results[i] = s.scoreLabel(ctx, subject, aux, label)
		}(i, label)
	}
	wg.Wait()

	sortByScore(results)
	return results
}

func (s *Scorer) scoreLabel(ctx context.Context, subject string, aux []string, label Label) LabelScore {
	req := ScoreRequest{
		SubjectText:    subject,
		AuxiliaryCtx:   aux,
		CandidateLabel: label.Name,
	}

	fast, fastOK := fastPathScore(label, req)
	if fastOK && fast >= label.Thresholds.AutoConfirm {
		return newLabelScore(label, fast, "heuristic")
	}

	// Degraded mode reuses the same rules the fast path ran, so a chain
	// that lost every backend still benefits from them.
	fallback := func(r ScoreRequest) (int, bool) {
		return fastPathScore(label, r)
	}

	out := s.chain.Score(ctx, req, fallback)

	// When both a fast-path and a model score exist, the higher wins.
	if fastOK && fast > out.Score {
		return newLabelScore(label, fast, "heuristic")
	}
	if out.Score == NoScore {
		return LabelScore{
			Label:  label.Name,
			Kind:   label.Kind,
			Score:  NoScore,
			Tier:   TierInsufficient,
			Action: ActionSkip,
			Source: out.Source,
		}
	}
	return newLabelScore(label, out.Score, out.Source)
}
