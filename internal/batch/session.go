// Package batch implements interactive assignment runs: a handful of
// unlabeled notes is scored at once, high-confidence labels persist
// immediately, and the ambiguous rest waits for the user's choice under
// an expiry timer that auto-assigns whatever is left.
package batch

import (
	"context"
	"sort"
	"time"

	"github.com/abhisek/memotag/internal/classify"
)

// DefaultExpiry is how long a session waits for choices before
// auto-assigning the remaining items.
const DefaultExpiry = 60 * time.Second

// PendingAssignment is one item awaiting a user decision. Candidates
// hold every scored label above the sentinel, best first; the slice may
// be empty when nothing scored at all.
type PendingAssignment struct {
	ItemID     string
	Content    string
	Candidates []classify.LabelScore
}

// Summary is delivered to the finalize callback when a session ends,
// whether by the user clearing the queue or by the timer.
type Summary struct {
	// AutoConfirmed counts items persisted immediately on a score at or
	// above the auto-confirm threshold.
	AutoConfirmed int

	// Manual counts items the user resolved with Choose.
	Manual int

	// Auto counts items the expiry timer resolved (top candidate
	// persisted unconfirmed, or nothing when no candidate existed).
	Auto int
}

// session is the state of one batch run. All mutation happens under the
// Manager's mutex; the session itself carries no lock.
type session struct {
	generation uint64
	pending    map[string]PendingAssignment
	timer      *time.Timer
	summary    Summary
	onDone     func(Summary)
	ctx        context.Context
}

// pendingSorted returns the pending assignments ordered by item id so
// interactive prompts are stable across runs.
func (s *session) pendingSorted() []PendingAssignment {
	out := make([]PendingAssignment, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

// stop halts the expiry timer if one is armed. The timer callback may
// already be racing for the Manager mutex; the generation check there
// neutralizes it.
func (s *session) stop() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
