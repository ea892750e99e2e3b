package batch

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/abhisek/memotag/internal/classify"
	"github.com/abhisek/memotag/internal/store"
)

// Manager runs batch assignment sessions. At most one session is active
// per Manager; starting a new batch cancels the previous one, dropping
// its pending items without persisting anything.
type Manager struct {
	repo   store.NoteRepo
	scorer *classify.Scorer
	labels []classify.Label
	expiry time.Duration
	onDone func(Summary)

	mu     sync.Mutex
	gen    uint64
	active *session
}

// Option configures a Manager.
type Option func(*Manager)

// WithExpiry overrides the session expiry (default 60s).
func WithExpiry(d time.Duration) Option {
	return func(m *Manager) { m.expiry = d }
}

// WithFinalize sets a callback invoked with the session summary when a
// batch completes, by user choices or by the timer. The callback runs
// with the manager lock held and must not call back into the Manager.
func WithFinalize(fn func(Summary)) Option {
	return func(m *Manager) { m.onDone = fn }
}

// NewManager creates a batch Manager over the given store, scorer and
// label set.
func NewManager(repo store.NoteRepo, scorer *classify.Scorer, labels []classify.Label, opts ...Option) *Manager {
	m := &Manager{
		repo:   repo,
		scorer: scorer,
		labels: labels,
		expiry: DefaultExpiry,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartBatch loads up to size unlabeled notes, scores each against
// every candidate label, persists auto-confirm verdicts immediately and
// queues the rest as pending assignments. If anything is pending an
// expiry timer is armed; when it fires, leftovers are auto-assigned to
// their top candidate, unconfirmed.
//
// Any previously active session is cancelled first: its timer stops and
// its pending items are discarded without persisting. The returned
// slice is the new session's pending queue, item id order.
func (m *Manager) StartBatch(ctx context.Context, size int) ([]PendingAssignment, error) {
	// Cancel the prior session before scoring starts. Scoring can take
	// a while under rate limiting, and a stale timer firing mid-score
	// would persist items the new batch is about to supersede.
	m.mu.Lock()
	m.cancelActiveLocked()
	m.mu.Unlock()

	notes, err := m.repo.UnscoredNotes(ctx, size)
	if err != nil {
		return nil, fmt.Errorf("loading unscored notes: %w", err)
	}

	// Scoring happens outside the lock; one chain call per label per
	// note, and none of it touches session state.
	type scored struct {
		note   store.Note
		scores []classify.LabelScore
	}
	items := make([]scored, 0, len(notes))
	for _, n := range notes {
		items = append(items, scored{
			note:   n,
			scores: m.scorer.ScoreAll(ctx, n.Content, n.URLs, m.labels),
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// A concurrent StartBatch may have installed a session while this
	// one was scoring; last batch wins.
	m.cancelActiveLocked()

	m.gen++
	s := &session{
		generation: m.gen,
		pending:    make(map[string]PendingAssignment),
		onDone:     m.onDone,
		ctx:        ctx,
	}

	for _, it := range items {
		if m.autoConfirmLocked(s, it.note, it.scores) {
			continue
		}
		s.pending[it.note.ID] = PendingAssignment{
			ItemID:     it.note.ID,
			Content:    it.note.Content,
			Candidates: viableCandidates(it.scores),
		}
	}

	if len(s.pending) == 0 {
		// Everything auto-confirmed (or the batch was empty): the
		// session is already over.
		m.finalizeLocked(s)
		return nil, nil
	}

	m.active = s
	gen := s.generation
	s.timer = time.AfterFunc(m.expiry, func() { m.expire(gen) })
	return s.pendingSorted(), nil
}

// Choose resolves one pending item with the user's chosen label. The
// label persists as confirmed. Unknown or already-resolved item ids are
// a no-op, so a choice racing the expiry timer is harmless whichever
// side wins. When the last pending item is resolved the timer stops and
// the session finalizes.
func (m *Manager) Choose(itemID, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.active
	if s == nil {
		return
	}
	p, ok := s.pending[itemID]
	if !ok {
		return
	}

	kind, confidence := candidateDetails(p.Candidates, label)
	m.persist(s.ctx, itemID, label, kind, confidence, true)

	delete(s.pending, itemID)
	s.summary.Manual++

	if len(s.pending) == 0 {
		s.stop()
		m.finalizeLocked(s)
		m.active = nil
	}
}

// Pending returns the active session's unresolved items, item id order,
// or nil when no session is running.
func (m *Manager) Pending() []PendingAssignment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	return m.active.pendingSorted()
}

// Cancel discards the active session without persisting anything.
func (m *Manager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelActiveLocked()
}

// expire is the timer callback: every still-pending item gets its top
// candidate persisted unconfirmed. Items with no candidates are counted
// but nothing is written for them. The generation guard makes a timer
// from a superseded session a no-op.
func (m *Manager) expire(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.active
	if s == nil || s.generation != gen {
		return
	}

	for id, p := range s.pending {
		if len(p.Candidates) > 0 {
			top := p.Candidates[0]
			m.persist(s.ctx, id, top.Label, string(top.Kind), float64(top.Score)/100, false)
		}
		s.summary.Auto++
	}
	s.pending = nil

	m.finalizeLocked(s)
	m.active = nil
}

// autoConfirmLocked persists every auto-confirm verdict for a note.
// Returns true when at least one label confirmed, meaning the item
// never enters the pending queue.
func (m *Manager) autoConfirmLocked(s *session, n store.Note, scores []classify.LabelScore) bool {
	confirmed := false
	for _, sc := range scores {
		if sc.Action != classify.ActionConfirm {
			continue
		}
		m.persist(s.ctx, n.ID, sc.Label, string(sc.Kind), float64(sc.Score)/100, true)
		confirmed = true
	}
	if confirmed {
		s.summary.AutoConfirmed++
	}
	return confirmed
}

// cancelActiveLocked drops the active session. Nothing is persisted for
// its pending items: the last batch wins.
func (m *Manager) cancelActiveLocked() {
	if m.active == nil {
		return
	}
	m.active.stop()
	m.active = nil
}

func (m *Manager) finalizeLocked(s *session) {
	if s.onDone != nil {
		s.onDone(s.summary)
	}
}

// persist writes a label, logging failures instead of propagating them.
// A lost write degrades one item, not the session.
func (m *Manager) persist(ctx context.Context, noteID, label, kind string, confidence float64, confirmed bool) {
	if err := m.repo.SaveLabel(ctx, noteID, label, kind, confidence, confirmed); err != nil {
		fmt.Fprintf(os.Stderr, "warning: saving label %q for note %s: %v\n", label, noteID, err)
	}
}

// viableCandidates keeps every label with a positive score, in the
// descending order the scorer produced. Zero scores mean the label was
// ruled out, so an item whose labels all scored zero gets an empty
// candidate list and expires without anything persisted.
func viableCandidates(scores []classify.LabelScore) []classify.LabelScore {
	out := make([]classify.LabelScore, 0, len(scores))
	for _, sc := range scores {
		if sc.Score > 0 {
			out = append(out, sc)
		}
	}
	return out
}

// candidateDetails finds the chosen label among the candidates so the
// persisted confidence reflects its score. A label outside the
// candidate list is a deliberate user override and persists with full
// confidence as a category.
func candidateDetails(candidates []classify.LabelScore, label string) (kind string, confidence float64) {
	for _, c := range candidates {
		if c.Label == label {
			return string(c.Kind), float64(c.Score) / 100
		}
	}
	return string(classify.KindCategory), 1.0
}
