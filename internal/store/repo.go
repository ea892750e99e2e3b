package store

import (
	"context"
	"time"
)

// Note is a captured free-text note or link.
type Note struct {
	ID        string
	Content   string
	URLs      []string
	CreatedAt time.Time
}

// NoteLabel is one persisted classification result for a note.
type NoteLabel struct {
	NoteID     string
	Label      string
	Kind       string // "category" or "tag"
	Confidence float64
	Confirmed  bool
	CreatedAt  time.Time
}

// SuggestionCandidate is a read-only engagement snapshot consumed by the
// suggestion selector. The selector never mutates it.
type SuggestionCandidate struct {
	NoteID      string
	Category    string
	Content     string
	Impressions int
	LastShownAt time.Time

	// CategoryMinImpressions is the minimum impression count across the
	// candidate's category, filled by the query so the selector can
	// identify the least-shown set without a second pass.
	CategoryMinImpressions int
}

// LabelCount aggregates persisted labels for the stats command.
type LabelCount struct {
	Label     string
	Kind      string
	Total     int
	Confirmed int
}

// QueryOpts configures event queries.
type QueryOpts struct {
	Limit int // max results (0 = unlimited)
}

// NoteRepo is the persistence collaborator for the classification and
// suggestion pipeline.
type NoteRepo interface {
	// SaveNote persists a captured note.
	SaveNote(ctx context.Context, n *Note) error

	// GetNote returns a note by id, or nil if absent.
	GetNote(ctx context.Context, id string) (*Note, error)

	// UnscoredNotes returns up to limit notes with no labels yet, oldest
	// first.
	UnscoredNotes(ctx context.Context, limit int) ([]Note, error)

	// SaveLabel persists a label for a note. Re-saving the same
	// (note, label) pair overwrites confidence and confirmed.
	SaveLabel(ctx context.Context, noteID, label, kind string, confidence float64, confirmed bool) error

	// EngagementCounters returns suggestion candidates for confirmed
	// category labels on notes captured within the last daysBack days.
	EngagementCounters(ctx context.Context, daysBack int) ([]SuggestionCandidate, error)

	// AddImpressions increments the impression counter for each note and
	// stamps last_shown_at.
	AddImpressions(ctx context.Context, noteIDs []string) error

	// LabelCounts aggregates persisted labels.
	LabelCounts(ctx context.Context) ([]LabelCount, error)
}

// LLMEventData captures one scoring backend request for the event log.
type LLMEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEventRecord is a stored LLM event.
type LLMEventRecord struct {
	ID        int
	Timestamp time.Time
	LLMEventData
}

// LLMUsageStats aggregates token usage per purpose.
type LLMUsageStats struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides access to the LLM request event log.
type EventRepo interface {
	// AppendLLMEvent records a scoring backend call.
	AppendLLMEvent(ctx context.Context, data LLMEventData) error

	// QueryLLMEvents returns recent events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error)

	// GetLLMEvent returns one event by id, or nil if absent.
	GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error)

	// UsageByPurpose aggregates token usage grouped by purpose and model.
	UsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)
}
