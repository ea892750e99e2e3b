// Package classify is the scoring pipeline: it asks a chain of LLM
// backends how well each candidate label fits a piece of text, degrades
// to pattern heuristics when every backend fails, and maps raw scores to
// confidence tiers and persistence actions.
package classify

import (
	"errors"
	"fmt"
	"sort"
)

// NoScore is the sentinel for "no usable score from any source". It is
// distinct from 0, which means "scored and judged irrelevant".
const NoScore = -1

// Tier is a named confidence bucket derived purely from a score.
type Tier string

const (
	TierDefinite     Tier = "definite"
	TierHigh         Tier = "high"
	TierModerate     Tier = "moderate"
	TierLow          Tier = "low"
	TierInsufficient Tier = "insufficient"
)

// TierFor maps a score to its confidence tier. Total and monotonic:
// a higher score never yields a less confident tier.
func TierFor(score int) Tier {
	switch {
	case score >= 95:
		return TierDefinite
	case score >= 85:
		return TierHigh
	case score >= 70:
		return TierModerate
	case score >= 60:
		return TierLow
	default:
		return TierInsufficient
	}
}

// Action is the persistence consequence of a score.
type Action string

const (
	// ActionConfirm persists the label immediately as confirmed.
	ActionConfirm Action = "auto-confirm"
	// ActionSuggest offers the label to the user as a choice.
	ActionSuggest Action = "suggest"
	// ActionSkip discards the label.
	ActionSkip Action = "skip"
)

// Thresholds are the per-label score cutoffs driving Action.
type Thresholds struct {
	// AutoConfirm is the score at or above which a label is persisted
	// without asking. Default 95.
	AutoConfirm int

	// Suggest is the score at or above which a label is offered as a
	// choice. Default 60.
	Suggest int
}

// DefaultThresholds returns the standard cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{AutoConfirm: 95, Suggest: 60}
}

// ErrInvalidThresholds is returned when a label's threshold pair is
// inverted. This is a configuration error and fatal at startup.
var ErrInvalidThresholds = errors.New("auto-confirm threshold must exceed suggest threshold")

// Validate rejects inverted threshold pairs.
func (t Thresholds) Validate() error {
	if t.AutoConfirm <= t.Suggest {
		return fmt.Errorf("%w: auto-confirm=%d suggest=%d", ErrInvalidThresholds, t.AutoConfirm, t.Suggest)
	}
	return nil
}

// ActionFor maps a score to its action under the given thresholds.
func ActionFor(score int, t Thresholds) Action {
	switch {
	case score >= t.AutoConfirm:
		return ActionConfirm
	case score >= t.Suggest:
		return ActionSuggest
	default:
		return ActionSkip
	}
}

// LabelKind distinguishes categories (one per note, drive suggestion
// feeds) from tags (any number per note).
type LabelKind string

const (
	KindCategory LabelKind = "category"
	KindTag      LabelKind = "tag"
)

// Label is one candidate classification target.
type Label struct {
	Name       string
	Kind       LabelKind
	Thresholds Thresholds

	// Rules are fast-path heuristics evaluated before any backend call.
	Rules []Rule
}

// ValidateLabels checks every label's thresholds. Called once at
// startup; any error is fatal.
func ValidateLabels(labels []Label) error {
	for _, l := range labels {
		if l.Name == "" {
			return errors.New("label name must not be empty")
		}
		if err := l.Thresholds.Validate(); err != nil {
			return fmt.Errorf("label %q: %w", l.Name, err)
		}
	}
	return nil
}

// ScoreRequest is one immutable scoring question: how well does
// CandidateLabel fit SubjectText?
type ScoreRequest struct {
	SubjectText    string
	AuxiliaryCtx   []string
	CandidateLabel string
}

// LabelScore is the scored verdict for one label.
type LabelScore struct {
	Label  string
	Kind   LabelKind
	Score  int
	Tier   Tier
	Action Action

	// Source records what produced the score: a provider name,
	// "heuristic", or "none" for the NoScore sentinel.
	Source string
}

// newLabelScore derives tier and action from a raw score.
func newLabelScore(l Label, score int, source string) LabelScore {
	return LabelScore{
		Label:  l.Name,
		Kind:   l.Kind,
		Score:  score,
		Tier:   TierFor(score),
		Action: ActionFor(score, l.Thresholds),
		Source: source,
	}
}

// sortByScore orders scores descending, label name as tiebreak so the
// order is deterministic.
func sortByScore(scores []LabelScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].Label < scores[j].Label
	})
}
