package classify

import (
	"errors"
	"testing"
)

func TestTierFor(t *testing.T) {
	cases := []struct {
		score int
		want  Tier
	}{
		{100, TierDefinite},
		{98, TierDefinite},
		{95, TierDefinite},
		{94, TierHigh},
		{85, TierHigh},
		{84, TierModerate},
		{72, TierModerate},
		{70, TierModerate},
		{69, TierLow},
		{60, TierLow},
		{59, TierInsufficient},
		{0, TierInsufficient},
	}
	for _, tc := range cases {
		if got := TierFor(tc.score); got != tc.want {
			t.Errorf("TierFor(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestActionFor_Defaults(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		score int
		want  Action
	}{
		{98, ActionConfirm},
		{95, ActionConfirm},
		{94, ActionSuggest},
		{72, ActionSuggest},
		{60, ActionSuggest},
		{59, ActionSkip},
		{0, ActionSkip},
	}
	for _, tc := range cases {
		if got := ActionFor(tc.score, th); got != tc.want {
			t.Errorf("ActionFor(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

// tierRank orders tiers for the monotonicity check.
func tierRank(tier Tier) int {
	switch tier {
	case TierInsufficient:
		return 0
	case TierLow:
		return 1
	case TierModerate:
		return 2
	case TierHigh:
		return 3
	default:
		return 4
	}
}

func actionRank(a Action) int {
	switch a {
	case ActionSkip:
		return 0
	case ActionSuggest:
		return 1
	default:
		return 2
	}
}

func TestTierAndActionMonotonic(t *testing.T) {
	th := DefaultThresholds()
	for s := 1; s <= 100; s++ {
		if tierRank(TierFor(s)) < tierRank(TierFor(s-1)) {
			t.Fatalf("tier not monotonic at score %d", s)
		}
		if actionRank(ActionFor(s, th)) < actionRank(ActionFor(s-1, th)) {
			t.Fatalf("action not monotonic at score %d", s)
		}
	}
}

func TestThresholdsValidate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	bad := Thresholds{AutoConfirm: 60, Suggest: 95}
	err := bad.Validate()
	if !errors.Is(err, ErrInvalidThresholds) {
		t.Fatalf("expected ErrInvalidThresholds, got %v", err)
	}

	equal := Thresholds{AutoConfirm: 80, Suggest: 80}
	if equal.Validate() == nil {
		t.Fatal("equal thresholds must be rejected")
	}
}

func TestValidateLabels(t *testing.T) {
	good := []Label{{Name: "todo", Kind: KindCategory, Thresholds: DefaultThresholds()}}
	if err := ValidateLabels(good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []Label{{Name: "todo", Thresholds: Thresholds{AutoConfirm: 50, Suggest: 60}}}
	if ValidateLabels(bad) == nil {
		t.Fatal("inverted thresholds must fail at startup")
	}

	unnamed := []Label{{Thresholds: DefaultThresholds()}}
	if ValidateLabels(unnamed) == nil {
		t.Fatal("empty label name must fail")
	}
}

func TestDefaultLabelsValidate(t *testing.T) {
	if err := ValidateLabels(DefaultLabels()); err != nil {
		t.Fatalf("default labels must validate: %v", err)
	}
}

func TestParseScore(t *testing.T) {
	cases := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"87", 87, true},
		{" 87 \n", 87, true},
		{`{"score": 42}`, 42, true},
		{`{"score":100}`, 100, true},
		{"Score: 73 out of 100", 73, true},
		{"150", 100, true},  // clamped
		{"-20", 0, true},    // clamped
		{"", 0, false},
		{"no idea", 0, false},
		{"{}", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseScore(tc.raw)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("ParseScore(%q) = (%d, %v), want (%d, %v)", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}
