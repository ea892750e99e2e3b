package classify

import (
	"regexp"
	"strings"
	"unicode"
)

// Rule is a pattern fast-path: when it matches the subject text it
// yields a score without touching any backend or consuming rate-limit
// tokens. Rule scores are tuning knobs, adjustable per deployment.
type Rule interface {
	// Match returns the rule's score and true when the rule applies.
	Match(req ScoreRequest) (int, bool)
}

// KeywordRule matches when any keyword appears in the subject text,
// case-insensitively.
type KeywordRule struct {
	Score    int
	Keywords []string
}

func (r KeywordRule) Match(req ScoreRequest) (int, bool) {
	text := strings.ToLower(req.SubjectText)
	for _, kw := range r.Keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return r.Score, true
		}
	}
	return 0, false
}

// RegexpRule matches the subject text against a compiled expression.
type RegexpRule struct {
	Score   int
	Pattern *regexp.Regexp
}

func (r RegexpRule) Match(req ScoreRequest) (int, bool) {
	if r.Pattern.MatchString(req.SubjectText) {
		return r.Score, true
	}
	return 0, false
}

// ScriptRule matches when at least MinRunes runes of the subject text
// belong to the given Unicode script. Useful for language-ish tags
// ("japanese", "cyrillic") that never need a model call.
type ScriptRule struct {
	Score    int
	Script   *unicode.RangeTable
	MinRunes int
}

func (r ScriptRule) Match(req ScoreRequest) (int, bool) {
	min := r.MinRunes
	if min <= 0 {
		min = 3
	}
	n := 0
	for _, c := range req.SubjectText {
		if unicode.Is(r.Script, c) {
			n++
			if n >= min {
				return r.Score, true
			}
		}
	}
	return 0, false
}

// urlPattern recognizes http(s) links anywhere in the text.
var urlPattern = regexp.MustCompile(`https?://\S+`)

// fastPathScore evaluates a label's rules and returns the best matching
// score. Returns (NoScore, false) when no rule applies.
func fastPathScore(l Label, req ScoreRequest) (int, bool) {
	best := NoScore
	matched := false
	for _, rule := range l.Rules {
		if s, ok := rule.Match(req); ok {
			matched = true
			if s > best {
				best = s
			}
		}
	}
	if !matched {
		return NoScore, false
	}
	return clampScore(best), true
}

// DefaultLabels is the out-of-the-box label set. Categories are mutually
// suggestive (a note usually confirms one); tags are free-form add-ons.
func DefaultLabels() []Label {
	th := DefaultThresholds()
	return []Label{
		{
			Name: "todo", Kind: KindCategory, Thresholds: th,
			Rules: []Rule{
				KeywordRule{Score: 88, Keywords: []string{"todo", "don't forget", "remember to", "need to", "remind me"}},
			},
		},
		{
			Name: "link", Kind: KindCategory, Thresholds: th,
			Rules: []Rule{
				RegexpRule{Score: 96, Pattern: urlPattern},
			},
		},
		{
			Name: "idea", Kind: KindCategory, Thresholds: th,
			Rules: []Rule{
				KeywordRule{Score: 80, Keywords: []string{"idea:", "what if", "could build"}},
			},
		},
		{Name: "quote", Kind: KindCategory, Thresholds: th},
		{Name: "journal", Kind: KindCategory, Thresholds: th},
		{
			Name: "code", Kind: KindTag, Thresholds: th,
			Rules: []Rule{
				RegexpRule{Score: 90, Pattern: regexp.MustCompile("```|\\bfunc \\w+\\(|\\bdef \\w+\\(")},
			},
		},
		{
			Name: "japanese", Kind: KindTag, Thresholds: th,
			Rules: []Rule{
				ScriptRule{Score: 97, Script: unicode.Hiragana, MinRunes: 3},
				ScriptRule{Score: 97, Script: unicode.Katakana, MinRunes: 3},
			},
		},
	}
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
