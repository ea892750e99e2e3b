package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/abhisek/memotag/internal/llm"
)

const scoreSystemPrompt = `You judge how well a label fits a piece of text.
Respond with a single integer from 0 to 100, where 0 means the label is
entirely irrelevant and 100 means the label is a perfect fit. Output the
integer only, no explanation.`

// scoreSchema asks structured-output backends for {"score": n}. Free
// text integers are still accepted by the parser, so backends without
// structured output degrade gracefully.
var scoreSchema = &llm.Schema{
	Name:        "label-score",
	Description: "Relevance score for a candidate label against a text",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "integer",
				"description": "Relevance from 0 (irrelevant) to 100 (perfect fit)",
			},
		},
		"required": []any{"score"},
	},
}

// buildRequest renders one ScoreRequest as a backend request.
func buildRequest(req ScoreRequest) llm.Request {
	var b strings.Builder
	b.WriteString("Text:\n")
	b.WriteString(req.SubjectText)
	b.WriteString("\n")

	if len(req.AuxiliaryCtx) > 0 {
		b.WriteString("\nContext:\n")
		for _, aux := range req.AuxiliaryCtx {
			b.WriteString("- ")
			b.WriteString(aux)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nLabel: ")
	b.WriteString(req.CandidateLabel)

	return llm.Request{
		System:   scoreSystemPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: b.String()}},
		Schema:   scoreSchema,
	}
}

// scoreJSON matches {"score": n} with arbitrary whitespace.
var (
	scoreJSONPattern = regexp.MustCompile(`"score"\s*:\s*(-?\d+)`)
	firstIntPattern  = regexp.MustCompile(`-?\d+`)
)

// ParseScore extracts an integer score from a raw backend response and
// clamps it to [0,100]. Accepted shapes, in order: a bare integer,
// {"score": n} JSON, the first integer anywhere in the text. Anything
// else is a parse failure.
func ParseScore(raw string) (int, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}

	if n, err := strconv.Atoi(trimmed); err == nil {
		return clampScore(n), true
	}

	if m := scoreJSONPattern.FindStringSubmatch(trimmed); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return clampScore(n), true
		}
	}

	if m := firstIntPattern.FindString(trimmed); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return clampScore(n), true
		}
	}

	return 0, false
}
