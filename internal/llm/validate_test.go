package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func scoreTestSchema() *Schema {
	return &Schema{
		Name:        "label-score",
		Description: "A relevance score",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"score": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
			},
			"required": []any{"score"},
		},
	}
}

func TestValidateResponse_ValidScore(t *testing.T) {
	raw := json.RawMessage(`{"score":85}`)
	if err := validateResponse(scoreTestSchema(), raw); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateResponse_MissingRequired(t *testing.T) {
	raw := json.RawMessage(`{}`)
	err := validateResponse(scoreTestSchema(), raw)
	if err == nil {
		t.Fatal("expected error for missing required field")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateResponse_WrongType(t *testing.T) {
	raw := json.RawMessage(`{"score":"eighty"}`)
	err := validateResponse(scoreTestSchema(), raw)
	if err == nil {
		t.Fatal("expected error for wrong type")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateResponse_OutOfRange(t *testing.T) {
	raw := json.RawMessage(`{"score":150}`)
	if err := validateResponse(scoreTestSchema(), raw); err == nil {
		t.Fatal("expected error for out-of-range score")
	}
}

func TestValidateResponse_MalformedJSON(t *testing.T) {
	raw := json.RawMessage(`{not json}`)
	err := validateResponse(scoreTestSchema(), raw)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	var invErr *ErrInvalidResponse
	if !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %T", err)
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	raw := json.RawMessage(`{"anything":"goes"}`)
	if err := validateResponse(nil, raw); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}
