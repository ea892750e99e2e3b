package llm

import (
	"context"
	"encoding/json"
)

// Provider is the uniform adapter over one scoring backend. Adapters are
// stateless: submit a prompt, get text back. Everything above this layer
// (rate limiting, fallback order, score parsing) lives in the classify
// package.
type Provider interface {
	// Generate sends a prompt and returns the raw response. When the
	// request carries a Schema, providers that support structured output
	// return JSON conforming to it; the response is validated before it
	// is handed back.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider family identity ("anthropic", "openai",
	// "gemini", "openrouter", "mock"). Rate limiter buckets are keyed by
	// this value.
	Name() string

	// ModelID returns the concrete model this provider is configured to use.
	ModelID() string
}

// Request describes a single backend call.
type Request struct {
	// System sets the backend's role and constraints.
	System string

	// Messages is the conversation. Classification is single-turn, so
	// this is almost always one user message.
	Messages []Message

	// Schema, when set, asks the provider for structured JSON output
	// conforming to the definition. When nil the response is free text.
	Schema *Schema

	// MaxTokens bounds the response length. Score responses are tiny;
	// adapters apply a small default when this is zero.
	MaxTokens int

	// Temperature controls randomness. Zero (the default) keeps scoring
	// deterministic.
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema names a JSON Schema the response must conform to.
type Schema struct {
	// Name identifies the schema, kebab-case ("label-score").
	Name string

	// Description guides the backend's generation.
	Description string

	// Definition is the JSON Schema definition.
	Definition map[string]any
}

// Response is the backend's output.
type Response struct {
	// Content is the raw output: validated JSON when a Schema was
	// requested, otherwise the text wrapped as a raw message.
	Content json.RawMessage

	// Usage reports token consumption.
	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Usage tracks token consumption for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Text returns the response content as a plain string.
func (r *Response) Text() string {
	return string(r.Content)
}

// defaultScoreMaxTokens bounds responses when the caller did not set a
// limit. A single integer plus JSON scaffolding fits comfortably.
const defaultScoreMaxTokens = 64

func effectiveMaxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultScoreMaxTokens
}
