package llm

import (
	"encoding/json"
	"fmt"
	"time"
)

// ErrRateLimit indicates the backend returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the backend returned content that does
// not conform to the requested schema, or no usable content at all.
// The classify layer converts it into a zero score, never a crash.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid backend response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the backend is down or unreachable.
// The fallback chain treats it as a signal to try the next provider.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scoring backend unavailable: %v", e.Err)
	}
	return "scoring backend unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }
