package classify

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/abhisek/memotag/internal/llm"
	"github.com/abhisek/memotag/internal/ratelimit"
)

// Backend pairs one provider with its rate limiter bucket. The bucket
// is shared with every other chain (and any other caller) targeting the
// same provider.
type Backend struct {
	Provider llm.Provider
	Limiter  *ratelimit.Bucket
}

// Outcome is what a chain call produces. A chain never returns an
// error: total failure degrades to the NoScore sentinel.
type Outcome struct {
	// Score is the parsed score, or NoScore when nothing usable came
	// back from any source.
	Score int

	// Source is the provider name that produced the score, "heuristic"
	// for the degraded path, or "none" for NoScore.
	Source string
}

// Fallback is a deterministic pattern scorer a caller supplies for
// degraded mode. It runs only after every backend has failed.
type Fallback func(ScoreRequest) (int, bool)

// Chain tries backends in priority order and degrades to the caller's
// heuristic when all of them fail. Classification failures are a
// scoring quality problem, never a caller-visible error.
type Chain struct {
	backends []Backend
	timeout  time.Duration
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithCallTimeout overrides the per-call budget (default 10s). The same
// bound applies to the limiter wait and to the backend call itself.
func WithCallTimeout(d time.Duration) ChainOption {
	return func(c *Chain) { c.timeout = d }
}

// NewChain builds a fallback chain over the given backends. Order is
// priority: index 0 is the primary.
func NewChain(backends []Backend, opts ...ChainOption) *Chain {
	c := &Chain{
		backends: backends,
		timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Score runs one ScoreRequest through the chain. For each backend in
// order: wait for a rate-limit token (bounded), call the backend
// (bounded by the same per-call budget), parse the response. Any
// failure moves to the next backend. A response that arrives but does
// not parse is scored 0: the backend answered, the answer was just
// useless. When every backend fails, the caller's fallback gets its
// turn, and when that too is silent the sentinel NoScore comes back.
func (c *Chain) Score(ctx context.Context, req ScoreRequest, fallback Fallback) Outcome {
	for _, b := range c.backends {
		out, ok := c.scoreOne(ctx, b, req)
		if ok {
			return out
		}
		if ctx.Err() != nil {
			break
		}
	}

	if fallback != nil {
		if s, ok := fallback(req); ok {
			return Outcome{Score: clampScore(s), Source: "heuristic"}
		}
	}

	return Outcome{Score: NoScore, Source: "none"}
}

func (c *Chain) scoreOne(ctx context.Context, b Backend, req ScoreRequest) (Outcome, bool) {
	name := b.Provider.Name()

	if err := b.Limiter.WaitConsume(ctx, 1, c.timeout); err != nil {
		report(name, "rate limit", err)
		return Outcome{}, false
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := b.Provider.Generate(callCtx, buildRequest(req))
	if err != nil {
		report(name, "backend", err)
		return Outcome{}, false
	}

	score, ok := ParseScore(resp.Text())
	if !ok {
		// The provider responded; an unparsable answer means "no signal",
		// scored 0 rather than handed to the next provider.
		return Outcome{Score: 0, Source: name}, true
	}

	return Outcome{Score: score, Source: name}, true
}

// report notes a degraded backend on stderr. Scoring runs in detached
// goroutines, so failures must stay observable without propagating.
func report(provider, stage string, err error) {
	fmt.Fprintf(os.Stderr, "warning: %s %s failure, trying next: %v\n", provider, stage, err)
}
