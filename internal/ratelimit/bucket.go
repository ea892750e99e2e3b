// Package ratelimit implements a token bucket shared by every caller
// targeting the same scoring provider. The bucket is the single point of
// cross-call coordination in the classification pipeline.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrWaitTimeout indicates WaitConsume gave up before tokens freed up.
// Callers treat it as a recoverable failure (fall back to the next
// provider), never as fatal.
var ErrWaitTimeout = errors.New("rate limit wait timed out")

// BucketConfig describes a token bucket.
type BucketConfig struct {
	// MaxTokens is the bucket capacity.
	MaxTokens float64

	// RefillTokens is how many tokens are added per RefillInterval.
	RefillTokens float64

	// RefillInterval is the refill period.
	RefillInterval time.Duration
}

// DefaultBucketConfig returns a conservative per-provider default:
// 10 requests burst, 10 more per minute.
func DefaultBucketConfig() BucketConfig {
	return BucketConfig{
		MaxTokens:      10,
		RefillTokens:   10,
		RefillInterval: time.Minute,
	}
}

// Validate checks the configuration for startup errors.
func (c BucketConfig) Validate() error {
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %v", c.MaxTokens)
	}
	if c.RefillTokens <= 0 {
		return fmt.Errorf("refill tokens must be positive, got %v", c.RefillTokens)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("refill interval must be positive, got %v", c.RefillInterval)
	}
	return nil
}

// Bucket is a token bucket rate limiter. All state mutation happens under
// a single mutex, so concurrent scorers can share one instance safely.
type Bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	cfg        BucketConfig

	// now is injectable for tests. Defaults to time.Now.
	now func() time.Time
}

// NewBucket creates a full bucket.
func NewBucket(cfg BucketConfig) *Bucket {
	b := &Bucket{
		tokens: cfg.MaxTokens,
		cfg:    cfg,
		now:    time.Now,
	}
	b.lastRefill = b.now()
	return b
}

// NewBucketWithClock creates a bucket with an injected clock for tests.
func NewBucketWithClock(cfg BucketConfig, now func() time.Time) *Bucket {
	b := &Bucket{
		tokens: cfg.MaxTokens,
		cfg:    cfg,
		now:    now,
	}
	b.lastRefill = b.now()
	return b
}

// refillLocked credits tokens for whole elapsed refill intervals.
// lastRefill advances by the consumed intervals rather than to the
// current instant, so fractional progress toward the next interval is
// never lost. Caller must hold b.mu.
func (b *Bucket) refillLocked() {
	elapsed := b.now().Sub(b.lastRefill)
	if elapsed < b.cfg.RefillInterval {
		return
	}

	intervals := int64(elapsed / b.cfg.RefillInterval)
	b.tokens += float64(intervals) * b.cfg.RefillTokens
	if b.tokens > b.cfg.MaxTokens {
		b.tokens = b.cfg.MaxTokens
	}
	b.lastRefill = b.lastRefill.Add(time.Duration(intervals) * b.cfg.RefillInterval)
}

// TryConsume atomically takes n tokens if available. Non-blocking.
func (b *Bucket) TryConsume(n float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked()
	if b.tokens < n {
		return false
	}
	b.tokens -= n
	return true
}

// WaitConsume blocks until n tokens are available or the timeout elapses.
// It polls rather than reserving: the poll interval is min(100ms, refill
// interval) so a fast bucket is observed promptly. Returns ErrWaitTimeout
// on expiry and the context error on cancellation.
func (b *Bucket) WaitConsume(ctx context.Context, n float64, timeout time.Duration) error {
	if b.TryConsume(n) {
		return nil
	}

	poll := 100 * time.Millisecond
	if b.cfg.RefillInterval < poll {
		poll = b.cfg.RefillInterval
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(poll)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrWaitTimeout
		case <-tick.C:
			if b.TryConsume(n) {
				return nil
			}
		}
	}
}

// Tokens reports the currently available tokens after refill. Intended
// for diagnostics.
func (b *Bucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	return b.tokens
}
