package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for bucket tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testConfig() BucketConfig {
	return BucketConfig{
		MaxTokens:      3,
		RefillTokens:   2,
		RefillInterval: time.Second,
	}
}

func TestTryConsume_DrainsToZero(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	b := NewBucketWithClock(testConfig(), clock.Now)

	for i := 0; i < 3; i++ {
		if !b.TryConsume(1) {
			t.Fatalf("consume %d should succeed", i)
		}
	}
	if b.TryConsume(1) {
		t.Fatal("bucket should be empty")
	}
}

func TestRefill_AfterOneInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	b := NewBucketWithClock(testConfig(), clock.Now)

	for i := 0; i < 3; i++ {
		b.TryConsume(1)
	}

	clock.Advance(time.Second)
	if got := b.Tokens(); got != 2 {
		t.Fatalf("expected 2 tokens after one interval, got %v", got)
	}
}

func TestRefill_CappedAtMax(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	b := NewBucketWithClock(testConfig(), clock.Now)

	b.TryConsume(1)
	clock.Advance(10 * time.Second)

	if got := b.Tokens(); got != 3 {
		t.Fatalf("expected tokens capped at 3, got %v", got)
	}
}

func TestRefill_KeepsFractionalProgress(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	b := NewBucketWithClock(testConfig(), clock.Now)

	for i := 0; i < 3; i++ {
		b.TryConsume(1)
	}

	// 1.5 intervals: one whole interval credits, the half carries over.
	clock.Advance(1500 * time.Millisecond)
	if got := b.Tokens(); got != 2 {
		t.Fatalf("expected 2 tokens, got %v", got)
	}

	// Another 0.5s completes the second interval.
	clock.Advance(500 * time.Millisecond)
	if got := b.Tokens(); got != 3 {
		t.Fatalf("expected 3 tokens (capped), got %v", got)
	}
}

func TestTryConsume_InsufficientLeavesTokens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	b := NewBucketWithClock(testConfig(), clock.Now)

	if b.TryConsume(5) {
		t.Fatal("consume beyond capacity should fail")
	}
	if got := b.Tokens(); got != 3 {
		t.Fatalf("failed consume must not subtract, got %v", got)
	}
}

func TestWaitConsume_ImmediateWhenAvailable(t *testing.T) {
	b := NewBucket(testConfig())

	if err := b.WaitConsume(context.Background(), 1, time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitConsume_TimesOut(t *testing.T) {
	cfg := BucketConfig{MaxTokens: 1, RefillTokens: 1, RefillInterval: time.Hour}
	b := NewBucket(cfg)
	b.TryConsume(1)

	err := b.WaitConsume(context.Background(), 1, 30*time.Millisecond)
	if !errors.Is(err, ErrWaitTimeout) {
		t.Fatalf("expected ErrWaitTimeout, got %v", err)
	}
}

func TestWaitConsume_SucceedsAfterRefill(t *testing.T) {
	cfg := BucketConfig{MaxTokens: 1, RefillTokens: 1, RefillInterval: 20 * time.Millisecond}
	b := NewBucket(cfg)
	b.TryConsume(1)

	if err := b.WaitConsume(context.Background(), 1, time.Second); err != nil {
		t.Fatalf("expected refill before timeout, got %v", err)
	}
}

func TestWaitConsume_ContextCancelled(t *testing.T) {
	cfg := BucketConfig{MaxTokens: 1, RefillTokens: 1, RefillInterval: time.Hour}
	b := NewBucket(cfg)
	b.TryConsume(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.WaitConsume(ctx, 1, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     BucketConfig
		wantErr bool
	}{
		{"valid", testConfig(), false},
		{"zero max", BucketConfig{MaxTokens: 0, RefillTokens: 1, RefillInterval: time.Second}, true},
		{"zero refill", BucketConfig{MaxTokens: 1, RefillTokens: 0, RefillInterval: time.Second}, true},
		{"zero interval", BucketConfig{MaxTokens: 1, RefillTokens: 1}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRegistry_SharedInstance(t *testing.T) {
	r := NewRegistry(DefaultBucketConfig(), nil)

	a := r.Get("anthropic")
	b := r.Get("anthropic")
	if a != b {
		t.Fatal("registry must return the same bucket for one provider")
	}
	if a == r.Get("openai") {
		t.Fatal("distinct providers must get distinct buckets")
	}
}

func TestRegistry_Overrides(t *testing.T) {
	small := BucketConfig{MaxTokens: 1, RefillTokens: 1, RefillInterval: time.Hour}
	r := NewRegistry(DefaultBucketConfig(), map[string]BucketConfig{"gemini": small})

	b := r.Get("gemini")
	if !b.TryConsume(1) {
		t.Fatal("first consume should succeed")
	}
	if b.TryConsume(1) {
		t.Fatal("override capacity is 1")
	}
}
