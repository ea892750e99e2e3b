package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/memotag/internal/classify"
	"github.com/abhisek/memotag/internal/llm"
	"github.com/abhisek/memotag/internal/ratelimit"
	"github.com/abhisek/memotag/internal/store"
)

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// bucketConfigFromEnv reads the per-provider rate limit. The same
// budget applies to every provider unless overridden in code; buckets
// are created once and shared across every chain in the process.
func bucketConfigFromEnv() ratelimit.BucketConfig {
	cfg := ratelimit.DefaultBucketConfig()
	if v := os.Getenv("MEMOTAG_RATE_LIMIT_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxTokens = float64(n)
			cfg.RefillTokens = float64(n)
			cfg.RefillInterval = time.Minute
		}
	}
	return cfg
}

// buildScorer assembles the scoring pipeline: provider chain from env
// config, one shared rate limit bucket per provider, default label set.
func buildScorer(ctx context.Context, s *store.Store) (*classify.Scorer, []classify.Label, error) {
	labels := classify.DefaultLabels()
	if err := classify.ValidateLabels(labels); err != nil {
		return nil, nil, err
	}

	cfg := llm.ConfigFromEnv()
	providers, err := llm.BuildChain(ctx, cfg, s.EventRepo())
	if err != nil {
		return nil, nil, fmt.Errorf("build provider chain: %w", err)
	}

	registry := ratelimit.NewRegistry(bucketConfigFromEnv(), nil)
	backends := make([]classify.Backend, 0, len(providers))
	for _, p := range providers {
		backends = append(backends, classify.Backend{
			Provider: p,
			Limiter:  registry.Get(p.Name()),
		})
	}

	chain := classify.NewChain(backends, classify.WithCallTimeout(cfg.Timeout))
	return classify.NewScorer(chain), labels, nil
}
