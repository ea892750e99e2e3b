package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/memotag/internal/store"
)

// BuildChain instantiates every provider named in cfg.Chain, in order,
// each wrapped with retry and event logging middleware. The returned
// slice preserves fallback priority: index 0 is the primary.
func BuildChain(ctx context.Context, cfg Config, eventRepo store.EventRepo) ([]Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	providers := make([]Provider, 0, len(cfg.Chain))
	for _, name := range cfg.Chain {
		p, err := newProvider(ctx, name, cfg)
		if err != nil {
			return nil, fmt.Errorf("initializing %s provider: %w", name, err)
		}

		// Middleware order: caller → retry → logging → base.
		if name != "mock" {
			p = WithRetry(WithLogging(p, eventRepo), cfg.Retry)
		}
		providers = append(providers, p)
	}

	return providers, nil
}

func newProvider(ctx context.Context, name string, cfg Config) (Provider, error) {
	switch name {
	case "anthropic":
		return NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		return NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		return NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown scoring provider: %q", name)
	}
}
