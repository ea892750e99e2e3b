package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// knownProviders are the provider names accepted in a chain.
var knownProviders = map[string]bool{
	"anthropic":  true,
	"openai":     true,
	"gemini":     true,
	"openrouter": true,
	"mock":       true,
}

// Config holds scoring backend configuration.
type Config struct {
	// Chain is the provider priority order for fallback. The first entry
	// is the primary; later entries are tried when earlier ones fail.
	Chain []string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single backend call, limiter wait included.
	// Default: 10s.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional override for OpenAI-compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.0-flash-exp"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures per-provider retry before the chain falls over
// to the next provider.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults. The retry
// budget is deliberately small: the fallback chain is the main recovery
// path, and every attempt spends from the same 10s call budget.
func DefaultConfig() Config {
	return Config{
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.0-flash-exp",
		},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     2 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 10 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values. MEMOTAG_PROVIDERS is a comma-separated
// priority chain, e.g. "anthropic,gemini".
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if chain := os.Getenv("MEMOTAG_PROVIDERS"); chain != "" {
		cfg.Chain = splitChain(chain)
	}

	if k := os.Getenv("MEMOTAG_ANTHROPIC_API_KEY"); k != "" {
		cfg.Anthropic.APIKey = k
	}
	if m := os.Getenv("MEMOTAG_ANTHROPIC_MODEL"); m != "" {
		cfg.Anthropic.Model = m
	}

	if k := os.Getenv("MEMOTAG_OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	}
	if m := os.Getenv("MEMOTAG_OPENAI_MODEL"); m != "" {
		cfg.OpenAI.Model = m
	}
	if u := os.Getenv("MEMOTAG_OPENAI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}

	if k := os.Getenv("MEMOTAG_GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	}
	if m := os.Getenv("MEMOTAG_GEMINI_MODEL"); m != "" {
		cfg.Gemini.Model = m
	}

	if k := os.Getenv("MEMOTAG_OPENROUTER_API_KEY"); k != "" {
		cfg.OpenRouter.APIKey = k
	}
	if m := os.Getenv("MEMOTAG_OPENROUTER_MODEL"); m != "" {
		cfg.OpenRouter.Model = m
	}

	if d := os.Getenv("MEMOTAG_LLM_TIMEOUT"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil && parsed > 0 {
			cfg.Timeout = parsed
		}
	}

	if len(cfg.Chain) == 0 {
		cfg.Chain = cfg.discoverChain()
	}

	return cfg
}

func splitChain(s string) []string {
	var chain []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part != "" {
			chain = append(chain, part)
		}
	}
	return chain
}

// discoverChain probes standard API key env vars and builds a chain from
// every provider whose key is present, in priority order
// (Anthropic → Gemini → OpenAI → OpenRouter).
func (c *Config) discoverChain() []string {
	var chain []string

	if c.Anthropic.APIKey == "" {
		c.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.OpenRouter.APIKey == "" {
		c.OpenRouter.APIKey = os.Getenv("OPENROUTER_API_KEY")
	}

	if c.Anthropic.APIKey != "" {
		chain = append(chain, "anthropic")
	}
	if c.Gemini.APIKey != "" {
		chain = append(chain, "gemini")
	}
	if c.OpenAI.APIKey != "" {
		chain = append(chain, "openai")
	}
	if c.OpenRouter.APIKey != "" {
		chain = append(chain, "openrouter")
	}

	return chain
}

// Validate checks that every chained provider is known and has its
// required API key set.
func (c Config) Validate() error {
	if len(c.Chain) == 0 {
		return fmt.Errorf("no scoring providers configured (set MEMOTAG_PROVIDERS or an API key env var)")
	}

	for _, name := range c.Chain {
		if !knownProviders[name] {
			return fmt.Errorf("unknown scoring provider: %q", name)
		}
		switch name {
		case "anthropic":
			if c.Anthropic.APIKey == "" {
				return fmt.Errorf("MEMOTAG_ANTHROPIC_API_KEY is required for the anthropic provider")
			}
		case "openai":
			if c.OpenAI.APIKey == "" {
				return fmt.Errorf("MEMOTAG_OPENAI_API_KEY is required for the openai provider")
			}
		case "gemini":
			if c.Gemini.APIKey == "" {
				return fmt.Errorf("MEMOTAG_GEMINI_API_KEY is required for the gemini provider")
			}
		case "openrouter":
			if c.OpenRouter.APIKey == "" {
				return fmt.Errorf("MEMOTAG_OPENROUTER_API_KEY is required for the openrouter provider")
			}
		}
	}
	return nil
}
