package llm

import (
	"context"
	"errors"
	"testing"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: `{"score":91}`, Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: `{"score":40}`},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"score":91}` {
		t.Fatalf("unexpected content: %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "second"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Content) != `{"score":40}` {
		t.Fatalf("unexpected content: %s", resp2.Content)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error from empty queue")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_RepeatingReplaysLastResponse(t *testing.T) {
	mock := NewRepeatingMockProvider(MockResponse{Content: `77`})

	for i := 0; i < 3; i++ {
		resp, err := mock.Generate(context.Background(), Request{})
		if err != nil {
			t.Fatalf("unexpected error on call %d: %v", i, err)
		}
		if string(resp.Content) != `77` {
			t.Fatalf("unexpected content on call %d: %s", i, resp.Content)
		}
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: `{}`})

	req := Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}
	_, _ = mock.Generate(context.Background(), req)

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if mock.Calls[0].System != "sys" {
		t.Fatalf("expected system 'sys', got %q", mock.Calls[0].System)
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	mock := NewMockProvider()
	if mock.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", mock.ModelID())
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, "classify-live")
	if p := PurposeFrom(ctx); p != "classify-live" {
		t.Fatalf("expected 'classify-live', got %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "empty chain",
			cfg:     Config{},
			wantErr: true,
		},
		{
			name:    "anthropic without key",
			cfg:     Config{Chain: []string{"anthropic"}},
			wantErr: true,
		},
		{
			name:    "anthropic with key",
			cfg:     Config{Chain: []string{"anthropic"}, Anthropic: AnthropicConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name: "full chain with keys",
			cfg: Config{
				Chain:     []string{"anthropic", "gemini"},
				Anthropic: AnthropicConfig{APIKey: "sk-test"},
				Gemini:    GeminiConfig{APIKey: "g-test"},
			},
			wantErr: false,
		},
		{
			name: "chain with one missing key",
			cfg: Config{
				Chain:     []string{"anthropic", "openai"},
				Anthropic: AnthropicConfig{APIKey: "sk-test"},
			},
			wantErr: true,
		},
		{
			name:    "mock needs no key",
			cfg:     Config{Chain: []string{"mock"}},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			cfg:     Config{Chain: []string{"unknown"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigFromEnv_ExplicitChain(t *testing.T) {
	t.Setenv("MEMOTAG_PROVIDERS", "Gemini, anthropic")
	t.Setenv("MEMOTAG_GEMINI_API_KEY", "g-test")
	t.Setenv("MEMOTAG_ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("MEMOTAG_LLM_TIMEOUT", "5s")

	cfg := ConfigFromEnv()
	if len(cfg.Chain) != 2 || cfg.Chain[0] != "gemini" || cfg.Chain[1] != "anthropic" {
		t.Fatalf("unexpected chain: %v", cfg.Chain)
	}
	if cfg.Timeout.Seconds() != 5 {
		t.Fatalf("unexpected timeout: %v", cfg.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config should validate: %v", err)
	}
}

func TestConfigFromEnv_DiscoversFromBareKeys(t *testing.T) {
	t.Setenv("MEMOTAG_PROVIDERS", "")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "oa-test")
	t.Setenv("OPENROUTER_API_KEY", "")

	cfg := ConfigFromEnv()
	if len(cfg.Chain) != 2 || cfg.Chain[0] != "anthropic" || cfg.Chain[1] != "openai" {
		t.Fatalf("unexpected discovered chain: %v", cfg.Chain)
	}
}
