package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_Script(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockText("What is the Calvin cycle?"),
	)
	mock.AddResponse(MockJSON(map[string]int{"score": 70}), MockResponse{Err: &ErrRateLimit{}})
	require.Equal(t, 4, mock.Pending())

	ctx := WithPurpose(context.Background(), PurposeAnalysis)
	first, err := mock.Generate(ctx, Request{System: "sys"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(first.Content))
	assert.Equal(t, 10, first.Usage.InputTokens)
	assert.Equal(t, StopEnd, first.StopReason)

	second, err := mock.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "What is the Calvin cycle?", second.Text())

	third, err := mock.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":70}`, string(third.Content))

	_, err = mock.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	require.ErrorAs(t, err, &rl)

	_, err = mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	require.ErrorAs(t, err, &unavail, "exhausted script")

	assert.Equal(t, 5, mock.CallCount())
	assert.Equal(t, "sys", mock.Calls[0].System)
	assert.Equal(t, []string{PurposeAnalysis, "unknown", "unknown", "unknown", "unknown"}, mock.Purposes)
	assert.Equal(t, "mock", mock.ModelID())
}

func TestMockJSON_MarshalError(t *testing.T) {
	r := MockJSON(make(chan int))
	assert.Error(t, r.Err)
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}
	if s := SessionFrom(ctx); s != "" {
		t.Fatalf("expected empty session, got %q", s)
	}

	ctx = WithSession(WithPurpose(ctx, PurposeEvaluation), "sess-1")
	if p := PurposeFrom(ctx); p != PurposeEvaluation {
		t.Fatalf("expected %q, got %q", PurposeEvaluation, p)
	}
	if s := SessionFrom(ctx); s != "sess-1" {
		t.Fatalf("expected 'sess-1', got %q", s)
	}
}

func TestResponseText(t *testing.T) {
	tests := []struct {
		name    string
		content json.RawMessage
		want    string
	}{
		{"raw text", json.RawMessage("  Score: 80/100\nGood work "), "Score: 80/100\nGood work"},
		{"json string", TextContent("What did the narrator compare cells to?"), "What did the narrator compare cells to?"},
		{"json object", json.RawMessage(`{"score":80}`), `{"score":80}`},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Response{Content: tt.content}
			if got := r.Text(); got != tt.want {
				t.Fatalf("Text() = %q, want %q", got, tt.want)
			}
		})
	}

	var nilResp *Response
	if nilResp.Text() != "" {
		t.Fatal("nil response should yield empty text")
	}
}

func TestConfig_Validate(t *testing.T) {
	withKey := func(c Config) Config {
		c.Retry.MaxAttempts = 1
		return c
	}
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", withKey(Config{Provider: ProviderAnthropic}), true},
		{"anthropic with key", withKey(Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "sk-test"}}), false},
		{"openai without key", withKey(Config{Provider: ProviderOpenAI}), true},
		{"openai with key", withKey(Config{Provider: ProviderOpenAI, OpenAI: OpenAIConfig{APIKey: "sk-test"}}), false},
		{"gemini with key", withKey(Config{Provider: ProviderGemini, Gemini: GeminiConfig{APIKey: "g"}}), false},
		{"openrouter without key", withKey(Config{Provider: ProviderOpenRouter}), true},
		{"mock needs no key", withKey(Config{Provider: ProviderMock}), false},
		{"unknown provider", withKey(Config{Provider: "unknown"}), true},
		{"zero attempts", Config{Provider: ProviderMock}, true},
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

func TestDefaultConfig_NoRetries(t *testing.T) {
	if got := DefaultConfig().Retry.MaxAttempts; got != 1 {
		t.Fatalf("default MaxAttempts = %d, want 1", got)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("VIDTUTOR_LLM_PROVIDER", "openai")
	t.Setenv("VIDTUTOR_OPENAI_API_KEY", "sk-env")
	t.Setenv("VIDTUTOR_OPENAI_MODEL", "gpt-4o")
	t.Setenv("VIDTUTOR_LLM_MAX_ATTEMPTS", "3")

	cfg := ConfigFromEnv()
	if cfg.Provider != "openai" || cfg.OpenAI.APIKey != "sk-env" || cfg.OpenAI.Model != "gpt-4o" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Fatalf("MaxAttempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
}

func TestDiscover(t *testing.T) {
	for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg := DefaultConfig()
	if !cfg.Discover() {
		t.Fatal("expected discovery to succeed")
	}
	if cfg.Provider != ProviderGemini || cfg.Gemini.APIKey != "g-key" {
		t.Fatalf("discovered %+v", cfg)
	}

	explicit := DefaultConfig()
	explicit.Anthropic.APIKey = "configured"
	if !explicit.Discover() || explicit.Provider != ProviderAnthropic || explicit.Gemini.APIKey != "" {
		t.Fatalf("configured key should win over discovery: %+v", explicit)
	}

	t.Setenv("GEMINI_API_KEY", "")
	none := DefaultConfig()
	if none.Discover() {
		t.Fatal("expected discovery to fail with no keys")
	}
}
