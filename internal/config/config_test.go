package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if key, _, _ := strings.Cut(kv, "="); strings.HasPrefix(key, "VIDTUTOR_") {
			t.Setenv(key, "")
		}
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, SessionModeClient, cfg.Server.SessionMode)
	assert.Equal(t, 1, cfg.LLM.Retry.MaxAttempts)
	assert.True(t, cfg.Tutor.StructuredEvaluation)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  addr: ":9000"
  session_mode: server
  shutdown_timeout: 3s
llm:
  provider: openai
  openai:
    model: gpt-mini
  retry:
    max_attempts: 3
tutor:
  structured_evaluation: false
  evaluation:
    max_tokens: 1200
    temperature: 0.2
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, SessionModeServer, cfg.Server.SessionMode)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-mini", cfg.LLM.OpenAI.Model)
	assert.Equal(t, 3, cfg.LLM.Retry.MaxAttempts)
	assert.False(t, cfg.Tutor.StructuredEvaluation)
	assert.Equal(t, 1200, cfg.Tutor.Evaluation.MaxTokens)
	// Untouched fields keep their defaults.
	assert.Equal(t, 500, cfg.Tutor.Conversation.MaxTokens)
	assert.Equal(t, "claude-haiku", cfg.LLM.Anthropic.Model)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9000\"\n"), 0o644))

	t.Setenv("VIDTUTOR_ADDR", ":7000")
	t.Setenv("VIDTUTOR_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("VIDTUTOR_LLM_PROVIDER", "gemini")
	t.Setenv("VIDTUTOR_STRUCTURED_EVALUATION", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.False(t, cfg.Tutor.StructuredEvaluation)
}

func TestLoad_MalformedYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"bad session mode", func(c *Config) { c.Server.SessionMode = "shared" }, true},
		{"negative rate", func(c *Config) { c.Server.RateLimit = -1 }, true},
		{"zero burst", func(c *Config) { c.Server.RateBurst = 0 }, true},
		{"rate limit off", func(c *Config) { c.Server.RateLimit = 0; c.Server.RateBurst = 0 }, false},
		{"bad log mode", func(c *Config) { c.Log.Mode = "verbose" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("VIDTUTOR_LOG_LEVEL=debug\n"), 0o644))
	t.Setenv("VIDTUTOR_LOG_LEVEL", "")
	os.Unsetenv("VIDTUTOR_LOG_LEVEL")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "debug", os.Getenv("VIDTUTOR_LOG_LEVEL"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "absent.env")))
}
