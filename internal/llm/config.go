package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which back-end serves requests.
	Provider string `yaml:"provider"`

	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Retry      RetryConfig      `yaml:"retry"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "claude-haiku"
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"` // Default: "gpt-4o-mini"
	BaseURL string `yaml:"base_url"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "gemini-flash"
}

type OpenRouterConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"` // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
// MaxAttempts of 1 disables retries.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "anthropic/claude-3.5-sonnet"},
		Retry: RetryConfig{
			MaxAttempts: 1,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
	}
}

// ApplyEnv overrides fields of cfg with VIDTUTOR_* environment variables.
func ApplyEnv(cfg *Config) {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&cfg.Provider, "VIDTUTOR_LLM_PROVIDER")

	setString(&cfg.Anthropic.APIKey, "VIDTUTOR_ANTHROPIC_API_KEY")
	setString(&cfg.Anthropic.Model, "VIDTUTOR_ANTHROPIC_MODEL")

	setString(&cfg.OpenAI.APIKey, "VIDTUTOR_OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "VIDTUTOR_OPENAI_MODEL")
	setString(&cfg.OpenAI.BaseURL, "VIDTUTOR_OPENAI_BASE_URL")

	setString(&cfg.Gemini.APIKey, "VIDTUTOR_GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "VIDTUTOR_GEMINI_MODEL")

	setString(&cfg.OpenRouter.APIKey, "VIDTUTOR_OPENROUTER_API_KEY")
	setString(&cfg.OpenRouter.Model, "VIDTUTOR_OPENROUTER_MODEL")
	setString(&cfg.OpenRouter.BaseURL, "VIDTUTOR_OPENROUTER_BASE_URL")

	if v := os.Getenv("VIDTUTOR_LLM_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry.MaxAttempts = n
		}
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	return cfg
}

// HasAPIKey reports whether the selected provider has a key configured.
func (c Config) HasAPIKey() bool {
	switch c.Provider {
	case ProviderAnthropic:
		return c.Anthropic.APIKey != ""
	case ProviderOpenAI:
		return c.OpenAI.APIKey != ""
	case ProviderGemini:
		return c.Gemini.APIKey != ""
	case ProviderOpenRouter:
		return c.OpenRouter.APIKey != ""
	case ProviderMock:
		return true
	}
	return false
}

// Discover fills in a provider from the vendor API key env vars when no
// VIDTUTOR_* key is configured. Probe order: Anthropic, OpenAI, Gemini,
// OpenRouter. Returns false when nothing was found.
func (c *Config) Discover() bool {
	if c.HasAPIKey() {
		return true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		c.Provider = ProviderAnthropic
		c.Anthropic.APIKey = k
		return true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		c.Provider = ProviderOpenAI
		c.OpenAI.APIKey = k
		return true
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		c.Provider = ProviderGemini
		c.Gemini.APIKey = k
		return true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		c.Provider = ProviderOpenRouter
		c.OpenRouter.APIKey = k
		return true
	}
	return false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOpenRouter:
		if !c.HasAPIKey() {
			return fmt.Errorf("VIDTUTOR_%s_API_KEY is required for the %s provider", envName(c.Provider), c.Provider)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

func envName(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI"
	case ProviderGemini:
		return "GEMINI"
	case ProviderOpenRouter:
		return "OPENROUTER"
	default:
		return "ANTHROPIC"
	}
}
