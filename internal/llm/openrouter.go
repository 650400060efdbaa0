package llm

import "errors"

const openRouterURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider routes chat completions through OpenRouter. Model ids
// are vendor-qualified ("anthropic/claude-3.5-sonnet") and used verbatim.
type OpenRouterProvider struct {
	*OpenAIProvider
}

func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter: API key is required")
	}
	base := cfg.BaseURL
	if base == "" {
		base = openRouterURL
	}
	return &OpenRouterProvider{newChatCompletions(cfg.APIKey, base, cfg.Model)}, nil
}
