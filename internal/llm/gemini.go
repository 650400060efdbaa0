package llm

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"google.golang.org/genai"
)

var geminiAliases = map[string]string{
	"gemini-flash": "gemini-2.5-flash",
	"gemini-pro":   "gemini-2.5-pro",
	"gemini-lite":  "gemini-2.5-flash-lite",
}

// GeminiProvider calls the Gemini API. JSON Schema definitions are
// translated to the SDK's OpenAPI-flavoured schema type.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return &GeminiProvider{client: client, model: resolveModel(cfg.Model, geminiAliases)}, nil
}

func (p *GeminiProvider) ModelID() string { return p.model }

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, geminiConfig(req))
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			return nil, classifyStatus(apiErr.Code, 0, err)
		}
		return nil, &ErrProviderUnavailable{Err: err}
	}
	if fb := result.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, &ErrInvalidResponse{Err: fmt.Errorf("gemini: prompt blocked: %s", fb.BlockReason)}
	}

	r := reply{text: result.Text(), stop: StopEnd, model: p.model}
	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
		r.stop = StopMaxTokens
	}
	if u := result.UsageMetadata; u != nil {
		r.usage = Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	if result.ModelVersion != "" {
		r.model = result.ModelVersion
	}
	return finish(req, r)
}

func geminiConfig(req Request) *genai.GenerateContentConfig {
	conf := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}
	if req.Temperature > 0 {
		conf.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.System != "" {
		conf.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		conf.ResponseMIMEType = "application/json"
		conf.ResponseSchema = geminiSchema(req.Schema.Definition)
	}
	return conf
}

var geminiTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

// geminiSchema converts the subset of JSON Schema our definitions use.
// Properties are ordered required-first so the model emits scores before
// prose.
func geminiSchema(def map[string]any) *genai.Schema {
	s := &genai.Schema{Type: genai.TypeString}
	if t, ok := geminiTypes[stringOf(def["type"])]; ok {
		s.Type = t
	}
	s.Description = stringOf(def["description"])
	s.Required = stringsOf(def["required"])
	s.Enum = stringsOf(def["enum"])

	if v, ok := numberOf(def["minimum"]); ok {
		s.Minimum = &v
	}
	if v, ok := numberOf(def["maximum"]); ok {
		s.Maximum = &v
	}
	if v, ok := numberOf(def["minItems"]); ok {
		s.MinItems = genai.Ptr(int64(v))
	}
	if v, ok := numberOf(def["maxItems"]); ok {
		s.MaxItems = genai.Ptr(int64(v))
	}
	if items, ok := def["items"].(map[string]any); ok {
		s.Items = geminiSchema(items)
	}

	props, _ := def["properties"].(map[string]any)
	if len(props) == 0 {
		return s
	}
	s.Properties = make(map[string]*genai.Schema, len(props))
	for name, v := range props {
		if sub, ok := v.(map[string]any); ok {
			s.Properties[name] = geminiSchema(sub)
		}
	}
	s.PropertyOrdering = slices.Clone(s.Required)
	for _, name := range slices.Sorted(maps.Keys(s.Properties)) {
		if !slices.Contains(s.PropertyOrdering, name) {
			s.PropertyOrdering = append(s.PropertyOrdering, name)
		}
	}
	return s
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

// stringsOf accepts both []any (decoded JSON) and []string (Go literals).
func stringsOf(v any) []string {
	switch vs := v.(type) {
	case []string:
		return slices.Clone(vs)
	case []any:
		out := make([]string, 0, len(vs))
		for _, e := range vs {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func numberOf(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
