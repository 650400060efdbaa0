package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatServer answers chat completion calls with a fixed status and body,
// capturing the decoded request.
func chatServer(t *testing.T, status int, body map[string]any) (*OpenAIProvider, *map[string]any) {
	t.Helper()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return newChatCompletions("test-key", srv.URL+"/v1/", "gpt-4o-mini"), &got
}

func completion(content, finish string) map[string]any {
	return map[string]any{
		"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func TestOpenAI_FreeText(t *testing.T) {
	p, got := chatServer(t, http.StatusOK, completion("What does chlorophyll absorb?", "stop"))

	ctx := WithSession(context.Background(), "sess-7")
	resp, err := p.Generate(ctx, Request{
		System:    "You are a Socratic tutor.",
		Messages:  []Message{{Role: RoleUser, Content: "Ask about chapter 1."}, {Role: RoleAssistant, Content: "Sure."}},
		MaxTokens: 256,
	})
	require.NoError(t, err)

	assert.Equal(t, "What does chlorophyll absorb?", resp.Text())
	assert.Equal(t, Usage{InputTokens: 40, OutputTokens: 25, TotalTokens: 65}, resp.Usage)
	assert.Equal(t, StopEnd, resp.StopReason)

	msgs, _ := (*got)["messages"].([]any)
	require.Len(t, msgs, 3)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "assistant", msgs[2].(map[string]any)["role"])
	assert.Equal(t, sessionTag(ctx), (*got)["user"])
	assert.NotContains(t, *got, "response_format")
}

func TestOpenAI_Structured(t *testing.T) {
	p, got := chatServer(t, http.StatusOK, completion(`{"score":82,"feedback":"Clear explanation"}`, "stop"))

	resp, err := p.Generate(context.Background(), Request{Schema: gradeSchema(), MaxTokens: 800})
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":82,"feedback":"Clear explanation"}`, string(resp.Content))

	format, _ := (*got)["response_format"].(map[string]any)
	require.NotNil(t, format)
	assert.Equal(t, "json_schema", format["type"])
	js, _ := format["json_schema"].(map[string]any)
	assert.Equal(t, "test-grade", js["name"])
	assert.Equal(t, true, js["strict"])
}

func TestOpenAI_StructuredFailures(t *testing.T) {
	t.Run("prose", func(t *testing.T) {
		p, _ := chatServer(t, http.StatusOK, completion("Score: 55/100\nPartially correct.", "stop"))
		_, err := p.Generate(context.Background(), Request{Schema: gradeSchema()})
		var inv *ErrInvalidResponse
		require.ErrorAs(t, err, &inv)
		assert.Equal(t, "Score: 55/100\nPartially correct.", string(inv.Content))
	})

	t.Run("length cut", func(t *testing.T) {
		p, _ := chatServer(t, http.StatusOK, completion(`{"score":55,"feedback":"Parti`, "length"))
		_, err := p.Generate(context.Background(), Request{Schema: gradeSchema()})
		var trunc *ErrMaxTokensExceeded
		require.ErrorAs(t, err, &trunc)
	})

	t.Run("no choices", func(t *testing.T) {
		body := completion("", "stop")
		body["choices"] = []any{}
		p, _ := chatServer(t, http.StatusOK, body)
		_, err := p.Generate(context.Background(), Request{})
		var inv *ErrInvalidResponse
		require.ErrorAs(t, err, &inv)
	})
}

func TestOpenAI_HTTPErrors(t *testing.T) {
	errBody := func(code string) map[string]any {
		return map[string]any{"error": map[string]any{"type": code, "message": code, "code": code}}
	}

	p, _ := chatServer(t, http.StatusTooManyRequests, errBody("rate_limit_exceeded"))
	_, err := p.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	assert.ErrorAs(t, err, &rl)

	p, _ = chatServer(t, http.StatusBadGateway, errBody("server_error"))
	_, err = p.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail)
}

func TestNewOpenAIProvider(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{Model: "gpt-4o"})
	require.Error(t, err)

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-mini", BaseURL: "https://proxy.example/v1"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4.1-mini", p.ModelID())
}
