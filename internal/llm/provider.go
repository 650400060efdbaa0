package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider generates one model reply. The tutor uses free-text replies for
// greetings, questions and hints, and schema-constrained JSON for answer
// grading and transcript analysis.
type Provider interface {
	// Generate returns the reply to req. When req.Schema is set the
	// vendor's structured output mode is used and Content is JSON that
	// validated against the schema.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the resolved vendor model id.
	ModelID() string
}

type Request struct {
	System   string
	Messages []Message

	// Schema requests structured output. Nil means free text.
	Schema *Schema

	MaxTokens int
	// Temperature in [0,1]. Zero leaves the vendor default in place.
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema names a JSON Schema definition. Name doubles as the vendor
// schema name and must be stable for the life of the process.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

type Response struct {
	// Content is validated JSON for structured requests and the raw reply
	// text otherwise. Use Text for the latter.
	Content json.RawMessage
	Usage   Usage
	// Model is the model that actually served the request.
	Model string
	// StopReason is StopEnd or StopMaxTokens.
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Text returns the response content as plain text. Content holding a JSON
// string literal is unquoted; anything else is returned verbatim.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Content, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(r.Content))
}

// TextContent wraps plain text as Response content.
func TextContent(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}
