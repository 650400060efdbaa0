package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Normalized stop reasons reported in Response.StopReason.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// compiled holds one compiled validator per *Schema. Schemas are package
// level values in the tutor and analysis packages, so the map stays small.
var compiled sync.Map // *Schema -> *jsonschema.Schema

// Validate checks raw JSON against the schema definition. Failures are
// reported as *ErrInvalidResponse carrying raw. A nil schema accepts
// anything.
func (s *Schema) Validate(raw json.RawMessage) error {
	if s == nil {
		return nil
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("%s: not JSON: %w", s.Name, err)}
	}

	v, err := s.validator()
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}
	if err := v.Validate(doc); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("%s: %w", s.Name, err)}
	}
	return nil
}

func (s *Schema) validator() (*jsonschema.Schema, error) {
	if v, ok := compiled.Load(s); ok {
		return v.(*jsonschema.Schema), nil
	}

	// The compiler wants decoded JSON values (float64, []any), not the Go
	// literals the definitions are written with.
	b, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", s.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", s.Name, err)
	}

	url := "mem://schemas/" + s.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("schema %s: %w", s.Name, err)
	}
	v, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", s.Name, err)
	}
	actual, _ := compiled.LoadOrStore(s, v)
	return actual.(*jsonschema.Schema), nil
}

// reply is what a vendor adapter extracted from its SDK response.
type reply struct {
	text  string
	stop  string
	model string
	usage Usage
}

// finish turns an adapter reply into a Response, enforcing the request
// schema. Structured replies cut off by the token limit are reported as
// ErrMaxTokensExceeded since they almost never parse.
func finish(req Request, r reply) (*Response, error) {
	if req.Schema == nil {
		return &Response{
			Content:    json.RawMessage(r.text),
			Usage:      r.usage,
			Model:      r.model,
			StopReason: r.stop,
		}, nil
	}

	content := json.RawMessage(strings.TrimSpace(r.text))
	if r.stop == StopMaxTokens {
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	if err := req.Schema.Validate(content); err != nil {
		return nil, err
	}
	return &Response{Content: content, Usage: r.usage, Model: r.model, StopReason: r.stop}, nil
}

// sessionTag derives an opaque per-session end-user id for vendor abuse
// tracking. Raw session ids never leave the process.
func sessionTag(ctx context.Context) string {
	id := SessionFrom(ctx)
	if id == "" {
		return ""
	}
	return "vidtutor-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
}

// resolveModel expands a short alias, passing unknown names through.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
