package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one scripted reply. A non-nil Err is returned instead of
// a Response.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockText scripts a free-text reply.
func MockText(s string) MockResponse { return MockResponse{Content: TextContent(s)} }

// MockJSON scripts a structured reply by marshalling v.
func MockJSON(v any) MockResponse {
	b, err := json.Marshal(v)
	if err != nil {
		return MockResponse{Err: err}
	}
	return MockResponse{Content: b}
}

// MockProvider replays scripted replies in order. It backs the "mock"
// provider setting and every test that drives the tutor.
//
// Calls and Purposes grow in step: Purposes[i] is the purpose label the
// i-th request was made under.
type MockProvider struct {
	mu       sync.Mutex
	script   []MockResponse
	Calls    []Request
	Purposes []string
}

func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

func (m *MockProvider) ModelID() string { return "mock" }

// Generate pops the next scripted reply. An exhausted script behaves like
// an unreachable vendor. Content is returned unvalidated so tests can feed
// off-schema replies straight to the caller.
func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.Purposes = append(m.Purposes, PurposeFrom(ctx))
	if len(m.script) == 0 {
		m.mu.Unlock()
		return nil, &ErrProviderUnavailable{}
	}
	next := m.script[0]
	m.script = m.script[1:]
	m.mu.Unlock()

	if next.Err != nil {
		return nil, next.Err
	}
	return &Response{Content: next.Content, Usage: next.Usage, Model: "mock", StopReason: StopEnd}, nil
}

// AddResponse appends to the script.
func (m *MockProvider) AddResponse(resp ...MockResponse) {
	m.mu.Lock()
	m.script = append(m.script, resp...)
	m.mu.Unlock()
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// Pending is the number of scripted replies not yet consumed.
func (m *MockProvider) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.script)
}
