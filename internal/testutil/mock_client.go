// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"sync"

	"github.com/giantswarm/llm-bench/internal/llm"
)

// MockCompleter is a configurable llm.Completer used across test packages.
// It is safe for concurrent use.
type MockCompleter struct {
	// Responses maps the rendered prompt (llm.Prompt.String) to a canned text.
	Responses map[string]string

	// DefaultResponse is returned when no matching key is found in Responses.
	DefaultResponse string

	// Fail, when set, decides per request whether to return a failure result
	// carrying the given body instead of a response.
	Fail func(req llm.Request) (body string, failed bool)

	// Err, when set, is returned from every call.
	Err error

	mu       sync.Mutex
	requests []llm.Request
}

func (m *MockCompleter) Complete(_ context.Context, req llm.Request) (*llm.Result, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Fail != nil {
		if body, failed := m.Fail(req); failed {
			return &llm.Result{Error: body, Attempts: 1}, nil
		}
	}

	text, ok := m.Responses[req.Prompt.String()]
	if !ok {
		text = m.DefaultResponse
	}
	if text == "" {
		text = "mock response"
	}
	return &llm.Result{
		Response: &llm.Response{Choices: []llm.Choice{{Text: text, FinishReason: "stop"}}},
		Text:     llm.Text{text},
		Attempts: 1,
	}, nil
}

// Calls returns the number of Complete invocations.
func (m *MockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every request received, in arrival order.
func (m *MockCompleter) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.requests...)
}
