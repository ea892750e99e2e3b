package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content string
	Usage   Usage
	Err     error
}

// MockProvider is a deterministic Provider for testing. It returns
// canned responses in FIFO order and records every request it saw.
// When the queue runs dry it repeats the last canned response, so a
// scorer fanning out N label requests can be fed with one entry.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	repeat    bool
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// NewRepeatingMockProvider creates a MockProvider that replays its last
// response forever instead of failing when the queue empties.
func NewRepeatingMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses, repeat: true}
}

// Generate returns the next canned response, or ErrProviderUnavailable
// when the queue is empty and repeat mode is off.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		return nil, &ErrProviderUnavailable{Err: nil}
	}

	resp := m.responses[0]
	if len(m.responses) > 1 || !m.repeat {
		m.responses = m.responses[1:]
	}

	if resp.Err != nil {
		return nil, resp.Err
	}

	return &Response{
		Content:    json.RawMessage(resp.Content),
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

// Name returns "mock".
func (m *MockProvider) Name() string {
	return "mock"
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
