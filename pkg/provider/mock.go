package provider

import (
	"context"
	"encoding/json"
	"sync"
)

// MockModel returns a canned reply and records every request.
type MockModel struct {
	mu       sync.Mutex
	id       ProviderID
	response ChatResponse
	err      error
	requests []ChatRequest
}

// NewMockModel creates a mock that answers every request with resp or err.
func NewMockModel(id string, resp ChatResponse, err error) *MockModel {
	return &MockModel{id: ProviderID(id), response: resp, err: err}
}

// NewToolCallResponse builds a reply carrying a single tool call whose
// arguments are args encoded as JSON.
func NewToolCallResponse(name string, args any) ChatResponse {
	raw, _ := json.Marshal(args)
	return ChatResponse{
		Model: "mock",
		ToolCalls: []ToolCall{
			{ID: "call_mock", Name: name, Arguments: raw},
		},
	}
}

func (m *MockModel) ID() ProviderID {
	return m.id
}

func (m *MockModel) Complete(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if err := ctx.Err(); err != nil {
		return ChatResponse{}, err
	}
	if m.err != nil {
		return ChatResponse{}, m.err
	}
	return m.response, nil
}

// Set replaces the canned reply.
func (m *MockModel) Set(resp ChatResponse, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = resp
	m.err = err
}

// Requests returns the requests received so far.
func (m *MockModel) Requests() []ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatRequest(nil), m.requests...)
}
