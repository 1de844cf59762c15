package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmax-ai/blockgen/pkg/provider"
)

func TestNewOpenAIProvider_Defaults(t *testing.T) {
	p := NewOpenAIProvider("test-openai", "fake-token", "", "", 0)

	assert.Equal(t, provider.ProviderID("test-openai"), p.ID())
	assert.Equal(t, DefaultBaseURL, p.baseURL)
	assert.Equal(t, DefaultModel, p.model)
	assert.Equal(t, DefaultTimeout, p.client.Timeout)
}

func TestComplete_ToolCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer fake-token", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "test-model", req["model"])
		choice := req["tool_choice"].(map[string]any)
		assert.Equal(t, "generate_block_diagram", choice["function"].(map[string]any)["name"])
		tools := req["tools"].([]any)
		assert.Len(t, tools, 1)

		w.Header().Set("x-ratelimit-limit-requests", "5000")
		w.Header().Set("x-ratelimit-remaining-requests", "4999")
		w.Header().Set("x-ratelimit-reset-requests", "100ms")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"model": "test-model",
			"choices": [{"message": {"content": "", "tool_calls": [{
				"id": "call_1", "type": "function",
				"function": {"name": "generate_block_diagram", "arguments": "{\"blocks\":[],\"connections\":[]}"}
			}]}}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 340}
		}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider("openai", "fake-token", server.URL+"/v1/", "test-model", time.Second)
	resp, err := p.Complete(context.Background(), provider.ChatRequest{
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "a lamp"}},
		Tools: []provider.Tool{{
			Name:       "generate_block_diagram",
			Parameters: json.RawMessage(`{"type":"object"}`),
		}},
		ToolChoice: "generate_block_diagram",
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "generate_block_diagram", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"blocks":[],"connections":[]}`, string(resp.ToolCalls[0].Arguments))
	assert.Equal(t, 120, resp.PromptTokens)
	assert.Equal(t, 340, resp.CompletionTokens)

	require.Len(t, resp.Limits, 1)
	assert.Equal(t, "requests", resp.Limits[0].Kind)
	assert.Equal(t, int64(4999), resp.Limits[0].Remaining)
}

func TestComplete_StatusError(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusPaymentRequired, http.StatusBadGateway} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"nope"}}`))
		}))

		p := NewOpenAIProvider("openai", "fake-token", server.URL, "", time.Second)
		_, err := p.Complete(context.Background(), provider.ChatRequest{})
		server.Close()

		var statusErr *provider.StatusError
		require.True(t, errors.As(err, &statusErr), "status %d", status)
		assert.Equal(t, status, statusErr.StatusCode)
		assert.Contains(t, statusErr.Body, "nope")
	}
}

func TestComplete_NotConfigured(t *testing.T) {
	p := NewOpenAIProvider("openai", "", "http://127.0.0.1:1", "", time.Second)
	_, err := p.Complete(context.Background(), provider.ChatRequest{})
	assert.True(t, errors.Is(err, provider.ErrNotConfigured))
}

func TestExtractLimits(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	h := http.Header{}
	h.Set("x-ratelimit-limit-tokens", "160000")
	h.Set("x-ratelimit-remaining-tokens", "159000")
	h.Set("x-ratelimit-reset-tokens", "2s")
	h.Set("x-ratelimit-limit-requests", "bogus")
	h.Set("x-ratelimit-remaining-requests", "1")

	limits := extractLimits(h, now)
	require.Len(t, limits, 1)
	assert.Equal(t, provider.LimitObservation{
		Kind:      "tokens",
		Limit:     160000,
		Remaining: 159000,
		ResetAt:   now.Add(2 * time.Second),
	}, limits[0])
}
