package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ProviderID identifies a model provider integration (e.g., "openai", "mock").
type ProviderID string

// ErrNotConfigured is returned when a provider has no credentials.
var ErrNotConfigured = errors.New("model provider is not configured")

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Tool describes a function the model may call. Parameters is a JSON schema.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// ChatRequest is a single completion request. When ToolChoice is set the
// model is forced to call that tool.
type ChatRequest struct {
	Messages   []Message
	Tools      []Tool
	ToolChoice string
}

// ToolCall is one structured function invocation returned by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// LimitObservation is a rate limit reading taken from response headers.
type LimitObservation struct {
	Kind      string // "requests" or "tokens"
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// ChatResponse is the parsed model reply.
type ChatResponse struct {
	Model            string
	Content          string
	ToolCalls        []ToolCall
	PromptTokens     int
	CompletionTokens int
	Limits           []LimitObservation
}

// StatusError is a non-2xx reply from the provider.
type StatusError struct {
	StatusCode int
	Body       string
	Limits     []LimitObservation
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned HTTP %d", e.StatusCode)
}

// ChatModel is a hosted language model that supports tool calls.
type ChatModel interface {
	// ID returns the unique identifier for this provider
	ID() ProviderID

	// Complete sends one request and waits for the reply.
	Complete(ctx context.Context, req ChatRequest) (ChatResponse, error)
}
