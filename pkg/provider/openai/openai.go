package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rmax-ai/blockgen/pkg/provider"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 60 * time.Second

	maxErrorBody = 4 << 10
)

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	id      provider.ProviderID
	token   string
	baseURL string
	model   string
	client  *http.Client
}

func NewOpenAIProvider(id provider.ProviderID, token, baseURL, model string, timeout time.Duration) *OpenAIProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OpenAIProvider{
		id:      id,
		token:   token,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (o *OpenAIProvider) ID() provider.ProviderID {
	return o.id
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatToolFunc `json:"function"`
}

type chatToolFunc struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type chatToolChoice struct {
	Type     string       `json:"type"`
	Function chatToolFunc `json:"function"`
}

type chatCompletionRequest struct {
	Model      string             `json:"model"`
	Messages   []provider.Message `json:"messages"`
	Tools      []chatTool         `json:"tools,omitempty"`
	ToolChoice *chatToolChoice    `json:"tool_choice,omitempty"`
}

type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				ID       string `json:"id"`
				Type     string `json:"type"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Complete sends a chat completion request. Non-2xx replies are returned as
// *provider.StatusError so callers can map 429 and 402.
func (o *OpenAIProvider) Complete(ctx context.Context, req provider.ChatRequest) (provider.ChatResponse, error) {
	if o.token == "" {
		return provider.ChatResponse{}, provider.ErrNotConfigured
	}

	body := chatCompletionRequest{
		Model:    o.model,
		Messages: req.Messages,
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, chatTool{
			Type: "function",
			Function: chatToolFunc{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	if req.ToolChoice != "" {
		body.ToolChoice = &chatToolChoice{
			Type:     "function",
			Function: chatToolFunc{Name: req.ToolChoice},
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return provider.ChatResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(o.baseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return provider.ChatResponse{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+o.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return provider.ChatResponse{}, fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	limits := extractLimits(resp.Header, time.Now())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return provider.ChatResponse{}, &provider.StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(errBody),
			Limits:     limits,
		}
	}

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return provider.ChatResponse{}, fmt.Errorf("failed to decode chat completion: %w", err)
	}

	out := provider.ChatResponse{
		Model:            parsed.Model,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
		Limits:           limits,
	}
	if len(parsed.Choices) > 0 {
		msg := parsed.Choices[0].Message
		out.Content = msg.Content
		for _, tc := range msg.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, provider.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: json.RawMessage(tc.Function.Arguments),
			})
		}
	}
	return out, nil
}

// extractLimits reads the x-ratelimit-* header pairs for requests and
// tokens. Reset values look like "100ms" or "6m0s".
func extractLimits(h http.Header, now time.Time) []provider.LimitObservation {
	var out []provider.LimitObservation
	for _, kind := range []string{"requests", "tokens"} {
		limitStr := h.Get("x-ratelimit-limit-" + kind)
		remStr := h.Get("x-ratelimit-remaining-" + kind)
		if limitStr == "" || remStr == "" {
			continue
		}
		limit, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil {
			continue
		}
		rem, err := strconv.ParseInt(remStr, 10, 64)
		if err != nil {
			continue
		}
		resetAt := now
		if d, err := time.ParseDuration(h.Get("x-ratelimit-reset-" + kind)); err == nil {
			resetAt = now.Add(d)
		}
		out = append(out, provider.LimitObservation{
			Kind:      kind,
			Limit:     limit,
			Remaining: rem,
			ResetAt:   resetAt,
		})
	}
	return out
}
