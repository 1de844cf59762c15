// Package client is the Go SDK for the blockgen generation endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rmax-ai/blockgen/pkg/diagram"
)

const (
	DefaultEndpoint = "http://127.0.0.1:8090"
	GeneratePath    = "/v1/generate-diagram"

	maxBody = 1 << 20
)

// Client is the blockgen SDK client. It never retries.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a new blockgen client.
// endpoint defaults to "http://127.0.0.1:8090" if empty.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http: &http.Client{
			// Generation waits on the model.
			Timeout: 90 * time.Second,
		},
	}
}

// Generate sends the description to the generation endpoint. Errors are one
// of *ValidationError, *RateLimitError, *QuotaError, *InvalidResponseError
// or *GenerationError. A returned diagram has passed diagram.Decode.
func (c *Client) Generate(ctx context.Context, description string) (diagram.Diagram, error) {
	// 1. Validate input locally
	description = strings.TrimSpace(description)
	if description == "" {
		return diagram.Diagram{}, &ValidationError{Message: "Description is required"}
	}

	// 2. Serialize
	body, err := json.Marshal(generateRequest{Description: description})
	if err != nil {
		return diagram.Diagram{}, &GenerationError{Message: "failed to marshal request", Err: err}
	}

	// 3. Create Request
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+GeneratePath, bytes.NewReader(body))
	if err != nil {
		return diagram.Diagram{}, &GenerationError{Message: "request_creation_failed", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	// 4. Send
	resp, err := c.http.Do(req)
	if err != nil {
		return diagram.Diagram{}, &GenerationError{Message: "service_unreachable", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return diagram.Diagram{}, &GenerationError{StatusCode: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	// 5. Handle HTTP Status Codes
	if resp.StatusCode != http.StatusOK {
		return diagram.Diagram{}, statusError(resp.StatusCode, raw)
	}

	// 6. Parse and validate
	return parseDiagram(raw)
}

// Template fetches the built-in default diagram from the service.
func (c *Client) Template(ctx context.Context) (diagram.Diagram, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/v1/template", nil)
	if err != nil {
		return diagram.Diagram{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return diagram.Diagram{}, &GenerationError{Message: "service_unreachable", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return diagram.Diagram{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return diagram.Diagram{}, statusError(resp.StatusCode, raw)
	}
	return parseDiagram(raw)
}

// Ping checks the health of the service.
func (c *Client) Ping(ctx context.Context) (Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/v1/health", nil)
	if err != nil {
		return Status{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Status{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Status{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return Status{}, err
	}

	return status, nil
}

func parseDiagram(raw []byte) (diagram.Diagram, error) {
	var out diagramResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return diagram.Diagram{}, &InvalidResponseError{Message: "response is not valid JSON", Err: err}
	}
	if len(out.Diagram) == 0 || bytes.Equal(out.Diagram, []byte("null")) {
		return diagram.Diagram{}, &InvalidResponseError{Message: "response has no diagram"}
	}
	// Decode rejects absent connections or components, which a plain
	// unmarshal would leave as nil slices.
	d, err := diagram.Decode(out.Diagram)
	if err != nil {
		return diagram.Diagram{}, &InvalidResponseError{Message: err.Error(), Err: err}
	}
	return d, nil
}

// statusError maps a non-200 reply to a typed error using the status code
// and, for 500s, the error message.
func statusError(status int, raw []byte) error {
	var body errorResponse
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		body.Error = http.StatusText(status)
	}
	msg := body.Error

	switch {
	case status == http.StatusBadRequest:
		return &ValidationError{Message: msg}
	case status == http.StatusTooManyRequests:
		return &RateLimitError{Message: msg}
	case status == http.StatusPaymentRequired:
		return &QuotaError{Message: msg}
	case status == http.StatusInternalServerError && strings.Contains(strings.ToLower(msg), "invalid diagram structure"):
		return &InvalidResponseError{Message: msg}
	default:
		return &GenerationError{StatusCode: status, Message: msg}
	}
}
