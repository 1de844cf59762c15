package api

import "github.com/rmax-ai/blockgen/pkg/diagram"

// GenerateRequest matches the POST /v1/generate-diagram body schema
type GenerateRequest struct {
	Description string `json:"description"`
}

// GenerateResponse matches the success response for POST /v1/generate-diagram
type GenerateResponse struct {
	Diagram diagram.Diagram `json:"diagram"`
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse matches the response for GET /v1/health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// User-facing error messages. Internal error text never reaches the body.
const (
	MsgDescriptionRequired = "Description is required"
	MsgRateLimited         = "Rate limit exceeded. Please try again later."
	MsgQuotaExhausted      = "AI credits exhausted. Please add credits to continue."
	MsgInvalidDiagram      = "Invalid diagram structure received from AI"
	MsgGenerationFailed    = "Failed to generate diagram"
	MsgNotConfigured       = "AI service is not configured"
	MsgMethodNotAllowed    = "method_not_allowed"
	MsgInternal            = "internal_server_error"
)
