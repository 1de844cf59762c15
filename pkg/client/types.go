package client

import "encoding/json"

// Status represents the health check response.
type Status struct {
	// Status is the health status string (e.g. "ok").
	Status string `json:"status"`
	// Version is the daemon version.
	Version string `json:"version"`
}

type generateRequest struct {
	Description string `json:"description"`
}

// diagramResponse is the success body of /v1/generate-diagram and /v1/template.
// Diagram is kept raw so it can go through diagram.Decode.
type diagramResponse struct {
	Diagram json.RawMessage `json:"diagram"`
}

type errorResponse struct {
	Error string `json:"error"`
}
