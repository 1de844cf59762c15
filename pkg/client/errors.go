package client

import (
	"fmt"
)

// ValidationError reports bad caller input, such as an empty description.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}

// RateLimitError means the generation service is throttling requests. The
// caller should ask the user to retry later.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return "rate limited: " + e.Message
}

// QuotaError means the model provider's credits are exhausted.
type QuotaError struct {
	Message string
}

func (e *QuotaError) Error() string {
	return "quota exhausted: " + e.Message
}

// GenerationError is the catch-all for transport failures and unexpected
// statuses. StatusCode is zero when no response was received.
type GenerationError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *GenerationError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("generation failed: %s", e.Message)
	}
	return fmt.Sprintf("generation failed (HTTP %d): %s", e.StatusCode, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// InvalidResponseError means the model output did not describe a valid
// diagram. Nothing from the response should be rendered.
type InvalidResponseError struct {
	Message string
	Err     error
}

func (e *InvalidResponseError) Error() string {
	return "invalid response: " + e.Message
}

func (e *InvalidResponseError) Unwrap() error {
	return e.Err
}
