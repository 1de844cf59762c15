package client

import (
	"errors"
)

// Notification levels.
const (
	LevelInfo  = "info"
	LevelWarn  = "warning"
	LevelError = "error"
)

// Notification is a user-facing message for a failed request.
type Notification struct {
	Level   string
	Title   string
	Message string
}

// Notify maps an error from Generate to a message suitable for a toast or
// status line. It never exposes raw error chains.
func Notify(err error) Notification {
	var (
		validation *ValidationError
		rateLimit  *RateLimitError
		quota      *QuotaError
		invalid    *InvalidResponseError
		generation *GenerationError
	)

	switch {
	case err == nil:
		return Notification{Level: LevelInfo, Title: "Diagram generated", Message: "Your block diagram is ready."}
	case errors.As(err, &validation):
		return Notification{Level: LevelWarn, Title: "Description required", Message: "Please describe your product idea."}
	case errors.As(err, &rateLimit):
		return Notification{Level: LevelWarn, Title: "Rate limit exceeded", Message: "Too many requests. Please wait a moment and try again."}
	case errors.As(err, &quota):
		return Notification{Level: LevelError, Title: "Credits exhausted", Message: "AI credits are used up. Please add credits to continue."}
	case errors.As(err, &invalid):
		return Notification{Level: LevelError, Title: "Generation failed", Message: "The AI returned an invalid diagram. Please try again."}
	case errors.As(err, &generation):
		if generation.StatusCode == 0 {
			return Notification{Level: LevelError, Title: "Generation failed", Message: "Could not reach the diagram service."}
		}
		return Notification{Level: LevelError, Title: "Generation failed", Message: "Failed to generate diagram. Please try again."}
	default:
		return Notification{Level: LevelError, Title: "Generation failed", Message: "Failed to generate diagram. Please try again."}
	}
}
