// Package engine turns a product description into a validated block diagram
// through a single forced tool call to a chat model.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/rmax-ai/blockgen/pkg/diagram"
	"github.com/rmax-ai/blockgen/pkg/provider"
)

var (
	ErrEmptyDescription = errors.New("description is required")
	ErrNotConfigured    = errors.New("model is not configured")
	ErrRateLimited      = errors.New("model provider rate limited the request")
	ErrQuotaExhausted   = errors.New("model provider credits exhausted")
	ErrInvalidOutput    = errors.New("invalid diagram structure received from model")
	ErrUpstream         = errors.New("model request failed")
)

// Generator issues generation requests. It keeps no per-request state.
type Generator struct {
	model  provider.ChatModel
	logger *slog.Logger
}

// NewGenerator creates a generator. A nil model makes every call fail with
// ErrNotConfigured.
func NewGenerator(model provider.ChatModel, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{model: model, logger: logger}
}

// Generate asks the model for a diagram of the described product. The
// returned diagram always has exactly diagram.BlockCount blocks.
func (g *Generator) Generate(ctx context.Context, description string) (d diagram.Diagram, err error) {
	start := time.Now()
	defer func() {
		GenerateDuration.Observe(time.Since(start).Seconds())
		GenerateTotal.WithLabelValues(Outcome(err)).Inc()
	}()

	description = strings.TrimSpace(description)
	if description == "" {
		return diagram.Diagram{}, ErrEmptyDescription
	}
	if g.model == nil {
		return diagram.Diagram{}, ErrNotConfigured
	}

	resp, err := g.model.Complete(ctx, buildRequest(description))
	if err != nil {
		return diagram.Diagram{}, g.classify(err)
	}
	UpstreamStatusTotal.WithLabelValues("200").Inc()
	g.observeLimits(resp.Limits)

	d, err = extractDiagram(resp)
	if err != nil {
		g.logger.Warn("invalid_model_output", "error", err, "model", resp.Model)
		return diagram.Diagram{}, err
	}

	for _, f := range diagram.Lint(d) {
		g.logger.Warn("diagram_lint", "kind", f.Kind, "message", f.Message)
	}
	g.logger.Debug("diagram_generated",
		"model", resp.Model,
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens,
		"connections", len(d.Connections),
	)
	return d, nil
}

func extractDiagram(resp provider.ChatResponse) (diagram.Diagram, error) {
	if len(resp.ToolCalls) == 0 {
		return diagram.Diagram{}, fmt.Errorf("%w: no tool call in response", ErrInvalidOutput)
	}
	call := resp.ToolCalls[0]
	if call.Name != ToolName {
		return diagram.Diagram{}, fmt.Errorf("%w: unexpected function %q", ErrInvalidOutput, call.Name)
	}
	d, err := diagram.Decode(call.Arguments)
	if err != nil {
		return diagram.Diagram{}, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}
	return d, nil
}

func (g *Generator) classify(err error) error {
	if errors.Is(err, provider.ErrNotConfigured) {
		return fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		g.logger.Warn("generation_aborted", "error", err)
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	var statusErr *provider.StatusError
	if !errors.As(err, &statusErr) {
		g.logger.Error("generation_failed", "error", err)
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	UpstreamStatusTotal.WithLabelValues(strconv.Itoa(statusErr.StatusCode)).Inc()
	g.observeLimits(statusErr.Limits)
	g.logger.Error("generation_failed", "status", statusErr.StatusCode, "body", statusErr.Body)

	switch statusErr.StatusCode {
	case 429:
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case 402:
		return fmt.Errorf("%w: %w", ErrQuotaExhausted, err)
	default:
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
}

func (g *Generator) observeLimits(limits []provider.LimitObservation) {
	if len(limits) == 0 {
		return
	}
	id := string(g.model.ID())
	for _, l := range limits {
		UpstreamRemaining.WithLabelValues(id, l.Kind).Set(float64(l.Remaining))
	}
}

// Outcome maps a Generate error to its metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrEmptyDescription):
		return OutcomeBadRequest
	case errors.Is(err, ErrNotConfigured):
		return OutcomeNotConfigured
	case errors.Is(err, ErrRateLimited):
		return OutcomeRateLimited
	case errors.Is(err, ErrQuotaExhausted):
		return OutcomeQuotaExhausted
	case errors.Is(err, ErrInvalidOutput):
		return OutcomeInvalidOutput
	default:
		return OutcomeUpstreamError
	}
}
