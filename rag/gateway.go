package rag

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/datalens/ai"
	"github.com/poiesic/datalens/retry"
)

// Degraded-mode fallback text. Returned whenever generation stays
// unavailable after the retry budget; callers always get a usable string.
const (
	DegradedSummary     = "AI analysis is currently unavailable, please try again later."
	DegradedSuggestions = "AI suggestions are currently unavailable, please try again later."
)

const (
	summaryRateLimitDelay    = 15 * time.Second
	suggestionRateLimitDelay = 20 * time.Second
	timeoutDelay             = 5 * time.Second
)

// Gateway generates summaries and suggestions through a classified
// retry policy: rate-limit errors wait out a long fixed backoff, timeouts
// a short one, anything else is fatal. Summaries and suggestions carry
// separate rate-limit budgets.
type Gateway struct {
	generator     ai.Generator
	summaryPolicy *retry.Policy
	suggestPolicy *retry.Policy
	logger        *slog.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithGatewayLogger sets the logger used by the gateway.
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// classify maps generation errors onto retry classes.
func classify(err error) retry.Class {
	switch {
	case ai.IsRateLimited(err):
		return retry.ClassRateLimited
	case ai.IsTimeout(err):
		return retry.ClassTimeout
	default:
		return retry.ClassFatal
	}
}

// NewGateway creates a gateway over the generator.
func NewGateway(generator ai.Generator, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		generator: generator,
		logger:    slog.Default().With("component", "gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}

	g.summaryPolicy = retry.NewPolicy(classify,
		retry.WithRateLimitDelay(summaryRateLimitDelay),
		retry.WithTimeoutDelay(timeoutDelay),
		retry.WithLogger(g.logger),
	)
	g.suggestPolicy = retry.NewPolicy(classify,
		retry.WithRateLimitDelay(suggestionRateLimitDelay),
		retry.WithTimeoutDelay(timeoutDelay),
		retry.WithLogger(g.logger),
	)
	return g
}

// Summarize runs the prompt through the model. On exhaustion or a fatal
// error it returns the degraded summary text instead of an error.
func (g *Gateway) Summarize(ctx context.Context, prompt string) string {
	return g.generate(ctx, g.summaryPolicy, prompt, DegradedSummary)
}

// Suggest runs the prompt through the model. On exhaustion or a fatal
// error it returns the degraded suggestions text instead of an error.
func (g *Gateway) Suggest(ctx context.Context, prompt string) string {
	return g.generate(ctx, g.suggestPolicy, prompt, DegradedSuggestions)
}

func (g *Gateway) generate(ctx context.Context, policy *retry.Policy, prompt, fallback string) string {
	var output string
	err := policy.Do(ctx, func() error {
		result, err := g.generator.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		output = result
		return nil
	})
	if err != nil {
		g.logger.Warn("generation degraded", "error", err)
		return fallback
	}
	return output
}

// ParseSuggestions extracts up to five actionable lines from raw model
// output. Bullet markers are stripped; lines of ten characters or fewer
// are considered noise and dropped.
func ParseSuggestions(raw string) []string {
	items := []string{}
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-•* \t")
		line = strings.TrimSpace(line)
		if len(line) > 10 {
			items = append(items, line)
		}
		if len(items) == 5 {
			break
		}
	}
	return items
}
