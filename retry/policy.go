package retry

import (
	"context"
	"log/slog"
	"time"
)

// Class categorizes an error for retry purposes.
type Class int

const (
	// ClassFatal means the error is not worth retrying.
	ClassFatal Class = iota
	// ClassRateLimited means the backend asked us to slow down.
	ClassRateLimited
	// ClassTimeout means the backend did not answer in time.
	ClassTimeout
)

// Classifier maps an error to its retry class.
type Classifier func(error) Class

// Policy retries an operation with fixed, class-dependent backoff.
// The zero value is not usable; construct with NewPolicy.
type Policy struct {
	maxAttempts    int
	rateLimitDelay time.Duration
	timeoutDelay   time.Duration
	classify       Classifier
	logger         *slog.Logger
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// WithMaxAttempts sets the attempt budget. Default is 3.
func WithMaxAttempts(n int) PolicyOption {
	return func(p *Policy) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithRateLimitDelay sets the wait after a rate-limit signal. Default 15s.
func WithRateLimitDelay(d time.Duration) PolicyOption {
	return func(p *Policy) {
		p.rateLimitDelay = d
	}
}

// WithTimeoutDelay sets the wait after a timeout signal. Default 5s.
func WithTimeoutDelay(d time.Duration) PolicyOption {
	return func(p *Policy) {
		p.timeoutDelay = d
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) PolicyOption {
	return func(p *Policy) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPolicy creates a retry policy with the given error classifier.
func NewPolicy(classify Classifier, opts ...PolicyOption) *Policy {
	p := &Policy{
		maxAttempts:    3,
		rateLimitDelay: 15 * time.Second,
		timeoutDelay:   5 * time.Second,
		classify:       classify,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Do runs the operation until it succeeds, a fatal error occurs, the
// attempt budget is exhausted, or the context is done. The error of the
// last attempt is returned.
func (p *Policy) Do(ctx context.Context, operation func() error) error {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		if attempt == p.maxAttempts {
			break
		}

		var delay time.Duration
		switch p.classify(lastErr) {
		case ClassRateLimited:
			delay = p.rateLimitDelay
			p.logger.Debug("rate limited, backing off", "attempt", attempt, "delay", delay)
		case ClassTimeout:
			delay = p.timeoutDelay
			p.logger.Debug("timed out, backing off", "attempt", attempt, "delay", delay)
		default:
			p.logger.Debug("fatal error, not retrying", "attempt", attempt, "err", lastErr)
			return lastErr
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}
