package rag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/datalens/ai"
	"github.com/poiesic/datalens/ai/mock"
	"github.com/poiesic/datalens/retry"
)

// newFastPolicy keeps the 3-attempt shape but shrinks backoffs so retry
// tests run in milliseconds.
func newFastPolicy() *retry.Policy {
	return retry.NewPolicy(classify,
		retry.WithRateLimitDelay(time.Millisecond),
		retry.WithTimeoutDelay(time.Millisecond),
	)
}

func TestSummarizeSuccess(t *testing.T) {
	generator := mock.NewGenerator()
	generator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "The dataset shows steady growth.", nil
	}

	gateway := NewGateway(generator)
	out := gateway.Summarize(context.Background(), "summarize this")
	assert.Equal(t, "The dataset shows steady growth.", out)
}

func TestSummarizeTimeoutThenSuccess(t *testing.T) {
	calls := 0
	generator := mock.NewGenerator()
	generator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls < 3 {
			return "", ai.ErrTimeout
		}
		return "recovered", nil
	}

	// Shrink the timeout backoff so the test runs fast; the retry shape
	// (3 attempts, retryable class) is what is under test.
	gateway := NewGateway(generator)
	gateway.summaryPolicy = newFastPolicy()

	out := gateway.Summarize(context.Background(), "p")
	assert.Equal(t, "recovered", out)
	assert.Equal(t, 3, calls)
}

func TestSummarizeExhaustionDegrades(t *testing.T) {
	calls := 0
	generator := mock.NewGenerator()
	generator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", ai.ErrTimeout
	}

	gateway := NewGateway(generator)
	gateway.summaryPolicy = newFastPolicy()

	out := gateway.Summarize(context.Background(), "p")
	assert.Equal(t, DegradedSummary, out)
	assert.Equal(t, 3, calls)
}

func TestSummarizeFatalErrorDegradesImmediately(t *testing.T) {
	calls := 0
	generator := mock.NewGenerator()
	generator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", errors.New("invalid api key")
	}

	gateway := NewGateway(generator)
	out := gateway.Summarize(context.Background(), "p")
	assert.Equal(t, DegradedSummary, out)
	assert.Equal(t, 1, calls)
}

func TestSuggestDegradedMessageDiffers(t *testing.T) {
	generator := mock.NewGenerator()
	generator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("boom")
	}

	gateway := NewGateway(generator)
	assert.Equal(t, DegradedSuggestions, gateway.Suggest(context.Background(), "p"))
	assert.NotEqual(t, DegradedSummary, DegradedSuggestions)
}

func TestSuggestSuccess(t *testing.T) {
	generator := mock.NewGenerator()
	generator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "- Expand capacity in Kadikoy\n- Audit Besiktas backbone", nil
	}

	gateway := NewGateway(generator)
	out := gateway.Suggest(context.Background(), "p")
	require.Contains(t, out, "Kadikoy")
}

func TestGatewayContextCancellation(t *testing.T) {
	generator := mock.NewGenerator()
	generator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", ai.ErrRateLimited
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Rate-limit backoff is far longer than the context deadline; the
	// gateway must give up and degrade instead of blocking.
	start := time.Now()
	out := NewGateway(generator).Summarize(ctx, "p")
	assert.Equal(t, DegradedSummary, out)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestParseSuggestions(t *testing.T) {
	raw := "- Expand network capacity in Kadikoy\n" +
		"• Audit the Besiktas backbone links\n" +
		"* Rebalance Uskudar traffic at peak hours\n" +
		"short\n" +
		"\n" +
		"Plan additional towers for the coastal regions\n" +
		"- Schedule maintenance windows for low-traffic days\n" +
		"- A sixth item that must be cut off by the cap"

	items := ParseSuggestions(raw)
	require.Len(t, items, 5)
	assert.Equal(t, "Expand network capacity in Kadikoy", items[0])
	assert.Equal(t, "Audit the Besiktas backbone links", items[1])
	assert.Equal(t, "Rebalance Uskudar traffic at peak hours", items[2])
	assert.Equal(t, "Plan additional towers for the coastal regions", items[3])
	assert.Equal(t, "Schedule maintenance windows for low-traffic days", items[4])
}

func TestParseSuggestionsEmptyAndNoise(t *testing.T) {
	assert.Empty(t, ParseSuggestions(""))
	assert.Empty(t, ParseSuggestions("ok\n- tiny\n\n\n"))
}
