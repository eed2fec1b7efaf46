package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, cfg.EmbeddingHost, cfg.GenerationHost)
}

func TestConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://models.internal:8080"),
		WithEmbeddingModel("text-embedding-3-small"),
		WithGenerationModel("gpt-4o-mini"),
		WithAPIKey("secret"),
	)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://models.internal:8080/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://models.internal:8080/v1", cfg.GenerationHost)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-4o-mini", cfg.GenerationModel)
	assert.Equal(t, "secret", cfg.APIKey)
}

func TestConfigNormalizeAddsSuffix(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:11434/"))
	cfg.Normalize()
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
}

func TestConfigValidateMissingModel(t *testing.T) {
	cfg := NewConfig(WithEmbeddingModel(""))
	assert.Error(t, cfg.Validate())
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(ErrRateLimited))
	assert.True(t, IsRateLimited(fmt.Errorf("wrapped: %w", ErrRateLimited)))
	assert.True(t, IsRateLimited(errors.New("API returned 429 Too Many Requests")))
	assert.True(t, IsRateLimited(errors.New("rate limit exceeded")))
	assert.False(t, IsRateLimited(errors.New("boom")))
	assert.False(t, IsRateLimited(nil))
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(ErrTimeout))
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.True(t, IsTimeout(errors.New("upstream 504 gateway timeout")))
	assert.False(t, IsTimeout(errors.New("boom")))
	assert.False(t, IsTimeout(nil))
}
