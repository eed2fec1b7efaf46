// Package config loads process-level configuration from the environment.
// A .env file in the working directory is applied first when present, so
// local development does not need exported variables.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config carries the settings of one datalens process.
type Config struct {
	// DataDir is the BadgerDB directory used when PostgresURL is empty.
	DataDir string

	// PostgresURL selects the pgvector backend when set.
	PostgresURL string

	// AIHost is the base URL of the OpenAI-compatible model server.
	AIHost string

	// EmbeddingModel and GenerationModel name the models to use.
	EmbeddingModel  string
	GenerationModel string

	// APIKey authenticates against hosted model services.
	APIKey string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// Load reads configuration from the environment, after applying a .env
// file if one exists. Missing variables fall back to local defaults.
func Load() *Config {
	godotenv.Load()

	return &Config{
		DataDir:         envOr("DATALENS_DATA_DIR", "data"),
		PostgresURL:     os.Getenv("DATALENS_POSTGRES_URL"),
		AIHost:          envOr("DATALENS_AI_HOST", "http://localhost:11434/v1"),
		EmbeddingModel:  envOr("DATALENS_EMBEDDING_MODEL", "all-minilm"),
		GenerationModel: envOr("DATALENS_GENERATION_MODEL", "qwen2.5:3b"),
		APIKey:          envOr("DATALENS_API_KEY", "none"),
		LogLevel:        envOr("DATALENS_LOG_LEVEL", "info"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
