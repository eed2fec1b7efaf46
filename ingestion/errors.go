package ingestion

import "errors"

var (
	// ErrEmbeddingFailed indicates the embedding model failed for a batch.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrJobNotFound indicates no job is registered under the token.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobExists indicates a job is already registered under the token.
	ErrJobExists = errors.New("job already exists")

	// ErrInputMismatch indicates texts and vectors differ in length.
	ErrInputMismatch = errors.New("texts and vectors length mismatch")
)
