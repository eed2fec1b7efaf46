package rag

import "errors"

var (
	// ErrEmptyQuery indicates a ranked retrieval with no query text.
	ErrEmptyQuery = errors.New("empty query")

	// ErrQueryEmbeddingFailed indicates the query text could not be embedded.
	ErrQueryEmbeddingFailed = errors.New("query embedding failed")
)
