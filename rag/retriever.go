// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/datalens/ai"
	"github.com/poiesic/datalens/core"
	"github.com/poiesic/datalens/ingestion"
	"github.com/poiesic/datalens/storage"
)

// DefaultRetrieveTimeout bounds a single retrieval round trip.
const DefaultRetrieveTimeout = 30 * time.Second

// Retriever fetches snippets for a token. With topK > 0 the query is
// embedded and results are ranked by vector similarity; with topK <= 0
// all snippets come back in insertion order, no embedding involved.
type Retriever struct {
	repo     storage.RecordRepository
	embedder ai.Embedder
	timeout  time.Duration
	logger   *slog.Logger
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever)

// WithRetrieveTimeout bounds each retrieval call.
func WithRetrieveTimeout(d time.Duration) RetrieverOption {
	return func(r *Retriever) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRetrieverLogger sets the logger used by the retriever.
func WithRetrieverLogger(logger *slog.Logger) RetrieverOption {
	return func(r *Retriever) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRetriever creates a retriever over the repository and embedder.
func NewRetriever(repo storage.RecordRepository, embedder ai.Embedder, opts ...RetrieverOption) (*Retriever, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}

	r := &Retriever{
		repo:     repo,
		embedder: embedder,
		timeout:  DefaultRetrieveTimeout,
		logger:   slog.Default().With("component", "retriever"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Retrieve returns snippet records for the token. A token with no
// records yields an empty slice, not an error.
func (r *Retriever) Retrieve(ctx context.Context, token, query string, topK int) ([]*core.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if topK <= 0 {
		return r.repo.GetRecordsByToken(ctx, token)
	}

	if query == "" {
		return nil, ErrEmptyQuery
	}

	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryEmbeddingFailed, err)
	}
	vector = ingestion.NormalizeVector(vector)

	records, err := r.repo.SearchSimilar(ctx, token, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	r.logger.Debug("retrieved snippets", "token", token, "topK", topK, "hits", len(records))
	return records, nil
}
