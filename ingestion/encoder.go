package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/datalens/ai"
)

const (
	// DefaultBatchSize is the number of texts embedded per model call.
	DefaultBatchSize = 256

	// DefaultEncoderWorkers is the number of concurrent embedding batches.
	DefaultEncoderWorkers = 8
)

// Encoder computes embeddings for snippet texts in concurrent batches.
// Output order and count always match the input; every vector is
// normalized to unit length so downstream cosine ranking can use plain
// dot products.
type Encoder struct {
	embedder  ai.Embedder
	batchSize int
	workers   int
	logger    *slog.Logger
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithBatchSize sets the number of texts per embedding call.
func WithBatchSize(n int) EncoderOption {
	return func(e *Encoder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithEncoderWorkers sets the number of concurrent embedding batches.
func WithEncoderWorkers(n int) EncoderOption {
	return func(e *Encoder) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithEncoderLogger sets the logger used by the encoder.
func WithEncoderLogger(logger *slog.Logger) EncoderOption {
	return func(e *Encoder) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEncoder creates an encoder backed by the given embedder.
func NewEncoder(embedder ai.Embedder, opts ...EncoderOption) (*Encoder, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}

	e := &Encoder{
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		workers:   DefaultEncoderWorkers,
		logger:    slog.Default().With("component", "encoder"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Encode embeds all texts and returns one unit-length vector per text,
// in input order. Any batch failure aborts the whole call with an error
// wrapping ErrEmbeddingFailed.
func (e *Encoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	pool, err := ants.NewPool(e.workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	out := make([][]float32, len(texts))

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		errMu.Lock()
		defer errMu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			if err := ctx.Err(); err != nil {
				setErr(err)
				return
			}

			vectors, err := e.embedder.EmbedTexts(ctx, texts[start:end])
			if err != nil {
				setErr(fmt.Errorf("%w: batch %d-%d: %w", ErrEmbeddingFailed, start, end, err))
				return
			}
			if len(vectors) != end-start {
				setErr(fmt.Errorf("%w: batch %d-%d: got %d vectors for %d texts",
					ErrEmbeddingFailed, start, end, len(vectors), end-start))
				return
			}

			// Slots are disjoint per batch, no locking needed.
			for i, vector := range vectors {
				out[start+i] = NormalizeVector(vector)
			}
		})
		if submitErr != nil {
			wg.Done()
			setErr(fmt.Errorf("submit batch: %w", submitErr))
			break
		}
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	e.logger.Debug("encoded texts", "count", len(texts), "batchSize", e.batchSize)
	return out, nil
}
