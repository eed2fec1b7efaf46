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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/datalens/core"
	"github.com/poiesic/datalens/retry"
	"github.com/poiesic/datalens/storage"
)

const (
	// DefaultChunkSize is the number of records per bulk storage call.
	DefaultChunkSize = 5000

	// DefaultWriterWorkers is the number of concurrent bulk writes.
	DefaultWriterWorkers = 4
)

// ProgressFunc reports chunk completion for a token. Called after every
// finished chunk, successful or not.
type ProgressFunc func(token string, chunksDone, totalChunks int)

// Writer persists embedded records in partitioned concurrent bulk
// writes. Each chunk is written all-or-nothing on its own storage
// session; a failed chunk never rolls back its siblings.
type Writer struct {
	repo       storage.RecordRepository
	chunkSize  int
	workers    int
	attempts   int
	retryDelay time.Duration
	onProgress ProgressFunc
	logger     *slog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithChunkSize sets the number of records per bulk write.
func WithChunkSize(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.chunkSize = n
		}
	}
}

// WithWriterWorkers sets the number of concurrent bulk writes.
func WithWriterWorkers(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithChunkAttempts sets how many times a failed chunk write is
// attempted before it is counted as failed. Defaults to 1 (no retry).
func WithChunkAttempts(n int) WriterOption {
	return func(w *Writer) {
		if n > 0 {
			w.attempts = n
		}
	}
}

// WithChunkRetryDelay sets the base delay between chunk write attempts.
func WithChunkRetryDelay(d time.Duration) WriterOption {
	return func(w *Writer) {
		if d > 0 {
			w.retryDelay = d
		}
	}
}

// WithProgressFunc sets a callback invoked as chunks complete.
func WithProgressFunc(fn ProgressFunc) WriterOption {
	return func(w *Writer) {
		w.onProgress = fn
	}
}

// WithWriterLogger sets the logger used by the writer.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWriter creates a writer on top of a record repository.
func NewWriter(repo storage.RecordRepository, opts ...WriterOption) (*Writer, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository required")
	}

	w := &Writer{
		repo:       repo,
		chunkSize:  DefaultChunkSize,
		workers:    DefaultWriterWorkers,
		attempts:   1,
		retryDelay: time.Second,
		logger:     slog.Default().With("component", "writer"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Write partitions the records into chunks and bulk-writes them
// concurrently. The report accounts for partial failure: succeeded
// chunks stay persisted even when others fail. Seq is assigned from the
// global input position, so within-chunk order mirrors input order.
func (w *Writer) Write(ctx context.Context, token, filename string, texts []string, vectors [][]float32) (core.WriteReport, error) {
	if len(texts) != len(vectors) {
		return core.WriteReport{}, fmt.Errorf("%w: %d texts, %d vectors", ErrInputMismatch, len(texts), len(vectors))
	}
	if len(texts) == 0 {
		return core.WriteReport{}, core.ErrNoRows
	}
	if err := core.ValidateVectors(vectors); err != nil {
		return core.WriteReport{}, err
	}

	totalChunks := (len(texts) + w.chunkSize - 1) / w.chunkSize

	pool, err := ants.NewPool(w.workers)
	if err != nil {
		return core.WriteReport{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		succeeded    int
		failedChunks []int
		done         int
	)

	for chunk := 0; chunk < totalChunks; chunk++ {
		start := chunk * w.chunkSize
		end := start + w.chunkSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk, start, end := chunk, start, end

		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			err := w.writeChunk(ctx, token, filename, texts[start:end], vectors[start:end], start)

			mu.Lock()
			if err != nil {
				failedChunks = append(failedChunks, chunk)
				w.logger.Error("chunk write failed", "token", token, "chunk", chunk, "error", err)
			} else {
				succeeded += end - start
			}
			done++
			completed := done
			mu.Unlock()

			if w.onProgress != nil {
				w.onProgress(token, completed, totalChunks)
			}
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			failedChunks = append(failedChunks, chunk)
			mu.Unlock()
		}
	}

	wg.Wait()
	sort.Ints(failedChunks)

	return core.WriteReport{
		Succeeded:    succeeded,
		TotalChunks:  totalChunks,
		FailedChunks: failedChunks,
	}, nil
}

// writeChunk builds the chunk's records and bulk-writes them, retrying
// when the writer is configured with more than one attempt.
func (w *Writer) writeChunk(ctx context.Context, token, filename string, texts []string, vectors [][]float32, offset int) error {
	records := make([]*core.Record, len(texts))
	for i := range texts {
		records[i] = &core.Record{
			Token:    token,
			Seq:      offset + i,
			Filename: filename,
			Contents: texts[i],
			Vector:   vectors[i],
		}
	}

	if w.attempts <= 1 {
		return w.repo.BulkAddRecords(ctx, records)
	}
	return retry.Backoff(ctx, func() error {
		return w.repo.BulkAddRecords(ctx, records)
	}, w.attempts, w.retryDelay)
}
