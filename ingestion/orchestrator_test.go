package ingestion

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/datalens/ai/mock"
	"github.com/poiesic/datalens/core"
	"github.com/poiesic/datalens/storage"
	badgerstore "github.com/poiesic/datalens/storage/badger"
)

type pipelineFixture struct {
	registry     *Registry
	orchestrator *Orchestrator
	repo         storage.RecordRepository
	embedder     *mock.Embedder
}

func newPipeline(t *testing.T, writerOpts ...WriterOption) *pipelineFixture {
	t.Helper()

	repo, backend, err := badgerstore.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	embedder := mock.NewEmbedder()
	encoder, err := NewEncoder(embedder, WithBatchSize(10))
	require.NoError(t, err)

	writer, err := NewWriter(repo, writerOpts...)
	require.NoError(t, err)

	registry := NewRegistry()
	orchestrator, err := NewOrchestrator(registry, encoder, writer)
	require.NoError(t, err)

	return &pipelineFixture{
		registry:     registry,
		orchestrator: orchestrator,
		repo:         repo,
		embedder:     embedder,
	}
}

func rows(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("Date:2024-01-%02d, Region:Kadikoy, Count:%d", i%28+1, i)
	}
	return texts
}

func waitForTerminal(t *testing.T, registry *Registry, token string) core.IngestionJob {
	t.Helper()
	require.Eventually(t, func() bool {
		job, err := registry.Get(token)
		return err == nil && job.Status.Terminal()
	}, 5*time.Second, 5*time.Millisecond)

	job, err := registry.Get(token)
	require.NoError(t, err)
	return job
}

func TestOrchestratorHappyPath(t *testing.T) {
	fix := newPipeline(t, WithChunkSize(25))

	token, err := fix.orchestrator.Start(context.Background(), "subscribers.csv", rows(60))
	require.NoError(t, err)
	require.NotEmpty(t, token)

	job := waitForTerminal(t, fix.registry, token)
	assert.Equal(t, core.StatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, 60, job.TotalRows)
	assert.Equal(t, 3, job.ChunksSucceeded)
	assert.Zero(t, job.ChunksFailed)
	assert.False(t, job.FinishedAt.IsZero())

	records, err := fix.repo.GetRecordsByToken(context.Background(), token)
	require.NoError(t, err)
	assert.Len(t, records, 60)
}

func TestOrchestratorRejectsEmptySubmission(t *testing.T) {
	fix := newPipeline(t)

	_, err := fix.orchestrator.Start(context.Background(), "subscribers.csv", nil)
	assert.ErrorIs(t, err, core.ErrNoRows)

	_, err = fix.orchestrator.Start(context.Background(), "", rows(5))
	assert.ErrorIs(t, err, core.ErrEmptyFilename)
}

func TestOrchestratorEmbeddingFailure(t *testing.T) {
	fix := newPipeline(t)
	fix.embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("model unavailable")
	}

	token, err := fix.orchestrator.Start(context.Background(), "subscribers.csv", rows(10))
	require.NoError(t, err)

	job := waitForTerminal(t, fix.registry, token)
	assert.Equal(t, core.StatusFailed, job.Status)
	assert.Contains(t, job.Message, "embedding")

	// Nothing persisted on embedding failure.
	records, err := fix.repo.GetRecordsByToken(context.Background(), token)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestOrchestratorWriteFailureMessage(t *testing.T) {
	repo, backend, err := badgerstore.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	flaky := &flakyRepository{
		RecordRepository: repo,
		failOffsets:      map[int]int{10: 1 << 30},
	}

	encoder, err := NewEncoder(mock.NewEmbedder())
	require.NoError(t, err)
	writer, err := NewWriter(flaky, WithChunkSize(10), WithWriterWorkers(2))
	require.NoError(t, err)
	registry := NewRegistry()
	orchestrator, err := NewOrchestrator(registry, encoder, writer)
	require.NoError(t, err)

	token, err := orchestrator.Start(context.Background(), "subscribers.csv", rows(30))
	require.NoError(t, err)

	job := waitForTerminal(t, registry, token)
	assert.Equal(t, core.StatusFailed, job.Status)
	assert.Equal(t, "1 of 3 chunks failed", job.Message)
	assert.Equal(t, 2, job.ChunksSucceeded)
	assert.Equal(t, 1, job.ChunksFailed)

	// Succeeded chunks remain persisted.
	records, err := repo.GetRecordsByToken(context.Background(), token)
	require.NoError(t, err)
	assert.Len(t, records, 20)
}

func TestOrchestratorStatusSequence(t *testing.T) {
	fix := newPipeline(t, WithChunkSize(5))

	token, err := fix.orchestrator.Start(context.Background(), "subscribers.csv", rows(20))
	require.NoError(t, err)

	// Sample statuses until terminal; the observed sequence must be a
	// subsequence of Queued, Embedding, Writing, Completed with
	// non-decreasing progress.
	order := map[core.JobStatus]int{
		core.StatusQueued:    0,
		core.StatusEmbedding: 1,
		core.StatusWriting:   2,
		core.StatusCompleted: 3,
	}
	lastRank := -1
	lastProgress := -1
	for {
		job, err := fix.registry.Get(token)
		require.NoError(t, err)

		rank, known := order[job.Status]
		require.True(t, known, "unexpected status %s", job.Status)
		require.GreaterOrEqual(t, rank, lastRank, "status went backwards")
		require.GreaterOrEqual(t, job.Progress, lastProgress, "progress went backwards")
		lastRank, lastProgress = rank, job.Progress

		if job.Status.Terminal() {
			break
		}
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, 3, lastRank)
	assert.Equal(t, 100, lastProgress)
}

func TestOrchestratorConcurrentJobsGetDistinctTokens(t *testing.T) {
	fix := newPipeline(t)

	token1, err := fix.orchestrator.Start(context.Background(), "a.csv", rows(5))
	require.NoError(t, err)
	token2, err := fix.orchestrator.Start(context.Background(), "b.csv", rows(5))
	require.NoError(t, err)

	assert.NotEqual(t, token1, token2)

	job1 := waitForTerminal(t, fix.registry, token1)
	job2 := waitForTerminal(t, fix.registry, token2)
	assert.Equal(t, core.StatusCompleted, job1.Status)
	assert.Equal(t, core.StatusCompleted, job2.Status)

	// Each token sees only its own records.
	records1, err := fix.repo.GetRecordsByToken(context.Background(), token1)
	require.NoError(t, err)
	assert.Len(t, records1, 5)
	for _, record := range records1 {
		assert.Equal(t, "a.csv", record.Filename)
	}
}

func TestOrchestratorUnknownTokenStatus(t *testing.T) {
	fix := newPipeline(t)

	_, err := fix.registry.Get("nonexistent")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestOrchestratorSurvivesCallerContextCancel(t *testing.T) {
	fix := newPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	token, err := fix.orchestrator.Start(ctx, "subscribers.csv", rows(10))
	require.NoError(t, err)
	cancel() // the submission context must not kill the background job

	job := waitForTerminal(t, fix.registry, token)
	assert.Equal(t, core.StatusCompleted, job.Status)
}

func TestOrchestratorWait(t *testing.T) {
	fix := newPipeline(t)

	token, err := fix.orchestrator.Start(context.Background(), "subscribers.csv", rows(10))
	require.NoError(t, err)

	fix.orchestrator.Wait()

	job, err := fix.registry.Get(token)
	require.NoError(t, err)
	assert.True(t, job.Status.Terminal())
}
