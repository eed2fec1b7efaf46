package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/datalens/ai/mock"
	"github.com/poiesic/datalens/core"
	"github.com/poiesic/datalens/storage"
	badgerstore "github.com/poiesic/datalens/storage/badger"
)

// flakyRepository fails BulkAddRecords for selected chunk offsets.
type flakyRepository struct {
	storage.RecordRepository

	mu          sync.Mutex
	failOffsets map[int]int // first Seq of the chunk -> failures left
	calls       int
}

func (f *flakyRepository) BulkAddRecords(ctx context.Context, records []*core.Record) error {
	f.mu.Lock()
	f.calls++
	remaining, fail := f.failOffsets[records[0].Seq]
	if fail && remaining > 0 {
		f.failOffsets[records[0].Seq] = remaining - 1
		f.mu.Unlock()
		return errors.New("connection reset")
	}
	f.mu.Unlock()
	return f.RecordRepository.BulkAddRecords(ctx, records)
}

func newTestWriter(t *testing.T, opts ...WriterOption) (*Writer, storage.RecordRepository) {
	t.Helper()
	repo, backend, err := badgerstore.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	writer, err := NewWriter(repo, opts...)
	require.NoError(t, err)
	return writer, repo
}

func makeInput(n int) ([]string, [][]float32) {
	texts := make([]string, n)
	vectors := make([][]float32, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("row %d", i)
		vectors[i] = mock.DeterministicVector(texts[i], mock.DefaultDimension)
	}
	return texts, vectors
}

func TestWriterRequiresRepository(t *testing.T) {
	_, err := NewWriter(nil)
	assert.Error(t, err)
}

func TestWriteAllChunksSucceed(t *testing.T) {
	writer, repo := newTestWriter(t, WithChunkSize(100), WithWriterWorkers(4))
	texts, vectors := makeInput(250)

	report, err := writer.Write(context.Background(), "tok-1", "data.csv", texts, vectors)
	require.NoError(t, err)
	assert.Equal(t, 250, report.Succeeded)
	assert.Equal(t, 3, report.TotalChunks)
	assert.Empty(t, report.FailedChunks)
	assert.True(t, report.Complete(250))

	records, err := repo.GetRecordsByToken(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Len(t, records, 250)
	for i, record := range records {
		assert.Equal(t, i, record.Seq)
		assert.Equal(t, texts[i], record.Contents)
		assert.Equal(t, "data.csv", record.Filename)
	}
}

func TestWritePartialFailure(t *testing.T) {
	repo, backend, err := badgerstore.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	// The chunk starting at Seq 100 always fails.
	flaky := &flakyRepository{
		RecordRepository: repo,
		failOffsets:      map[int]int{100: 1 << 30},
	}
	writer, err := NewWriter(flaky, WithChunkSize(100), WithWriterWorkers(2))
	require.NoError(t, err)

	texts, vectors := makeInput(250)
	report, err := writer.Write(context.Background(), "tok-1", "data.csv", texts, vectors)
	require.NoError(t, err)

	assert.Equal(t, 150, report.Succeeded)
	assert.Equal(t, 3, report.TotalChunks)
	assert.Equal(t, []int{1}, report.FailedChunks)
	assert.False(t, report.Complete(250))

	// Succeeded chunks stay persisted.
	records, err := repo.GetRecordsByToken(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Len(t, records, 150)
}

func TestWriteChunkRetrySucceedsOnSecondAttempt(t *testing.T) {
	repo, backend, err := badgerstore.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	// First attempt on the chunk at Seq 0 fails, second succeeds.
	flaky := &flakyRepository{
		RecordRepository: repo,
		failOffsets:      map[int]int{0: 1},
	}
	writer, err := NewWriter(flaky,
		WithChunkSize(50),
		WithChunkAttempts(3),
		WithChunkRetryDelay(1),
	)
	require.NoError(t, err)

	texts, vectors := makeInput(50)
	report, err := writer.Write(context.Background(), "tok-1", "data.csv", texts, vectors)
	require.NoError(t, err)
	assert.True(t, report.Complete(50))
	assert.Equal(t, 2, flaky.calls)
}

func TestWriteInputMismatch(t *testing.T) {
	writer, _ := newTestWriter(t)

	_, err := writer.Write(context.Background(), "tok-1", "data.csv", []string{"a", "b"}, [][]float32{{1}})
	assert.ErrorIs(t, err, ErrInputMismatch)
}

func TestWriteEmptyInput(t *testing.T) {
	writer, _ := newTestWriter(t)

	_, err := writer.Write(context.Background(), "tok-1", "data.csv", nil, nil)
	assert.ErrorIs(t, err, core.ErrNoRows)
}

func TestWriteProgressCallback(t *testing.T) {
	var calls atomic.Int32
	var last atomic.Int32

	writer, _ := newTestWriter(t,
		WithChunkSize(10),
		WithWriterWorkers(2),
		WithProgressFunc(func(token string, done, total int) {
			calls.Add(1)
			if done == total {
				last.Store(int32(total))
			}
		}),
	)

	texts, vectors := makeInput(45)
	report, err := writer.Write(context.Background(), "tok-1", "data.csv", texts, vectors)
	require.NoError(t, err)
	assert.Equal(t, 5, report.TotalChunks)
	assert.Equal(t, int32(5), calls.Load())
	assert.Equal(t, int32(5), last.Load())
}

// makeSmallInput builds rows with tiny vectors so large-row tests stay fast.
func makeSmallInput(n int) ([]string, [][]float32) {
	texts := make([]string, n)
	vectors := make([][]float32, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("row %d", i)
		vectors[i] = []float32{1, 0, 0}
	}
	return texts, vectors
}

func TestWriteTenThousandRowsTwoChunks(t *testing.T) {
	writer, repo := newTestWriter(t, WithWriterWorkers(2))
	texts, vectors := makeSmallInput(10000)

	report, err := writer.Write(context.Background(), "tok-big", "big.csv", texts, vectors)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalChunks)
	assert.True(t, report.Complete(10000))

	stats, err := repo.Stats(context.Background(), "tok-big")
	require.NoError(t, err)
	assert.Equal(t, 10000, stats.Records)
}

func TestWriteTenThousandRowsSecondChunkFails(t *testing.T) {
	repo, backend, err := badgerstore.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	flaky := &flakyRepository{
		RecordRepository: repo,
		failOffsets:      map[int]int{5000: 1 << 30},
	}
	writer, err := NewWriter(flaky, WithWriterWorkers(2))
	require.NoError(t, err)

	texts, vectors := makeSmallInput(10000)
	report, err := writer.Write(context.Background(), "tok-big", "big.csv", texts, vectors)
	require.NoError(t, err)

	assert.Equal(t, 2, report.TotalChunks)
	assert.Equal(t, []int{1}, report.FailedChunks)
	assert.Equal(t, 5000, report.Succeeded)

	stats, err := repo.Stats(context.Background(), "tok-big")
	require.NoError(t, err)
	assert.Equal(t, 5000, stats.Records)
}

func TestWriteSingleChunkForSmallInput(t *testing.T) {
	writer, _ := newTestWriter(t)
	texts, vectors := makeInput(3)

	report, err := writer.Write(context.Background(), "tok-1", "data.csv", texts, vectors)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalChunks)
	assert.True(t, report.Complete(3))
}
