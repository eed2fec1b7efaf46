package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/datalens/ai/mock"
	"github.com/poiesic/datalens/core"
	"github.com/poiesic/datalens/storage"
)

func newTestRepository(t *testing.T) storage.RecordRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return repo
}

func makeRecords(token string, texts ...string) []*core.Record {
	records := make([]*core.Record, len(texts))
	for i, text := range texts {
		records[i] = &core.Record{
			Token:    token,
			Seq:      i,
			Filename: "subscribers.csv",
			Contents: text,
			Vector:   mock.DeterministicVector(text, mock.DefaultDimension),
		}
	}
	return records
}

func TestBulkAddRecordsAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	records := makeRecords("tok-1", "first row", "second row", "third row")
	require.NoError(t, repo.BulkAddRecords(ctx, records))

	got, err := repo.GetRecordsByToken(ctx, "tok-1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, record := range got {
		assert.Equal(t, i, record.Seq)
		assert.Equal(t, records[i].Contents, record.Contents)
		assert.False(t, record.CreatedAt.IsZero())
	}
}

func TestBulkAddRecordsEmptySlice(t *testing.T) {
	repo := newTestRepository(t)

	assert.NoError(t, repo.BulkAddRecords(context.Background(), nil))
}

func TestBulkAddRecordsInvalidRecord(t *testing.T) {
	repo := newTestRepository(t)

	bad := []*core.Record{{Token: "tok-1", Seq: 0, Contents: ""}}
	err := repo.BulkAddRecords(context.Background(), bad)
	assert.ErrorIs(t, err, core.ErrEmptyContents)
}

func TestGetRecordsByTokenUnknownToken(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.GetRecordsByToken(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetRecordsByTokenIsolation(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.BulkAddRecords(ctx, makeRecords("tok-a", "alpha one", "alpha two")))
	require.NoError(t, repo.BulkAddRecords(ctx, makeRecords("tok-b", "beta one")))

	gotA, err := repo.GetRecordsByToken(ctx, "tok-a")
	require.NoError(t, err)
	assert.Len(t, gotA, 2)

	gotB, err := repo.GetRecordsByToken(ctx, "tok-b")
	require.NoError(t, err)
	require.Len(t, gotB, 1)
	assert.Equal(t, "beta one", gotB[0].Contents)
}

func TestGetRecordsInsertionOrderBeyondByteBoundary(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	// 300 rows crosses the single-byte seq boundary; BigEndian keys must
	// still scan in insertion order.
	texts := make([]string, 300)
	for i := range texts {
		texts[i] = "row"
	}
	require.NoError(t, repo.BulkAddRecords(ctx, makeRecords("tok-long", texts...)))

	got, err := repo.GetRecordsByToken(ctx, "tok-long")
	require.NoError(t, err)
	require.Len(t, got, 300)
	for i, record := range got {
		require.Equal(t, i, record.Seq)
	}
}

func TestSearchSimilarRanksByCosine(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	records := makeRecords("tok-1",
		"Date:2024-01-01, Region:Kadikoy, Count:50",
		"Date:2024-01-02, Region:Besiktas, Count:30",
		"Date:2024-01-03, Region:Uskudar, Count:20",
	)
	require.NoError(t, repo.BulkAddRecords(ctx, records))

	// Querying with a record's own vector must rank that record first.
	query := mock.DeterministicVector("Date:2024-01-02, Region:Besiktas, Count:30", mock.DefaultDimension)
	got, err := repo.SearchSimilar(ctx, "tok-1", query, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Seq)
}

func TestSearchSimilarLimitCapsResults(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.BulkAddRecords(ctx, makeRecords("tok-1", "one", "two", "three", "four")))

	got, err := repo.SearchSimilar(ctx, "tok-1", mock.DeterministicVector("one", mock.DefaultDimension), 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSearchSimilarUnknownTokenReturnsEmpty(t *testing.T) {
	repo := newTestRepository(t)

	got, err := repo.SearchSimilar(context.Background(), "missing", mock.DeterministicVector("q", mock.DefaultDimension), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchSimilarInvalidArgs(t *testing.T) {
	repo := newTestRepository(t)
	query := mock.DeterministicVector("q", mock.DefaultDimension)

	_, err := repo.SearchSimilar(context.Background(), "", query, 5)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)

	_, err = repo.SearchSimilar(context.Background(), "tok", query, 0)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestStats(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.BulkAddRecords(ctx, makeRecords("tok-1", "one", "two")))

	stats, err := repo.Stats(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, "subscribers.csv", stats.Filename)
}

func TestStatsUnknownToken(t *testing.T) {
	repo := newTestRepository(t)

	stats, err := repo.Stats(context.Background(), "missing")
	require.NoError(t, err)
	assert.Zero(t, stats.Records)
	assert.Empty(t, stats.Filename)
}

func TestClosedBackend(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	err = repo.BulkAddRecords(context.Background(), makeRecords("tok", "x"))
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	_, err = repo.GetRecordsByToken(context.Background(), "tok")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
