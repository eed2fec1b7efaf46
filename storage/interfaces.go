package storage

import (
	"context"

	"github.com/poiesic/datalens/core"
)

// DatasetStats summarizes the persisted records of one token.
type DatasetStats struct {
	Records  int
	Filename string
}

// RecordRepository provides operations for managing embedded records.
// Implementations must be thread-safe and support concurrent access.
type RecordRepository interface {
	// BulkAddRecords persists all records in one atomic bulk operation.
	// Sets CreatedAt on each record. Implementations use an independent
	// connection or transaction per call so concurrent bulk writes do
	// not serialize behind each other.
	BulkAddRecords(ctx context.Context, records []*core.Record) error

	// SearchSimilar returns up to limit records for the token, ordered by
	// ascending distance to the query vector; ties broken by insertion
	// order. A token with no records yields an empty slice, not an error.
	SearchSimilar(ctx context.Context, token string, vector []float32, limit int) ([]*core.Record, error)

	// GetRecordsByToken returns all records for the token in insertion
	// order. A token with no records yields an empty slice, not an error.
	GetRecordsByToken(ctx context.Context, token string) ([]*core.Record, error)

	// Stats returns the record count and filename for a token.
	// A token with no records yields zero-valued stats, not an error.
	Stats(ctx context.Context, token string) (*DatasetStats, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
