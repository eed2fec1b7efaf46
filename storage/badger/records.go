package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/datalens/core"
	"github.com/poiesic/datalens/storage"
)

// RecordRepository implements storage.RecordRepository for BadgerDB.
//
// Similarity search is an in-process scan over the token's records: with
// unit-normalized vectors, cosine distance ordering is dot-product
// ordering, so no external index is needed at embedded scale.
type RecordRepository struct {
	backend *Backend
}

var _ storage.RecordRepository = (*RecordRepository)(nil)

// NewRecordRepository creates a repository on top of an open backend.
//
// Returns the storage.RecordRepository interface to enforce abstraction.
func NewRecordRepository(backend *Backend) (storage.RecordRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}
	return &RecordRepository{backend: backend}, nil
}

// BulkAddRecords persists all records in a single transaction.
// Each call owns its own transaction, so concurrent bulk writes from
// separate workers do not serialize behind one another.
func (r *RecordRepository) BulkAddRecords(ctx context.Context, records []*core.Record) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if len(records) == 0 {
		return nil
	}

	now := time.Now().UTC()
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if err := core.ValidateRecord(record); err != nil {
				return err
			}
			record.CreatedAt = now

			value, err := json.Marshal(record)
			if err != nil {
				return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
			}
			if err := tx.Set(makeRecordKey(record.Token, record.Seq), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// SearchSimilar scans the token's records and ranks them by dot product
// with the query vector (ascending cosine distance for unit vectors).
// Ties are broken by insertion order.
func (r *RecordRepository) SearchSimilar(ctx context.Context, token string, vector []float32, limit int) ([]*core.Record, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", storage.ErrInvalidQuery)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: non-positive limit", storage.ErrInvalidQuery)
	}

	type scored struct {
		record     *core.Record
		similarity float32
	}

	var hits []scored
	err := r.scanToken(token, func(record *core.Record) {
		hits = append(hits, scored{record: record, similarity: dotProduct(vector, record.Vector)})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].similarity != hits[j].similarity {
			return hits[i].similarity > hits[j].similarity
		}
		return hits[i].record.Seq < hits[j].record.Seq
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]*core.Record, len(hits))
	for i, h := range hits {
		results[i] = h.record
	}
	return results, nil
}

// GetRecordsByToken returns all records for a token in insertion order.
func (r *RecordRepository) GetRecordsByToken(ctx context.Context, token string) ([]*core.Record, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", storage.ErrInvalidQuery)
	}

	records := []*core.Record{}
	err := r.scanToken(token, func(record *core.Record) {
		records = append(records, record)
	})
	if err != nil {
		return nil, err
	}

	// Keys are BigEndian seq, so scan order is already insertion order.
	return records, nil
}

// Stats counts the token's records and reports their filename.
func (r *RecordRepository) Stats(ctx context.Context, token string) (*storage.DatasetStats, error) {
	stats := &storage.DatasetStats{}
	err := r.scanToken(token, func(record *core.Record) {
		stats.Records++
		if stats.Filename == "" {
			stats.Filename = record.Filename
		}
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Close is a no-op; the backend owns the database lifecycle.
func (r *RecordRepository) Close() error {
	return nil
}

// scanToken iterates all records under the token's key prefix.
func (r *RecordRepository) scanToken(token string, visit func(*core.Record)) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeTokenPrefix(token)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				var record core.Record
				if err := json.Unmarshal(val, &record); err != nil {
					return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
				}
				visit(&record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
