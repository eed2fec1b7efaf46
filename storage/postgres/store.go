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

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/poiesic/datalens/core"
	"github.com/poiesic/datalens/storage"
)

const schemaDDL = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS records (
    token      TEXT        NOT NULL,
    seq        INTEGER     NOT NULL,
    filename   TEXT        NOT NULL,
    contents   TEXT        NOT NULL,
    embedding  vector(384) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (token, seq)
);

CREATE INDEX IF NOT EXISTS records_embedding_idx
    ON records USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
`

// Store implements storage.RecordRepository on PostgreSQL + pgvector.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.RecordRepository = (*Store)(nil)

// NewStore connects to PostgreSQL and registers pgvector types on every
// pooled connection.
func NewStore(ctx context.Context, connString string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Init creates the vector extension, the records table and the cosine
// index if they do not exist.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// BulkAddRecords inserts all records in a single transaction using the
// binary COPY protocol. The connection is acquired per call, so chunks
// written by concurrent workers run on independent sessions.
func (s *Store) BulkAddRecords(ctx context.Context, records []*core.Record) error {
	if len(records) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, record := range records {
		if err := core.ValidateRecord(record); err != nil {
			return err
		}
		record.CreatedAt = now
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"records"},
		[]string{"token", "seq", "filename", "contents", "embedding", "created_at"},
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			return []any{r.Token, r.Seq, r.Filename, r.Contents, pgvector.NewVector(r.Vector), r.CreatedAt}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SearchSimilar returns up to limit records for the token ordered by
// ascending cosine distance, ties broken by insertion order.
func (s *Store) SearchSimilar(ctx context.Context, token string, vector []float32, limit int) ([]*core.Record, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", storage.ErrInvalidQuery)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: non-positive limit", storage.ErrInvalidQuery)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT token, seq, filename, contents, embedding, created_at
		FROM records
		WHERE token = $1
		ORDER BY embedding <=> $2, seq
		LIMIT $3`,
		token, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetRecordsByToken returns all records for a token in insertion order.
func (s *Store) GetRecordsByToken(ctx context.Context, token string) ([]*core.Record, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", storage.ErrInvalidQuery)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT token, seq, filename, contents, embedding, created_at
		FROM records
		WHERE token = $1
		ORDER BY seq`,
		token)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Stats returns the record count and filename for a token.
func (s *Store) Stats(ctx context.Context, token string) (*storage.DatasetStats, error) {
	stats := &storage.DatasetStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT count(*), coalesce(min(filename), '')
		FROM records
		WHERE token = $1`,
		token).Scan(&stats.Records, &stats.Filename)
	if err != nil {
		return nil, fmt.Errorf("stats query: %w", err)
	}
	return stats, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanRecords(rows pgx.Rows) ([]*core.Record, error) {
	records := []*core.Record{}
	for rows.Next() {
		var record core.Record
		var embedding pgvector.Vector
		err := rows.Scan(&record.Token, &record.Seq, &record.Filename,
			&record.Contents, &embedding, &record.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		record.Vector = embedding.Slice()
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}
