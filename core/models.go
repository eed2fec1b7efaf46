package core

import (
	"fmt"
	"time"
)

// JobStatus describes the phase of an ingestion job.
// Transitions are monotonic: Queued -> Embedding -> Writing -> Completed,
// with Failed reachable from Embedding and Writing.
type JobStatus int

const (
	// StatusQueued indicates the job has been registered but not started.
	StatusQueued JobStatus = iota + 1
	// StatusEmbedding indicates embeddings are being computed.
	StatusEmbedding
	// StatusWriting indicates records are being written to storage.
	StatusWriting
	// StatusCompleted indicates all records were persisted.
	StatusCompleted
	// StatusFailed indicates the job stopped with an error.
	StatusFailed
)

// String returns the lowercase name of the status.
func (s JobStatus) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusEmbedding:
		return "embedding"
	case StatusWriting:
		return "writing"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Terminal reports whether the status is a terminal state.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IngestionJob tracks the lifecycle of one dataset ingestion.
// It is owned for writes by the orchestrator; all other parties read
// snapshot copies through the registry.
type IngestionJob struct {
	Token           string
	Status          JobStatus
	Progress        int // 0-100, monotonically non-decreasing
	Message         string
	StartedAt       time.Time
	FinishedAt      time.Time // zero until a terminal status is reached
	TotalRows       int
	ChunksSucceeded int
	ChunksFailed    int
}

// Record is one embedded snippet persisted to storage.
// Identity is (Token, Seq); records are immutable once written.
type Record struct {
	Token     string
	Seq       int // position in the original input order
	Filename  string
	Contents  string
	Vector    []float32
	CreatedAt time.Time
}

// WriteReport summarizes the outcome of a partitioned bulk write.
type WriteReport struct {
	Succeeded    int // record count across succeeded chunks
	TotalChunks  int
	FailedChunks []int // indices of chunks whose bulk write failed
}

// Complete reports whether every record made it to storage.
func (r WriteReport) Complete(total int) bool {
	return len(r.FailedChunks) == 0 && r.Succeeded == total
}

// Table is a parsed tabular dataset: a header plus rows of cell values.
// Rows are positional; Value resolves a cell by column name.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// HasColumn reports whether the table contains the named column.
func (t *Table) HasColumn(name string) bool {
	return t.columnIndex(name) >= 0
}

// Value returns the cell at row i for the named column.
// Returns "" if the column does not exist or the row is short.
func (t *Table) Value(i int, column string) string {
	idx := t.columnIndex(column)
	if idx < 0 || i < 0 || i >= len(t.Rows) || idx >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][idx]
}

func (t *Table) columnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}
