package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatusString(t *testing.T) {
	tests := []struct {
		status   JobStatus
		expected string
	}{
		{StatusQueued, "queued"},
		{StatusEmbedding, "embedding"},
		{StatusWriting, "writing"},
		{StatusCompleted, "completed"},
		{StatusFailed, "failed"},
		{JobStatus(99), "unknown(99)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.status.String())
	}
}

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, StatusQueued.Terminal())
	assert.False(t, StatusEmbedding.Terminal())
	assert.False(t, StatusWriting.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestWriteReportComplete(t *testing.T) {
	report := WriteReport{Succeeded: 10, TotalChunks: 2}
	assert.True(t, report.Complete(10))
	assert.False(t, report.Complete(20))

	partial := WriteReport{Succeeded: 5, TotalChunks: 2, FailedChunks: []int{1}}
	assert.False(t, partial.Complete(10))
}

func TestTableValue(t *testing.T) {
	table := &Table{
		Columns: []string{"a", "b"},
		Rows: [][]string{
			{"1", "2"},
			{"3"}, // short row
		},
	}

	assert.Equal(t, 2, table.NumRows())
	assert.Equal(t, "1", table.Value(0, "a"))
	assert.Equal(t, "2", table.Value(0, "b"))
	assert.Equal(t, "", table.Value(1, "b"), "short row yields empty cell")
	assert.Equal(t, "", table.Value(0, "missing"))
	assert.Equal(t, "", table.Value(5, "a"), "out of range row")

	assert.True(t, table.HasColumn("a"))
	assert.False(t, table.HasColumn("c"))
}
