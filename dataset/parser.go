package dataset

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/poiesic/datalens/core"
)

// Parse converts uploaded file bytes into a Table.
// Only CSV input is supported; any other extension, an empty file, or a
// file without data rows produces a zero-row table.
func Parse(filename string, data []byte) (*core.Table, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return &core.Table{}, nil
	}
	return parseCSV(data)
}

func parseCSV(data []byte) (*core.Table, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // tolerate ragged rows
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return &core.Table{}, nil
	}
	if err != nil {
		return nil, err
	}

	columns := make([]string, len(header))
	for i, c := range header {
		columns[i] = strings.TrimSpace(c)
	}

	table := &core.Table{Columns: columns}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
