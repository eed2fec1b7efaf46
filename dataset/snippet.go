package dataset

import (
	"fmt"
	"strings"

	"github.com/poiesic/datalens/core"
)

// Schema names the columns used for snippet derivation and analytics.
// Defaults match the subscriber log layout the system was built around.
type Schema struct {
	// DateColumn holds the observation date.
	DateColumn string
	// RegionColumn holds the geographic grouping key.
	RegionColumn string
	// CountColumn holds the numeric measure aggregated in reports.
	CountColumn string
	// SegmentColumn is an optional categorical split (e.g. domestic/foreign).
	SegmentColumn string
}

// DefaultSchema returns the column names of the original subscriber dataset.
func DefaultSchema() Schema {
	return Schema{
		DateColumn:    "SUBSCRIPTION_DATE",
		RegionColumn:  "SUBSCRIPTION_COUNTY",
		CountColumn:   "NUMBER_OF_SUBSCRIBER",
		SegmentColumn: "SUBSCRIBER_DOMESTIC_FOREIGN",
	}
}

// Snippets derives one text snippet per table row, in row order.
// Each snippet is a compact "label:value" line so the embedding model sees
// the fields that matter for similarity search.
func Snippets(table *core.Table, schema Schema) []string {
	texts := make([]string, table.NumRows())
	hasSegment := schema.SegmentColumn != "" && table.HasColumn(schema.SegmentColumn)

	for i := range table.Rows {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Date:%s, Region:%s, Count:%s",
			orNA(table.Value(i, schema.DateColumn)),
			orNA(table.Value(i, schema.RegionColumn)),
			orZero(table.Value(i, schema.CountColumn)))
		if hasSegment {
			fmt.Fprintf(&sb, ", Segment:%s", orNA(table.Value(i, schema.SegmentColumn)))
		}
		texts[i] = sb.String()
	}

	return texts
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

func orZero(v string) string {
	if v == "" {
		return "0"
	}
	return v
}
