package analytics

import (
	"time"

	"github.com/poiesic/datalens/core"
	"github.com/poiesic/datalens/dataset"
)

// Compare sums the count column for two regions, optionally restricted to
// an inclusive date range. Dates are compared as "2006-01-02" strings and
// rows with unparseable dates are skipped when a range is set.
func Compare(table *core.Table, schema dataset.Schema, region1, region2 string, start, end time.Time) map[string]int64 {
	result := map[string]int64{region1: 0, region2: 0}
	ranged := !start.IsZero() && !end.IsZero()

	for i := range table.Rows {
		region := table.Value(i, schema.RegionColumn)
		if region != region1 && region != region2 {
			continue
		}

		if ranged {
			date, err := time.Parse("2006-01-02", table.Value(i, schema.DateColumn))
			if err != nil || date.Before(start) || date.After(end) {
				continue
			}
		}

		result[region] += parseCount(table.Value(i, schema.CountColumn))
	}

	return result
}
