package analytics

import (
	"sort"

	"github.com/poiesic/datalens/core"
	"github.com/poiesic/datalens/dataset"
)

// TrendPoint is the summed count for one date.
type TrendPoint struct {
	Date  string
	Count int64
}

// Trend aggregates the count column per date, ordered by date ascending.
// Returns nil when the table lacks the date or count column.
func Trend(table *core.Table, schema dataset.Schema) []TrendPoint {
	if !table.HasColumn(schema.DateColumn) || !table.HasColumn(schema.CountColumn) {
		return nil
	}

	byDate := make(map[string]int64)
	for i := range table.Rows {
		date := table.Value(i, schema.DateColumn)
		if date == "" {
			continue
		}
		byDate[date] += parseCount(table.Value(i, schema.CountColumn))
	}

	points := make([]TrendPoint, 0, len(byDate))
	for date, count := range byDate {
		points = append(points, TrendPoint{Date: date, Count: count})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })

	return points
}
