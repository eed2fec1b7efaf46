package analytics

import (
	"fmt"

	"github.com/poiesic/datalens/core"
	"github.com/poiesic/datalens/dataset"
)

// Insights derives short human-readable findings from a table.
// Returns an empty slice when the table has none of the expected columns.
func Insights(table *core.Table, schema dataset.Schema) []string {
	var insights []string

	report := KPI(table, schema)
	if top := report.TopRegions(1); len(top) > 0 {
		insights = append(insights,
			fmt.Sprintf("Most activity was recorded in the %s region (%d).", top[0], report.RegionDistribution[top[0]]))
	}

	if points := Trend(table, schema); len(points) > 0 {
		busiest := points[0]
		for _, p := range points[1:] {
			if p.Count > busiest.Count {
				busiest = p
			}
		}
		insights = append(insights,
			fmt.Sprintf("The busiest date was %s (%d).", busiest.Date, busiest.Count))
	}

	return insights
}
