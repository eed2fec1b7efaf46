package analytics

import (
	"sort"
	"strconv"

	"github.com/poiesic/datalens/core"
	"github.com/poiesic/datalens/dataset"
)

// Report holds the key performance indicators of one dataset.
type Report struct {
	// TotalCount is the sum of the count column over all rows.
	TotalCount int64
	// RegionDistribution maps region -> summed count.
	RegionDistribution map[string]int64
	// SegmentDistribution maps segment -> summed count (empty if the
	// dataset has no segment column).
	SegmentDistribution map[string]int64
}

// TopRegions returns up to n regions ordered by descending count.
// Ties are broken alphabetically so the result is deterministic.
func (r *Report) TopRegions(n int) []string {
	regions := make([]string, 0, len(r.RegionDistribution))
	for region := range r.RegionDistribution {
		regions = append(regions, region)
	}
	sort.Slice(regions, func(i, j int) bool {
		a, b := r.RegionDistribution[regions[i]], r.RegionDistribution[regions[j]]
		if a != b {
			return a > b
		}
		return regions[i] < regions[j]
	})
	if len(regions) > n {
		regions = regions[:n]
	}
	return regions
}

// KPI computes the indicator report for a table.
// Columns missing from the table simply leave the matching field empty.
func KPI(table *core.Table, schema dataset.Schema) *Report {
	report := &Report{
		RegionDistribution:  make(map[string]int64),
		SegmentDistribution: make(map[string]int64),
	}

	hasCount := table.HasColumn(schema.CountColumn)
	hasRegion := table.HasColumn(schema.RegionColumn)
	hasSegment := table.HasColumn(schema.SegmentColumn)

	for i := range table.Rows {
		count := int64(1)
		if hasCount {
			count = parseCount(table.Value(i, schema.CountColumn))
		}
		report.TotalCount += count

		if hasRegion {
			if region := table.Value(i, schema.RegionColumn); region != "" {
				report.RegionDistribution[region] += count
			}
		}
		if hasSegment {
			if segment := table.Value(i, schema.SegmentColumn); segment != "" {
				report.SegmentDistribution[segment] += count
			}
		}
	}

	return report
}

// parseCount reads a cell as an integer, tolerating blanks and junk.
func parseCount(v string) int64 {
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		// Some exports format counts as floats
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return n
}
