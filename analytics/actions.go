package analytics

import "fmt"

// ActionItems derives baseline recommendations from a KPI report.
// These are the non-AI fallback shown while a generation call is pending
// or unavailable.
func ActionItems(report *Report) []string {
	var items []string
	for _, region := range report.TopRegions(3) {
		items = append(items,
			fmt.Sprintf("Subscriber density in the %s region is very high; infrastructure improvements are recommended.", region))
	}
	return items
}
