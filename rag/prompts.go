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


package rag

import (
	"fmt"
	"strings"

	"github.com/poiesic/datalens/analytics"
)

// maxSampleSnippets caps how many raw snippets go into a summary prompt.
const maxSampleSnippets = 10

// SummaryPrompt builds the prompt for a dataset summary. Structured KPI
// values go in directly so the model never has to re-parse snippets for
// numbers.
func SummaryPrompt(filename string, records int, report *analytics.Report, samples []string) string {
	var b strings.Builder

	b.WriteString("You are a data analyst. Summarize the following subscription dataset in a few sentences.\n\n")
	fmt.Fprintf(&b, "File: %s\n", filename)
	fmt.Fprintf(&b, "Records: %d\n", records)
	fmt.Fprintf(&b, "Total subscription count: %d\n", report.TotalCount)

	if top := report.TopRegions(3); len(top) > 0 {
		b.WriteString("Top regions:\n")
		for _, region := range top {
			fmt.Fprintf(&b, "  %s: %d\n", region, report.RegionDistribution[region])
		}
	}
	if len(report.SegmentDistribution) > 0 {
		b.WriteString("Segments:\n")
		for segment, count := range report.SegmentDistribution {
			fmt.Fprintf(&b, "  %s: %d\n", segment, count)
		}
	}

	if len(samples) > maxSampleSnippets {
		samples = samples[:maxSampleSnippets]
	}
	if len(samples) > 0 {
		b.WriteString("\nSample rows:\n")
		for _, sample := range samples {
			fmt.Fprintf(&b, "  %s\n", sample)
		}
	}

	b.WriteString("\nWrite the summary in plain language, focusing on totals, leading regions and notable patterns.")
	return b.String()
}

// SuggestionPrompt builds the prompt for actionable suggestions.
func SuggestionPrompt(report *analytics.Report) string {
	var b strings.Builder

	b.WriteString("You are a network capacity planner. Based on the subscription distribution below, ")
	b.WriteString("propose up to 5 concrete action items, one per line, each starting with '- '.\n\n")
	fmt.Fprintf(&b, "Total subscription count: %d\n", report.TotalCount)

	if top := report.TopRegions(5); len(top) > 0 {
		b.WriteString("Regions by subscription count:\n")
		for _, region := range top {
			fmt.Fprintf(&b, "  %s: %d\n", region, report.RegionDistribution[region])
		}
	}

	b.WriteString("\nEach action item must name a region and a concrete measure.")
	return b.String()
}

// QuestionPrompt builds the prompt for answering a free-form question
// over retrieved snippets.
func QuestionPrompt(question string, snippets []string) string {
	var b strings.Builder

	b.WriteString("Answer the question using only the dataset rows below. ")
	b.WriteString("If the rows do not contain the answer, say so.\n\n")
	b.WriteString("Rows:\n")
	for _, snippet := range snippets {
		fmt.Fprintf(&b, "  %s\n", snippet)
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n", question)
	return b.String()
}
