// Package dataset parses uploaded tabular files and derives the per-row
// text snippets that feed the ingestion pipeline.
//
// Parsing is intentionally forgiving: unsupported or empty inputs yield a
// zero-row table rather than an error, and submission validation happens
// at the service layer.
package dataset
