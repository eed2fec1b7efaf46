// Package analytics computes aggregate statistics over a parsed dataset.
//
// All functions are pure: they take a table and a column schema and return
// structured values. The structured reports are also what flows into the
// generation prompts, so later stages never re-parse formatted text.
package analytics
