// Package stats aggregates public registry download counts for the
// organization's packages and renders them into a spreadsheet workbook.
//
// Per-version numbers are an even split of the monthly total across a
// package's recent versions; the registry exposes no real per-version
// telemetry.
package stats
