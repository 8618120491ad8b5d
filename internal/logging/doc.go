// Package logging assembles structured slog loggers and formatting helpers used
// across pmpayout.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline code can tag log lines with
// run IDs, stages, and creator names. Console output always goes to stderr so
// reports written to stdout stay machine readable. When a log directory is
// configured, a JSON copy of every record is appended to the run log file.
//
// A no-op logger is provided for tests and wiring code that cannot fail.
package logging
