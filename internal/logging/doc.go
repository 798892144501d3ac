// Package logging assembles structured slog loggers and formatting helpers used
// across vocalsub.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with run IDs, stages, and source videos. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Console output is written to stderr so command output on stdout stays
// machine-readable.
package logging
