// Package logging assembles structured slog loggers and formatting helpers used
// across Lyricast.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so export code can tag log lines
// with run IDs and export states. The package also provides a no-op logger for
// tests and a progress sampler that keeps per-frame progress from flooding the
// log.
//
// File outputs rotate to a single ".1" generation when they exceed 10 MiB at
// open time. JSON output renames msg to message and renders durations as text.
package logging
