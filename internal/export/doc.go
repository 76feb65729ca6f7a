// Package export drives a karaoke export from validation to the final file.
//
// A Run owns one project and executes attempts through the states
// validating, preparing, rendering, encoding, and finalizing, ending in
// completed, failed, or cancelled. Rendering and encoding run concurrently:
// a producer renders frames into a bounded queue, a writer drains it into
// the encoder's stdin, and the encoder handle reports its own metrics. All
// progress flows through a telemetry.Tracker and is republished on the feed
// hub on a fixed tick and on every state change.
//
// Failures are tagged with the faults markers so callers can tell setup and
// encode errors (retryable) from validation errors (not retryable).
// Cancellation is a terminal state of its own and always removes the
// per-run workspace.
package export
