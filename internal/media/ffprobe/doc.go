// Package ffprobe provides a typed wrapper around ffprobe JSON output and
// converts it into the project's track types.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Inspect executes ffprobe; ProbeAudio, ProbeVideo, and ProbeImage build the
// tracks an export consumes.
package ffprobe
