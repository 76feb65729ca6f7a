// Package project models the karaoke project an export consumes: background
// video or image, audio track, time-coded subtitle lines with optional
// per-word timings, and the stack of text effects.
//
// Subtitle files are parsed elsewhere; LoadTiming reads the already-parsed
// timing model from JSON. Everything here is read-only once an export starts.
package project
