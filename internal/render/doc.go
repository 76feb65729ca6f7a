// Package render produces the composited RGBA frames an export streams into
// the encoder.
//
// Renderer is the narrow capability the frame producer depends on:
// Render(timestamp) returns one frame or an error. A Backend opens renderers
// for a given resolution and project and answers a cheap reachability check
// used during validation.
//
// Two backends ship here. Software draws the background (solid color, still
// image, or a looping video decoded through an ffmpeg pipe), the active lyric
// lines with karaoke highlighting, and the project's effect stack using
// golang.org/x/image. Fallback is the degraded path used when the software
// backend is unreachable: a solid background with plain bitmap lyrics and no
// effects.
package render
