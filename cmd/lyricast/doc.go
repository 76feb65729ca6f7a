// Command lyricast renders karaoke projects into encoded video files.
//
// The export subcommand assembles a project from the media paths given on
// the command line, probes durations with ffprobe, and drives an export run
// with a live progress bar. Supporting subcommands list quality presets and
// formats, inspect the persisted export history, report host readiness, and
// manage the configuration file.
package main
