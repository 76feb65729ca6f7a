// Package encoder manages the external ffmpeg process an export streams raw
// frames into.
//
// BuildArgs reproduces the invocation exactly: raw RGBA video on stdin as
// input 0, the project's audio file by path as input 1, rate control, preset
// and profile flags, the container muxer, and the output path last. The
// FFmpeg implementation of Encoder launches the process, scans stderr for
// encoder-reported fps/bitrate/speed, and classifies the exit into the
// sentinel errors below. Tests substitute their own Encoder and Handle.
package encoder
