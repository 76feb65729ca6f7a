package ffprobe

import (
	"context"
	"fmt"

	"lyricast/internal/project"
)

// ProbeAudio inspects an audio file (or a container with an audio stream).
func ProbeAudio(ctx context.Context, binary, path string) (*project.AudioTrack, error) {
	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return nil, err
	}
	return AudioTrackFrom(path, result)
}

// AudioTrackFrom builds an audio track from an inspection result.
func AudioTrackFrom(path string, result Result) (*project.AudioTrack, error) {
	stream, ok := result.FirstStream("audio")
	if !ok {
		return nil, fmt.Errorf("%s: no audio stream", path)
	}
	return &project.AudioTrack{
		Path:       path,
		Duration:   result.DurationSeconds(),
		SampleRate: stream.SampleRateHz(),
		Channels:   stream.Channels,
		Bitrate:    int(parseFloat(stream.BitRate)),
	}, nil
}

// ProbeVideo inspects a background video.
func ProbeVideo(ctx context.Context, binary, path string) (*project.VideoTrack, error) {
	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return nil, err
	}
	return VideoTrackFrom(path, result)
}

// VideoTrackFrom builds a video track from an inspection result.
func VideoTrackFrom(path string, result Result) (*project.VideoTrack, error) {
	stream, ok := result.FirstStream("video")
	if !ok {
		return nil, fmt.Errorf("%s: no video stream", path)
	}
	return &project.VideoTrack{
		Path:      path,
		Duration:  result.DurationSeconds(),
		Width:     stream.Width,
		Height:    stream.Height,
		FrameRate: stream.FrameRate(),
	}, nil
}

// ProbeImage reads the dimensions of a still background image.
func ProbeImage(ctx context.Context, binary, path string) (*project.ImageBackground, error) {
	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return nil, err
	}
	stream, ok := result.FirstStream("video")
	if !ok {
		return nil, fmt.Errorf("%s: not an image", path)
	}
	return &project.ImageBackground{Path: path, Width: stream.Width, Height: stream.Height}, nil
}
