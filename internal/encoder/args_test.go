package encoder

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"lyricast/internal/project"
	"lyricast/internal/settings"
	"lyricast/internal/telemetry"
)

func baseSettings() settings.EncodeSettings {
	return settings.EncodeSettings{
		Width:        1920,
		Height:       1080,
		FPS:          30,
		Bitrate:      8000,
		Codec:        "libx264",
		PixelFormat:  "yuv420p",
		AudioCodec:   "aac",
		AudioBitrate: "128k",
		Container:    "mp4",
	}
}

func TestBuildArgsBitrateWithAudio(t *testing.T) {
	s := baseSettings()
	s.MaxBitrate = 10000
	s.BufferSize = 16000
	s.Preset = "medium"
	s.Profile = "high"
	s.Level = "4.1"
	audio := &project.AudioTrack{Path: "/music/song.mp3", SampleRate: 44100, Channels: 2}

	got := BuildArgs(s, audio, "/tmp/out.mp4")
	want := []string{
		"-y", "-f", "rawvideo", "-pix_fmt", "rgba", "-s", "1920x1080", "-r", "30", "-i", "-",
		"-i", "/music/song.mp3", "-c:a", "aac", "-b:a", "128k", "-ar", "44100", "-ac", "2",
		"-c:v", "libx264",
		"-b:v", "8000k", "-maxrate", "10000k", "-bufsize", "16000k",
		"-preset", "medium", "-profile:v", "high", "-level", "4.1",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart", "-f", "mp4",
		"-progress", "pipe:2",
		"/tmp/out.mp4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected args\n got: %v\nwant: %v", got, want)
	}
}

func TestBuildArgsCRFWithoutAudio(t *testing.T) {
	s := baseSettings()
	crf := 23
	s.CRF = &crf
	s.MaxBitrate = 10000
	s.FPS = 29.97
	s.Container = "mkv"
	s.Codec = "libx265"

	got := BuildArgs(s, nil, "/tmp/out.mkv")
	joined := strings.Join(got, " ")
	if strings.Contains(joined, "-b:v") || strings.Contains(joined, "-maxrate") {
		t.Fatalf("CRF mode must not emit bitrate flags: %v", got)
	}
	if strings.Contains(joined, "-c:a") {
		t.Fatalf("no audio flags expected without a track: %v", got)
	}
	for _, fragment := range []string{"-r 29.97", "-c:v libx265 -crf 23", "-f matroska -progress pipe:2 /tmp/out.mkv"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in %q", fragment, joined)
		}
	}
	if got[len(got)-1] != "/tmp/out.mkv" {
		t.Fatalf("output must be last, got %q", got[len(got)-1])
	}
}

func TestBuildArgsContainers(t *testing.T) {
	cases := map[string][]string{
		"mp4": {"-movflags", "+faststart", "-f", "mp4"},
		"mkv": {"-f", "matroska"},
		"avi": {"-f", "avi"},
		"":    {"-movflags", "+faststart", "-f", "mp4"},
	}
	for container, want := range cases {
		if got := containerArgs(container); !reflect.DeepEqual(got, want) {
			t.Fatalf("containerArgs(%q) = %v, want %v", container, got, want)
		}
	}
}

func TestParseStatsClassicLine(t *testing.T) {
	var m telemetry.EncoderMetrics
	line := "frame=  120 fps= 29 q=28.0 size=     512kB time=00:00:04.00 bitrate=1048.6kbits/s speed=0.98x"
	if !ParseStats(line, &m) {
		t.Fatal("expected stats line to update metrics")
	}
	if m.Frame != 120 || m.FPS != 29 || m.Bitrate != "1048.6kbits/s" || m.Speed != "0.98x" {
		t.Fatalf("unexpected metrics %+v", m)
	}
}

func TestParseStatsProgressKeys(t *testing.T) {
	var m telemetry.EncoderMetrics
	for _, line := range []string{"fps=31.50", "bitrate=N/A", "speed=1.2x", "out_time_ms=1000"} {
		ParseStats(line, &m)
	}
	if m.FPS != 31.5 || m.Speed != "1.2x" || m.Bitrate != "" {
		t.Fatalf("unexpected metrics %+v", m)
	}
	if ParseStats("Stream mapping:", &m) {
		t.Fatal("non-status line must not report an update")
	}
}

func TestScanLinesSplitsCarriageReturns(t *testing.T) {
	data := []byte("frame=1\rframe=2\nrest")
	advance, token, _ := scanLines(data, false)
	if string(token) != "frame=1" || advance != 8 {
		t.Fatalf("unexpected first token %q advance %d", token, advance)
	}
	advance, token, _ = scanLines(data[8:], false)
	if string(token) != "frame=2" || advance != 8 {
		t.Fatalf("unexpected second token %q advance %d", token, advance)
	}
	if advance, token, _ = scanLines([]byte("rest"), false); advance != 0 || token != nil {
		t.Fatal("partial line must wait for more data")
	}
	if _, token, _ = scanLines([]byte("rest"), true); string(token) != "rest" {
		t.Fatalf("expected trailing token at EOF, got %q", token)
	}
}

func TestClassifyExit(t *testing.T) {
	cases := []struct {
		stderr  []string
		kind    error
		message string
	}{
		{[]string{"/music/x.mp3: No such file or directory"}, ErrInputNotFound, "Input file not found"},
		{[]string{"out.mp4: Permission denied"}, ErrPermission, "Permission denied - check file permissions"},
		{[]string{"Invalid data found when processing input"}, ErrInvalidData, "Invalid input data format"},
		{[]string{"Unknown encoder 'libfoo'"}, ErrCodecUnavailable, "Video encoder not available (unknown encoder)"},
		{[]string{"av_interleaved_write_frame(): No space left on device"}, ErrDiskFull, "Insufficient disk space"},
		{[]string{"a", "b", "", "c", "d"}, ErrEncodeFailed, "b; c; d"},
		{nil, ErrEncodeFailed, "unknown ffmpeg error"},
	}
	for _, tc := range cases {
		err := ClassifyExit(1, tc.stderr)
		if !errors.Is(err, tc.kind) {
			t.Fatalf("ClassifyExit(%v) kind = %v, want %v", tc.stderr, err.kind, tc.kind)
		}
		if err.Message != tc.message {
			t.Fatalf("ClassifyExit(%v) message = %q, want %q", tc.stderr, err.Message, tc.message)
		}
		if !strings.Contains(err.Error(), "status 1") {
			t.Fatalf("expected exit status in %q", err.Error())
		}
	}
}
