package encoder

import (
	"strconv"
	"strings"

	"lyricast/internal/project"
	"lyricast/internal/settings"
)

// BuildArgs returns the ffmpeg argument list (without the binary) for one
// export. audio may be nil.
func BuildArgs(s settings.EncodeSettings, audio *project.AudioTrack, output string) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", strconv.Itoa(s.Width) + "x" + strconv.Itoa(s.Height),
		"-r", formatFloat(s.FPS),
		"-i", "-",
	}

	if audio != nil && strings.TrimSpace(audio.Path) != "" {
		args = append(args,
			"-i", audio.Path,
			"-c:a", orDefault(s.AudioCodec, settings.DefaultAudioCodec),
			"-b:a", orDefault(s.AudioBitrate, settings.DefaultAudioBitrate),
		)
		if audio.SampleRate > 0 {
			args = append(args, "-ar", strconv.Itoa(audio.SampleRate))
		}
		if audio.Channels > 0 {
			args = append(args, "-ac", strconv.Itoa(audio.Channels))
		}
	}

	args = append(args, "-c:v", orDefault(s.Codec, "libx264"))

	if s.CRF != nil {
		args = append(args, "-crf", strconv.Itoa(*s.CRF))
	} else {
		args = append(args, "-b:v", kbps(s.Bitrate))
		if s.MaxBitrate > 0 {
			args = append(args, "-maxrate", kbps(s.MaxBitrate))
		}
		if s.BufferSize > 0 {
			args = append(args, "-bufsize", kbps(s.BufferSize))
		}
	}

	if s.Preset != "" {
		args = append(args, "-preset", s.Preset)
	}
	if s.Profile != "" {
		args = append(args, "-profile:v", s.Profile)
	}
	if s.Level != "" {
		args = append(args, "-level", s.Level)
	}

	args = append(args, "-pix_fmt", orDefault(s.PixelFormat, settings.DefaultPixelFormat))
	args = append(args, containerArgs(s.Container)...)
	args = append(args, "-progress", "pipe:2", output)
	return args
}

func containerArgs(container string) []string {
	switch strings.ToLower(strings.TrimSpace(container)) {
	case "mkv", "matroska":
		return []string{"-f", "matroska"}
	case "avi":
		return []string{"-f", "avi"}
	default:
		return []string{"-movflags", "+faststart", "-f", "mp4"}
	}
}

func kbps(v int) string { return strconv.Itoa(v) + "k" }

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
