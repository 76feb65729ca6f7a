package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const probeTimeout = 5 * time.Second

// ExportRequirements lists the tools an export needs. ffprobe is optional:
// without it media durations must be supplied by the caller.
func ExportRequirements(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpegBinary,
			Description: "Required for encoding",
		},
		{
			Name:        "FFprobe",
			Command:     ffprobeBinary,
			Description: "Reads media durations and stream metadata",
			Optional:    true,
		},
	}
}

// FFmpegVersion returns the first line of `ffmpeg -version`.
func FFmpegVersion(ctx context.Context, binary string) (string, error) {
	out, err := runProbe(ctx, binary, "-hide_banner", "-version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}

// HasEncoder reports whether the ffmpeg build lists the named video encoder.
func HasEncoder(ctx context.Context, binary, codec string) (bool, error) {
	out, err := runProbe(ctx, binary, "-hide_banner", "-encoders")
	if err != nil {
		return false, err
	}
	return encoderListed(out, codec), nil
}

func encoderListed(listing []byte, codec string) bool {
	codec = strings.TrimSpace(codec)
	if codec == "" {
		return false
	}
	scanner := bufio.NewScanner(bytes.NewReader(listing))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		// " V....D libx264  libx264 H.264 / AVC ..."
		if len(fields) >= 2 && fields[1] == codec {
			return true
		}
	}
	return false
}

func runProbe(ctx context.Context, binary string, args ...string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, binary, args...).Output() //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", binary, strings.Join(args, " "), err)
	}
	return out, nil
}
