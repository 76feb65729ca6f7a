package encoder

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"lyricast/internal/telemetry"
)

// statPattern matches key=value tokens in both the classic stats line
// ("frame=  120 fps= 30 ... speed=1.01x") and -progress output ("fps=30.00").
var statPattern = regexp.MustCompile(`\b(frame|fps|bitrate|speed)=\s*(\S+)`)

// ParseStats folds any recognized tokens in line into m and reports whether
// something changed.
func ParseStats(line string, m *telemetry.EncoderMetrics) bool {
	matches := statPattern.FindAllStringSubmatch(line, -1)
	updated := false
	for _, match := range matches {
		value := strings.TrimSpace(match[2])
		if value == "" || value == "N/A" {
			continue
		}
		switch match[1] {
		case "frame":
			if n, err := strconv.Atoi(value); err == nil {
				m.Frame = n
				updated = true
			}
		case "fps":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				m.FPS = f
				updated = true
			}
		case "bitrate":
			m.Bitrate = value
			updated = true
		case "speed":
			m.Speed = value
			updated = true
		}
	}
	return updated
}

// scanLines splits on \n or \r so ffmpeg's carriage-return stats updates
// arrive as separate lines.
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = scanLines
