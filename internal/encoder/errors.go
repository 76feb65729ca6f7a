package encoder

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInputNotFound    = errors.New("input file not found")
	ErrPermission       = errors.New("permission denied")
	ErrInvalidData      = errors.New("invalid input data")
	ErrCodecUnavailable = errors.New("codec unavailable")
	ErrDiskFull         = errors.New("disk full")
	ErrBrokenPipe       = errors.New("broken pipe")
	ErrTerminated       = errors.New("encoder terminated")
	ErrEncodeFailed     = errors.New("encode failed")
)

// ExitError describes an encoder process that exited unsuccessfully.
type ExitError struct {
	Code    int
	Message string
	Stderr  []string
	kind    error
}

func (e *ExitError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("encoder exited with status %d: %s", e.Code, e.Message)
	}
	return "encoder exited: " + e.Message
}

func (e *ExitError) Unwrap() error { return e.kind }

type exitRule struct {
	needles []string
	message string
	kind    error
}

// exitRules are checked against the captured stderr in order.
var exitRules = []exitRule{
	{[]string{"No such file or directory"}, "Input file not found", ErrInputNotFound},
	{[]string{"Permission denied"}, "Permission denied - check file permissions", ErrPermission},
	{[]string{"Invalid data found"}, "Invalid input data format", ErrInvalidData},
	{[]string{"Codec not supported"}, "Codec not supported by FFmpeg", ErrCodecUnavailable},
	{[]string{"Unknown encoder", "Encoder not found"}, "Video encoder not available (unknown encoder)", ErrCodecUnavailable},
	{[]string{"disk full", "No space left on device"}, "Insufficient disk space", ErrDiskFull},
	{[]string{"Broken pipe"}, "Encoder input pipe broke", ErrBrokenPipe},
}

// tailLines is how much stderr an unrecognized failure reports.
const tailLines = 3

// ClassifyExit maps an exit code and the captured stderr lines to an
// ExitError carrying one of the package sentinels.
func ClassifyExit(code int, stderr []string) *ExitError {
	joined := strings.Join(stderr, "\n")
	for _, rule := range exitRules {
		for _, needle := range rule.needles {
			if strings.Contains(joined, needle) {
				return &ExitError{Code: code, Message: rule.message, Stderr: stderr, kind: rule.kind}
			}
		}
	}
	message := strings.Join(lastLines(stderr, tailLines), "; ")
	if message == "" {
		message = "unknown ffmpeg error"
	}
	return &ExitError{Code: code, Message: message, Stderr: stderr, kind: ErrEncodeFailed}
}

func lastLines(lines []string, n int) []string {
	out := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(out) < n; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			out = append(out, line)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
