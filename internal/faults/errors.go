package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks precondition failures. They block a run and are never retried.
	ErrValidation = errors.New("validation error")
	// ErrSetup marks workspace, lock, renderer, or encoder launch failures.
	ErrSetup = errors.New("setup error")
	// ErrEncode marks runtime failures while frames stream into the encoder.
	ErrEncode = errors.New("encode error")
	// ErrCancelled marks a run stopped by the caller. It is a terminal state, not a failure.
	ErrCancelled = errors.New("export cancelled")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. A nil marker is treated as
// ErrEncode.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrEncode
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind names the marker carried by err: "validation", "setup", "encode",
// "cancelled", or "unknown".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrSetup):
		return "setup"
	case errors.Is(err, ErrEncode):
		return "encode"
	default:
		return "unknown"
	}
}

// Retryable reports whether a failed run may be retried. Setup and runtime
// encode failures qualify; validation failures and cancellations do not.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, ErrCancelled) || errors.Is(err, ErrValidation) {
		return false
	}
	return errors.Is(err, ErrSetup) || errors.Is(err, ErrEncode)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{stage, operation, message} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return "export failure"
	}
	return strings.Join(parts, ": ")
}
