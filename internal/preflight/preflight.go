package preflight

import (
	"context"
	"strings"

	"lyricast/internal/config"
)

// Severity grades a validation result.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ValidationResult is one finding from pre-export validation.
type ValidationResult struct {
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

func Info(message, suggestion string) ValidationResult {
	return ValidationResult{Severity: SeverityInfo, Message: message, Suggestion: suggestion}
}

func Warning(message, suggestion string) ValidationResult {
	return ValidationResult{Severity: SeverityWarning, Message: message, Suggestion: suggestion}
}

func Error(message, suggestion string) ValidationResult {
	return ValidationResult{Severity: SeverityError, Message: message, Suggestion: suggestion}
}

// HasErrors reports whether any result blocks the export.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the blocking results.
func Errors(results []ValidationResult) []ValidationResult {
	var out []ValidationResult
	for _, r := range results {
		if r.Severity == SeverityError {
			out = append(out, r)
		}
	}
	return out
}

// Summary joins the messages of blocking results.
func Summary(results []ValidationResult) string {
	var msgs []string
	for _, r := range Errors(results) {
		msgs = append(msgs, r.Message)
	}
	return strings.Join(msgs, "; ")
}

// Result reports the outcome of a single host check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the host checks shown by the status command.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckFreeSpace(ctx, "Output free space", cfg.Paths.OutputDir))
	results = append(results, CheckMemory(ctx))
	return results
}
