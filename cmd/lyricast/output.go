package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"lyricast/internal/export"
	"lyricast/internal/faults"
	"lyricast/internal/fileutil"
	"lyricast/internal/preflight"
	"lyricast/internal/telemetry"
)

func validationLines(results []export.ValidationResult, colorize bool) []string {
	lines := make([]string, 0, len(results))
	for _, res := range results {
		label := strings.ToUpper(string(res.Severity[:1])) + string(res.Severity[1:])
		msg := res.Message
		if res.Suggestion != "" && res.Severity != preflight.SeverityInfo {
			msg += " (" + res.Suggestion + ")"
		}
		lines = append(lines, renderStatusLine(label, severityKind(res.Severity), msg, colorize))
	}
	return lines
}

func printValidation(out io.Writer, results []export.ValidationResult) {
	if len(results) == 0 {
		return
	}
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Validation", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range validationLines(results, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
}

func printFailure(out io.Writer, run *export.Run, err error) {
	colorize := shouldColorize(out)
	info := run.Progress()
	if info.Status == telemetry.StatusCancelled {
		fmt.Fprintln(out, renderStatusLine("Export", statusWarn, fmt.Sprintf("Cancelled at frame %d of %d", info.CurrentFrame, info.TotalFrames), colorize))
		return
	}
	fmt.Fprintln(out, renderStatusLine("Export", statusError, err.Error(), colorize))
	if kind := faults.Kind(err); kind != "" && kind != "unknown" {
		fmt.Fprintln(out, renderStatusLine("Error kind", statusInfo, kind, colorize))
	}
	suggestions := info.Suggestions
	if len(suggestions) == 0 {
		suggestions = faults.Suggestions(err.Error())
	}
	if len(suggestions) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Suggestions:")
		for _, s := range suggestions {
			fmt.Fprintf(out, "%s- %s\n", statusIndent, s)
		}
	}
}

func printSummary(out io.Writer, run *export.Run) {
	colorize := shouldColorize(out)
	metrics := run.PerformanceMetrics()
	path := run.OutputPath()
	fmt.Fprintln(out, renderStatusLine("Export", statusOK, path, colorize))
	fmt.Fprintln(out, renderStatusLine("Frames", statusInfo, fmt.Sprintf("%d written, %d dropped", metrics.FramesWritten, metrics.DroppedFrames), colorize))
	fmt.Fprintln(out, renderStatusLine("Elapsed", statusInfo, fmt.Sprintf("%s (%.1f fps)", metrics.Elapsed.Round(10*time.Millisecond), metrics.FramesPerSecond), colorize))
	if metrics.AverageRender > 0 {
		fmt.Fprintln(out, renderStatusLine("Avg render", statusInfo, metrics.AverageRender.String(), colorize))
	}
	if size := fileutil.FileSize(path); size > 0 {
		fmt.Fprintln(out, renderStatusLine("Size", statusInfo, humanize.IBytes(uint64(size)), colorize))
	}
}
