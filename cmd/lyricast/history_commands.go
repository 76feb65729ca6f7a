package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"lyricast/internal/history"
	"lyricast/internal/telemetry"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past exports",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryRemoveCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		statuses   []string
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded exports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			filter, err := parseStatuses(statuses)
			if err != nil {
				return err
			}
			records, err := store.List(cmd.Context(), limit, filter...)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, records)
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No exports recorded")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Project", "Status", "Frames", "Size", "Started", "Elapsed"},
				historyRows(records, time.Now()),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight},
			))
			stats, err := store.Stats(cmd.Context())
			if err == nil {
				fmt.Fprintln(out, formatStats(stats))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs (0 for all)")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Only show runs with these statuses")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			rec, err := findRecord(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, rec)
			}
			printRecord(cmd.OutOrStdout(), rec, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newHistoryRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <run-id>",
		Short: "Delete one recorded export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			rec, err := findRecord(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			if _, err := store.Remove(cmd.Context(), rec.RunID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed run %s\n", rec.RunID)
			return nil
		},
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded export",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.historyStore()
			if err != nil {
				return err
			}
			n, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d recorded %s\n", n, pluralize(n, "export", "exports"))
			return nil
		},
	}
}

// findRecord resolves a full run id or a unique prefix of one.
func findRecord(ctx context.Context, store *history.Store, id string) (*history.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("run id required")
	}
	rec, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}
	records, err := store.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	var matches []*history.Record
	for _, r := range records {
		if strings.HasPrefix(r.RunID, id) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("run %s not found", id)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %s is ambiguous (%d matches)", id, len(matches))
	}
}

func parseStatuses(values []string) ([]telemetry.Status, error) {
	var out []telemetry.Status
	for _, v := range values {
		status := telemetry.Status(strings.ToLower(strings.TrimSpace(v)))
		if status == "" {
			continue
		}
		if !status.Valid() {
			return nil, fmt.Errorf("unknown status %q", v)
		}
		out = append(out, status)
	}
	return out, nil
}

func historyRows(records []*history.Record, now time.Time) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		elapsed := "-"
		if d := rec.Elapsed(); d > 0 {
			elapsed = d.Round(time.Second).String()
		}
		size := "-"
		if rec.OutputBytes > 0 {
			size = humanize.IBytes(uint64(rec.OutputBytes))
		}
		rows = append(rows, []string{
			shortID(rec.RunID),
			rec.ProjectName,
			statusTitle(rec.Status),
			fmt.Sprintf("%d/%d", rec.FramesWritten, rec.TotalFrames),
			size,
			humanize.RelTime(rec.StartedAt, now, "ago", "from now"),
			elapsed,
		})
	}
	return rows
}

func formatStats(stats map[telemetry.Status]int) string {
	keys := make([]string, 0, len(stats))
	for status := range stats {
		keys = append(keys, string(status))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", key, stats[telemetry.Status(key)]))
	}
	return "Totals: " + strings.Join(parts, ", ")
}

func printRecord(out io.Writer, rec *history.Record, colorize bool) {
	for _, line := range renderSectionHeader("Export "+rec.RunID, colorize) {
		fmt.Fprintln(out, line)
	}
	lines := []struct {
		label string
		kind  statusKind
		value string
	}{
		{"Status", runStatusKind(rec.Status), statusTitle(rec.Status)},
		{"Project", statusInfo, rec.ProjectName},
		{"Output", statusInfo, rec.OutputPath},
		{"Format", statusInfo, rec.Format},
		{"Resolution", statusInfo, fmt.Sprintf("%dx%d @ %s fps", rec.Width, rec.Height, strconv.FormatFloat(rec.FPS, 'f', -1, 64))},
		{"Bitrate", statusInfo, strconv.Itoa(rec.Bitrate) + " kbps"},
		{"Attempt", statusInfo, strconv.Itoa(rec.Attempt)},
		{"Frames", statusInfo, fmt.Sprintf("%d of %d written, %d dropped", rec.FramesWritten, rec.TotalFrames, rec.DroppedFrames)},
		{"Started", statusInfo, rec.StartedAt.Local().Format(time.RFC3339)},
	}
	for _, l := range lines {
		fmt.Fprintln(out, renderStatusLine(l.label, l.kind, l.value, colorize))
	}
	if !rec.FinishedAt.IsZero() {
		fmt.Fprintln(out, renderStatusLine("Elapsed", statusInfo, rec.Elapsed().Round(time.Millisecond).String(), colorize))
	}
	if rec.OutputBytes > 0 {
		fmt.Fprintln(out, renderStatusLine("Size", statusInfo, humanize.IBytes(uint64(rec.OutputBytes)), colorize))
	}
	if rec.ErrorMessage != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, rec.ErrorMessage, colorize))
		fmt.Fprintln(out, renderStatusLine("Category", statusInfo, rec.ErrorCategory, colorize))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func pluralize(n int64, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
