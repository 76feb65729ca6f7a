package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lyricast/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		runID  string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the Lyricast log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.LogFilePath()
			match := logs.Matcher(runID)
			out := cmd.OutOrStdout()
			emit := func(line string) {
				if match(line) {
					fmt.Fprintln(out, line)
				}
			}

			limit := lines
			if runID != "" {
				// Filtering happens after the tail, so read enough to find the run.
				limit = max(lines*20, 2000)
			}
			tail, offset, err := logs.Last(path, limit)
			if err != nil {
				return err
			}
			if runID != "" {
				tail = lastMatching(tail, match, lines)
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			followCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return logs.Follow(followCtx, path, offset, 250*time.Millisecond, emit)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().StringVar(&runID, "run", "", "Only show lines for this run id (or prefix)")
	return cmd
}

func lastMatching(lines []string, match func(string) bool, limit int) []string {
	var out []string
	for _, line := range lines {
		if match(line) {
			out = append(out, line)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
