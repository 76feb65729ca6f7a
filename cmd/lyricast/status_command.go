package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"lyricast/internal/config"
	"lyricast/internal/deps"
	"lyricast/internal/preflight"
	"lyricast/internal/render"
	"lyricast/internal/settings"
	"lyricast/internal/staging"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check external tools and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			checkCtx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			printSection(out, "Configuration", colorize, []string{
				renderStatusLine("Config file", statusInfo, ctx.configPath, colorize),
				renderStatusLine("History", statusInfo, cfg.HistoryDBPath(), colorize),
				notificationLine(cfg, colorize),
			})
			printSection(out, "Dependencies", colorize, dependencyLines(checkCtx, cfg, colorize))
			printSection(out, "Host", colorize, hostLines(checkCtx, cfg, colorize))
			return nil
		},
	}
}

func notificationLine(cfg *config.Config, colorize bool) string {
	if cfg.Notifications.NtfyTopic == "" {
		return renderStatusLine("Notifications", statusInfo, "Disabled", colorize)
	}
	return renderStatusLine("Notifications", statusOK, cfg.Notifications.NtfyTopic, colorize)
}

func printSection(out io.Writer, title string, colorize bool, lines []string) {
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
}

func dependencyLines(ctx context.Context, cfg *config.Config, colorize bool) []string {
	statuses := deps.CheckBinaries(deps.ExportRequirements(cfg.FFmpegBinary(), cfg.FFprobeBinary()))
	lines := make([]string, 0, len(statuses)+4)
	for _, s := range statuses {
		switch {
		case s.Available:
			lines = append(lines, renderStatusLine(s.Name, statusOK, "Ready ("+s.Path+")", colorize))
		case s.Optional:
			lines = append(lines, renderStatusLine(s.Name, statusWarn, s.Detail, colorize))
		default:
			lines = append(lines, renderStatusLine(s.Name, statusError, s.Detail, colorize))
		}
	}
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, m := range missing {
			names = append(names, m.Name)
		}
		lines = append(lines, renderStatusLine("Missing", statusError, strings.Join(names, ", "), colorize))
		return lines
	}

	if version, err := deps.FFmpegVersion(ctx, cfg.FFmpegBinary()); err == nil {
		lines = append(lines, renderStatusLine("Version", statusInfo, version, colorize))
	}
	codecs := map[string]bool{}
	for _, f := range settings.Formats() {
		if codecs[f.Codec] {
			continue
		}
		codecs[f.Codec] = true
		ok, err := deps.HasEncoder(ctx, cfg.FFmpegBinary(), f.Codec)
		switch {
		case err != nil:
			lines = append(lines, renderStatusLine(f.Codec, statusWarn, err.Error(), colorize))
		case ok:
			lines = append(lines, renderStatusLine(f.Codec, statusOK, "Available", colorize))
		default:
			lines = append(lines, renderStatusLine(f.Codec, statusError, "Not in this ffmpeg build", colorize))
		}
	}
	return lines
}

// workspaceLine reports export workspaces left behind by runs that kept
// their temp files or were interrupted.
func workspaceLine(cfg *config.Config, colorize bool) string {
	dirs, err := staging.ListWorkspaces(cfg.Paths.StagingDir)
	if err != nil {
		return renderStatusLine("Workspaces", statusWarn, err.Error(), colorize)
	}
	if len(dirs) == 0 {
		return renderStatusLine("Workspaces", statusOK, "None left behind", colorize)
	}
	var total int64
	for _, d := range dirs {
		total += d.Size
	}
	detail := fmt.Sprintf("%d left in %s (%s)", len(dirs), cfg.Paths.StagingDir, humanize.IBytes(uint64(total)))
	return renderStatusLine("Workspaces", statusWarn, detail, colorize)
}

func hostLines(ctx context.Context, cfg *config.Config, colorize bool) []string {
	var lines []string
	for _, res := range preflight.RunAll(ctx, cfg) {
		kind := statusOK
		if !res.Passed {
			kind = statusError
		}
		lines = append(lines, renderStatusLine(res.Name, kind, res.Detail, colorize))
	}
	lines = append(lines, workspaceLine(cfg, colorize))

	backend := render.NewSoftwareBackend(render.SoftwareOptions{
		FFmpegBinary: cfg.FFmpegBinary(),
		FontPath:     cfg.Render.FontPath,
		FontSize:     cfg.Render.FontSize,
	})
	spec := render.Spec{Width: cfg.Export.Width, Height: cfg.Export.Height, FPS: cfg.Export.FPS}
	if err := backend.Check(spec); err != nil {
		lines = append(lines, renderStatusLine("Renderer", statusWarn, "fallback only ("+err.Error()+")", colorize))
	} else {
		lines = append(lines, renderStatusLine("Renderer", statusOK, backend.Name(), colorize))
	}
	return lines
}
