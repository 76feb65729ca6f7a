package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"lyricast/internal/config"
	"lyricast/internal/export"
	"lyricast/internal/faults"
	"lyricast/internal/feed"
	"lyricast/internal/logging"
	"lyricast/internal/media/ffprobe"
	"lyricast/internal/notifications"
	"lyricast/internal/project"
	"lyricast/internal/settings"
)

type exportFlags struct {
	audio     string
	video     string
	image     string
	lyrics    string
	name      string
	preset    string
	format    string
	fps       float64
	bitrate   int
	outputDir string
	filename  string
	overwrite bool
	keepTemp  bool
	retries   int
	events    string
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render and encode a karaoke video",
		Example: `  lyricast export --audio song.mp3 --image cover.png --lyrics timing.json
  lyricast export --audio song.flac --video loop.mp4 --preset "4K (2160p)" --format "MKV (H.264)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return runExport(cmd, ctx, cfg, logger, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.audio, "audio", "", "Audio file muxed into the export (required)")
	f.StringVar(&flags.video, "video", "", "Background video")
	f.StringVar(&flags.image, "image", "", "Background image")
	f.StringVar(&flags.lyrics, "lyrics", "", "Subtitle timing JSON")
	f.StringVar(&flags.name, "project-name", "", "Project name recorded in history (defaults to the audio file name)")
	f.StringVar(&flags.preset, "preset", "", "Quality preset (see `lyricast presets`)")
	f.StringVar(&flags.format, "format", "", "Container and codec label (see `lyricast formats`)")
	f.Float64Var(&flags.fps, "fps", 0, "Frame rate")
	f.IntVar(&flags.bitrate, "bitrate", 0, "Video bitrate in kbps")
	f.StringVar(&flags.outputDir, "output-dir", "", "Output directory")
	f.StringVar(&flags.filename, "name", "", "Output file name")
	f.BoolVar(&flags.overwrite, "overwrite", false, "Replace an existing output file")
	f.BoolVar(&flags.keepTemp, "keep-temp", false, "Keep the staging workspace after the export")
	f.IntVar(&flags.retries, "retries", 0, "Retry retryable failures up to N times")
	f.StringVar(&flags.events, "events", "", "Append progress events as JSON lines to this file")
	_ = cmd.MarkFlagRequired("audio")
	cmd.MarkFlagsMutuallyExclusive("video", "image")

	return cmd
}

func runExport(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, logger *slog.Logger, flags exportFlags) error {
	exportCfg, err := buildExportConfiguration(cmd, cfg, flags)
	if err != nil {
		return err
	}

	sigCtx, stop := context.WithCancel(context.Background())
	defer stop()

	proj, err := buildProject(sigCtx, cfg, logger, flags)
	if err != nil {
		return err
	}

	hub := feed.NewHub(0)
	if strings.TrimSpace(flags.events) != "" {
		sink, err := openEventLog(flags.events)
		if err != nil {
			return err
		}
		defer sink.Close()
		hub.AddSink(sink)
	}

	opts := export.OptionsFromConfig(cfg, logger)
	opts.Hub = hub
	if store, err := ctx.historyStore(); err != nil {
		logging.WarnWithContext(logger, "export history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check log_dir permissions"),
			logging.String(logging.FieldImpact, "this run is not recorded"),
		)
	} else {
		opts.Recorder = store
	}

	run := export.New(opts)
	run.SetProject(proj)

	out := cmd.OutOrStdout()
	reporter := newProgressReporter(cmd.ErrOrStderr(), logger)
	reporter.follow(sigCtx, hub)

	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	go handleSignals(sigCtx, run, signals, cmd.ErrOrStderr())

	maxRetries := max(flags.retries, 0)
	err = awaitRun(sigCtx, run, run.Start(sigCtx, exportCfg))
	for attempt := 1; err != nil && faults.Retryable(err) && attempt <= maxRetries && run.CanRetry(); attempt++ {
		fmt.Fprintf(cmd.ErrOrStderr(), "Export failed (%v); retrying (%d/%d)\n", err, attempt, maxRetries)
		err = awaitRun(sigCtx, run, run.Retry(sigCtx))
	}
	reporter.finish()
	notifyOutcome(cfg, logger, run, proj, err)

	printValidation(out, run.LastValidation())
	if err != nil {
		printFailure(out, run, err)
		return err
	}
	printSummary(out, run)
	return nil
}

// awaitRun waits for the attempt launched by Start or Retry to reach a
// terminal state.
func awaitRun(ctx context.Context, run *export.Run, started bool) error {
	if !started {
		if err := run.Err(); err != nil {
			return err
		}
		return errors.New("export could not be started")
	}
	return run.Wait(ctx)
}

// notifyOutcome posts the final run state to ntfy when a topic is configured.
// Delivery failures are logged and never change the export result.
func notifyOutcome(cfg *config.Config, logger *slog.Logger, run *export.Run, proj *project.Project, runErr error) {
	svc := notifications.NewService(cfg)
	if !svc.Enabled() {
		return
	}
	info := run.Progress()
	outcome := notifications.Outcome{
		RunID:         run.RunID(),
		Project:       proj.Name,
		OutputPath:    run.OutputPath(),
		Status:        run.Status(),
		FramesWritten: run.PerformanceMetrics().FramesWritten,
		TotalFrames:   info.TotalFrames,
		Elapsed:       info.Elapsed,
	}
	if runErr != nil {
		outcome.Error = runErr.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.NotificationTimeout())
	defer cancel()
	if err := svc.NotifyExport(ctx, outcome); err != nil {
		logging.WarnWithContext(logger, "export notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "no push notification for this run"),
		)
	}
}

func handleSignals(ctx context.Context, run *export.Run, signals <-chan os.Signal, errOut io.Writer) {
	interrupts := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-signals:
			interrupts++
			if interrupts == 1 {
				fmt.Fprintln(errOut, "\nCancelling export (press Ctrl+C again to force)...")
				go run.Cancel()
				continue
			}
			fmt.Fprintln(errOut, "\nForcing export to stop")
			go run.ForceCancel()
		}
	}
}

func buildExportConfiguration(cmd *cobra.Command, cfg *config.Config, flags exportFlags) (settings.ExportConfiguration, error) {
	ec, err := export.ConfigurationFromConfig(cfg)
	if err != nil {
		return ec, err
	}
	changed := cmd.Flags().Changed
	if changed("preset") {
		if ec, err = ec.ApplyPreset(flags.preset); err != nil {
			return ec, err
		}
	}
	if changed("format") {
		if _, ok := settings.ResolveFormat(flags.format); !ok {
			return ec, fmt.Errorf("unknown format %q (see `lyricast formats`)", flags.format)
		}
		ec.Format = flags.format
	}
	if changed("fps") {
		ec.FPS = flags.fps
	}
	if changed("bitrate") {
		ec.Bitrate = flags.bitrate
	}
	if changed("output-dir") {
		dir, err := config.ExpandPath(flags.outputDir)
		if err != nil {
			return ec, err
		}
		ec.OutputDir = dir
	}
	if changed("name") {
		ec.Filename = strings.TrimSpace(flags.filename)
	} else {
		base := filepath.Base(flags.audio)
		ec.Filename = strings.TrimSuffix(base, filepath.Ext(base)) + "_karaoke"
	}
	if changed("overwrite") {
		ec.Overwrite = flags.overwrite
	}
	if flags.keepTemp {
		ec.CleanupTemp = false
	}
	return ec, nil
}

// buildProject assembles the project from the command line. Media that
// cannot be probed is still referenced; its duration falls back to the
// configured default.
func buildProject(ctx context.Context, cfg *config.Config, logger *slog.Logger, flags exportFlags) (*project.Project, error) {
	name := strings.TrimSpace(flags.name)
	if name == "" {
		base := filepath.Base(flags.audio)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	proj := &project.Project{ID: name, Name: name}
	probe := cfg.FFprobeBinary()

	if path, err := expandMedia(flags.audio); err != nil {
		return nil, err
	} else if path != "" {
		track, err := ffprobe.ProbeAudio(ctx, probe, path)
		if err != nil {
			warnProbe(logger, path, err)
			track = &project.AudioTrack{Path: path}
		}
		proj.Audio = track
	}
	if path, err := expandMedia(flags.video); err != nil {
		return nil, err
	} else if path != "" {
		track, err := ffprobe.ProbeVideo(ctx, probe, path)
		if err != nil {
			warnProbe(logger, path, err)
			track = &project.VideoTrack{Path: path}
		}
		proj.Video = track
	}
	if path, err := expandMedia(flags.image); err != nil {
		return nil, err
	} else if path != "" {
		img, err := ffprobe.ProbeImage(ctx, probe, path)
		if err != nil {
			warnProbe(logger, path, err)
			img = &project.ImageBackground{Path: path}
		}
		proj.Image = img
	}
	if path, err := expandMedia(flags.lyrics); err != nil {
		return nil, err
	} else if path != "" {
		track, err := project.LoadTiming(path)
		if err != nil {
			return nil, err
		}
		proj.Subtitles = track
	}
	return proj, nil
}

func expandMedia(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	path, err := config.ExpandPath(value)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", value, err)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("media file %s: %w", path, err)
	}
	return path, nil
}

func warnProbe(logger *slog.Logger, path string, err error) {
	logging.WarnWithContext(logger, "media probe failed", "media_probe_failed",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "install ffprobe or check the media file"),
		logging.String(logging.FieldImpact, "duration falls back to the configured default"),
	)
}
