package export

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"lyricast/internal/config"
	"lyricast/internal/encoder"
	"lyricast/internal/feed"
	"lyricast/internal/history"
	"lyricast/internal/preflight"
	"lyricast/internal/render"
	"lyricast/internal/settings"
)

// ValidationResult is one finding from pre-export validation.
type ValidationResult = preflight.ValidationResult

// Recorder persists one record per attempt. *history.Store satisfies it.
type Recorder interface {
	Begin(ctx context.Context, rec *history.Record) error
	Finish(ctx context.Context, rec *history.Record) error
}

// Tuning carries the pipeline knobs.
type Tuning struct {
	QueueCapacity        int
	ProgressInterval     time.Duration
	DropThresholdPercent float64
	// MaxRetries of zero means the default ceiling; a negative value
	// disables retries.
	MaxRetries        int
	WriterJoinTimeout time.Duration
	// FallbackDuration in seconds applies when the project has no timed media.
	FallbackDuration float64
}

// DefaultTuning returns the stock pipeline settings.
func DefaultTuning() Tuning {
	return Tuning{
		QueueCapacity:        5,
		ProgressInterval:     100 * time.Millisecond,
		DropThresholdPercent: 5,
		MaxRetries:           3,
		WriterJoinTimeout:    5 * time.Second,
		FallbackDuration:     60,
	}
}

func (t Tuning) withDefaults() Tuning {
	def := DefaultTuning()
	if t.QueueCapacity <= 0 {
		t.QueueCapacity = def.QueueCapacity
	}
	if t.ProgressInterval <= 0 {
		t.ProgressInterval = def.ProgressInterval
	}
	if t.DropThresholdPercent <= 0 {
		t.DropThresholdPercent = def.DropThresholdPercent
	}
	switch {
	case t.MaxRetries == 0:
		t.MaxRetries = def.MaxRetries
	case t.MaxRetries < 0:
		t.MaxRetries = 0
	}
	if t.WriterJoinTimeout <= 0 {
		t.WriterJoinTimeout = def.WriterJoinTimeout
	}
	if t.FallbackDuration <= 0 {
		t.FallbackDuration = def.FallbackDuration
	}
	return t
}

// Options wires a Run to its collaborators. Backend, Encoder, and
// StagingRoot are required; the rest have usable zero values.
type Options struct {
	Backend      render.Backend
	Fallback     render.Backend
	Encoder      encoder.Encoder
	FFmpegBinary string
	Advanced     settings.Advanced
	Tuning       Tuning
	StagingRoot  string
	Logger       *slog.Logger
	Hub          *feed.Hub
	Recorder     Recorder
	Now          func() time.Time
}

// OptionsFromConfig builds production options: the software renderer with
// the bitmap fallback, ffmpeg as encoder, and pipeline tuning from cfg.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) Options {
	var crf *int
	if cfg.Encoder.CRF >= 0 {
		value := cfg.Encoder.CRF
		crf = &value
	}
	enc := encoder.NewFFmpeg(cfg.FFmpegBinary(), logger)
	enc.GracePeriod = cfg.WriterJoinTimeout()

	return Options{
		Backend: render.NewSoftwareBackend(render.SoftwareOptions{
			FFmpegBinary:    cfg.FFmpegBinary(),
			FontPath:        cfg.Render.FontPath,
			FontSize:        cfg.Render.FontSize,
			TextColor:       cfg.Render.TextColor,
			HighlightColor:  cfg.Render.HighlightColor,
			OutlineColor:    cfg.Render.OutlineColor,
			BackgroundColor: cfg.Render.BackgroundColor,
			MarginBottom:    cfg.Render.MarginBottom,
		}),
		Fallback: render.FallbackBackend{
			Background: cfg.Render.BackgroundColor,
			Text:       cfg.Render.TextColor,
		},
		Encoder:      enc,
		FFmpegBinary: cfg.FFmpegBinary(),
		Advanced: settings.Advanced{
			CRF:        crf,
			MaxBitrate: cfg.Encoder.MaxBitrate,
			BufferSize: cfg.Encoder.BufferSize,
			Preset:     cfg.Encoder.Preset,
			Profile:    cfg.Encoder.Profile,
			Level:      cfg.Encoder.Level,
		},
		Tuning: Tuning{
			QueueCapacity:        cfg.Pipeline.QueueCapacity,
			ProgressInterval:     cfg.ProgressInterval(),
			DropThresholdPercent: cfg.Pipeline.DropThresholdPercent,
			MaxRetries:           retryCeiling(cfg.Pipeline.MaxRetries),
			WriterJoinTimeout:    cfg.WriterJoinTimeout(),
			FallbackDuration:     cfg.Pipeline.FallbackDurationSeconds,
		},
		StagingRoot: cfg.Paths.StagingDir,
		Logger:      logger,
	}
}

// retryCeiling maps pipeline.max_retries onto Tuning, where zero selects
// the default: a configured 0 turns retries off.
func retryCeiling(configured int) int {
	if configured <= 0 {
		return -1
	}
	return configured
}

// ConfigurationFromConfig returns the export configuration defaults from
// cfg, with the configured quality preset applied.
func ConfigurationFromConfig(cfg *config.Config) (settings.ExportConfiguration, error) {
	ec := settings.ExportConfiguration{
		Width:       cfg.Export.Width,
		Height:      cfg.Export.Height,
		FPS:         cfg.Export.FPS,
		Bitrate:     cfg.Export.Bitrate,
		OutputDir:   cfg.Paths.OutputDir,
		Format:      cfg.Export.Format,
		CleanupTemp: cfg.Export.CleanupTemp,
		Overwrite:   cfg.Export.Overwrite,
	}
	if preset := strings.TrimSpace(cfg.Export.QualityPreset); preset != "" {
		return ec.ApplyPreset(preset)
	}
	return ec, nil
}
