package config

const (
	defaultConfigPath              = "~/.config/lyricast/config.toml"
	defaultOutputDir               = "~/Videos/karaoke"
	defaultStagingDir              = "~/.local/share/lyricast/staging"
	defaultLogDir                  = "~/.local/share/lyricast/logs"
	defaultFFmpegBinary            = "ffmpeg"
	defaultFFprobeBinary           = "ffprobe"
	defaultFormat                  = "MP4 (H.264)"
	defaultQualityPreset           = "Medium (1080p)"
	defaultWidth                   = 1920
	defaultHeight                  = 1080
	defaultFPS                     = 30.0
	defaultBitrate                 = 8000
	defaultEncoderPreset           = "medium"
	defaultEncoderProfile          = "high"
	defaultCRF                     = -1
	defaultQueueCapacity           = 5
	defaultProgressIntervalMillis  = 100
	defaultDropThresholdPercent    = 5.0
	defaultMaxRetries              = 3
	defaultWriterJoinTimeout       = 5
	defaultFallbackDurationSeconds = 60.0
	defaultFontSize                = 48
	defaultTextColor               = "#FFFFFF"
	defaultHighlightColor          = "#FFD400"
	defaultOutlineColor            = "#000000"
	defaultBackgroundColor         = "#000000"
	defaultMarginBottom            = 80
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultNtfyRequestTimeout      = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Export: Export{
			Format:        defaultFormat,
			QualityPreset: defaultQualityPreset,
			Width:         defaultWidth,
			Height:        defaultHeight,
			FPS:           defaultFPS,
			Bitrate:       defaultBitrate,
			CleanupTemp:   true,
		},
		Encoder: Encoder{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			Preset:        defaultEncoderPreset,
			Profile:       defaultEncoderProfile,
			CRF:           defaultCRF,
		},
		Pipeline: Pipeline{
			QueueCapacity:            defaultQueueCapacity,
			ProgressIntervalMillis:   defaultProgressIntervalMillis,
			DropThresholdPercent:     defaultDropThresholdPercent,
			MaxRetries:               defaultMaxRetries,
			WriterJoinTimeoutSeconds: defaultWriterJoinTimeout,
			FallbackDurationSeconds:  defaultFallbackDurationSeconds,
		},
		Render: Render{
			FontSize:        defaultFontSize,
			TextColor:       defaultTextColor,
			HighlightColor:  defaultHighlightColor,
			OutlineColor:    defaultOutlineColor,
			BackgroundColor: defaultBackgroundColor,
			MarginBottom:    defaultMarginBottom,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
			OnSuccess:      true,
			OnFailure:      true,
		},
	}
}
