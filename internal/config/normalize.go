package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExport()
	c.normalizeEncoder()
	c.normalizePipeline()
	if err := c.normalizeRender(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExport() {
	c.Export.Format = strings.TrimSpace(c.Export.Format)
	if c.Export.Format == "" {
		c.Export.Format = defaultFormat
	}
	c.Export.QualityPreset = strings.TrimSpace(c.Export.QualityPreset)
}

func (c *Config) normalizeEncoder() {
	c.Encoder.FFmpegBinary = strings.TrimSpace(c.Encoder.FFmpegBinary)
	if c.Encoder.FFmpegBinary == "" {
		c.Encoder.FFmpegBinary = defaultFFmpegBinary
	}
	c.Encoder.FFprobeBinary = strings.TrimSpace(c.Encoder.FFprobeBinary)
	if c.Encoder.FFprobeBinary == "" {
		c.Encoder.FFprobeBinary = defaultFFprobeBinary
	}
	c.Encoder.Preset = strings.ToLower(strings.TrimSpace(c.Encoder.Preset))
	c.Encoder.Profile = strings.ToLower(strings.TrimSpace(c.Encoder.Profile))
	c.Encoder.Level = strings.TrimSpace(c.Encoder.Level)
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.QueueCapacity <= 0 {
		c.Pipeline.QueueCapacity = defaultQueueCapacity
	}
	if c.Pipeline.ProgressIntervalMillis <= 0 {
		c.Pipeline.ProgressIntervalMillis = defaultProgressIntervalMillis
	}
	if c.Pipeline.WriterJoinTimeoutSeconds <= 0 {
		c.Pipeline.WriterJoinTimeoutSeconds = defaultWriterJoinTimeout
	}
	if c.Pipeline.FallbackDurationSeconds <= 0 {
		c.Pipeline.FallbackDurationSeconds = defaultFallbackDurationSeconds
	}
}

func (c *Config) normalizeRender() error {
	if strings.TrimSpace(c.Render.FontPath) != "" {
		expanded, err := expandPath(c.Render.FontPath)
		if err != nil {
			return fmt.Errorf("render.font_path: %w", err)
		}
		c.Render.FontPath = expanded
	}
	if c.Render.FontSize <= 0 {
		c.Render.FontSize = defaultFontSize
	}
	for _, field := range []*string{&c.Render.TextColor, &c.Render.HighlightColor, &c.Render.OutlineColor, &c.Render.BackgroundColor} {
		*field = strings.ToUpper(strings.TrimSpace(*field))
	}
	if c.Render.TextColor == "" {
		c.Render.TextColor = defaultTextColor
	}
	if c.Render.HighlightColor == "" {
		c.Render.HighlightColor = defaultHighlightColor
	}
	if c.Render.OutlineColor == "" {
		c.Render.OutlineColor = defaultOutlineColor
	}
	if c.Render.BackgroundColor == "" {
		c.Render.BackgroundColor = defaultBackgroundColor
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
