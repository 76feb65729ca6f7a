package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if topic := c.Notifications.NtfyTopic; topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateExport() error {
	if err := ensurePositiveMap(map[string]int{
		"export.width":   c.Export.Width,
		"export.height":  c.Export.Height,
		"export.bitrate": c.Export.Bitrate,
	}); err != nil {
		return err
	}
	if c.Export.Width%2 != 0 || c.Export.Height%2 != 0 {
		return errors.New("export.width and export.height must be even")
	}
	if c.Export.FPS <= 0 || c.Export.FPS > 120 {
		return errors.New("export.fps must be greater than 0 and at most 120")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.CRF < -1 || c.Encoder.CRF > 51 {
		return errors.New("encoder.crf must be between 0 and 51 (or -1 to use the bitrate target)")
	}
	if c.Encoder.MaxBitrate < 0 {
		return errors.New("encoder.max_bitrate must be zero or positive")
	}
	if c.Encoder.BufferSize < 0 {
		return errors.New("encoder.buffer_size must be zero or positive")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.DropThresholdPercent <= 0 || c.Pipeline.DropThresholdPercent > 100 {
		return errors.New("pipeline.drop_threshold_percent must be greater than 0 and at most 100")
	}
	if c.Pipeline.MaxRetries < 0 {
		return errors.New("pipeline.max_retries must be zero or positive")
	}
	return nil
}

func (c *Config) validateRender() error {
	colors := map[string]string{
		"render.text_color":       c.Render.TextColor,
		"render.highlight_color":  c.Render.HighlightColor,
		"render.outline_color":    c.Render.OutlineColor,
		"render.background_color": c.Render.BackgroundColor,
	}
	for key, value := range colors {
		if !validHexColor(value) {
			return fmt.Errorf("%s must be a #RRGGBB or #RRGGBBAA color, got %q", key, value)
		}
	}
	if c.Render.MarginBottom < 0 {
		return errors.New("render.margin_bottom must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func validHexColor(value string) bool {
	value = strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(value) != 6 && len(value) != 8 {
		return false
	}
	_, err := strconv.ParseUint(value, 16, 32)
	return err == nil
}
