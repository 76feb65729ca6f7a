package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
}

// Export contains the defaults applied to every export configuration.
type Export struct {
	Format        string  `toml:"format"`
	QualityPreset string  `toml:"quality_preset"`
	Width         int     `toml:"width"`
	Height        int     `toml:"height"`
	FPS           float64 `toml:"fps"`
	Bitrate       int     `toml:"bitrate"`
	CleanupTemp   bool    `toml:"cleanup_temp"`
	Overwrite     bool    `toml:"overwrite"`
}

// Encoder contains the external encoder binaries and advanced rate-control knobs.
type Encoder struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	Preset        string `toml:"preset"`
	Profile       string `toml:"profile"`
	Level         string `toml:"level"`
	// CRF takes precedence over the bitrate target when set (>= 0).
	CRF        int `toml:"crf"`
	MaxBitrate int `toml:"max_bitrate"`
	BufferSize int `toml:"buffer_size"`
}

// Pipeline contains tuning for the frame pipeline.
type Pipeline struct {
	QueueCapacity            int     `toml:"queue_capacity"`
	ProgressIntervalMillis   int     `toml:"progress_interval_ms"`
	DropThresholdPercent     float64 `toml:"drop_threshold_percent"`
	MaxRetries               int     `toml:"max_retries"`
	WriterJoinTimeoutSeconds int     `toml:"writer_join_timeout_seconds"`
	FallbackDurationSeconds  float64 `toml:"fallback_duration_seconds"`
}

// Render contains defaults for the software subtitle renderer.
type Render struct {
	FontPath        string  `toml:"font_path"`
	FontSize        float64 `toml:"font_size"`
	TextColor       string  `toml:"text_color"`
	HighlightColor  string  `toml:"highlight_color"`
	OutlineColor    string  `toml:"outline_color"`
	BackgroundColor string  `toml:"background_color"`
	MarginBottom    int     `toml:"margin_bottom"`
}

// Notifications configures ntfy delivery of export outcomes.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	OnSuccess      bool   `toml:"on_success"`
	OnFailure      bool   `toml:"on_failure"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Lyricast.
//
// Configuration sections by subsystem:
//   - Paths: output, staging, and log directories
//   - Export: default export configuration (format label, preset, resolution)
//   - Encoder: ffmpeg/ffprobe binaries and advanced encoder knobs
//   - Pipeline: queue capacity, progress cadence, drop threshold, retries
//   - Render: font and colors for the software renderer
//   - Logging: log format and level
//   - Notifications: optional ntfy topic for finished exports
type Config struct {
	Paths    Paths    `toml:"paths"`
	Export   Export   `toml:"export"`
	Encoder  Encoder  `toml:"encoder"`
	Pipeline Pipeline `toml:"pipeline"`
	Render   Render   `toml:"render"`
	Logging  Logging  `toml:"logging"`

	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lyricast.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the staging and log directories. The output
// directory is left to export validation, which reports creation as an
// informational result.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for encoding and video decoding.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.Encoder.FFmpegBinary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.Encoder.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

// ProgressInterval returns the telemetry publish cadence.
func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.Pipeline.ProgressIntervalMillis) * time.Millisecond
}

// WriterJoinTimeout returns how long cancellation waits for the frame writer
// before killing the encoder.
func (c *Config) WriterJoinTimeout() time.Duration {
	return time.Duration(c.Pipeline.WriterJoinTimeoutSeconds) * time.Second
}

// NotificationTimeout returns the per-request ntfy timeout.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// LogFilePath returns the persistent log file written next to the history database.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "lyricast.log")
}

// HistoryDBPath returns the location of the export history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.LogDir, "history.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
