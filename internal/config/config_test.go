package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"lyricast/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "lyricast", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "Videos", "karaoke") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Pipeline.QueueCapacity != 5 {
		t.Fatalf("expected queue capacity 5, got %d", cfg.Pipeline.QueueCapacity)
	}
	if cfg.ProgressInterval() != 100*time.Millisecond {
		t.Fatalf("expected 100ms progress interval, got %s", cfg.ProgressInterval())
	}
	if cfg.WriterJoinTimeout() != 5*time.Second {
		t.Fatalf("expected 5s writer join timeout, got %s", cfg.WriterJoinTimeout())
	}
	if cfg.Pipeline.MaxRetries != 3 {
		t.Fatalf("expected 3 retries, got %d", cfg.Pipeline.MaxRetries)
	}
	if cfg.Encoder.CRF != -1 {
		t.Fatalf("expected CRF disabled by default, got %d", cfg.Encoder.CRF)
	}
	if !cfg.Export.CleanupTemp {
		t.Fatal("expected cleanup_temp enabled by default")
	}
	if cfg.HistoryDBPath() != filepath.Join(cfg.Paths.LogDir, "history.db") {
		t.Fatalf("unexpected history path %q", cfg.HistoryDBPath())
	}
}

func TestLoadCustomPathOverridesValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	content := `
[paths]
output_dir = "~/exports"
staging_dir = "~/tmp/staging"

[export]
format = "MP4 (H.265)"
fps = 25.0

[encoder]
crf = 20
preset = " Slow "

[logging]
format = "JSON"
level = "DEBUG"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "exports") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Export.Format != "MP4 (H.265)" {
		t.Fatalf("unexpected format: %q", cfg.Export.Format)
	}
	if cfg.Export.FPS != 25 {
		t.Fatalf("unexpected fps: %v", cfg.Export.FPS)
	}
	if cfg.Encoder.CRF != 20 {
		t.Fatalf("unexpected crf: %d", cfg.Encoder.CRF)
	}
	if cfg.Encoder.Preset != "slow" {
		t.Fatalf("expected preset normalized to slow, got %q", cfg.Encoder.Preset)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging settings, got %+v", cfg.Logging)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"odd width", func(c *config.Config) { c.Export.Width = 1921 }, "must be even"},
		{"zero bitrate", func(c *config.Config) { c.Export.Bitrate = 0 }, "export.bitrate"},
		{"fps too high", func(c *config.Config) { c.Export.FPS = 240 }, "export.fps"},
		{"crf range", func(c *config.Config) { c.Encoder.CRF = 60 }, "encoder.crf"},
		{"drop threshold", func(c *config.Config) { c.Pipeline.DropThresholdPercent = 150 }, "drop_threshold_percent"},
		{"bad color", func(c *config.Config) { c.Render.TextColor = "white" }, "render.text_color"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "karaoke" }, "notifications.ntfy_topic"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	target := filepath.Join(tempHome, "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if decoded.Pipeline.QueueCapacity != 5 {
		t.Fatalf("sample queue capacity = %d, want 5", decoded.Pipeline.QueueCapacity)
	}

	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("Load sample: %v", err)
	}
}
