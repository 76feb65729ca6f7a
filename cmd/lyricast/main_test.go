package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lyricast/internal/config"
	"lyricast/internal/faults"
	"lyricast/internal/history"
	"lyricast/internal/settings"
	"lyricast/internal/telemetry"
	"lyricast/internal/testsupport"
)

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\noutput_dir = %q\nstaging_dir = %q\nlog_dir = %q\n\n[logging]\nlevel = \"error\"\n",
		cfg.Paths.OutputDir,
		cfg.Paths.StagingDir,
		cfg.Paths.LogDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func setupConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cfg := testsupport.NewConfig(t)
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, path, cfg)
	return cfg, path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q\n%s", substr, output)
	}
}

func TestPresetsCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"presets"}, "")
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	requireContains(t, out, "Medium (1080p)")
	requireContains(t, out, "1920x1080")
	requireContains(t, out, "8000 kbps")
}

func TestFormatsCommandJSON(t *testing.T) {
	out, _, err := runCLI(t, []string{"formats", "--json"}, "")
	if err != nil {
		t.Fatalf("formats: %v", err)
	}
	var formats []settings.Format
	if err := json.Unmarshal([]byte(out), &formats); err != nil {
		t.Fatalf("decode formats: %v\n%s", err, out)
	}
	if len(formats) != 4 || formats[0].Label != "MP4 (H.264)" {
		t.Fatalf("unexpected formats %+v", formats)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "lyricast", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "1920x1080")
}

func TestHistoryCommands(t *testing.T) {
	cfg, configPath := setupConfig(t)

	store, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	ctx := context.Background()
	started := time.Now().Add(-time.Minute)
	recs := []*history.Record{
		{RunID: "aaaaaaaa-1111", ProjectName: "First Song", Format: "MP4 (H.264)", Width: 1280, Height: 720, FPS: 30, Bitrate: 4000, Attempt: 1, TotalFrames: 300, StartedAt: started},
		{RunID: "bbbbbbbb-2222", ProjectName: "Second Song", Format: "MKV (H.264)", Width: 1920, Height: 1080, FPS: 25, Bitrate: 8000, Attempt: 1, TotalFrames: 250, StartedAt: started.Add(time.Second)},
	}
	for _, rec := range recs {
		if err := store.Begin(ctx, rec); err != nil {
			t.Fatalf("Begin: %v", err)
		}
	}
	recs[0].Status = telemetry.StatusCompleted
	recs[0].FramesWritten = 300
	recs[0].OutputBytes = 2 << 20
	recs[0].FinishedAt = started.Add(20 * time.Second)
	recs[1].Status = telemetry.StatusFailed
	recs[1].ErrorMessage = "encode error: encoding: encoder: encoder exited with status 1: Insufficient disk space"
	recs[1].ErrorCategory = string(faults.CategoryDisk)
	recs[1].FinishedAt = started.Add(5 * time.Second)
	for _, rec := range recs {
		if err := store.Finish(ctx, rec); err != nil {
			t.Fatalf("Finish: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	out, _, err := runCLI(t, []string{"history", "list"}, configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "First Song")
	requireContains(t, out, "Second Song")
	requireContains(t, out, "300/300")
	requireContains(t, out, "completed: 1")

	out, _, err = runCLI(t, []string{"history", "list", "--status", "failed"}, configPath)
	if err != nil {
		t.Fatalf("history list --status: %v", err)
	}
	if strings.Contains(out, "First Song") {
		t.Fatalf("status filter leaked completed run:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"history", "show", "bbbb"}, configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "Insufficient disk space")
	requireContains(t, out, "disk")

	if _, _, err := runCLI(t, []string{"history", "show", "zzzz"}, configPath); err == nil {
		t.Fatal("expected unknown run id to fail")
	}

	out, _, err = runCLI(t, []string{"history", "clear"}, configPath)
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	requireContains(t, out, "Cleared 2 recorded exports")
}

func TestExportRejectsMissingMedia(t *testing.T) {
	_, configPath := setupConfig(t)
	missing := filepath.Join(t.TempDir(), "nope.mp3")

	_, _, err := runCLI(t, []string{"export", "--audio", missing}, configPath)
	if err == nil || !strings.Contains(err.Error(), "media file") {
		t.Fatalf("expected missing media error, got %v", err)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	cfg, configPath := setupConfig(t)
	audio := filepath.Join(testsupport.BaseDir(cfg), "song.mp3")
	testsupport.WriteFile(t, audio, 64)

	_, _, err := runCLI(t, []string{"export", "--audio", audio, "--format", "WEBM (VP9)"}, configPath)
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{faults.Wrap(faults.ErrValidation, "validating", "", "no audio", nil), 2},
		{faults.Wrap(faults.ErrCancelled, "rendering", "", "export cancelled by user", nil), 130},
		{faults.Wrap(faults.ErrEncode, "encoding", "encoder", "", nil), 1},
		{fmt.Errorf("plain"), 1},
	}
	for _, tc := range cases {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestTestNotifyCommand(t *testing.T) {
	cfg, configPath := setupConfig(t)

	out, _, err := runCLI(t, []string{"test-notify"}, configPath)
	if err != nil {
		t.Fatalf("test-notify without topic: %v", err)
	}
	requireContains(t, out, "Notifications disabled")

	var title string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title = r.Header.Get("Title")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	writeTestConfig(t, configPath, cfg)
	f, err := os.OpenFile(configPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open config: %v", err)
	}
	fmt.Fprintf(f, "\n[notifications]\nntfy_topic = %q\n", server.URL)
	_ = f.Close()

	out, _, err = runCLI(t, []string{"test-notify"}, configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if title != "Lyricast - Test" {
		t.Fatalf("unexpected notification title %q", title)
	}
}

func TestLogsCommandFiltersByRun(t *testing.T) {
	cfg, configPath := setupConfig(t)
	content := strings.Join([]string{
		"2026-01-01T00:00:00Z INFO export: export starting run_id=aaaa1111",
		"2026-01-01T00:00:01Z INFO export: export starting run_id=bbbb2222",
		"2026-01-01T00:00:02Z INFO export: Export completed run_id=aaaa1111",
		"",
	}, "\n")
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	if err := os.WriteFile(cfg.LogFilePath(), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--run", "aaaa"}, configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "bbbb2222") {
		t.Fatalf("filter leaked another run:\n%s", out)
	}
	requireContains(t, out, "Export completed")

	out, _, err = runCLI(t, []string{"logs", "-n", "1"}, configPath)
	if err != nil {
		t.Fatalf("logs -n 1: %v", err)
	}
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected one line, got:\n%s", out)
	}
}
