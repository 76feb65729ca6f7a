package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lyricast/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestEnsureDirectoryReportsCreation(t *testing.T) {
	target := filepath.Join(t.TempDir(), "a", "b")
	created, err := EnsureDirectory(target)
	if err != nil || !created {
		t.Fatalf("expected creation, created=%v err=%v", created, err)
	}
	created, err = EnsureDirectory(target)
	if err != nil || created {
		t.Fatalf("expected existing dir, created=%v err=%v", created, err)
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := EnsureDirectory(file); err == nil {
		t.Fatal("expected error when path is a file")
	}
}

func TestFreeSpaceResolvesMissingPath(t *testing.T) {
	free, err := FreeSpace(context.Background(), filepath.Join(t.TempDir(), "not", "yet"))
	if err != nil {
		t.Fatalf("FreeSpace: %v", err)
	}
	if free == 0 {
		t.Fatal("expected some free space on the temp filesystem")
	}
}

func TestValidationHelpers(t *testing.T) {
	results := []ValidationResult{
		Info("Output directory created", ""),
		Warning("No subtitles", "Add a timing file"),
		Error("No audio track", "Select an audio file"),
		Error("No background", "Select a video or image"),
	}
	if !HasErrors(results) {
		t.Fatal("expected blocking errors")
	}
	if got := len(Errors(results)); got != 2 {
		t.Fatalf("expected 2 errors, got %d", got)
	}
	if got := Summary(results); got != "No audio track; No background" {
		t.Fatalf("unexpected summary %q", got)
	}
	if HasErrors(results[:2]) {
		t.Fatal("warnings must not block")
	}
}

func TestRunAllCoversConfiguredDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), &cfg)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	if !results[0].Passed || !results[1].Passed {
		t.Fatalf("expected staging and log checks to pass: %+v", results[:2])
	}
	if results[2].Passed {
		t.Fatal("output dir was never created and should fail")
	}
	if RunAll(context.Background(), nil) != nil {
		t.Fatal("nil config should produce no results")
	}
}
