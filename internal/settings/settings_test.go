package settings_test

import (
	"path/filepath"
	"strings"
	"testing"

	"lyricast/internal/settings"
)

func TestApplyPresetHighQuality(t *testing.T) {
	cfg := settings.ExportConfiguration{Width: 640, Height: 480, FPS: 30, Bitrate: 1000}
	got, err := cfg.ApplyPreset("High (1080p HQ)")
	if err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	if got.Width != 1920 || got.Height != 1080 || got.Bitrate != 15000 {
		t.Fatalf("unexpected preset result %+v", got)
	}
	if cfg.Width != 640 {
		t.Fatal("ApplyPreset must not modify the receiver")
	}
	if _, err := cfg.ApplyPreset("Ultra"); err == nil {
		t.Fatal("expected unknown preset error")
	}
}

func TestPresetsOrder(t *testing.T) {
	want := []string{"Low (720p)", "Medium (1080p)", "High (1080p HQ)", "4K (2160p)"}
	got := settings.Presets()
	if len(got) != len(want) {
		t.Fatalf("expected %d presets, got %d", len(want), len(got))
	}
	for i, p := range got {
		if p.Name != want[i] {
			t.Fatalf("preset %d = %q, want %q", i, p.Name, want[i])
		}
	}
	if got[3].Width != 3840 || got[3].Height != 2160 || got[3].Bitrate != 25000 {
		t.Fatalf("unexpected 4K preset %+v", got[3])
	}
}

func TestResolveFormat(t *testing.T) {
	cases := []struct {
		label, codec, container string
		known                   bool
	}{
		{"MP4 (H.264)", "libx264", "mp4", true},
		{"MP4 (H.265)", "libx265", "mp4", true},
		{"MKV (H.264)", "libx264", "mkv", true},
		{"AVI (H.264)", "libx264", "avi", true},
		{"WebM (VP9)", "libx264", "mp4", false},
		{"", "libx264", "mp4", false},
	}
	for _, tc := range cases {
		f, ok := settings.ResolveFormat(tc.label)
		if f.Codec != tc.codec || f.Container != tc.container || ok != tc.known {
			t.Fatalf("ResolveFormat(%q) = %+v, %v", tc.label, f, ok)
		}
	}
}

func TestOutputPathAppendsExtension(t *testing.T) {
	cfg := settings.ExportConfiguration{OutputDir: "/videos", Filename: "song", Format: "MKV (H.264)"}
	if got := cfg.OutputPath(); got != filepath.Join("/videos", "song.mkv") {
		t.Fatalf("unexpected output path %q", got)
	}
	cfg.Filename = "song.mp4"
	if got := cfg.OutputPath(); got != filepath.Join("/videos", "song.mp4") {
		t.Fatalf("explicit extension should be kept, got %q", got)
	}
	cfg.Filename = "AC/DC: Thunderstruck"
	if got := cfg.OutputPath(); got != filepath.Join("/videos", "AC-DC- Thunderstruck.mkv") {
		t.Fatalf("unsafe characters should be replaced, got %q", got)
	}
	cfg.Filename = " .. "
	if got := cfg.OutputPath(); got != filepath.Join("/videos", "karaoke_export.mkv") {
		t.Fatalf("empty sanitized name should fall back to the default, got %q", got)
	}
}

func TestDeriveCRFTakesPrecedence(t *testing.T) {
	cfg := settings.ExportConfiguration{Width: 1920, Height: 1080, FPS: 30, Bitrate: 8000, Format: "MP4 (H.265)"}
	crf := 23
	s := settings.Derive(cfg, settings.Advanced{CRF: &crf, MaxBitrate: 10000, BufferSize: 16000, Preset: "slow", Profile: "high"})
	if !s.UsesCRF() || *s.CRF != 23 {
		t.Fatalf("expected CRF 23, got %+v", s.CRF)
	}
	if s.Bitrate != 0 || s.MaxBitrate != 0 || s.BufferSize != 0 {
		t.Fatalf("bitrate flags must be cleared under CRF: %+v", s)
	}
	if s.Codec != "libx265" || s.Container != "mp4" {
		t.Fatalf("unexpected codec/container %s/%s", s.Codec, s.Container)
	}
	if s.Profile != "" || s.IgnoredProfile != "high" {
		t.Fatalf("x264 profile should be reported and dropped for x265, got %q (ignored %q)", s.Profile, s.IgnoredProfile)
	}
	kept := settings.Derive(cfg, settings.Advanced{Profile: "main10"})
	if kept.Profile != "main10" || kept.IgnoredProfile != "" {
		t.Fatalf("main10 should pass through, got %q (ignored %q)", kept.Profile, kept.IgnoredProfile)
	}
	crf = 40
	if *s.CRF != 23 {
		t.Fatal("Derive must copy the CRF value")
	}

	s = settings.Derive(cfg, settings.Advanced{MaxBitrate: 10000, BufferSize: 16000})
	if s.UsesCRF() || s.Bitrate != 8000 || s.MaxBitrate != 10000 || s.BufferSize != 16000 {
		t.Fatalf("unexpected bitrate settings %+v", s)
	}
}

func TestEncodeSettingsValidate(t *testing.T) {
	good := settings.EncodeSettings{Width: 1280, Height: 720, FPS: 30, Bitrate: 4000}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected valid settings, got %v", err)
	}
	bad := settings.EncodeSettings{Width: 1281, Height: 720, FPS: 240}
	err := bad.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"even", "frame rate", "bitrate"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
	crf := 60
	if err := (settings.EncodeSettings{Width: 2, Height: 2, FPS: 1, CRF: &crf}).Validate(); err == nil || !strings.Contains(err.Error(), "CRF") {
		t.Fatalf("expected CRF range error, got %v", err)
	}
}

func TestEstimateOutputBytes(t *testing.T) {
	got := settings.EstimateOutputBytes(5000, 30)
	want := int64(19230000)
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	if float64(diff) > float64(want)*0.1 {
		t.Fatalf("estimate %d not within 10%% of %d", got, want)
	}
	if settings.EstimateOutputBytes(5000, 0) != 0 {
		t.Fatal("zero duration should estimate zero bytes")
	}
}
