package project_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lyricast/internal/project"
)

func TestMediaDurationPrefersAudioThenVideoThenFallback(t *testing.T) {
	p := &project.Project{
		Audio: &project.AudioTrack{Path: "song.mp3", Duration: 10},
		Video: &project.VideoTrack{Path: "bg.mp4", Duration: 42},
	}
	if got := p.MediaDuration(0); got != 10 {
		t.Fatalf("audio duration: got %v want 10", got)
	}
	p.Audio = nil
	if got := p.MediaDuration(0); got != 42 {
		t.Fatalf("video duration: got %v want 42", got)
	}
	p.Video = nil
	if got := p.MediaDuration(0); got != project.DefaultFallbackDuration {
		t.Fatalf("fallback duration: got %v want %v", got, project.DefaultFallbackDuration)
	}
	if got := p.MediaDuration(15); got != 15 {
		t.Fatalf("custom fallback: got %v want 15", got)
	}
}

func TestTotalFramesFloorsProduct(t *testing.T) {
	cases := []struct {
		duration, fps float64
		want          int
	}{
		{30, 25, 750},
		{10, 25, 250},
		{1.99, 30, 59},
		{0, 30, 0},
		{10, 0, 0},
	}
	for _, tc := range cases {
		if got := project.TotalFrames(tc.duration, tc.fps); got != tc.want {
			t.Fatalf("TotalFrames(%v, %v) = %d, want %d", tc.duration, tc.fps, got, tc.want)
		}
	}
}

func TestActiveEffectsKeepsOrder(t *testing.T) {
	p := &project.Project{Effects: []project.Effect{
		{ID: "a", Type: project.EffectGlow, Enabled: true},
		{ID: "b", Type: project.EffectShadow},
		{ID: "c", Type: project.EffectOutline, Enabled: true},
	}}
	active := p.ActiveEffects()
	if len(active) != 2 || active[0].ID != "a" || active[1].ID != "c" {
		t.Fatalf("unexpected active effects: %+v", active)
	}
	if got := active[0].Param("radius", 4); got != 4 {
		t.Fatalf("expected default param, got %v", got)
	}
}

func TestProgressRatioWithWordTimings(t *testing.T) {
	line := project.SubtitleLine{
		Start: 1, End: 3, Text: "hello karaoke world",
		Words: []project.WordTiming{
			{Word: "hello", Start: 1, End: 1.5},
			{Word: "karaoke", Start: 1.5, End: 2.5},
			{Word: "world", Start: 2.5, End: 3},
		},
	}
	if got := line.ProgressRatio(0.5); got != 0 {
		t.Fatalf("before start: got %v", got)
	}
	if got := line.ProgressRatio(3.5); got != 1 {
		t.Fatalf("after end: got %v", got)
	}
	// one full word plus half of the second
	want := 1.5 / 3.0
	if got := line.ProgressRatio(2.0); got != want {
		t.Fatalf("mid line: got %v want %v", got, want)
	}
	words := line.ActiveWords(2.0)
	if len(words) != 1 || words[0] != "karaoke" {
		t.Fatalf("unexpected active words: %v", words)
	}
}

func TestProgressRatioLinearWithoutWords(t *testing.T) {
	line := project.SubtitleLine{Start: 0, End: 4, Text: "la la la"}
	if got := line.ProgressRatio(1); got != 0.25 {
		t.Fatalf("got %v want 0.25", got)
	}
	if words := line.ActiveWords(1); len(words) != 3 {
		t.Fatalf("expected whole line active, got %v", words)
	}
	if words := line.ActiveWords(5); words != nil {
		t.Fatalf("expected no active words after end, got %v", words)
	}
}

func TestActiveAtAndStyleLookup(t *testing.T) {
	track := &project.SubtitleTrack{
		Lines: []project.SubtitleLine{
			{Start: 0, End: 2, Text: "first"},
			{Start: 1.5, End: 4, Text: "second", Style: "Chorus"},
			{Start: 5, End: 6, Text: "third"},
		},
		Styles: []project.Style{{Name: "Default", FontSize: 40}, {Name: "Chorus", FontSize: 60}},
	}
	active := track.ActiveAt(1.75)
	if len(active) != 2 {
		t.Fatalf("expected two overlapping lines, got %d", len(active))
	}
	if got := track.ActiveAt(4.5); len(got) != 0 {
		t.Fatalf("expected gap, got %+v", got)
	}
	style, ok := track.StyleFor("Chorus")
	if !ok || style.FontSize != 60 {
		t.Fatalf("unexpected chorus style %+v", style)
	}
	style, ok = track.StyleFor("Verse")
	if !ok || style.Name != "Default" {
		t.Fatalf("expected Default fallback, got %+v", style)
	}
	var empty *project.SubtitleTrack
	if _, ok := empty.StyleFor("x"); ok {
		t.Fatal("nil track must not resolve styles")
	}
}

func TestLoadTiming(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timing.json")
	body := `{"lines":[{"start":0.5,"end":2,"text":"hi there","words":[{"word":"hi","start":0.5,"end":1},{"word":"there","start":1,"end":2}]}]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write timing: %v", err)
	}
	track, err := project.LoadTiming(path)
	if err != nil {
		t.Fatalf("LoadTiming: %v", err)
	}
	if len(track.Lines) != 1 || len(track.Lines[0].Words) != 2 {
		t.Fatalf("unexpected track: %+v", track)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"lines":[{"start":3,"end":1,"text":"x"}]}`), 0o644); err != nil {
		t.Fatalf("write bad timing: %v", err)
	}
	_, err = project.LoadTiming(bad)
	if err == nil || !strings.Contains(err.Error(), "end time must be greater") {
		t.Fatalf("expected inverted interval error, got %v", err)
	}
	if _, err := project.LoadTiming(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
