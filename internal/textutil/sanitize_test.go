package textutil

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"  Bohemian Rhapsody  ":    "Bohemian Rhapsody",
		"AC/DC: Back in Black":     "AC-DC- Back in Black",
		"What? \"Really\" <live>|": "What Really live",
		"tab\tand\nnewline":        "tab and newline",
		"line\r\n\tbreaks":         "line breaks",
		"bell\a.mp4":               "bell.mp4",
		"..":                       "",
		"":                         "",
		"karaoke_export (1).mkv":   "karaoke_export (1).mkv",
		"Björk - Jóga":             "Björk - Jóga",
	}
	for in, want := range cases {
		if got := SanitizeFileName(in); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeFileNameTruncatesOnRuneBoundary(t *testing.T) {
	name := strings.Repeat("é", 150)
	got := SanitizeFileName(name)
	if len(got) > maxFileNameBytes {
		t.Fatalf("expected at most %d bytes, got %d", maxFileNameBytes, len(got))
	}
	if got != strings.Repeat("é", maxFileNameBytes/2) {
		t.Fatalf("truncation split a rune: %q", got)
	}
}
