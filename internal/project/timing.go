package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// WordTiming is the highlight window of one word within a line.
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SubtitleLine is one time-coded lyric line.
type SubtitleLine struct {
	Start float64      `json:"start"`
	End   float64      `json:"end"`
	Text  string       `json:"text"`
	Style string       `json:"style,omitempty"`
	Words []WordTiming `json:"words,omitempty"`
}

// Style carries the subset of subtitle styling the renderer honours. Colors
// are "#RRGGBB" or "#RRGGBBAA"; empty values defer to renderer defaults.
type Style struct {
	Name           string  `json:"name"`
	FontSize       float64 `json:"font_size,omitempty"`
	PrimaryColor   string  `json:"primary_color,omitempty"`
	SecondaryColor string  `json:"secondary_color,omitempty"`
	OutlineColor   string  `json:"outline_color,omitempty"`
	Outline        float64 `json:"outline,omitempty"`
	Shadow         float64 `json:"shadow,omitempty"`
	MarginV        int     `json:"margin_v,omitempty"`
}

// SubtitleTrack is the already-parsed timing model.
type SubtitleTrack struct {
	Lines  []SubtitleLine `json:"lines"`
	Styles []Style        `json:"styles,omitempty"`
}

// Active reports whether the line is visible at t (inclusive bounds).
func (l SubtitleLine) Active(t float64) bool {
	return l.Start <= t && t <= l.End
}

// ActiveWords returns the words highlighted at t. Without word timings the
// whole line counts as active while the line is visible.
func (l SubtitleLine) ActiveWords(t float64) []string {
	if len(l.Words) == 0 {
		if l.Active(t) {
			return strings.Fields(l.Text)
		}
		return nil
	}
	var words []string
	for _, w := range l.Words {
		if w.Start <= t && t <= w.End {
			words = append(words, w.Word)
		}
	}
	return words
}

// ProgressRatio returns how much of the line has been sung at t, in [0, 1].
// With word timings, completed words count fully and the current word
// contributes its partial progress; otherwise progress is linear over the line.
func (l SubtitleLine) ProgressRatio(t float64) float64 {
	if t <= l.Start {
		return 0
	}
	if t >= l.End {
		return 1
	}
	if len(l.Words) == 0 {
		return (t - l.Start) / (l.End - l.Start)
	}
	completed := 0
	for _, w := range l.Words {
		if t >= w.End {
			completed++
			continue
		}
		if w.Start <= t && w.End > w.Start {
			partial := (t - w.Start) / (w.End - w.Start)
			return (float64(completed) + partial) / float64(len(l.Words))
		}
	}
	return float64(completed) / float64(len(l.Words))
}

// ActiveAt returns the lines visible at t in track order.
func (s *SubtitleTrack) ActiveAt(t float64) []SubtitleLine {
	if s == nil {
		return nil
	}
	var out []SubtitleLine
	for _, line := range s.Lines {
		if line.Active(t) {
			out = append(out, line)
		}
	}
	return out
}

// StyleFor resolves a line's style: exact name, then "Default", then false.
func (s *SubtitleTrack) StyleFor(name string) (Style, bool) {
	if s == nil {
		return Style{}, false
	}
	for _, style := range s.Styles {
		if style.Name == name {
			return style, true
		}
	}
	for _, style := range s.Styles {
		if style.Name == "Default" {
			return style, true
		}
	}
	return Style{}, false
}

// Validate rejects negative start times and empty or inverted intervals.
func (s *SubtitleTrack) Validate() error {
	if s == nil {
		return nil
	}
	for i, line := range s.Lines {
		if line.Start < 0 {
			return fmt.Errorf("line %d: start time cannot be negative", i+1)
		}
		if line.End <= line.Start {
			return fmt.Errorf("line %d: end time must be greater than start time", i+1)
		}
		for j, w := range line.Words {
			if w.Start < 0 {
				return fmt.Errorf("line %d word %d: start time cannot be negative", i+1, j+1)
			}
			if w.End <= w.Start {
				return fmt.Errorf("line %d word %d: end time must be greater than start time", i+1, j+1)
			}
		}
	}
	return nil
}

// LoadTiming reads a subtitle timing model from a JSON file.
func LoadTiming(path string) (*SubtitleTrack, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("load timing: empty path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load timing: %w", err)
	}
	var track SubtitleTrack
	if err := json.Unmarshal(data, &track); err != nil {
		return nil, fmt.Errorf("parse timing %s: %w", path, err)
	}
	if err := track.Validate(); err != nil {
		return nil, fmt.Errorf("timing %s: %w", path, err)
	}
	return &track, nil
}
