package settings

import (
	"fmt"
	"strings"
)

// QualityPreset maps a preset label to a resolution and bitrate.
type QualityPreset struct {
	Name    string
	Width   int
	Height  int
	Bitrate int
}

var presets = []QualityPreset{
	{Name: "Low (720p)", Width: 1280, Height: 720, Bitrate: 4000},
	{Name: "Medium (1080p)", Width: 1920, Height: 1080, Bitrate: 8000},
	{Name: "High (1080p HQ)", Width: 1920, Height: 1080, Bitrate: 15000},
	{Name: "4K (2160p)", Width: 3840, Height: 2160, Bitrate: 25000},
}

// Presets returns the quality presets from lowest to highest.
func Presets() []QualityPreset {
	return append([]QualityPreset(nil), presets...)
}

// LookupPreset finds a preset by label, ignoring surrounding whitespace and case.
func LookupPreset(name string) (QualityPreset, bool) {
	name = strings.TrimSpace(name)
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return QualityPreset{}, false
}

// ApplyPreset returns a copy of cfg with the preset's resolution and bitrate.
func (c ExportConfiguration) ApplyPreset(name string) (ExportConfiguration, error) {
	p, ok := LookupPreset(name)
	if !ok {
		return c, fmt.Errorf("unknown quality preset %q", name)
	}
	c.Width = p.Width
	c.Height = p.Height
	c.Bitrate = p.Bitrate
	c.QualityPreset = p.Name
	return c, nil
}

// Format describes a container/codec label.
type Format struct {
	Label       string
	Codec       string
	Container   string
	Description string
}

var formats = []Format{
	{Label: "MP4 (H.264)", Codec: "libx264", Container: "mp4", Description: "Most compatible; plays everywhere"},
	{Label: "MP4 (H.265)", Codec: "libx265", Container: "mp4", Description: "Smaller files at the same quality; slower to encode"},
	{Label: "MKV (H.264)", Codec: "libx264", Container: "mkv", Description: "Matroska container"},
	{Label: "AVI (H.264)", Codec: "libx264", Container: "avi", Description: "Legacy players"},
}

// DefaultFormat is used for unrecognized labels.
var DefaultFormat = formats[0]

// Formats returns the supported container/codec labels.
func Formats() []Format {
	return append([]Format(nil), formats...)
}

// ResolveFormat maps a label to its codec and container. Unrecognized labels
// fall back to H.264 in MP4 and report false.
func ResolveFormat(label string) (Format, bool) {
	label = strings.TrimSpace(label)
	for _, f := range formats {
		if strings.EqualFold(f.Label, label) {
			return f, true
		}
	}
	return DefaultFormat, false
}

// ContainerExtension returns the file extension (with dot) for a container.
func ContainerExtension(container string) string {
	switch strings.ToLower(container) {
	case "mkv", "matroska":
		return ".mkv"
	case "avi":
		return ".avi"
	default:
		return ".mp4"
	}
}
