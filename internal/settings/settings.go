package settings

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"lyricast/internal/textutil"
)

const (
	// DefaultAudioCodec and DefaultAudioBitrate apply to the muxed audio stream.
	DefaultAudioCodec   = "aac"
	DefaultAudioBitrate = "128k"
	// DefaultPixelFormat is the encoder output pixel format.
	DefaultPixelFormat = "yuv420p"
	// AudioBitrateKbps feeds output size estimates.
	AudioBitrateKbps = 128
	// MaxFPS bounds the accepted frame rate.
	MaxFPS = 120
)

// ExportConfiguration is supplied once per run and not modified afterwards.
type ExportConfiguration struct {
	Width         int
	Height        int
	FPS           float64
	Bitrate       int // kbps
	OutputDir     string
	Filename      string
	Format        string
	CleanupTemp   bool
	QualityPreset string
	Overwrite     bool
}

// Container returns the container derived from the format label.
func (c ExportConfiguration) Container() string {
	f, _ := ResolveFormat(c.Format)
	return f.Container
}

// OutputPath joins the output directory and the sanitized filename, appending
// the container extension when the filename has none.
func (c ExportConfiguration) OutputPath() string {
	name := textutil.SanitizeFileName(c.Filename)
	if name == "" {
		name = "karaoke_export"
	}
	if filepath.Ext(name) == "" {
		name += ContainerExtension(c.Container())
	}
	return filepath.Join(c.OutputDir, name)
}

// Advanced carries encoder knobs that are not part of the user-facing
// configuration. A nil CRF leaves the bitrate target in charge.
type Advanced struct {
	CRF        *int
	MaxBitrate int
	BufferSize int
	Preset     string
	Profile    string
	Level      string
}

// EncodeSettings is the fully resolved encoder configuration.
type EncodeSettings struct {
	Width        int
	Height       int
	FPS          float64
	Bitrate      int
	CRF          *int
	MaxBitrate   int
	BufferSize   int
	Preset       string
	Profile      string
	Level        string
	Codec        string
	PixelFormat  string
	AudioCodec   string
	AudioBitrate string
	Container    string
	// IgnoredProfile is the configured profile Derive left out because the
	// codec does not accept it.
	IgnoredProfile string
}

// UsesCRF reports whether constant-rate-factor governs quality.
func (s EncodeSettings) UsesCRF() bool { return s.CRF != nil }

// Derive resolves encode settings from a configuration and advanced knobs.
// When CRF is set the bitrate-based flags are cleared.
func Derive(cfg ExportConfiguration, adv Advanced) EncodeSettings {
	format, _ := ResolveFormat(cfg.Format)
	s := EncodeSettings{
		Width:        cfg.Width,
		Height:       cfg.Height,
		FPS:          cfg.FPS,
		Bitrate:      cfg.Bitrate,
		Preset:       strings.TrimSpace(adv.Preset),
		Profile:      strings.TrimSpace(adv.Profile),
		Level:        strings.TrimSpace(adv.Level),
		Codec:        format.Codec,
		PixelFormat:  DefaultPixelFormat,
		AudioCodec:   DefaultAudioCodec,
		AudioBitrate: DefaultAudioBitrate,
		Container:    format.Container,
	}
	if adv.CRF != nil {
		crf := *adv.CRF
		s.CRF = &crf
		s.Bitrate = 0
	} else {
		s.MaxBitrate = adv.MaxBitrate
		s.BufferSize = adv.BufferSize
	}
	// x265 only knows the main* profiles.
	if s.Codec == "libx265" && s.Profile != "" && !strings.HasPrefix(s.Profile, "main") {
		s.IgnoredProfile = s.Profile
		s.Profile = ""
	}
	return s
}

// Validate checks the resolved settings before any process is launched.
func (s EncodeSettings) Validate() error {
	var errs []error
	if s.Width <= 0 || s.Height <= 0 {
		errs = append(errs, errors.New("width and height must be positive"))
	} else if s.Width%2 != 0 || s.Height%2 != 0 {
		errs = append(errs, errors.New("width and height must be even numbers"))
	}
	if s.FPS <= 0 || s.FPS > MaxFPS {
		errs = append(errs, fmt.Errorf("frame rate must be between 0 and %d", MaxFPS))
	}
	if s.CRF != nil {
		if *s.CRF < 0 || *s.CRF > 51 {
			errs = append(errs, errors.New("CRF must be between 0 and 51"))
		}
	} else if s.Bitrate <= 0 {
		errs = append(errs, errors.New("bitrate must be positive"))
	}
	return errors.Join(errs...)
}

// EstimateOutputBytes approximates the encoded size for a video bitrate in
// kbps plus the fixed audio bitrate over the given duration.
func EstimateOutputBytes(videoKbps int, seconds float64) int64 {
	if seconds <= 0 {
		return 0
	}
	return int64(float64(videoKbps+AudioBitrateKbps) * 1000 * seconds / 8)
}
