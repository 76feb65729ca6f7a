package project

// DefaultFallbackDuration is used when neither audio nor video reports a duration.
const DefaultFallbackDuration = 60.0

// AudioTrack is the audio file muxed into the export.
type AudioTrack struct {
	Path       string  `json:"path"`
	Duration   float64 `json:"duration"`
	SampleRate int     `json:"sample_rate,omitempty"`
	Channels   int     `json:"channels,omitempty"`
	Bitrate    int     `json:"bitrate,omitempty"`
}

// VideoTrack is a background video.
type VideoTrack struct {
	Path      string  `json:"path"`
	Duration  float64 `json:"duration"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	FrameRate float64 `json:"frame_rate,omitempty"`
}

// ImageBackground is a still background image.
type ImageBackground struct {
	Path   string `json:"path"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// EffectType names a text effect.
type EffectType string

const (
	EffectGlow    EffectType = "glow"
	EffectOutline EffectType = "outline"
	EffectShadow  EffectType = "shadow"
	EffectFade    EffectType = "fade"
	EffectBounce  EffectType = "bounce"
	EffectWave    EffectType = "wave"
)

// Effect is one entry in the effect stack applied to subtitle text.
type Effect struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Type       EffectType         `json:"type"`
	Parameters map[string]float64 `json:"parameters,omitempty"`
	Enabled    bool               `json:"enabled"`
}

// Param returns the named parameter or def when it is absent.
func (e Effect) Param(name string, def float64) float64 {
	if v, ok := e.Parameters[name]; ok {
		return v
	}
	return def
}

// Project is a complete karaoke project.
type Project struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Video     *VideoTrack      `json:"video,omitempty"`
	Image     *ImageBackground `json:"image,omitempty"`
	Audio     *AudioTrack      `json:"audio,omitempty"`
	Subtitles *SubtitleTrack   `json:"subtitles,omitempty"`
	Effects   []Effect         `json:"effects,omitempty"`
}

func (p *Project) HasAudio() bool { return p != nil && p.Audio != nil && p.Audio.Path != "" }

func (p *Project) HasVideoBackground() bool { return p != nil && p.Video != nil && p.Video.Path != "" }

func (p *Project) HasImageBackground() bool { return p != nil && p.Image != nil && p.Image.Path != "" }

func (p *Project) HasBackground() bool { return p.HasVideoBackground() || p.HasImageBackground() }

func (p *Project) HasSubtitles() bool {
	return p != nil && p.Subtitles != nil && len(p.Subtitles.Lines) > 0
}

// MediaDuration returns the audio duration when audio is present, else the
// video duration, else fallback (DefaultFallbackDuration when fallback <= 0).
func (p *Project) MediaDuration(fallback float64) float64 {
	if fallback <= 0 {
		fallback = DefaultFallbackDuration
	}
	if p == nil {
		return fallback
	}
	if p.HasAudio() && p.Audio.Duration > 0 {
		return p.Audio.Duration
	}
	if p.HasVideoBackground() && p.Video.Duration > 0 {
		return p.Video.Duration
	}
	return fallback
}

// ActiveEffects returns the enabled effects in stack order.
func (p *Project) ActiveEffects() []Effect {
	if p == nil {
		return nil
	}
	out := make([]Effect, 0, len(p.Effects))
	for _, effect := range p.Effects {
		if effect.Enabled {
			out = append(out, effect)
		}
	}
	return out
}

// TotalFrames returns floor(duration * fps), or 0 for non-positive inputs.
func TotalFrames(duration, fps float64) int {
	if duration <= 0 || fps <= 0 {
		return 0
	}
	return int(duration * fps)
}
