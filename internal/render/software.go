package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/exec"
	"strings"

	"lyricast/internal/project"
)

// SoftwareOptions configures the software backend. Colors are "#RRGGBB" or
// "#RRGGBBAA".
type SoftwareOptions struct {
	FFmpegBinary    string
	FontPath        string
	FontSize        float64
	TextColor       string
	HighlightColor  string
	OutlineColor    string
	BackgroundColor string
	MarginBottom    int
}

// SoftwareBackend renders frames on the CPU.
type SoftwareBackend struct {
	opts SoftwareOptions
}

func NewSoftwareBackend(opts SoftwareOptions) *SoftwareBackend {
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	return &SoftwareBackend{opts: opts}
}

func (b *SoftwareBackend) Name() string { return "software" }

// Check verifies the font parses and background sources are reachable.
func (b *SoftwareBackend) Check(spec Spec) error {
	if _, err := loadFont(b.opts.FontPath); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	p := spec.Project
	if p.HasVideoBackground() {
		if _, err := exec.LookPath(b.opts.FFmpegBinary); err != nil {
			return fmt.Errorf("%w: video background needs %s: %v", ErrUnavailable, b.opts.FFmpegBinary, err)
		}
		if _, err := os.Stat(p.Video.Path); err != nil {
			return fmt.Errorf("%w: background video: %v", ErrUnavailable, err)
		}
	} else if p.HasImageBackground() {
		if _, err := os.Stat(p.Image.Path); err != nil {
			return fmt.Errorf("%w: background image: %v", ErrUnavailable, err)
		}
	}
	return nil
}

// Open prepares the background source and font faces.
func (b *SoftwareBackend) Open(ctx context.Context, spec Spec) (Renderer, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", spec.Width, spec.Height)
	}
	fonts, err := loadFont(b.opts.FontPath)
	if err != nil {
		return nil, err
	}
	fill := colorOr(b.opts.BackgroundColor, color.NRGBA{A: 0xff})

	var bg background = solidBackground{color: fill}
	p := spec.Project
	switch {
	case p.HasVideoBackground():
		bg, err = newVideoBackground(ctx, b.opts.FFmpegBinary, p.Video.Path, spec.Width, spec.Height, spec.FPS)
	case p.HasImageBackground():
		bg, err = newStillBackground(p.Image.Path, spec.Width, spec.Height, fill)
	}
	if err != nil {
		_ = fonts.close()
		return nil, err
	}

	return &Software{
		spec:      spec,
		opts:      b.opts,
		fonts:     fonts,
		bg:        bg,
		pool:      newBufferPool(spec.Width * spec.Height * BytesPerPixel),
		effects:   p.ActiveEffects(),
		base:      colorOr(b.opts.TextColor, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}),
		highlight: colorOr(b.opts.HighlightColor, color.NRGBA{R: 0xff, G: 0xd4, A: 0xff}),
		outline:   colorOr(b.opts.OutlineColor, color.NRGBA{A: 0xff}),
	}, nil
}

// Software draws background, lyrics, and effects for each timestamp.
type Software struct {
	spec      Spec
	opts      SoftwareOptions
	fonts     *faceCache
	bg        background
	pool      *bufferPool
	effects   []project.Effect
	base      color.NRGBA
	highlight color.NRGBA
	outline   color.NRGBA
	seq       int
}

func (s *Software) Render(t float64) (*Frame, error) {
	if s.bg == nil {
		return nil, errors.New("renderer closed")
	}
	frame := s.pool.frame(s.spec.Width, s.spec.Height)
	img := frame.Image()
	if err := s.bg.fill(t, img); err != nil {
		frame.Release()
		return nil, err
	}
	if err := s.drawLyrics(img, t); err != nil {
		frame.Release()
		return nil, err
	}
	frame.Timestamp = t
	frame.Sequence = s.seq
	s.seq++
	return frame, nil
}

func (s *Software) drawLyrics(img *image.RGBA, t float64) error {
	if s.spec.Project == nil {
		return nil
	}
	track := s.spec.Project.Subtitles
	lines := track.ActiveAt(t)
	if len(lines) == 0 {
		return nil
	}
	// Later lines sit at the bottom; earlier ones stack upwards.
	baseline := s.spec.Height
	for i := len(lines) - 1; i >= 0; i-- {
		st, err := s.resolveStyle(track, lines[i])
		if err != nil {
			return err
		}
		if i == len(lines)-1 {
			baseline -= st.margin
		}
		drawLine(img, lines[i], t, st, s.effects, baseline)
		baseline -= lineHeight(st.face)
	}
	return nil
}

// resolveStyle applies a subtitle style over the renderer defaults. As in ASS
// karaoke, the primary color is the sung (highlight) color and the secondary
// color is the unsung one.
func (s *Software) resolveStyle(track *project.SubtitleTrack, line project.SubtitleLine) (lineStyle, error) {
	size := s.opts.FontSize
	st := lineStyle{base: s.base, highlight: s.highlight, outline: s.outline, margin: s.opts.MarginBottom}
	if style, ok := track.StyleFor(line.Style); ok {
		if style.FontSize > 0 {
			size = style.FontSize
		}
		st.highlight = colorOr(style.PrimaryColor, st.highlight)
		st.base = colorOr(style.SecondaryColor, st.base)
		st.outline = colorOr(style.OutlineColor, st.outline)
		if style.MarginV > 0 {
			st.margin = style.MarginV
		}
	}
	face, err := s.fonts.face(size)
	if err != nil {
		return lineStyle{}, err
	}
	st.face = face
	return st, nil
}

// Close stops the background decoder and releases font faces.
func (s *Software) Close() error {
	if s.bg == nil {
		return nil
	}
	err := errors.Join(s.bg.close(), s.fonts.close())
	s.bg = nil
	return err
}
