package render

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FallbackBackend is always reachable: a solid background with the active
// lyric lines in a small bitmap face and no effects.
type FallbackBackend struct {
	Background string
	Text       string
}

func (FallbackBackend) Name() string { return "fallback" }

func (FallbackBackend) Check(Spec) error { return nil }

func (b FallbackBackend) Open(_ context.Context, spec Spec) (Renderer, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", spec.Width, spec.Height)
	}
	return &fallbackRenderer{
		spec: spec,
		pool: newBufferPool(spec.Width * spec.Height * BytesPerPixel),
		bg:   solidBackground{color: colorOr(b.Background, color.NRGBA{A: 0xff})},
		text: colorOr(b.Text, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}),
		face: basicfont.Face7x13,
	}, nil
}

type fallbackRenderer struct {
	spec Spec
	pool *bufferPool
	bg   solidBackground
	text color.NRGBA
	face font.Face
	seq  int
}

func (r *fallbackRenderer) Render(t float64) (*Frame, error) {
	frame := r.pool.frame(r.spec.Width, r.spec.Height)
	img := frame.Image()
	_ = r.bg.fill(t, img)
	r.drawLines(img, t)
	frame.Timestamp = t
	frame.Sequence = r.seq
	r.seq++
	return frame, nil
}

func (r *fallbackRenderer) drawLines(img *image.RGBA, t float64) {
	if r.spec.Project == nil {
		return
	}
	lines := r.spec.Project.Subtitles.ActiveAt(t)
	step := lineHeight(r.face) + 4
	y := r.spec.Height - 2*step
	for i := len(lines) - 1; i >= 0; i-- {
		x := (r.spec.Width - textWidth(r.face, lines[i].Text)) / 2
		drawText(img, r.face, lines[i].Text, x, y, r.text, nil)
		y -= step
	}
}
