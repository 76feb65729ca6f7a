package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"

	"lyricast/internal/project"
)

// lineStyle is the resolved look of one lyric line.
type lineStyle struct {
	face      font.Face
	base      color.NRGBA
	highlight color.NRGBA
	outline   color.NRGBA
	margin    int
}

// lineLayers is the effect stack folded into drawing parameters.
type lineLayers struct {
	alpha        float64
	dy           int
	wave         offsetFunc
	shadowOffset int
	shadowColor  color.NRGBA
	glowRadius   int
	glowColor    color.NRGBA
	outlineWidth int
}

// foldEffects evaluates the enabled effects for a line at t.
func foldEffects(effects []project.Effect, line project.SubtitleLine, t float64, st lineStyle) lineLayers {
	layers := lineLayers{alpha: 1}
	for _, e := range effects {
		switch e.Type {
		case project.EffectFade:
			d := e.Param("duration", 0.3)
			if d > 0 {
				in := (t - line.Start) / d
				out := (line.End - t) / d
				layers.alpha *= clamp01(math.Min(in, out))
			}
		case project.EffectBounce:
			amp := e.Param("amplitude", 10)
			freq := e.Param("frequency", 2)
			layers.dy -= int(math.Round(amp * math.Abs(math.Sin(2*math.Pi*freq*(t-line.Start)))))
		case project.EffectWave:
			amp := e.Param("amplitude", 6)
			freq := e.Param("frequency", 1.5)
			phase := e.Param("phase", 0.5)
			elapsed := t - line.Start
			layers.wave = func(i int) int {
				return int(math.Round(amp * math.Sin(2*math.Pi*freq*elapsed+float64(i)*phase)))
			}
		case project.EffectShadow:
			layers.shadowOffset = int(e.Param("offset", 3))
			layers.shadowColor = color.NRGBA{A: uint8(clamp01(e.Param("opacity", 0.6)) * 255)}
		case project.EffectGlow:
			layers.glowRadius = int(e.Param("radius", 4))
			layers.glowColor = withAlpha(st.highlight, clamp01(e.Param("intensity", 0.25)))
		case project.EffectOutline:
			layers.outlineWidth = int(e.Param("width", 2))
		}
	}
	return layers
}

// drawLine composites one lyric line with its effects. baseline is the y of
// the text baseline; the line is centered horizontally.
func drawLine(dst *image.RGBA, line project.SubtitleLine, t float64, st lineStyle, effects []project.Effect, baseline int) {
	layers := foldEffects(effects, line, t, st)
	if layers.alpha <= 0 {
		return
	}
	width := textWidth(st.face, line.Text)
	x := (dst.Bounds().Dx() - width) / 2
	y := baseline + layers.dy

	if layers.shadowOffset != 0 {
		drawText(dst, st.face, line.Text, x+layers.shadowOffset, y+layers.shadowOffset, withAlpha(layers.shadowColor, layers.alpha), layers.wave)
	}
	if r := layers.glowRadius; r > 0 {
		c := withAlpha(layers.glowColor, layers.alpha)
		for dx := -r; dx <= r; dx += max(1, r/2) {
			for dy := -r; dy <= r; dy += max(1, r/2) {
				if dx*dx+dy*dy <= r*r {
					drawText(dst, st.face, line.Text, x+dx, y+dy, c, layers.wave)
				}
			}
		}
	}
	if w := layers.outlineWidth; w > 0 {
		c := withAlpha(st.outline, layers.alpha)
		for dx := -w; dx <= w; dx++ {
			for dy := -w; dy <= w; dy++ {
				if dx != 0 || dy != 0 {
					drawText(dst, st.face, line.Text, x+dx, y+dy, c, layers.wave)
				}
			}
		}
	}

	drawText(dst, st.face, line.Text, x, y, withAlpha(st.base, layers.alpha), layers.wave)

	// Sung portion: the same glyphs in the highlight color, clipped to the
	// line's progress.
	ratio := line.ProgressRatio(t)
	if ratio <= 0 {
		return
	}
	clip := image.Rect(x, 0, x+int(math.Ceil(float64(width)*ratio)), dst.Bounds().Dy())
	sub, ok := dst.SubImage(clip).(*image.RGBA)
	if !ok {
		return
	}
	drawText(sub, st.face, line.Text, x, y, withAlpha(st.highlight, layers.alpha), layers.wave)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
