package render

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// faceCache opens one face per point size from a single parsed font.
type faceCache struct {
	font  *opentype.Font
	faces map[float64]font.Face
}

// loadFont parses the TrueType/OpenType font at path, or the bundled Go Bold
// face when path is empty.
func loadFont(path string) (*faceCache, error) {
	data := gobold.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		data = b
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &faceCache{font: f, faces: make(map[float64]font.Face)}, nil
}

func (c *faceCache) face(size float64) (font.Face, error) {
	if size <= 0 {
		size = 48
	}
	if face, ok := c.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	c.faces[size] = face
	return face, nil
}

func (c *faceCache) close() error {
	var firstErr error
	for size, face := range c.faces {
		if err := face.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.faces, size)
	}
	return firstErr
}

// offsetFunc returns a vertical pixel offset for the rune at index i.
type offsetFunc func(i int) int

// drawText draws s with its baseline starting at (x, y). With a non-nil
// offset each rune is placed individually.
func drawText(dst draw.Image, face font.Face, s string, x, y int, c color.Color, offset offsetFunc) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face, Dot: fixed.P(x, y)}
	if offset == nil {
		d.DrawString(s)
		return
	}
	i := 0
	for _, r := range s {
		d.Dot.Y = fixed.I(y + offset(i))
		d.DrawString(string(r))
		i++
	}
}

func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}

func lineHeight(face font.Face) int {
	m := face.Metrics()
	return (m.Ascent + m.Descent).Ceil()
}
