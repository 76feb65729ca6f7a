package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA".
func ParseHexColor(value string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", value)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", value, err)
	}
	if len(hex) == 6 {
		return color.NRGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}, nil
	}
	return color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}

func colorOr(value string, fallback color.NRGBA) color.NRGBA {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	c, err := ParseHexColor(value)
	if err != nil {
		return fallback
	}
	return c
}

func withAlpha(c color.NRGBA, factor float64) color.NRGBA {
	if factor >= 1 {
		return c
	}
	if factor <= 0 {
		c.A = 0
		return c
	}
	c.A = uint8(float64(c.A) * factor)
	return c
}
