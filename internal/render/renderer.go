package render

import (
	"context"
	"errors"
	"io"

	"lyricast/internal/project"
)

// ErrUnavailable marks a backend that cannot render on this host.
var ErrUnavailable = errors.New("rendering backend unavailable")

// Renderer produces one composited frame per timestamp (seconds). A nil
// frame with a nil error counts as a dropped frame.
type Renderer interface {
	Render(timestamp float64) (*Frame, error)
}

// Spec is what a backend needs to open a renderer.
type Spec struct {
	Width   int
	Height  int
	FPS     float64
	Project *project.Project
}

// Backend opens renderers.
type Backend interface {
	Name() string
	// Check is a cheap reachability probe run during validation.
	Check(spec Spec) error
	Open(ctx context.Context, spec Spec) (Renderer, error)
}

// Close releases renderer resources when the renderer holds any.
func Close(r Renderer) error {
	if c, ok := r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
