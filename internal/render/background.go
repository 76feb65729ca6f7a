package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// background fills the whole destination for a timestamp.
type background interface {
	fill(t float64, dst *image.RGBA) error
	close() error
}

type solidBackground struct {
	color color.NRGBA
}

func (b solidBackground) fill(_ float64, dst *image.RGBA) error {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(b.color), image.Point{}, draw.Src)
	return nil
}

func (solidBackground) close() error { return nil }

// stillBackground is a decoded image scaled once to the output size.
type stillBackground struct {
	pix []byte
}

func newStillBackground(path string, width, height int, fill color.NRGBA) (*stillBackground, error) {
	src, err := decodeImage(path)
	if err != nil {
		return nil, err
	}
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(canvas, fitRect(src.Bounds(), canvas.Bounds()), src, src.Bounds(), draw.Over, nil)
	return &stillBackground{pix: canvas.Pix}, nil
}

func (b *stillBackground) fill(_ float64, dst *image.RGBA) error {
	copy(dst.Pix, b.pix)
	return nil
}

func (*stillBackground) close() error { return nil }

func decodeImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read background image: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode background image %s: %w", path, err)
	}
	return img, nil
}

// fitRect returns the largest rectangle with src's aspect ratio centered in dst.
func fitRect(src, dst image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	dw, dh := dst.Dx(), dst.Dy()
	if sw <= 0 || sh <= 0 {
		return dst
	}
	w, h := dw, sh*dw/sw
	if h > dh {
		w, h = sw*dh/sh, dh
	}
	x := dst.Min.X + (dw-w)/2
	y := dst.Min.Y + (dh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// videoBackground decodes a looping background video through ffmpeg at the
// export's resolution and frame rate. Timestamps must be requested in
// ascending order, which the frame producer guarantees.
type videoBackground struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *bytes.Buffer
	cancel context.CancelFunc
	fps    float64

	mu      sync.Mutex
	current []byte
	index   int
	decoded bool
	done    bool
	waited  bool
}

func videoDecodeArgs(path string, width, height int, fps float64) []string {
	w, h := strconv.Itoa(width), strconv.Itoa(height)
	scale := "scale=" + w + ":" + h + ":force_original_aspect_ratio=decrease," +
		"pad=" + w + ":" + h + ":(ow-iw)/2:(oh-ih)/2:color=black"
	return []string{
		"-v", "error",
		"-nostdin",
		"-stream_loop", "-1",
		"-i", path,
		"-an",
		"-vf", scale,
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	}
}

func newVideoBackground(ctx context.Context, ffmpeg, path string, width, height int, fps float64) (*videoBackground, error) {
	if fps <= 0 {
		return nil, errors.New("video background requires a positive frame rate")
	}
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, ffmpeg, videoDecodeArgs(path, width, height, fps)...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("video background stdout: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start video decoder: %w", err)
	}
	return &videoBackground{
		cmd:     cmd,
		stdout:  stdout,
		stderr:  &stderr,
		cancel:  cancel,
		fps:     fps,
		current: make([]byte, width*height*BytesPerPixel),
		index:   -1,
	}, nil
}

func (b *videoBackground) fill(t float64, dst *image.RGBA) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	target := int(t*b.fps + 1e-6)
	for !b.done && b.index < target {
		if _, err := io.ReadFull(b.stdout, b.current); err != nil {
			b.done = true
			if !b.decoded {
				b.wait()
				return fmt.Errorf("decode background video: %w: %s", err, bytes.TrimSpace(b.stderr.Bytes()))
			}
			break
		}
		b.decoded = true
		b.index++
	}
	if !b.decoded {
		return errors.New("background video produced no frames")
	}
	copy(dst.Pix, b.current)
	return nil
}

func (b *videoBackground) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancel()
	_ = b.stdout.Close()
	b.wait()
	return nil
}

// wait reaps the decoder; stderr is only safe to read afterwards.
func (b *videoBackground) wait() {
	if b.waited {
		return
	}
	b.waited = true
	_ = b.cmd.Wait()
}
