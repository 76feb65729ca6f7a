package producer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"lyricast/internal/logging"
	"lyricast/internal/render"
)

// ErrTooManyDrops aborts a run whose dropped frames exceed the threshold.
var ErrTooManyDrops = errors.New("too many dropped frames")

// Progress is the narrow telemetry surface the producer updates.
type Progress interface {
	SetCurrentFrame(current int)
	AddDropped(n int) int
}

// Config controls one producer run.
type Config struct {
	TotalFrames int
	FPS         float64
	// Width and Height, when set, are the layout every frame must match
	// before it reaches the encoder.
	Width  int
	Height int
	// DropThresholdPercent of TotalFrames may be dropped before the run
	// aborts; at least one drop is tolerated when positive. Zero or less
	// aborts on the first drop.
	DropThresholdPercent float64
}

// MaxDrops returns the number of dropped frames tolerated.
func (c Config) MaxDrops() int {
	if c.DropThresholdPercent <= 0 {
		return 0
	}
	return max(1, int(math.Floor(float64(c.TotalFrames)*c.DropThresholdPercent/100)))
}

// Result summarizes a producer run.
type Result struct {
	Enqueued   int
	Dropped    int
	RenderTime time.Duration
}

// AverageRender returns the mean render duration per attempted frame.
func (r Result) AverageRender() time.Duration {
	attempts := r.Enqueued + r.Dropped
	if attempts == 0 {
		return 0
	}
	return r.RenderTime / time.Duration(attempts)
}

// Producer renders frames into a queue.
type Producer struct {
	renderer  render.Renderer
	queue     *Queue
	progress  Progress
	cfg       Config
	cancelled func() bool
	logger    *slog.Logger
}

// New builds a producer. cancelled is polled alongside ctx before each
// render and after it; nil means only ctx is observed.
func New(renderer render.Renderer, queue *Queue, progress Progress, cfg Config, cancelled func() bool, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cancelled == nil {
		cancelled = func() bool { return false }
	}
	return &Producer{
		renderer:  renderer,
		queue:     queue,
		progress:  progress,
		cfg:       cfg,
		cancelled: cancelled,
		logger:    logger,
	}
}

// Run renders every frame and closes the queue when it returns.
func (p *Producer) Run(ctx context.Context) (Result, error) {
	defer p.queue.Close()

	var res Result
	if p.cfg.FPS <= 0 {
		return res, fmt.Errorf("invalid frame rate %v", p.cfg.FPS)
	}
	maxDrops := p.cfg.MaxDrops()

	for i := 0; i < p.cfg.TotalFrames; i++ {
		if err := p.stopErr(ctx); err != nil {
			return res, err
		}

		t := float64(i) / p.cfg.FPS
		start := time.Now()
		frame, err := p.renderer.Render(t)
		res.RenderTime += time.Since(start)

		if err := p.stopErr(ctx); err != nil {
			frame.Release()
			return res, err
		}

		if err == nil && frame != nil {
			if err = p.checkLayout(frame); err != nil {
				frame.Release()
				frame = nil
			}
		}

		if err != nil || frame == nil {
			res.Dropped++
			dropped := res.Dropped
			if p.progress != nil {
				dropped = p.progress.AddDropped(1)
			}
			p.logger.Warn("frame dropped",
				logging.Int("frame", i),
				logging.Float64("timestamp", t),
				logging.Int("dropped", dropped),
				logging.Error(err),
				logging.String(logging.FieldEventType, "frame_dropped"),
				logging.String(logging.FieldImpact, "frame repeated or missing in output"),
			)
			if res.Dropped > maxDrops {
				return res, fmt.Errorf("%w: %d of %d frames (limit %d)", ErrTooManyDrops, res.Dropped, p.cfg.TotalFrames, maxDrops)
			}
			continue
		}

		frame.Sequence = i
		frame.Timestamp = t
		if err := p.queue.Push(ctx, frame); err != nil {
			frame.Release()
			return res, err
		}
		res.Enqueued++
		if p.progress != nil {
			p.progress.SetCurrentFrame(res.Enqueued)
		}
	}
	return res, nil
}

func (p *Producer) checkLayout(frame *render.Frame) error {
	if p.cfg.Width <= 0 || p.cfg.Height <= 0 {
		return nil
	}
	if err := frame.Validate(p.cfg.Width, p.cfg.Height); err != nil {
		return fmt.Errorf("bad frame layout: %w", err)
	}
	return nil
}

func (p *Producer) stopErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.cancelled() {
		return context.Canceled
	}
	return nil
}
