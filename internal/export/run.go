package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"lyricast/internal/encoder"
	"lyricast/internal/faults"
	"lyricast/internal/feed"
	"lyricast/internal/history"
	"lyricast/internal/logging"
	"lyricast/internal/preflight"
	"lyricast/internal/producer"
	"lyricast/internal/project"
	"lyricast/internal/render"
	"lyricast/internal/settings"
	"lyricast/internal/staging"
	"lyricast/internal/telemetry"
)

// Run supervises exports of one project. Several runs may coexist; each
// owns its tracker, error history, and retry counter.
type Run struct {
	backend      render.Backend
	fallback     render.Backend
	enc          encoder.Encoder
	ffmpegBinary string
	advanced     settings.Advanced
	tuning       Tuning
	stagingRoot  string
	logger       *slog.Logger
	hub          *feed.Hub
	recorder     Recorder
	now          func() time.Time

	tracker         *telemetry.Tracker
	errors          *faults.History
	cancelRequested atomic.Bool

	// publishMu makes snapshot-and-publish one step so feed sequence order
	// matches the order of tracker updates.
	publishMu sync.Mutex

	mu         sync.Mutex
	project    *project.Project
	config     *settings.ExportConfiguration
	running    bool
	retries    int
	current    *attempt
	validation []ValidationResult
	lastErr    error
}

// New constructs an idle run.
func New(opts Options) *Run {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	fallback := opts.Fallback
	if fallback == nil {
		fallback = render.FallbackBackend{}
	}
	ffmpeg := opts.FFmpegBinary
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return &Run{
		backend:      opts.Backend,
		fallback:     fallback,
		enc:          opts.Encoder,
		ffmpegBinary: ffmpeg,
		advanced:     opts.Advanced,
		tuning:       opts.Tuning.withDefaults(),
		stagingRoot:  opts.StagingRoot,
		logger:       logging.NewComponentLogger(opts.Logger, "export"),
		hub:          opts.Hub,
		recorder:     opts.Recorder,
		now:          now,
		tracker:      telemetry.NewTracker(now),
		errors:       faults.NewHistory(now),
	}
}

// attempt is one pass through the state machine.
type attempt struct {
	id        string
	number    int
	cfg       settings.ExportConfiguration
	settings  settings.EncodeSettings
	project   *project.Project
	duration  float64
	total     int
	logger    *slog.Logger
	done      chan struct{}
	startedAt time.Time

	mu          sync.Mutex
	backend     render.Backend
	cancel      context.CancelFunc
	handle      encoder.Handle
	workspace   *staging.Workspace
	finalPath   string
	outputBytes int64
	result      producer.Result
	written     int
	err         error
	record      *history.Record
}

func (a *attempt) setHandle(h encoder.Handle) {
	a.mu.Lock()
	a.handle = h
	a.mu.Unlock()
}

func (a *attempt) encoderHandle() encoder.Handle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handle
}

func (a *attempt) setCancel(cancel context.CancelFunc) {
	a.mu.Lock()
	a.cancel = cancel
	a.mu.Unlock()
}

func (a *attempt) stop() {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (a *attempt) setWritten(n int) {
	a.mu.Lock()
	a.written = n
	a.mu.Unlock()
}

func (a *attempt) setResult(res producer.Result) {
	a.mu.Lock()
	a.result = res
	a.mu.Unlock()
}

// SetProject replaces the project used by the next Start. It has no effect
// on an attempt already running.
func (r *Run) SetProject(p *project.Project) {
	r.mu.Lock()
	r.project = p
	r.mu.Unlock()
}

// Start validates cfg and launches the pipeline in the background. It
// returns false without any state change when a run is active or no project
// is set, and false after moving to failed when validation blocks the run.
func (r *Run) Start(ctx context.Context, cfg settings.ExportConfiguration) bool {
	return r.start(ctx, cfg, false)
}

func (r *Run) start(ctx context.Context, cfg settings.ExportConfiguration, retry bool) bool {
	r.mu.Lock()
	if r.running || r.project == nil {
		r.mu.Unlock()
		return false
	}
	if !retry {
		r.retries = 0
		r.errors.Clear()
	}
	stored := cfg
	r.config = &stored
	r.running = true
	r.lastErr = nil
	r.validation = nil
	r.cancelRequested.Store(false)

	att := r.newAttemptLocked(cfg)
	r.current = att
	r.mu.Unlock()

	r.tracker.Reset(telemetry.StatusIdle)
	r.tracker.SetTotal(att.total)
	r.beginRecord(ctx, att)

	att.logger.Info("export starting",
		logging.String("project", att.project.Name),
		logging.String("output", att.finalPath),
		logging.String("format", cfg.Format),
		logging.Int("width", cfg.Width),
		logging.Int("height", cfg.Height),
		logging.Float64("fps", cfg.FPS),
		logging.Int("total_frames", att.total),
		logging.Int("attempt", att.number),
	)
	r.transition(att, telemetry.StatusValidating, "Validating export requirements", "Checking project and system requirements")

	results, backend := r.validate(ctx, att)
	r.mu.Lock()
	r.validation = append([]ValidationResult(nil), results...)
	r.mu.Unlock()
	r.publish(att, feed.Event{Kind: feed.KindValidation, Validation: results})
	r.logValidation(att, results)

	if preflight.HasErrors(results) {
		r.finish(att, faults.Wrap(faults.ErrValidation, "validating", "", "export validation failed: "+preflight.Summary(results), nil))
		return false
	}
	if r.stopRequested(ctx) {
		r.finish(att, cancelledError("validating"))
		return true
	}

	att.mu.Lock()
	att.backend = backend
	att.mu.Unlock()
	runCtx, cancel := context.WithCancel(ctx)
	att.setCancel(cancel)
	go r.execute(runCtx, att)
	return true
}

func (r *Run) newAttemptLocked(cfg settings.ExportConfiguration) *attempt {
	id := uuid.NewString()
	duration := r.project.MediaDuration(r.tuning.FallbackDuration)
	att := &attempt{
		id:        id,
		number:    r.retries + 1,
		cfg:       cfg,
		settings:  settings.Derive(cfg, r.advanced),
		project:   r.project,
		duration:  duration,
		total:     project.TotalFrames(duration, cfg.FPS),
		logger:    r.logger.With(logging.String(logging.FieldRunID, id)),
		done:      make(chan struct{}),
		startedAt: r.now(),
		finalPath: cfg.OutputPath(),
	}
	return att
}

// Cancel stops the running attempt: it requests encoder termination, waits
// up to the writer join timeout for the pipeline to unwind, kills the
// encoder if it has not exited, and returns once the run is cancelled. It is
// a no-op when nothing runs.
func (r *Run) Cancel() {
	r.cancel(false)
}

// ForceCancel kills the encoder immediately instead of asking it to stop.
func (r *Run) ForceCancel() {
	r.cancel(true)
}

func (r *Run) cancel(force bool) {
	r.mu.Lock()
	att := r.current
	running := r.running
	r.mu.Unlock()
	if !running || att == nil {
		return
	}

	first := r.cancelRequested.CompareAndSwap(false, true)
	if first || force {
		att.logger.Info("export cancellation requested", logging.Bool("force", force))
	}
	att.stop()

	if h := att.encoderHandle(); h != nil {
		var err error
		if force {
			err = h.Kill()
		} else {
			err = h.Terminate()
		}
		if err != nil {
			att.logger.Debug("encoder signal failed", logging.Error(err))
		}
	}

	if !force {
		select {
		case <-att.done:
			return
		case <-time.After(r.tuning.WriterJoinTimeout):
		}
		logging.WarnWithContext(att.logger, "pipeline did not stop in time; killing encoder", "cancel_timeout",
			logging.Duration("timeout", r.tuning.WriterJoinTimeout),
			logging.String(logging.FieldErrorHint, "the encoder ignored SIGTERM"),
			logging.String(logging.FieldImpact, "encoder output discarded"),
		)
		if h := att.encoderHandle(); h != nil {
			_ = h.Kill()
		}
	}
	<-att.done
}

// CancelRequested reports whether the current attempt has been asked to stop.
func (r *Run) CancelRequested() bool {
	return r.cancelRequested.Load()
}

// Retry restarts the last configuration. It is refused while running,
// before any Start, and once the retry ceiling is reached; the last case is
// recorded in the error history.
func (r *Run) Retry(ctx context.Context) bool {
	r.mu.Lock()
	if r.running || r.config == nil {
		r.mu.Unlock()
		return false
	}
	if r.retries >= r.tuning.MaxRetries {
		limit := r.tuning.MaxRetries
		r.mu.Unlock()
		message := fmt.Sprintf("maximum retry attempts exceeded (%d)", limit)
		rec := r.errors.Add(message)
		r.tracker.SetError(message, rec.Suggestions)
		r.logger.Error("export retry refused",
			logging.Int("max_retries", limit),
			logging.String(logging.FieldEventType, "retry_exhausted"),
			logging.String(logging.FieldErrorHint, "fix the reported error before exporting again"),
		)
		r.publish(nil, feed.Event{Kind: feed.KindError})
		return false
	}
	r.retries++
	cfg := *r.config
	n := r.retries
	r.mu.Unlock()

	r.logger.Info("retrying export", logging.Int("retry", n), logging.Int("max_retries", r.tuning.MaxRetries))
	return r.start(ctx, cfg, true)
}

// CanRetry reports whether Retry would start a new attempt.
func (r *Run) CanRetry() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.running && r.config != nil && r.retries < r.tuning.MaxRetries
}

// Retries returns how many retries have been used since the last Start.
func (r *Run) Retries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retries
}

// Running reports whether an attempt is in flight.
func (r *Run) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Status returns the current state.
func (r *Run) Status() telemetry.Status {
	return r.tracker.Status()
}

// Progress returns a snapshot of the current progress.
func (r *Run) Progress() telemetry.ProgressInfo {
	return r.tracker.Snapshot()
}

// RunID returns the identifier of the current or last attempt.
func (r *Run) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		return r.current.id
	}
	return ""
}

// OutputPath returns where the last attempt wrote (or will write) its file.
func (r *Run) OutputPath() string {
	r.mu.Lock()
	att := r.current
	r.mu.Unlock()
	if att == nil {
		return ""
	}
	att.mu.Lock()
	defer att.mu.Unlock()
	return att.finalPath
}

// Err returns the error that ended the last attempt: nil after completion,
// a faults.ErrCancelled error after cancellation.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Wait blocks until the current attempt reaches a terminal state or ctx
// ends, and returns the attempt's error.
func (r *Run) Wait(ctx context.Context) error {
	r.mu.Lock()
	att := r.current
	r.mu.Unlock()
	if att == nil {
		return nil
	}
	select {
	case <-att.done:
		return r.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ErrorHistory returns every recorded failure since the last Start or clear.
func (r *Run) ErrorHistory() []faults.Record {
	return r.errors.Entries()
}

// ClearErrorHistory drops the error history and resets the retry counter.
func (r *Run) ClearErrorHistory() {
	r.errors.Clear()
	r.mu.Lock()
	r.retries = 0
	r.mu.Unlock()
}

// LastValidation returns the findings from the most recent validation pass.
func (r *Run) LastValidation() []ValidationResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ValidationResult(nil), r.validation...)
}

// PerformanceMetrics summarizes throughput for the current or last attempt.
type PerformanceMetrics struct {
	TotalFrames     int
	FramesRendered  int
	FramesWritten   int
	DroppedFrames   int
	AverageRender   time.Duration
	FramesPerSecond float64
	Percent         float64
	Elapsed         time.Duration
	EstimatedTotal  time.Duration
	Encoder         telemetry.EncoderMetrics
}

// PerformanceMetrics returns throughput figures for the current or last attempt.
func (r *Run) PerformanceMetrics() PerformanceMetrics {
	info := r.tracker.Snapshot()
	m := PerformanceMetrics{
		TotalFrames:     info.TotalFrames,
		FramesRendered:  info.CurrentFrame,
		DroppedFrames:   info.DroppedFrames,
		FramesPerSecond: info.FPS,
		Percent:         info.Percent,
		Elapsed:         info.Elapsed,
		EstimatedTotal:  info.EstimatedTotal,
		Encoder:         info.Encoder,
	}
	r.mu.Lock()
	att := r.current
	r.mu.Unlock()
	if att != nil {
		att.mu.Lock()
		m.FramesWritten = att.written
		m.AverageRender = att.result.AverageRender()
		att.mu.Unlock()
	}
	return m
}

func (r *Run) stopRequested(ctx context.Context) bool {
	if r.cancelRequested.Load() {
		return true
	}
	if ctx != nil && ctx.Err() != nil {
		r.cancelRequested.Store(true)
		return true
	}
	return false
}

func cancelledError(stage string) error {
	return faults.Wrap(faults.ErrCancelled, stage, "", "export cancelled by user", nil)
}

func isStop(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
