package export

import (
	"context"
	"errors"
	"sync"
	"time"

	"lyricast/internal/faults"
	"lyricast/internal/feed"
	"lyricast/internal/history"
	"lyricast/internal/logging"
	"lyricast/internal/telemetry"
)

const recordTimeout = 5 * time.Second

func (r *Run) publish(att *attempt, evt feed.Event) {
	if r.hub == nil {
		return
	}
	if att != nil {
		evt.RunID = att.id
	}
	r.publishMu.Lock()
	defer r.publishMu.Unlock()
	evt.Progress = r.tracker.Snapshot()
	evt.Status = evt.Progress.Status
	r.hub.Publish(evt)
}

func (r *Run) transition(att *attempt, status telemetry.Status, operation, detail string) {
	r.tracker.SetStatus(status)
	r.tracker.SetOperation(operation, detail)
	att.logger.Info("export stage",
		logging.String(logging.FieldStage, string(status)),
		logging.String("operation", operation),
		logging.String(logging.FieldEventType, "status_change"),
	)
	r.publish(att, feed.Event{Kind: feed.KindStatus})
}

// ticker refreshes timing figures and publishes progress every interval
// until stop is closed.
func (r *Run) ticker(att *attempt, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	t := time.NewTicker(r.tuning.ProgressInterval)
	defer t.Stop()
	sampler := logging.NewProgressSampler(10)
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			info := r.tracker.UpdateTiming()
			r.publish(att, feed.Event{Kind: feed.KindProgress})
			if sampler.ShouldLog(info.Percent, string(info.Status)) {
				att.logger.Info("export progress",
					logging.String(logging.FieldStage, string(info.Status)),
					logging.Int("frame", info.CurrentFrame),
					logging.Int("total_frames", info.TotalFrames),
					logging.Float64("percent", info.Percent),
					logging.Float64("fps", info.FPS),
					logging.String("eta", telemetry.FormatETA(info.Remaining)),
				)
			}
		}
	}
}

// execute drives one attempt from preparing to a terminal state.
func (r *Run) execute(ctx context.Context, att *attempt) {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go r.ticker(att, stop, &wg)

	err := r.pipeline(ctx, att)

	close(stop)
	wg.Wait()
	r.finish(att, err)
}

// finish moves the attempt to its terminal state, records it, and releases
// waiters. err nil means completed.
func (r *Run) finish(att *attempt, err error) {
	var status telemetry.Status
	switch {
	case err == nil:
		status = telemetry.StatusCompleted
		r.tracker.Complete()
		r.tracker.SetStatus(status)
		r.tracker.SetOperation("Export completed", att.outputPath())
	case errors.Is(err, faults.ErrCancelled) || r.cancelRequested.Load():
		status = telemetry.StatusCancelled
		if !errors.Is(err, faults.ErrCancelled) {
			err = cancelledError(string(r.tracker.Status()))
		}
		r.tracker.UpdateTiming()
		r.tracker.SetStatus(status)
		r.tracker.SetOperation("Export cancelled", "")
	default:
		status = telemetry.StatusFailed
		rec := r.errors.Add(err.Error())
		r.tracker.UpdateTiming()
		r.tracker.SetError(err.Error(), rec.Suggestions)
		r.tracker.SetStatus(status)
		r.tracker.SetOperation("Export failed", string(rec.Category))
		logging.ErrorWithContext(att.logger, "export failed", "export_failed",
			logging.String("error_kind", faults.Kind(err)),
			logging.String("category", string(rec.Category)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, firstOr(rec.Suggestions, "check logs for details")),
			logging.String(logging.FieldImpact, "no output file produced"),
		)
	}

	att.mu.Lock()
	att.err = err
	att.mu.Unlock()
	r.finishRecord(att, status, err)

	info := r.tracker.Snapshot()
	switch status {
	case telemetry.StatusCompleted:
		att.logger.Info("export completed",
			logging.String("output", info.Detail),
			logging.Int("frames", info.TotalFrames),
			logging.Int("dropped_frames", info.DroppedFrames),
			logging.Duration("elapsed", info.Elapsed),
			logging.String(logging.FieldEventType, "export_completed"),
		)
	case telemetry.StatusCancelled:
		att.logger.Info("export cancelled",
			logging.Int("frame", info.CurrentFrame),
			logging.Int("total_frames", info.TotalFrames),
			logging.String(logging.FieldEventType, "export_cancelled"),
		)
	}

	r.publish(att, feed.Event{Kind: feed.KindStatus})
	if status == telemetry.StatusFailed {
		r.publish(att, feed.Event{Kind: feed.KindError})
	}

	r.mu.Lock()
	r.running = false
	r.lastErr = err
	r.mu.Unlock()
	close(att.done)
}

func (a *attempt) outputPath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.finalPath
}

func (r *Run) newRecord(att *attempt) *history.Record {
	return &history.Record{
		RunID:       att.id,
		ProjectName: att.project.Name,
		OutputPath:  att.finalPath,
		Format:      att.cfg.Format,
		Width:       att.cfg.Width,
		Height:      att.cfg.Height,
		FPS:         att.cfg.FPS,
		Bitrate:     att.cfg.Bitrate,
		Attempt:     att.number,
		Status:      telemetry.StatusValidating,
		TotalFrames: att.total,
		StartedAt:   att.startedAt,
	}
}

func (r *Run) beginRecord(ctx context.Context, att *attempt) {
	if r.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	rec := r.newRecord(att)
	if err := r.recorder.Begin(ctx, rec); err != nil {
		logging.WarnWithContext(att.logger, "failed to record export start", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history database permissions"),
			logging.String(logging.FieldImpact, "run missing from history"),
		)
		return
	}
	att.mu.Lock()
	att.record = rec
	att.mu.Unlock()
}

func (r *Run) finishRecord(att *attempt, status telemetry.Status, err error) {
	att.mu.Lock()
	rec := att.record
	written := att.written
	outputBytes := att.outputBytes
	finalPath := att.finalPath
	att.mu.Unlock()
	if r.recorder == nil || rec == nil {
		return
	}
	info := r.tracker.Snapshot()
	rec.Status = status
	rec.OutputPath = finalPath
	rec.FramesWritten = written
	rec.DroppedFrames = info.DroppedFrames
	rec.OutputBytes = outputBytes
	rec.FinishedAt = r.now()
	if err != nil && status == telemetry.StatusFailed {
		rec.ErrorMessage = err.Error()
		rec.ErrorCategory = string(faults.Classify(err.Error()))
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := r.recorder.Finish(ctx, rec); err != nil {
		logging.WarnWithContext(att.logger, "failed to record export result", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history database permissions"),
			logging.String(logging.FieldImpact, "history shows the run as unfinished"),
		)
	}
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 && values[0] != "" {
		return values[0]
	}
	return fallback
}
