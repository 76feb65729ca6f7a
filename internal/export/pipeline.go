package export

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"lyricast/internal/encoder"
	"lyricast/internal/faults"
	"lyricast/internal/fileutil"
	"lyricast/internal/logging"
	"lyricast/internal/producer"
	"lyricast/internal/render"
	"lyricast/internal/settings"
	"lyricast/internal/staging"
	"lyricast/internal/telemetry"
)

// pipeline runs preparing, rendering/encoding, and finalizing. The returned
// error carries a faults marker; nil means the output file is in place.
func (r *Run) pipeline(ctx context.Context, att *attempt) (err error) {
	r.transition(att, telemetry.StatusPreparing, "Preparing export", "Setting up workspace and encoder")

	lock, err := r.lockOutput(att.finalPath)
	if err != nil {
		return faults.Wrap(faults.ErrSetup, "preparing", "lock output", "", err)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			att.logger.Debug("release output lock failed", logging.Error(unlockErr))
		}
	}()

	ws, err := staging.Create(r.stagingRoot, att.id)
	if err != nil {
		return faults.Wrap(faults.ErrSetup, "preparing", "create workspace", "", err)
	}
	att.mu.Lock()
	att.workspace = ws
	att.mu.Unlock()
	defer func() {
		if err != nil && (errors.Is(err, faults.ErrCancelled) || r.cancelRequested.Load()) || att.cfg.CleanupTemp {
			_ = ws.Remove(att.logger)
		}
	}()

	att.mu.Lock()
	backend := att.backend
	att.mu.Unlock()
	spec := render.Spec{Width: att.cfg.Width, Height: att.cfg.Height, FPS: att.cfg.FPS, Project: att.project}
	renderer, err := backend.Open(ctx, spec)
	if err != nil {
		if r.stopRequested(ctx) {
			return cancelledError("preparing")
		}
		return faults.Wrap(faults.ErrSetup, "preparing", "open renderer", backend.Name(), err)
	}
	defer func() {
		if closeErr := render.Close(renderer); closeErr != nil {
			att.logger.Debug("renderer close failed", logging.Error(closeErr))
		}
	}()

	tempOutput := ws.OutputPath(settings.ContainerExtension(att.settings.Container))
	handle, err := r.enc.Start(ctx, encoder.Request{
		Settings:   att.settings,
		Audio:      att.project.Audio,
		OutputPath: tempOutput,
		OnMetrics:  r.tracker.SetEncoderMetrics,
	})
	if err != nil {
		if r.stopRequested(ctx) {
			return cancelledError("preparing")
		}
		return faults.Wrap(faults.ErrSetup, "preparing", "start encoder", "", err)
	}
	att.setHandle(handle)
	att.logger.Info("export pipeline ready",
		logging.String("backend", backend.Name()),
		logging.String("workspace", ws.Dir),
		logging.String("codec", att.settings.Codec),
		logging.String(logging.FieldEventType, "pipeline_ready"),
	)

	if r.stopRequested(ctx) {
		_ = handle.Kill()
		_ = handle.Wait()
		return cancelledError("preparing")
	}

	r.transition(att, telemetry.StatusRendering, "Rendering frames", fmt.Sprintf("%d frames at %.3g fps", att.total, att.cfg.FPS))
	if err := r.stream(ctx, att, renderer, handle); err != nil {
		if r.stopRequested(ctx) {
			return cancelledError(string(r.tracker.Status()))
		}
		return err
	}
	if r.stopRequested(ctx) {
		return cancelledError(string(r.tracker.Status()))
	}

	r.transition(att, telemetry.StatusFinalizing, "Finalizing export", "Moving output into place")
	final, err := r.placeOutput(att, tempOutput)
	if err != nil {
		return faults.Wrap(faults.ErrEncode, "finalizing", "move output", "", err)
	}
	att.mu.Lock()
	att.finalPath = final
	att.outputBytes = fileutil.FileSize(final)
	att.mu.Unlock()
	return nil
}

// stream runs the producer, the writer, and the encoder wait concurrently.
// The first failure wins; later errors caused by tearing down are ignored.
func (r *Run) stream(ctx context.Context, att *attempt, renderer render.Renderer, handle encoder.Handle) error {
	queue := producer.NewQueue(r.tuning.QueueCapacity)
	defer queue.Drain()

	var (
		once  sync.Once
		cause error
	)
	fail := func(err error) {
		once.Do(func() { cause = err })
	}

	prod := producer.New(renderer, queue, r.tracker, producer.Config{
		TotalFrames:          att.total,
		FPS:                  att.cfg.FPS,
		Width:                att.cfg.Width,
		Height:               att.cfg.Height,
		DropThresholdPercent: r.tuning.DropThresholdPercent,
	}, r.cancelRequested.Load, att.logger)
	writer := producer.NewWriter(queue, handle, att.setWritten)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := prod.Run(gctx)
		att.setResult(res)
		if err != nil {
			if r.stopRequested(ctx) || isStop(err) {
				return err
			}
			fail(faults.Wrap(faults.ErrEncode, "rendering", "render frames", "", err))
			_ = handle.Terminate()
			return err
		}
		r.transition(att, telemetry.StatusEncoding, "Encoding video", "Waiting for encoder to finish")
		return nil
	})
	g.Go(func() error {
		written, err := writer.Run(gctx)
		att.setWritten(written)
		if closeErr := handle.CloseInput(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			if r.stopRequested(ctx) || isStop(err) {
				return err
			}
			if waitErr := handle.Wait(); waitErr != nil {
				err = waitErr
			}
			fail(faults.Wrap(faults.ErrEncode, "encoding", "encoder", "", err))
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := handle.Wait(); err != nil {
			if !r.stopRequested(ctx) {
				fail(faults.Wrap(faults.ErrEncode, "encoding", "encoder", "", err))
			}
			return err
		}
		return nil
	})

	err := g.Wait()
	if cause != nil {
		return cause
	}
	return err
}

// lockOutput takes an exclusive lock keyed by the final output path so two
// runs never target the same file.
func (r *Run) lockOutput(finalPath string) (*flock.Flock, error) {
	dir := filepath.Join(r.stagingRoot, "locks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	sum := sha1.Sum([]byte(filepath.Clean(finalPath)))
	lock := flock.New(filepath.Join(dir, hex.EncodeToString(sum[:])+".lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another export is writing %s", finalPath)
	}
	return lock, nil
}

// placeOutput moves the encoder output to its final location. Without
// overwrite, an existing file is kept and the output takes the first free
// "name (n).ext" sibling.
func (r *Run) placeOutput(att *attempt, tempOutput string) (string, error) {
	final := att.outputPath()
	if !att.cfg.Overwrite {
		final = uniquePath(final)
	}
	if err := fileutil.MoveFile(tempOutput, final); err != nil {
		return "", err
	}
	return final, nil
}

func uniquePath(path string) string {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
	}
}
