package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lyricast/internal/feed"
	"lyricast/internal/telemetry"
)

// progressReporter draws a live bar from the feed when out is a terminal.
// Without a terminal it stays silent; the run's own sampled log lines carry
// progress instead.
type progressReporter struct {
	out    io.Writer
	logger *slog.Logger
	tty    bool

	mu     sync.Mutex
	bar    *progressbar.ProgressBar
	total  int
	runID  string
	cancel context.CancelFunc
	done   chan struct{}
}

func newProgressReporter(out io.Writer, logger *slog.Logger) *progressReporter {
	return &progressReporter{
		out:    out,
		logger: logger,
		tty:    shouldColorize(out),
		done:   make(chan struct{}),
	}
}

// follow subscribes to the hub before returning and consumes events in the
// background until ctx ends or finish is called.
func (p *progressReporter) follow(ctx context.Context, hub *feed.Hub) {
	if !p.tty {
		close(p.done)
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	events := hub.Subscribe(ctx)
	go func() {
		defer close(p.done)
		for evt := range events {
			p.apply(evt)
		}
	}()
}

func (p *progressReporter) apply(evt feed.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	info := evt.Progress
	if p.bar == nil || evt.RunID != p.runID || info.TotalFrames != p.total {
		if p.bar != nil {
			_ = p.bar.Exit()
			fmt.Fprintln(p.out)
		}
		p.runID = evt.RunID
		p.total = info.TotalFrames
		p.bar = progressbar.NewOptions(max(info.TotalFrames, 1),
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription(statusTitle(info.Status)),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "█",
				SaucerHead:    "█",
				SaucerPadding: "░",
				BarStart:      "▐",
				BarEnd:        "▌",
			}),
		)
	}

	desc := statusTitle(info.Status)
	if info.FPS > 0 && !info.Status.IsTerminal() {
		desc = fmt.Sprintf("%s %.1f fps, ETA %s", desc, info.FPS, telemetry.FormatETA(info.Remaining))
	}
	p.bar.Describe(desc)
	_ = p.bar.Set(info.CurrentFrame)
	if evt.Terminal() {
		if info.Status == telemetry.StatusCompleted {
			_ = p.bar.Finish()
		} else {
			_ = p.bar.Exit()
		}
		fmt.Fprintln(p.out)
		p.bar = nil
	}
}

// finish stops following and waits for the follower to exit.
func (p *progressReporter) finish() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	select {
	case <-p.done:
	case <-time.After(time.Second):
		p.logger.Debug("progress reporter did not stop in time")
	}
}

func statusTitle(status telemetry.Status) string {
	return cases.Title(language.Und).String(string(status))
}

// eventLog appends feed events to a file as JSON lines.
type eventLog struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

func openEventLog(path string) (*eventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create event log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &eventLog{file: file, enc: json.NewEncoder(file)}, nil
}

func (l *eventLog) Append(evt feed.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	_ = l.enc.Encode(evt)
}

func (l *eventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

var _ feed.Sink = (*eventLog)(nil)
