package encoder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"syscall"
	"time"

	"lyricast/internal/logging"
	"lyricast/internal/project"
	"lyricast/internal/settings"
	"lyricast/internal/telemetry"
)

var commandContext = exec.CommandContext

// DefaultGracePeriod is how long a cancelled encoder gets to exit after
// SIGTERM before it is killed.
const DefaultGracePeriod = 5 * time.Second

// stderrTailSize bounds the diagnostic lines kept for exit classification.
const stderrTailSize = 32

// progressKeyLine matches the single key=value lines -progress emits.
var progressKeyLine = regexp.MustCompile(`^[a-z_0-9]+=\S*$`)

// Request describes one encoder invocation.
type Request struct {
	Settings   settings.EncodeSettings
	Audio      *project.AudioTrack
	OutputPath string
	// OnMetrics receives every metrics update parsed from the status stream.
	OnMetrics func(telemetry.EncoderMetrics)
}

// Encoder launches encoder processes.
type Encoder interface {
	Start(ctx context.Context, req Request) (Handle, error)
}

// Handle controls a running encoder. Write feeds raw frame bytes; CloseInput
// signals end of stream; Wait blocks until exit and returns the classified
// result.
type Handle interface {
	Write(p []byte) (int, error)
	CloseInput() error
	Wait() error
	Terminate() error
	Kill() error
	Metrics() telemetry.EncoderMetrics
}

// FFmpeg runs the ffmpeg binary.
type FFmpeg struct {
	Binary      string
	GracePeriod time.Duration
	Logger      *slog.Logger
}

// NewFFmpeg constructs an FFmpeg encoder for the given binary.
func NewFFmpeg(binary string, logger *slog.Logger) *FFmpeg {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{
		Binary:      binary,
		GracePeriod: DefaultGracePeriod,
		Logger:      logging.NewComponentLogger(logger, "encoder"),
	}
}

// Start launches ffmpeg. Cancelling ctx sends SIGTERM and escalates to a kill
// after the grace period.
func (f *FFmpeg) Start(ctx context.Context, req Request) (Handle, error) {
	if strings.TrimSpace(req.OutputPath) == "" {
		return nil, errors.New("output path required")
	}
	logger := f.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	args := BuildArgs(req.Settings, req.Audio, req.OutputPath)
	cmd := commandContext(ctx, f.Binary, args...) //nolint:gosec

	p := &process{
		cmd:       cmd,
		logger:    logger,
		onMetrics: req.OnMetrics,
		done:      make(chan struct{}),
	}
	cmd.Cancel = func() error {
		p.markTerminated()
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	if f.GracePeriod > 0 {
		cmd.WaitDelay = f.GracePeriod
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	p.stdin = stdin

	logger.Info(
		"launching ffmpeg",
		logging.String("command", f.Binary+" "+strings.Join(args, " ")),
		logging.String("output", req.OutputPath),
	)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	go p.monitor(stderr)
	return p, nil
}

type process struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	logger    *slog.Logger
	onMetrics func(telemetry.EncoderMetrics)
	done      chan struct{}

	mu         sync.Mutex
	metrics    telemetry.EncoderMetrics
	tail       []string
	terminated bool
	err        error

	closeOnce sync.Once
	closeErr  error
}

func (p *process) Write(b []byte) (int, error) {
	n, err := p.stdin.Write(b)
	if err != nil {
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, os.ErrClosed) {
			return n, fmt.Errorf("%w: %w", ErrBrokenPipe, err)
		}
		return n, err
	}
	return n, nil
}

func (p *process) CloseInput() error {
	p.closeOnce.Do(func() {
		if err := p.stdin.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			p.closeErr = fmt.Errorf("close encoder input: %w", err)
		}
	})
	return p.closeErr
}

func (p *process) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *process) Terminate() error {
	return p.signal(syscall.SIGTERM)
}

func (p *process) Kill() error {
	return p.signal(syscall.SIGKILL)
}

func (p *process) Metrics() telemetry.EncoderMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

func (p *process) signal(sig os.Signal) error {
	p.markTerminated()
	if p.cmd.Process == nil {
		return nil
	}
	if err := p.cmd.Process.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("signal ffmpeg: %w", err)
	}
	return nil
}

func (p *process) markTerminated() {
	p.mu.Lock()
	p.terminated = true
	p.mu.Unlock()
}

func (p *process) monitor(stderr io.Reader) {
	defer close(p.done)

	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(scanLines)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			p.consume(line)
		}
	}
	if err := scanner.Err(); err != nil {
		p.logger.Debug("encoder stderr scan stopped", logging.Error(err))
		_, _ = io.Copy(io.Discard, stderr)
	}

	waitErr := p.cmd.Wait()

	p.mu.Lock()
	p.err = p.exitErrorLocked(waitErr)
	p.mu.Unlock()
}

func (p *process) consume(line string) {
	p.mu.Lock()
	updated := ParseStats(line, &p.metrics)
	snapshot := p.metrics
	isStatus := progressKeyLine.MatchString(line) || (updated && strings.HasPrefix(line, "frame="))
	if !isStatus {
		p.tail = append(p.tail, line)
		if len(p.tail) > stderrTailSize {
			p.tail = p.tail[len(p.tail)-stderrTailSize:]
		}
	}
	p.mu.Unlock()

	if !isStatus {
		p.logger.Debug("ffmpeg", logging.String("line", line))
	}
	if updated && p.onMetrics != nil {
		p.onMetrics(snapshot)
	}
}

func (p *process) exitErrorLocked(waitErr error) error {
	if waitErr == nil {
		return nil
	}
	tail := append([]string(nil), p.tail...)
	if p.terminated {
		return &ExitError{Code: -1, Message: "terminated on request", Stderr: tail, kind: ErrTerminated}
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return ClassifyExit(exitErr.ExitCode(), tail)
	}
	return fmt.Errorf("wait for ffmpeg: %w", waitErr)
}

var _ Encoder = (*FFmpeg)(nil)
