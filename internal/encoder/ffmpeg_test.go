package encoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"lyricast/internal/logging"
	"lyricast/internal/telemetry"
)

func useHelper(t *testing.T, mode string) *[]string {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(),
			"GO_WANT_HELPER_PROCESS=1",
			"ENCODER_HELPER_MODE="+mode,
			"ENCODER_HELPER_OUTPUT="+args[len(args)-1],
		)
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &captured
}

func smallRequest(t *testing.T) Request {
	s := baseSettings()
	s.Width, s.Height = 2, 2
	return Request{Settings: s, OutputPath: filepath.Join(t.TempDir(), "out.mp4")}
}

func TestFFmpegStreamsFramesAndReportsMetrics(t *testing.T) {
	captured := useHelper(t, "success")
	req := smallRequest(t)

	var mu sync.Mutex
	var updates []telemetry.EncoderMetrics
	req.OnMetrics = func(m telemetry.EncoderMetrics) {
		mu.Lock()
		updates = append(updates, m)
		mu.Unlock()
	}

	enc := NewFFmpeg("ffmpeg", logging.NewNop())
	handle, err := enc.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	frame := make([]byte, 2*2*4)
	for i := 0; i < 3; i++ {
		if _, err := handle.Write(frame); err != nil {
			t.Fatalf("Write frame %d: %v", i, err)
		}
	}
	if err := handle.CloseInput(); err != nil {
		t.Fatalf("CloseInput: %v", err)
	}
	if err := handle.CloseInput(); err != nil {
		t.Fatalf("second CloseInput should be a no-op: %v", err)
	}
	if err := handle.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if (*captured)[len(*captured)-1] != req.OutputPath {
		t.Fatalf("expected output path last, got %v", *captured)
	}
	if _, err := os.Stat(req.OutputPath); err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	m := handle.Metrics()
	if m.Frame != 3 || m.FPS != 25 || m.Speed != "1.5x" || m.Bitrate != "204.8kbits/s" {
		t.Fatalf("unexpected metrics %+v", m)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(updates) == 0 {
		t.Fatal("expected metrics callbacks")
	}
}

func TestFFmpegClassifiesFailure(t *testing.T) {
	useHelper(t, "unknown_encoder")
	handle, err := NewFFmpeg("ffmpeg", nil).Start(context.Background(), smallRequest(t))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_ = handle.CloseInput()
	err = handle.Wait()
	if !errors.Is(err, ErrCodecUnavailable) {
		t.Fatalf("expected codec error, got %v", err)
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
}

func TestFFmpegGenericFailureKeepsTail(t *testing.T) {
	useHelper(t, "generic")
	handle, err := NewFFmpeg("ffmpeg", nil).Start(context.Background(), smallRequest(t))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	_ = handle.CloseInput()
	err = handle.Wait()
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || !errors.Is(err, ErrEncodeFailed) {
		t.Fatalf("expected generic encode failure, got %v", err)
	}
	if exitErr.Message != "line two; line three; line four" {
		t.Fatalf("unexpected tail message %q", exitErr.Message)
	}
}

func TestFFmpegTerminate(t *testing.T) {
	useHelper(t, "hang")
	handle, err := NewFFmpeg("ffmpeg", nil).Start(context.Background(), smallRequest(t))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := handle.Terminate(); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if err := handle.Wait(); !errors.Is(err, ErrTerminated) {
		t.Fatalf("expected terminated error, got %v", err)
	}
	if err := handle.Kill(); err != nil {
		t.Fatalf("Kill after exit should be a no-op: %v", err)
	}
}

func TestFFmpegContextCancelTerminates(t *testing.T) {
	useHelper(t, "hang")
	ctx, cancel := context.WithCancel(context.Background())
	enc := NewFFmpeg("ffmpeg", nil)
	enc.GracePeriod = time.Second
	handle, err := enc.Start(ctx, smallRequest(t))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	done := make(chan error, 1)
	go func() { done <- handle.Wait() }()
	select {
	case err := <-done:
		if !errors.Is(err, ErrTerminated) {
			t.Fatalf("expected terminated error, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("encoder did not exit after cancellation")
	}
}

func TestFFmpegRequiresOutput(t *testing.T) {
	if _, err := NewFFmpeg("", nil).Start(context.Background(), Request{}); err == nil {
		t.Fatal("expected error without output path")
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("ENCODER_HELPER_MODE") {
	case "success":
		n, _ := io.Copy(io.Discard, os.Stdin)
		fmt.Fprint(os.Stderr, "Input #0, rawvideo, from 'pipe:':\n")
		fmt.Fprint(os.Stderr, "frame=    1 fps= 12 q=28.0 size=       1kB time=00:00:00.04 bitrate= 100.0kbits/s speed=0.5x\r")
		fmt.Fprintf(os.Stderr, "frame=%d\nfps=25.00\nbitrate=204.8kbits/s\nspeed=1.5x\nprogress=end\n", n/16)
		if err := os.WriteFile(os.Getenv("ENCODER_HELPER_OUTPUT"), []byte("video"), 0o644); err != nil {
			os.Exit(3)
		}
		os.Exit(0)
	case "unknown_encoder":
		fmt.Fprint(os.Stderr, "Unknown encoder 'libx264'\n")
		os.Exit(1)
	case "generic":
		fmt.Fprint(os.Stderr, "line one\nline two\nline three\nline four\n")
		os.Exit(1)
	case "hang":
		time.Sleep(time.Minute)
		os.Exit(0)
	}
	os.Exit(0)
}
