package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"lyricast/internal/feed"
	"lyricast/internal/logging"
	"lyricast/internal/telemetry"
)

func TestProgressReporterFollowsHub(t *testing.T) {
	hub := feed.NewHub(16)
	var out bytes.Buffer
	reporter := newProgressReporter(&out, logging.NewNop())
	reporter.tty = true

	reporter.follow(context.Background(), hub)
	hub.Publish(feed.Event{
		Kind:     feed.KindProgress,
		RunID:    "run-1",
		Progress: telemetry.ProgressInfo{Status: telemetry.StatusRendering, CurrentFrame: 5, TotalFrames: 10},
	})

	deadline := time.Now().Add(2 * time.Second)
	for {
		reporter.mu.Lock()
		runID := reporter.runID
		reporter.mu.Unlock()
		if runID == "run-1" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("reporter never received the published event")
		}
		time.Sleep(5 * time.Millisecond)
	}

	reporter.finish()
	select {
	case <-reporter.done:
	default:
		t.Fatal("reporter still running after finish")
	}
	if out.Len() == 0 {
		t.Fatal("expected progress bar output")
	}
}

func TestProgressReporterSilentWithoutTerminal(t *testing.T) {
	hub := feed.NewHub(16)
	var out bytes.Buffer
	reporter := newProgressReporter(&out, logging.NewNop())

	reporter.follow(context.Background(), hub)
	hub.Publish(feed.Event{Kind: feed.KindProgress, RunID: "run-1"})
	reporter.finish()
	if out.Len() != 0 {
		t.Fatalf("expected no output without a terminal, got %q", out.String())
	}
}
