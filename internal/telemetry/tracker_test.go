package telemetry_test

import (
	"math"
	"sync"
	"testing"
	"time"

	"lyricast/internal/telemetry"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestUpdateTimingDerivesRates(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	tracker := telemetry.NewTracker(clock.Now)
	tracker.Reset(telemetry.StatusRendering)
	tracker.SetTotal(750)

	clock.Advance(10 * time.Second)
	tracker.SetCurrentFrame(250)
	info := tracker.UpdateTiming()

	if info.Elapsed != 10*time.Second {
		t.Fatalf("elapsed = %s, want 10s", info.Elapsed)
	}
	if math.Abs(info.Percent-100.0/3.0) > 1e-9 {
		t.Fatalf("percent = %v", info.Percent)
	}
	if info.FPS != 25 {
		t.Fatalf("fps = %v, want 25", info.FPS)
	}
	if info.Remaining != 20*time.Second {
		t.Fatalf("remaining = %s, want 20s", info.Remaining)
	}
	if info.EstimatedTotal != 30*time.Second {
		t.Fatalf("estimated total = %s, want 30s", info.EstimatedTotal)
	}
}

func TestUpdateTimingGuardsZeroTotals(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	tracker := telemetry.NewTracker(clock.Now)
	tracker.Reset(telemetry.StatusRendering)

	info := tracker.UpdateTiming()
	if info.Percent != 0 || info.FPS != 0 || info.Remaining != 0 {
		t.Fatalf("expected zeroed timing with no frames, got %+v", info)
	}

	tracker.SetCurrentFrame(10)
	info = tracker.UpdateTiming()
	if info.Percent != 0 {
		t.Fatalf("expected 0 percent when total is 0, got %v", info.Percent)
	}
	if info.FPS != 0 {
		t.Fatalf("expected 0 fps with zero elapsed, got %v", info.FPS)
	}
}

func TestPercentMonotonicAndCompletes(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	tracker := telemetry.NewTracker(clock.Now)
	tracker.Reset(telemetry.StatusRendering)
	tracker.SetTotal(250)

	last := -1.0
	for frame := 0; frame <= 250; frame += 7 {
		clock.Advance(40 * time.Millisecond)
		tracker.SetCurrentFrame(frame)
		info := tracker.UpdateTiming()
		if info.Percent < last {
			t.Fatalf("percent decreased from %v to %v at frame %d", last, info.Percent, frame)
		}
		last = info.Percent
	}

	tracker.SetCurrentFrame(250)
	if got := tracker.UpdateTiming().Percent; got != 100 {
		t.Fatalf("percent at final frame = %v, want 100", got)
	}

	tracker.SetCurrentFrame(100)
	if got := tracker.Snapshot().CurrentFrame; got != 250 {
		t.Fatalf("current frame moved backwards to %d", got)
	}
}

func TestCompleteForcesHundredPercent(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	tracker := telemetry.NewTracker(clock.Now)
	tracker.Reset(telemetry.StatusEncoding)
	tracker.SetTotal(100)
	clock.Advance(time.Second)
	tracker.SetCurrentFrame(97)

	info := tracker.Complete()
	if info.Percent != 100 {
		t.Fatalf("percent = %v, want 100", info.Percent)
	}
	if info.CurrentFrame != 100 {
		t.Fatalf("current frame = %d, want 100", info.CurrentFrame)
	}
	if info.Remaining != 0 {
		t.Fatalf("remaining = %s, want 0", info.Remaining)
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	tracker := telemetry.NewTracker(nil)
	tracker.SetError("boom", []string{"a", "b"})
	snap := tracker.Snapshot()
	snap.Suggestions[0] = "mutated"
	if tracker.Snapshot().Suggestions[0] != "a" {
		t.Fatal("snapshot shares suggestion storage with tracker")
	}
}

func TestStatusPredicates(t *testing.T) {
	for _, s := range []telemetry.Status{telemetry.StatusCompleted, telemetry.StatusFailed, telemetry.StatusCancelled} {
		if !s.IsTerminal() || s.IsActive() {
			t.Fatalf("%s should be terminal and inactive", s)
		}
	}
	for _, s := range []telemetry.Status{telemetry.StatusValidating, telemetry.StatusRendering, telemetry.StatusFinalizing} {
		if s.IsTerminal() || !s.IsActive() {
			t.Fatalf("%s should be active", s)
		}
	}
	if telemetry.StatusIdle.IsActive() || telemetry.StatusIdle.IsTerminal() {
		t.Fatal("idle should be neither active nor terminal")
	}
	if !telemetry.StatusIdle.Valid() || telemetry.Status("paused").Valid() {
		t.Fatal("Valid should accept known states only")
	}
}

func TestFormatETA(t *testing.T) {
	cases := map[time.Duration]string{
		0:                      "",
		900 * time.Millisecond: "1s",
		62 * time.Second:       "1m2s",
		time.Hour + 2*time.Minute + 3*time.Second: "1h2m3s",
		2 * time.Hour: "2h0m",
	}
	for in, want := range cases {
		if got := telemetry.FormatETA(in); got != want {
			t.Fatalf("FormatETA(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestSummary(t *testing.T) {
	info := telemetry.ProgressInfo{
		Status:    telemetry.StatusRendering,
		Percent:   12.34,
		Remaining: 62 * time.Second,
		FPS:       24,
	}
	if got := telemetry.Summary(info); got != "Rendering 12.3% (ETA 1m2s, 24.0 fps)" {
		t.Fatalf("unexpected summary %q", got)
	}
}
