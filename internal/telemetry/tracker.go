package telemetry

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Tracker owns a run's ProgressInfo. All mutation goes through its methods.
type Tracker struct {
	mu      sync.Mutex
	info    ProgressInfo
	started time.Time
	now     func() time.Time
}

// NewTracker constructs an idle tracker. now may be nil to use the wall clock.
func NewTracker(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{now: now, info: ProgressInfo{Status: StatusIdle}}
}

// Reset clears counters, timing, and error fields and restarts the clock.
func (t *Tracker) Reset(status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.info = ProgressInfo{Status: status}
	t.started = t.now()
}

// Snapshot returns a copy of the current progress.
func (t *Tracker) Snapshot() ProgressInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.info.Clone()
}

// Status returns the current status.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.info.Status
}

// SetStatus records a state transition.
func (t *Tracker) SetStatus(status Status) {
	t.mu.Lock()
	t.info.Status = status
	t.mu.Unlock()
}

// SetOperation records the free-text description of the current step.
func (t *Tracker) SetOperation(operation, detail string) {
	t.mu.Lock()
	t.info.Operation = operation
	t.info.Detail = detail
	t.mu.Unlock()
}

// SetTotal records the number of frames scheduled for the run.
func (t *Tracker) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	t.mu.Lock()
	t.info.TotalFrames = total
	t.mu.Unlock()
}

// SetCurrentFrame records how many frames have reached the encoder. Values
// lower than the current counter are ignored so progress never moves backwards.
func (t *Tracker) SetCurrentFrame(current int) {
	t.mu.Lock()
	if current > t.info.CurrentFrame {
		t.info.CurrentFrame = current
	}
	t.mu.Unlock()
}

// AddDropped increments the dropped-frame counter and returns the new total.
func (t *Tracker) AddDropped(n int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.info.DroppedFrames += n
	return t.info.DroppedFrames
}

// SetEncoderMetrics records the encoder's self-reported figures.
func (t *Tracker) SetEncoderMetrics(m EncoderMetrics) {
	t.mu.Lock()
	t.info.Encoder = m
	t.mu.Unlock()
}

// SetError records the last error and its remediation suggestions.
func (t *Tracker) SetError(message string, suggestions []string) {
	t.mu.Lock()
	t.info.LastError = message
	t.info.Suggestions = append([]string(nil), suggestions...)
	t.mu.Unlock()
}

// UpdateTiming recomputes elapsed time, percent, throughput, and ETA from the
// frame counters.
func (t *Tracker) UpdateTiming() ProgressInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updateTimingLocked()
	return t.info.Clone()
}

// Complete forces progress to 100% after a final timing update.
func (t *Tracker) Complete() ProgressInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updateTimingLocked()
	if t.info.TotalFrames > 0 {
		t.info.CurrentFrame = t.info.TotalFrames
	}
	t.info.Percent = 100
	t.info.Remaining = 0
	return t.info.Clone()
}

func (t *Tracker) updateTimingLocked() {
	if t.started.IsZero() {
		return
	}
	elapsed := t.now().Sub(t.started)
	if elapsed < 0 {
		elapsed = 0
	}
	t.info.Elapsed = elapsed

	current := t.info.CurrentFrame
	total := t.info.TotalFrames
	t.info.Percent = Percent(current, total)

	seconds := elapsed.Seconds()
	if seconds <= 0 || current <= 0 {
		t.info.FPS = 0
		t.info.Remaining = 0
		t.info.EstimatedTotal = 0
		return
	}
	fps := float64(current) / seconds
	t.info.FPS = fps
	remaining := total - current
	if remaining < 0 {
		remaining = 0
	}
	t.info.Remaining = secondsToDuration(float64(remaining) / fps)
	t.info.EstimatedTotal = secondsToDuration(float64(total) / fps)
}

// Percent returns 100*current/total, or 0 when total is zero.
func Percent(current, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := 100 * float64(current) / float64(total)
	if pct > 100 {
		pct = 100
	}
	return pct
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// FormatETA renders a duration as a compact "1h2m3s" string. Non-positive
// durations render as an empty string.
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	d = d.Round(time.Second)
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second

	var b strings.Builder
	if hours > 0 {
		fmt.Fprintf(&b, "%dh", hours)
	}
	if minutes > 0 || hours > 0 {
		fmt.Fprintf(&b, "%dm", minutes)
	}
	if seconds > 0 || (hours == 0 && minutes == 0) {
		fmt.Fprintf(&b, "%ds", seconds)
	}
	return b.String()
}

// Summary renders a one-line progress message, e.g.
// "Rendering 12.3% (ETA 1m2s, 24.0 fps)".
func Summary(p ProgressInfo) string {
	label := string(p.Status)
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	var details []string
	if eta := FormatETA(p.Remaining); eta != "" {
		details = append(details, "ETA "+eta)
	}
	if p.FPS > 0 {
		details = append(details, fmt.Sprintf("%.1f fps", p.FPS))
	}
	if p.Encoder.Speed != "" {
		details = append(details, "@ "+p.Encoder.Speed)
	}
	msg := fmt.Sprintf("%s %.1f%%", label, p.Percent)
	if len(details) > 0 {
		msg += " (" + strings.Join(details, ", ") + ")"
	}
	return msg
}
