package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lyricast/internal/config"
	"lyricast/internal/telemetry"
)

const userAgent = "Lyricast/0.1.0"

// Outcome summarizes one finished export attempt.
type Outcome struct {
	RunID         string
	Project       string
	OutputPath    string
	Status        telemetry.Status
	FramesWritten int
	TotalFrames   int
	Elapsed       time.Duration
	Error         string
}

// Service defines the notification surface used by the CLI.
type Service interface {
	NotifyExport(ctx context.Context, outcome Outcome) error
	TestNotification(ctx context.Context) error
	Enabled() bool
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		onSuccess: cfg.Notifications.OnSuccess,
		onFailure: cfg.Notifications.OnFailure,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	onSuccess bool
	onFailure bool
}

func (n *ntfyService) Enabled() bool { return true }

func (n *ntfyService) NotifyExport(ctx context.Context, outcome Outcome) error {
	data, ok := n.payloadFor(outcome)
	if !ok {
		return nil
	}
	return n.send(ctx, data)
}

func (n *ntfyService) payloadFor(outcome Outcome) (payload, bool) {
	name := strings.TrimSpace(outcome.Project)
	if name == "" {
		name = "untitled project"
	}
	switch outcome.Status {
	case telemetry.StatusCompleted:
		if !n.onSuccess {
			return payload{}, false
		}
		var b strings.Builder
		fmt.Fprintf(&b, "🎤 Export complete: %s", name)
		if path := strings.TrimSpace(outcome.OutputPath); path != "" {
			fmt.Fprintf(&b, "\nFile: %s", path)
		}
		if outcome.TotalFrames > 0 {
			fmt.Fprintf(&b, "\n%d frames in %s", outcome.FramesWritten, outcome.Elapsed.Round(time.Second))
		}
		return payload{
			title:   "Lyricast - Export Complete",
			message: b.String(),
			tags:    []string{"lyricast", "export", "completed"},
		}, true
	case telemetry.StatusFailed:
		if !n.onFailure {
			return payload{}, false
		}
		message := fmt.Sprintf("❌ Export failed: %s", name)
		if reason := strings.TrimSpace(outcome.Error); reason != "" {
			message += "\n" + reason
		}
		return payload{
			title:    "Lyricast - Export Failed",
			message:  message,
			tags:     []string{"lyricast", "export", "failed"},
			priority: "high",
		}, true
	default:
		return payload{}, false
	}
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Lyricast - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"lyricast", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyExport(context.Context, Outcome) error { return nil }
func (noopService) TestNotification(context.Context) error      { return nil }
func (noopService) Enabled() bool                               { return false }
