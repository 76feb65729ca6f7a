package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lyricast/internal/config"
	"lyricast/internal/notifications"
	"lyricast/internal/telemetry"
)

type captured struct {
	calls    int
	title    string
	tags     string
	priority string
	body     string
}

func newServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		got.calls++
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		body, _ := io.ReadAll(r.Body)
		got.body = string(body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte("topic rejected"))
	}))
	t.Cleanup(server.Close)
	return server, got
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if svc.Enabled() {
		t.Fatal("expected noop service without a topic")
	}
	if err := svc.NotifyExport(context.Background(), notifications.Outcome{Status: telemetry.StatusFailed}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsOutcomes(t *testing.T) {
	tests := []struct {
		name           string
		outcome        notifications.Outcome
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "completed",
			outcome: notifications.Outcome{
				Project:       "Bohemian Rhapsody",
				OutputPath:    "/videos/karaoke_export.mp4",
				Status:        telemetry.StatusCompleted,
				FramesWritten: 9000,
				TotalFrames:   9000,
				Elapsed:       95 * time.Second,
			},
			expectTitle:   "Lyricast - Export Complete",
			expectMessage: "🎤 Export complete: Bohemian Rhapsody\nFile: /videos/karaoke_export.mp4\n9000 frames in 1m35s",
			expectTags:    "lyricast,export,completed",
		},
		{
			name: "failed",
			outcome: notifications.Outcome{
				Project: "Take On Me",
				Status:  telemetry.StatusFailed,
				Error:   "encode error: encoder exited with status 1",
			},
			expectTitle:    "Lyricast - Export Failed",
			expectMessage:  "❌ Export failed: Take On Me\nencode error: encoder exited with status 1",
			expectTags:     "lyricast,export,failed",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server, got := newServer(t, http.StatusOK)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := svc.NotifyExport(context.Background(), tc.outcome); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}
			if got.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, got.title)
			}
			if got.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, got.body)
			}
			if got.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, got.tags)
			}
			if got.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, got.priority)
			}
		})
	}
}

func TestNtfyServiceSkipsCancelledAndDisabledOutcomes(t *testing.T) {
	server, got := newServer(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.OnSuccess = false

	svc := notifications.NewService(&cfg)
	ctx := context.Background()
	if err := svc.NotifyExport(ctx, notifications.Outcome{Status: telemetry.StatusCancelled}); err != nil {
		t.Fatalf("cancelled: %v", err)
	}
	if err := svc.NotifyExport(ctx, notifications.Outcome{Status: telemetry.StatusCompleted}); err != nil {
		t.Fatalf("completed: %v", err)
	}
	if got.calls != 0 {
		t.Fatalf("expected no requests, got %d", got.calls)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server, _ := newServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
	if want := "ntfy returned 403: topic rejected"; err.Error() != want {
		t.Fatalf("error = %q, want %q", err.Error(), want)
	}
}
