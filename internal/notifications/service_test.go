package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"shuttle/internal/config"
	"shuttle/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifySweepCompleted(context.Background(), "metadata", "Processed 3 candidate(s)."); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "sweep completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifySweepCompleted(context.Background(), "metadata", "Processed 4 candidate(s).")
			},
			expectTitle:   "Shuttle - Sweep Complete",
			expectMessage: "Stage metadata drained. Processed 4 candidate(s).",
			expectTags:    "shuttle,sweep,completed",
		},
		{
			name: "permanent failure",
			notify: func(svc notifications.Service) error {
				return svc.NotifyPermanentFailure(context.Background(), "video_qc", "/data/a.mp4", "no playable streams")
			},
			expectTitle:    "Shuttle - Candidate Gated",
			expectMessage:  "Stage video_qc gated /data/a.mp4\nReason: no playable streams",
			expectTags:     "shuttle,gated,review",
			expectPriority: "high",
		},
		{
			name: "repair completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyRepairCompleted(context.Background(), 2)
			},
			expectTitle:   "Shuttle - Repair Complete",
			expectMessage: "Repair pass purged 2 stale completion(s)",
			expectTags:    "shuttle,repair,completed",
		},
		{
			name: "error",
			notify: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("disk full"), "report")
			},
			expectTitle:    "Shuttle - Error",
			expectMessage:  "Error with report: disk full",
			expectTags:     "shuttle,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(&cfg)
			if err := tc.notify(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceIgnoresDisabledCategories(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for disabled category: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Sweeps = false
	cfg.Notifications.Failures = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	ctx := context.Background()
	if err := svc.NotifySweepCompleted(ctx, "metadata", "Processed 1 candidate(s)."); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if err := svc.NotifyPermanentFailure(ctx, "report", "P1-0001", "render failed"); err != nil {
		t.Fatalf("failure: %v", err)
	}
	if err := svc.NotifyError(ctx, errors.New("boom"), "repair"); err != nil {
		t.Fatalf("error: %v", err)
	}
	if err := svc.NotifyRepairCompleted(ctx, 5); err != nil {
		t.Fatalf("repair: %v", err)
	}
}
