package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shuttle/internal/config"
)

const userAgent = "Shuttle-Go/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifySweepCompleted(ctx context.Context, stage, summary string) error
	NotifyPermanentFailure(ctx context.Context, stage, candidateKey, reason string) error
	NotifyRepairCompleted(ctx context.Context, purged int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
		sweeps:   cfg.Notifications.Sweeps,
		failures: cfg.Notifications.Failures,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	sweeps   bool
	failures bool
	errors   bool
}

func (n *ntfyService) NotifySweepCompleted(ctx context.Context, stage, summary string) error {
	if !n.sweeps {
		return nil
	}
	data := payload{
		title:   "Shuttle - Sweep Complete",
		message: fmt.Sprintf("Stage %s drained. %s", stage, strings.TrimSpace(summary)),
		tags:    []string{"shuttle", "sweep", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyPermanentFailure(ctx context.Context, stage, candidateKey, reason string) error {
	if !n.failures {
		return nil
	}
	candidateKey = strings.TrimSpace(candidateKey)
	message := fmt.Sprintf("Stage %s gated %s", stage, candidateKey)
	if reason = strings.TrimSpace(reason); reason != "" {
		message = fmt.Sprintf("%s\nReason: %s", message, reason)
	}
	data := payload{
		title:    "Shuttle - Candidate Gated",
		message:  message,
		tags:     []string{"shuttle", "gated", "review"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRepairCompleted(ctx context.Context, purged int) error {
	if purged == 0 || !n.sweeps {
		return nil
	}
	data := payload{
		title:   "Shuttle - Repair Complete",
		message: fmt.Sprintf("Repair pass purged %d stale completion(s)", purged),
		tags:    []string{"shuttle", "repair", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Shuttle - Error",
		message:  builder.String(),
		tags:     []string{"shuttle", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Shuttle - Test",
		message:  "Notification system test",
		tags:     []string{"shuttle", "test"},
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

func (noopService) NotifySweepCompleted(context.Context, string, string) error           { return nil }
func (noopService) NotifyPermanentFailure(context.Context, string, string, string) error { return nil }
func (noopService) NotifyRepairCompleted(context.Context, int) error                     { return nil }
func (noopService) NotifyError(context.Context, error, string) error                     { return nil }
func (noopService) TestNotification(context.Context) error                               { return nil }
