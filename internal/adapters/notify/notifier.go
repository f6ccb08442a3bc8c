// Package notify delivers run outcome notifications.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Event summarizes a completed sync run for delivery.
type Event struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	DryRun      bool      `json:"dry_run"`
	Matched     int       `json:"matched"`
	Updated     int       `json:"updated"`
	Unmatched   int       `json:"unmatched"`
	Failed      int       `json:"failed"`
	Error       string    `json:"error,omitempty"`
}

// Success reports whether the run completed without a fatal error.
func (e Event) Success() bool {
	return e.Error == ""
}

// Notifier receives run outcome events. Delivery failures must not affect
// the run itself; implementations return errors for logging only.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier writes run outcomes to the structured log.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier backed by logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the event at Info for success and Error for failures.
func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	attrs := []any{
		"run_id", event.RunID,
		"dry_run", event.DryRun,
		"matched", event.Matched,
		"updated", event.Updated,
		"unmatched", event.Unmatched,
		"failed", event.Failed,
		"duration", event.CompletedAt.Sub(event.StartedAt).Round(time.Millisecond),
	}
	if event.Success() {
		n.logger.Info("Sync run completed", attrs...)
		return nil
	}
	n.logger.Error("Sync run failed", append(attrs, "error", event.Error)...)
	return nil
}

// WebhookNotifier POSTs events as JSON to a configured URL with retries.
type WebhookNotifier struct {
	url    string
	client *retryablehttp.Client
}

// NewWebhookNotifier creates a webhook notifier. The retry client's own
// logging is disabled; callers log delivery failures themselves.
func NewWebhookNotifier(url string) *WebhookNotifier {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = nil
	return &WebhookNotifier{url: url, client: client}
}

// Notify delivers the event, returning an error when the endpoint cannot
// be reached or responds with a non-2xx status.
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, "POST", n.url, payload)
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// Multi fans an event out to several notifiers, collecting errors.
type Multi struct {
	notifiers []Notifier
}

// NewMulti creates a fan-out notifier.
func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

// Notify delivers to every notifier even when some fail.
func (m *Multi) Notify(ctx context.Context, event Event) error {
	var failures []string
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, event); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("notification failures: %s", strings.Join(failures, "; "))
	}
	return nil
}
