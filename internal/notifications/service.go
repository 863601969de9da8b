package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dedsfe/cinevibe/internal/config"
)

const userAgent = "Cinevibe-Go/0.1.0"

// Service defines the notification surface exposed to the resolution and
// repair components.
type Service interface {
	NotifyResolved(ctx context.Context, title, mediaID string) error
	NotifyMissing(ctx context.Context, title, reason string) error
	NotifyRepairPass(ctx context.Context, repaired, failed int, duration time.Duration) error
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

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		sendResolved: cfg.Notifications.Resolved,
		sendRepairs:  cfg.Notifications.Repairs,
		sendErrors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	sendResolved bool
	sendRepairs  bool
	sendErrors   bool
}

func (n *ntfyService) NotifyResolved(ctx context.Context, title, mediaID string) error {
	if !n.sendResolved {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:   "Cinevibe - Resolved",
		message: fmt.Sprintf("Resolved: %s (%s)", title, strings.TrimSpace(mediaID)),
		tags:    []string{"cinevibe", "resolve", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyMissing(ctx context.Context, title, reason string) error {
	if !n.sendResolved {
		return nil
	}
	title = strings.TrimSpace(title)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:   "Cinevibe - Not Found",
		message: fmt.Sprintf("Could not resolve: %s (%s)", title, reason),
		tags:    []string{"cinevibe", "resolve", "missing"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRepairPass(ctx context.Context, repaired, failed int, duration time.Duration) error {
	if !n.sendRepairs {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var title, message string
	if failed == 0 {
		title = "Cinevibe - Repair Pass Complete"
		message = fmt.Sprintf("Repair pass complete: %d links repaired in %s", repaired, duration)
	} else {
		title = "Cinevibe - Repair Pass Complete (with failures)"
		message = fmt.Sprintf("Repair pass complete: %d repaired, %d still broken in %s", repaired, failed, duration)
	}
	data := payload{
		title:   title,
		message: message,
		tags:    []string{"cinevibe", "repair", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.sendErrors {
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
		title:    "Cinevibe - Error",
		message:  builder.String(),
		tags:     []string{"cinevibe", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Cinevibe - Test",
		message:  "Notification system test",
		tags:     []string{"cinevibe", "test"},
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

func (noopService) NotifyResolved(context.Context, string, string) error              { return nil }
func (noopService) NotifyMissing(context.Context, string, string) error               { return nil }
func (noopService) NotifyRepairPass(context.Context, int, int, time.Duration) error   { return nil }
func (noopService) NotifyError(context.Context, error, string) error                  { return nil }
func (noopService) TestNotification(context.Context) error                            { return nil }
