package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"tolk/internal/config"
)

const userAgent = "tolk/0.1"

// Event identifies a workflow milestone.
type Event string

const (
	EventBatchStarted   Event = "batch_started"
	EventBatchCompleted Event = "batch_completed"
	EventBatchFailed    Event = "batch_failed"
	EventTest           Event = "test"
)

// Payload carries event fields keyed by name.
type Payload map[string]any

// Service publishes workflow events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds an ntfy-backed notifier, or a no-op when no topic is set.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Content-Type", "text/plain; charset=utf-8")
	return &ntfyService{endpoint: topic, client: client}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *resty.Client
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventBatchCompleted:
		body := fmt.Sprintf("Translated %s (%s) in %s",
			payloadString(payload, "source"),
			payloadString(payload, "languages"),
			formatDuration(payload["duration"]))
		if out := payloadString(payload, "output"); out != "" {
			body += "\nOutput: " + out
		}
		return message{
			title: "tolk - Translation Complete",
			body:  body,
			tags:  []string{"tolk", "translation", "completed"},
		}, true
	case EventBatchFailed:
		body := fmt.Sprintf("Translation of %s stopped: %s",
			payloadString(payload, "source"), payloadString(payload, "error"))
		if pending := payloadString(payload, "pending"); pending != "" {
			body += fmt.Sprintf("\n%s chunks remain queued", pending)
		}
		return message{
			title:    "tolk - Translation Failed",
			body:     body,
			tags:     []string{"tolk", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "tolk - Test",
			body:     "Notification system test",
			tags:     []string{"tolk", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func payloadString(payload Payload, key string) string {
	if payload == nil {
		return ""
	}
	value, ok := payload[key]
	if !ok || value == nil {
		return ""
	}
	if err, ok := value.(error); ok {
		return strings.TrimSpace(err.Error())
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func formatDuration(value any) string {
	d, ok := value.(time.Duration)
	if !ok || d <= 0 {
		return "0s"
	}
	return d.Round(time.Second).String()
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req := n.client.R().
		SetContext(ctx).
		SetBody(msg.body)
	if msg.title != "" {
		req.SetHeader("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.SetHeader("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.SetHeader("Priority", msg.priority)
	}

	resp, err := req.Post(n.endpoint)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	if resp.StatusCode() >= 300 {
		body := strings.TrimSpace(string(resp.Body()))
		if len(body) > 2048 {
			body = body[:2048]
		}
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode(), body)
	}
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
