// Package notifications delivers compiled reports. It supports Telegram,
// webhook and Slack transports; every configured channel receives every
// report and failures are returned to the caller without retrying.
package notifications

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/mackeh/ncwatchdog/internal/hypertext"
	"github.com/mackeh/ncwatchdog/internal/telegram"
	"github.com/mackeh/ncwatchdog/internal/telemetry"
)

// Notifier is the interface for delivering a report.
type Notifier interface {
	Name() string
	Send(ctx context.Context, msg hypertext.Message) error
}

// NotifierConfig represents an extra delivery channel from config.yaml.
type NotifierConfig struct {
	Type       string `yaml:"type"`
	URL        string `yaml:"url,omitempty"`
	Secret     string `yaml:"secret,omitempty"`
	WebhookURL string `yaml:"webhook_url,omitempty"`
}

// Dispatcher sends a report to all registered notifiers.
type Dispatcher struct {
	notifiers []Notifier
	log       *zap.Logger
}

// NewDispatcher creates a dispatcher from configuration. Unknown types are
// reported as errors.
func NewDispatcher(configs []NotifierConfig, log *zap.Logger) (*Dispatcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Dispatcher{log: log}
	for _, cfg := range configs {
		switch cfg.Type {
		case "webhook":
			d.Add(NewWebhookNotifier(cfg.URL, cfg.Secret))
		case "slack":
			d.Add(NewSlackNotifier(cfg.WebhookURL))
		default:
			return nil, fmt.Errorf("unknown notifier type %q", cfg.Type)
		}
	}
	return d, nil
}

// Add registers a notifier.
func (d *Dispatcher) Add(n Notifier) {
	d.notifiers = append(d.notifiers, n)
}

// Len returns the number of registered notifiers.
func (d *Dispatcher) Len() int {
	return len(d.notifiers)
}

// Deliver sends msg through every notifier in registration order and
// returns the joined errors of the ones that failed.
func (d *Dispatcher) Deliver(ctx context.Context, msg hypertext.Message) error {
	ctx, span := otel.Tracer("notifications").Start(ctx, "Deliver")
	defer span.End()

	var errs []error
	for _, n := range d.notifiers {
		if err := n.Send(ctx, msg); err != nil {
			telemetry.DeliveriesTotal.WithLabelValues(n.Name(), "error").Inc()
			d.log.Error("delivery failed", zap.String("channel", n.Name()), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		telemetry.DeliveriesTotal.WithLabelValues(n.Name(), "ok").Inc()
		d.log.Info("report delivered", zap.String("channel", n.Name()))
	}

	span.SetAttributes(
		attribute.Int("delivery.channels", len(d.notifiers)),
		attribute.Int("delivery.failures", len(errs)),
	)
	if len(errs) > 0 {
		span.SetStatus(codes.Error, "delivery failed")
	}
	return errors.Join(errs...)
}

// --- Telegram Notifier ---

// TelegramNotifier sends the message with its entities to one chat.
type TelegramNotifier struct {
	client *telegram.Client
	chatID string
}

// NewTelegramNotifier creates a TelegramNotifier.
func NewTelegramNotifier(client *telegram.Client, chatID string) *TelegramNotifier {
	return &TelegramNotifier{client: client, chatID: chatID}
}

// Name identifies the channel in logs and metrics.
func (t *TelegramNotifier) Name() string { return "telegram" }

// Send posts the message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, msg hypertext.Message) error {
	_, err := t.client.SendMessage(ctx, t.chatID, msg.Body, telegramEntities(msg.Entities))
	return err
}

func telegramEntities(entities []hypertext.Entity) []tgbotapi.MessageEntity {
	if len(entities) == 0 {
		return nil
	}
	out := make([]tgbotapi.MessageEntity, 0, len(entities))
	for _, e := range entities {
		out = append(out, tgbotapi.MessageEntity{
			Type:   string(e.Type),
			Offset: e.Offset,
			Length: e.Length,
			URL:    e.URL,
		})
	}
	return out
}

// --- Webhook Notifier ---

// Payload is the JSON body posted to webhooks.
type Payload struct {
	Event     string             `json:"event"`
	Timestamp time.Time          `json:"timestamp"`
	Text      string             `json:"text"`
	Entities  []hypertext.Entity `json:"entities,omitempty"`
}

// WebhookNotifier sends HMAC-signed HTTP POST payloads.
type WebhookNotifier struct {
	url    string
	secret string
	client *http.Client
}

// NewWebhookNotifier creates a new WebhookNotifier.
func NewWebhookNotifier(url, secret string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name identifies the channel in logs and metrics.
func (w *WebhookNotifier) Name() string { return "webhook" }

// Send dispatches the report via HTTP POST with HMAC signature.
func (w *WebhookNotifier) Send(ctx context.Context, msg hypertext.Message) error {
	body, err := json.Marshal(Payload{
		Event:     "report",
		Timestamp: time.Now().UTC(),
		Text:      msg.Body,
		Entities:  msg.Entities,
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: request creation failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "ncwatchdog/1.0")

	if w.secret != "" {
		mac := hmac.New(sha256.New, []byte(w.secret))
		mac.Write(body)
		req.Header.Set("X-Ncwatchdog-Signature", hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: server returned %d", resp.StatusCode)
	}
	return nil
}

// --- Slack Notifier ---

// SlackNotifier sends messages to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a new SlackNotifier.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Name identifies the channel in logs and metrics.
func (s *SlackNotifier) Name() string { return "slack" }

// Send dispatches the report as a Slack message.
func (s *SlackNotifier) Send(ctx context.Context, msg hypertext.Message) error {
	body, err := json.Marshal(slackMessage{Text: toSlackMarkup(msg)})
	if err != nil {
		return fmt.Errorf("slack: marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: request creation failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack: send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("slack: server returned %d", resp.StatusCode)
	}
	return nil
}

type slackMessage struct {
	Text string `json:"text"`
}

// toSlackMarkup converts entity spans to Slack mrkdwn. Slack does not
// render bold across a newline, so trailing newlines stay outside the markers.
func toSlackMarkup(msg hypertext.Message) string {
	var b strings.Builder
	cursor := 0
	for _, s := range hypertext.Spans(msg) {
		b.WriteString(hypertext.Slice(msg.Body, cursor, s.Offset-cursor))
		span := hypertext.Slice(msg.Body, s.Offset, s.Length)
		text := strings.TrimRight(span, "\n")
		tail := span[len(text):]
		if text != "" && s.Bold {
			text = "*" + text + "*"
		}
		if text != "" && s.URL != "" {
			text = "<" + s.URL + "|" + text + ">"
		}
		b.WriteString(text + tail)
		cursor = s.Offset + s.Length
	}
	b.WriteString(hypertext.Slice(msg.Body, cursor, hypertext.UTF16Len(msg.Body)-cursor))
	return b.String()
}
