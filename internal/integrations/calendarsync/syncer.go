// Package calendarsync pushes scheduled visits to an external calendar.
// Pushes are best effort: callers log a failed push and carry on.
package calendarsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Event is a calendar entry to publish.
type Event struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description"`
}

// Syncer publishes events to an external calendar.
type Syncer interface {
	Push(ctx context.Context, ev Event) error
}

// New picks a Syncer: disabled sync yields a no-op, an enabled sync without
// a webhook URL only logs what would be sent.
func New(enabled bool, webhookURL string, timeout time.Duration, logger zerolog.Logger) Syncer {
	switch {
	case !enabled:
		return Nop{}
	case webhookURL == "":
		return &LogSyncer{logger: logger}
	}
	return NewWebhookSyncer(webhookURL, &http.Client{Timeout: timeout})
}

// Nop discards every event.
type Nop struct{}

func (Nop) Push(context.Context, Event) error { return nil }

// LogSyncer writes events to the log instead of a remote calendar.
type LogSyncer struct {
	logger zerolog.Logger
}

func (s *LogSyncer) Push(_ context.Context, ev Event) error {
	s.logger.Info().
		Str("title", ev.Title).
		Time("start", ev.Start).
		Time("end", ev.End).
		Msg("calendar sync")
	return nil
}

// WebhookSyncer POSTs each event as JSON to a webhook.
type WebhookSyncer struct {
	url    string
	client *http.Client
}

// NewWebhookSyncer creates a WebhookSyncer. A nil client uses http.DefaultClient.
func NewWebhookSyncer(url string, client *http.Client) *WebhookSyncer {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookSyncer{url: url, client: client}
}

func (s *WebhookSyncer) Push(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode calendar event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build calendar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push calendar event: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("calendar webhook returned %d", resp.StatusCode)
	}
	return nil
}
