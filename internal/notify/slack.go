package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

var titles = map[EventType]string{
	EventStatusChange:      "🌐 Uplink status changed",
	EventRecoveryAttempted: "🔌 Modem power cycle started",
	EventRecoverySucceeded: "🟢 Uplink recovered",
	EventRecoveryDenied:    "⛔ Recovery denied",
}

type Slack struct {
	Webhook string
	Client  *http.Client
}

func NewSlack(webhook string) *Slack {
	if webhook == "" {
		return nil
	}
	return &Slack{
		Webhook: webhook,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type slackPayload struct {
	Text string `json:"text"`
}

func (s *Slack) Send(ctx context.Context, ev Event) error {
	if s == nil || s.Webhook == "" {
		return errors.New("slack disabled")
	}
	title := titles[ev.Type]
	if title == "" {
		title = string(ev.Type)
	}
	text := "*" + title + "*\n" + ev.Detail +
		"\nAt: " + ev.Timestamp.Format(time.RFC3339)

	body, _ := json.Marshal(slackPayload{Text: text})
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.Webhook, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errors.New("slack non-2xx")
	}
	return nil
}
