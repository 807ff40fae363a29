package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// slackMessage is the incoming-webhook payload.
type slackMessage struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color    string `json:"color,omitempty"`
	Fallback string `json:"fallback,omitempty"`
	Text     string `json:"text"`
	Footer   string `json:"footer,omitempty"`
	Ts       int64  `json:"ts,omitempty"`
}

// SlackSender posts messages to a Slack incoming webhook.
type SlackSender struct {
	webhookURL  string
	minSeverity Severity
	httpClient  *http.Client
}

// SlackOption configures a SlackSender.
type SlackOption func(*SlackSender)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) SlackOption {
	return func(s *SlackSender) {
		s.httpClient = client
	}
}

// WithWarningsOnly drops informational messages.
func WithWarningsOnly() SlackOption {
	return func(s *SlackSender) {
		s.minSeverity = SeverityWarning
	}
}

// NewSlackSender creates a new Slack notification sender.
func NewSlackSender(webhookURL string, opts ...SlackOption) *SlackSender {
	s := &SlackSender{
		webhookURL:  webhookURL,
		minSeverity: SeverityInfo,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the sender name.
func (s *SlackSender) Name() string {
	return "slack"
}

// Send posts the message to the webhook.
func (s *SlackSender) Send(ctx context.Context, msg *Message) error {
	if s.minSeverity == SeverityWarning && msg.Severity != SeverityWarning {
		return nil
	}

	body, err := json.Marshal(formatSlackMessage(msg))
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func formatSlackMessage(msg *Message) *slackMessage {
	color := "good"
	if msg.Severity == SeverityWarning {
		color = "warning"
	}

	return &slackMessage{
		Text: msg.Text,
		Attachments: []slackAttachment{{
			Color:    color,
			Fallback: msg.Text,
			Text:     msg.Text,
			Footer:   msg.Source,
			Ts:       msg.Timestamp.Unix(),
		}},
	}
}

// ValidateWebhookURL checks if a webhook URL is valid.
func ValidateWebhookURL(url string) error {
	if url == "" {
		return fmt.Errorf("webhook URL is required")
	}

	if !strings.HasPrefix(url, "https://hooks.slack.com/services/") {
		return fmt.Errorf("invalid Slack webhook URL: must start with https://hooks.slack.com/services/")
	}

	return nil
}
