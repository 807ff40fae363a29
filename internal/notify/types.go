// Package notify delivers user-facing connection messages to one or more
// senders (the terminal, a Slack webhook).
package notify

import (
	"context"
	"time"
)

// Severity classifies a message.
type Severity string

// Severities used for connection messages.
const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Message is a single user-facing notification.
type Message struct {
	// Severity is info for confirmations and warning for failures
	Severity Severity

	// Text is the human-readable message
	Text string

	// Source names the component that raised the message
	Source string

	// Timestamp is when the message was raised
	Timestamp time.Time
}

// NewMessage creates a message stamped with the current time.
func NewMessage(severity Severity, text string) *Message {
	return &Message{
		Severity:  severity,
		Text:      text,
		Source:    "gerrit",
		Timestamp: time.Now(),
	}
}

// Sender is the interface for notification senders.
type Sender interface {
	// Send delivers the message.
	Send(ctx context.Context, msg *Message) error

	// Name returns the sender's name for logging purposes.
	Name() string
}
