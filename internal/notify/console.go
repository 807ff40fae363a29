package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// ConsoleSender renders messages to a terminal.
type ConsoleSender struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleSender creates a sender writing to w.
func NewConsoleSender(w io.Writer) *ConsoleSender {
	return &ConsoleSender{w: w}
}

// Name returns the sender name.
func (s *ConsoleSender) Name() string {
	return "console"
}

// Send writes one line per message.
func (s *ConsoleSender) Send(_ context.Context, msg *Message) error {
	line := infoStyle.Render("✓ " + msg.Text)
	if msg.Severity == SeverityWarning {
		line = warningStyle.Render("! " + msg.Text)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := fmt.Fprintln(s.w, line)

	return err
}
