package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// sendTimeout bounds a single sender call.
const sendTimeout = 30 * time.Second

// Dispatcher routes messages to registered senders.
type Dispatcher struct {
	senders []Sender
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewDispatcher creates a new notification dispatcher. Sender failures are
// logged to logger and never returned to the caller.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		senders: make([]Sender, 0),
		logger:  logger.Named("notify"),
	}
}

// Register adds a sender to the dispatcher.
func (d *Dispatcher) Register(sender Sender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.senders = append(d.senders, sender)
}

// Unregister removes a sender from the dispatcher by name.
func (d *Dispatcher) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	filtered := make([]Sender, 0, len(d.senders))
	for _, s := range d.senders {
		if s.Name() != name {
			filtered = append(filtered, s)
		}
	}
	d.senders = filtered
}

// Info dispatches an informational message.
func (d *Dispatcher) Info(ctx context.Context, text string) {
	d.Dispatch(ctx, NewMessage(SeverityInfo, text))
}

// Warn dispatches a warning message.
func (d *Dispatcher) Warn(ctx context.Context, text string) {
	d.Dispatch(ctx, NewMessage(SeverityWarning, text))
}

// Dispatch sends a message to all registered senders in registration order.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) {
	d.mu.RLock()
	senders := make([]Sender, len(d.senders))
	copy(senders, d.senders)
	d.mu.RUnlock()

	for _, sender := range senders {
		d.sendWithRecover(ctx, sender, msg)
	}
}

// sendWithRecover sends a message and recovers from panics.
func (d *Dispatcher) sendWithRecover(ctx context.Context, sender Sender, msg *Message) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic in sender", zap.String("sender", sender.Name()), zap.Any("panic", r))
		}
	}()

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := sender.Send(sendCtx, msg); err != nil {
		d.logger.Warn("failed to send notification", zap.String("sender", sender.Name()), zap.Error(err))
	}
}

// HasSenders returns true if any senders are registered.
func (d *Dispatcher) HasSenders() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.senders) > 0
}
