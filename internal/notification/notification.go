// Package notification delivers account notices such as received transfers
// and login lockouts.
package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	// KindTransferReceived tells a user that funds arrived from another account.
	KindTransferReceived = "transfer_received"
	// KindLoginLockout tells a user their login was locked after repeated failures.
	KindLoginLockout = "login_lockout"
)

// Message is one notice addressed to a username.
type Message struct {
	Kind        string    `json:"kind"`
	Destination string    `json:"-"`
	Body        string    `json:"body"`
	SentAt      time.Time `json:"sent_at"`
}

// Notifier delivers notifications to account holders.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// Drainer hands out and forgets the pending messages of a destination.
type Drainer interface {
	Drain(destination string) []Message
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.InfoContext(ctx, "notification", "kind", message.Kind, "destination", message.Destination)
	return nil
}

// Inbox keeps the most recent undelivered messages per destination in memory.
type Inbox struct {
	mu       sync.Mutex
	limit    int
	now      func() time.Time
	messages map[string][]Message
}

// NewInbox builds an inbox holding at most limit messages per destination;
// older ones are dropped first. limit <= 0 means 50.
func NewInbox(limit int) *Inbox {
	if limit <= 0 {
		limit = 50
	}
	return &Inbox{limit: limit, now: time.Now, messages: make(map[string][]Message)}
}

func (i *Inbox) Send(_ context.Context, message Message) error {
	if message.Destination == "" {
		return errors.New("notification without destination")
	}
	if message.SentAt.IsZero() {
		message.SentAt = i.now()
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	queue := append(i.messages[message.Destination], message)
	if over := len(queue) - i.limit; over > 0 {
		queue = append([]Message(nil), queue[over:]...)
	}
	i.messages[message.Destination] = queue
	return nil
}

func (i *Inbox) Drain(destination string) []Message {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := i.messages[destination]
	delete(i.messages, destination)
	return out
}

// Fanout sends every message to all of its notifiers and drains from those
// that keep messages.
type Fanout []Notifier

func (f Fanout) Send(ctx context.Context, message Message) error {
	var errs []error
	for _, n := range f {
		if err := n.Send(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Drain(destination string) []Message {
	var out []Message
	for _, n := range f {
		if d, ok := n.(Drainer); ok {
			out = append(out, d.Drain(destination)...)
		}
	}
	return out
}
