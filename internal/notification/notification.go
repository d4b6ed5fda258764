package notification

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// KindTransferCompleted indicates a completed transfer event.
	KindTransferCompleted = "transfer_completed"
)

// Message describes a notification payload addressed to a principal.
type Message struct {
	Kind      string
	Recipient string
	Sender    string
	Body      string
}

// Notifier delivers notifications to downstream systems. Delivery is fire and
// forget; a failure never affects the transfer that produced the event.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "recipient", message.Recipient, "sender", message.Sender, "body", message.Body)
	return nil
}

// Record is a stored notification served back to its recipient.
type Record struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Recipient string    `json:"recipient"`
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Inbox is a Notifier that retains messages so recipients can list them.
type Inbox struct {
	mu      sync.RWMutex
	next    Notifier
	records []Record
}

// NewInbox constructs an inbox forwarding each message to next after storing it.
func NewInbox(next Notifier) *Inbox {
	return &Inbox{next: next}
}

// Send stores the message and forwards it.
func (i *Inbox) Send(ctx context.Context, message Message) error {
	i.mu.Lock()
	i.records = append(i.records, Record{
		ID:        uuid.NewString(),
		Kind:      message.Kind,
		Recipient: message.Recipient,
		Sender:    message.Sender,
		Body:      message.Body,
		CreatedAt: time.Now().UTC(),
	})
	i.mu.Unlock()

	if i.next == nil {
		return nil
	}
	return i.next.Send(ctx, message)
}

// ListForRecipient returns the recipient's notifications, newest first.
func (i *Inbox) ListForRecipient(recipient string) []Record {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]Record, 0)
	for _, r := range i.records {
		if r.Recipient == recipient {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out
}

// MarkRead flags a stored notification as read.
func (i *Inbox) MarkRead(id string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	for idx := range i.records {
		if i.records[idx].ID == id {
			i.records[idx].IsRead = true
			return true
		}
	}
	return false
}
