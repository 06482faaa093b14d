package message

import (
	"context"
	"errors"
	"time"
)

var ErrMessageNotFound = errors.New("message not found")

// Repository contains all DB interactions needed by the messaging service.
type Repository interface {
	Create(ctx context.Context, msg *Message) error

	// ListByPhone returns a thread's messages ordered oldest first.
	ListByPhone(ctx context.Context, phone string) ([]Message, error)

	// LatestNameForPhone returns the name on the most recent message in the
	// thread that carries one, or "".
	LatestNameForPhone(ctx context.Context, phone string) (string, error)

	// MarkInboundRead stamps read_at on every unread inbound message in the
	// thread.
	MarkInboundRead(ctx context.Context, phone string, at time.Time) error

	// SetThreadName sets, or clears when name is empty, the customer name on
	// every message of the thread.
	SetThreadName(ctx context.Context, phone, name string) error

	// ListThreads returns one summary per conversation, newest activity
	// first.
	ListThreads(ctx context.Context) ([]ThreadSummary, error)
}
