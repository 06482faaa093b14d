package message

import (
	"context"
	"fmt"
)

// BookingNames is the slice of the booking store the resolver needs: the
// customer name on the most recent appointment for a canonical phone.
type BookingNames interface {
	LatestNameForPhone(ctx context.Context, normalizedPhone string) (string, error)
}

// Resolver derives a customer's display name from whichever trail exists. A
// customer may text before ever booking, or book without ever texting, so
// the name is assembled from message history first, booking history second.
type Resolver struct {
	messages Repository
	bookings BookingNames
}

func NewResolver(messages Repository, bookings BookingNames) *Resolver {
	return &Resolver{messages: messages, bookings: bookings}
}

// DisplayName returns the latest non-empty name attached to the thread's
// messages, else the latest matching appointment's customer name, else "".
// The caller renders "" as "Unnamed".
func (r *Resolver) DisplayName(ctx context.Context, phone string) (string, error) {
	if phone == "" {
		return "", nil
	}

	name, err := r.messages.LatestNameForPhone(ctx, phone)
	if err != nil {
		return "", fmt.Errorf("resolve name from messages: %w", err)
	}
	if name != "" {
		return name, nil
	}

	name, err = r.bookings.LatestNameForPhone(ctx, phone)
	if err != nil {
		return "", fmt.Errorf("resolve name from bookings: %w", err)
	}
	return name, nil
}
