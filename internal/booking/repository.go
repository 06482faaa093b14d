package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// Repository contains all DB interactions needed by the booking service.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// AnyOverlapping is the authoritative conflict check: does any
	// non-cancelled appointment overlap [start, end)?
	AnyOverlapping(ctx context.Context, start, end time.Time) (bool, error)

	// ListIntersecting returns non-cancelled appointments whose interval
	// intersects [from, to), ordered by start time.
	ListIntersecting(ctx context.Context, from, to time.Time) ([]Appointment, error)

	ListAll(ctx context.Context) ([]Appointment, error)

	// UpdateStatus transitions an appointment from one status to another,
	// stamping statusAt into confirmed_at or cancelled_at. Returns
	// ErrAppointmentNotFound when no row matches id+from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, statusAt time.Time) (*Appointment, error)

	// Delete removes an appointment permanently (admin purge).
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteOlderThan removes appointments created before the cutoff,
	// returning how many were purged.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// LatestNameForPhone returns the customer name on the most recent
	// appointment matching a canonical phone, or "" when none exists.
	LatestNameForPhone(ctx context.Context, normalizedPhone string) (string, error)
}
