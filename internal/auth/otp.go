package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrOTPNotFound = errors.New("no active login code")

// OTP is one emailed two-factor login code. The code itself is never stored,
// only its bcrypt hash; consuming sets used_at and makes the row permanently
// invalid.
type OTP struct {
	ID        uuid.UUID
	Email     string
	CodeHash  string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

type OTPRepository interface {
	Create(ctx context.Context, otp *OTP) error

	// LatestActive returns the most recent unused, unexpired code for an
	// email, or ErrOTPNotFound.
	LatestActive(ctx context.Context, email string, now time.Time) (*OTP, error)

	// Consume marks a code used. Returns false when another verification
	// already spent it.
	Consume(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}
