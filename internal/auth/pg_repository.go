package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgOTPRepository struct {
	pool *pgxpool.Pool
}

func NewPgOTPRepository(pool *pgxpool.Pool) *PgOTPRepository {
	return &PgOTPRepository{pool: pool}
}

func (r *PgOTPRepository) Create(ctx context.Context, otp *OTP) error {
	if otp.ID == uuid.Nil {
		otp.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO admin_otps (id, email, code_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, now())
	`, otp.ID, otp.Email, otp.CodeHash, otp.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert otp: %w", err)
	}
	return nil
}

func (r *PgOTPRepository) LatestActive(ctx context.Context, email string, now time.Time) (*OTP, error) {
	var otp OTP
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, code_hash, expires_at, used_at, created_at
		FROM admin_otps
		WHERE email = $1
		  AND used_at IS NULL
		  AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`, email, now).Scan(&otp.ID, &otp.Email, &otp.CodeHash, &otp.ExpiresAt, &otp.UsedAt, &otp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOTPNotFound
		}
		return nil, err
	}
	return &otp, nil
}

func (r *PgOTPRepository) Consume(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	// Conditional update: under concurrent verifications only one wins.
	tag, err := r.pool.Exec(ctx, `
		UPDATE admin_otps
		SET used_at = $2
		WHERE id = $1
		  AND used_at IS NULL
	`, id, at)
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
