package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func ConnectPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 15 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the salon tables if they do not exist yet. There is no
// migration tool; the schema is small and only grows additively.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS appointments (
			id uuid PRIMARY KEY,
			customer_name text NOT NULL,
			customer_email text NOT NULL,
			customer_phone text NOT NULL DEFAULT '',
			service text NOT NULL,
			selected_services jsonb NOT NULL DEFAULT '[]',
			start_time timestamptz NOT NULL,
			end_time timestamptz NOT NULL,
			duration_minutes int NOT NULL DEFAULT 60,
			notes text NOT NULL DEFAULT '',
			status text NOT NULL DEFAULT 'pending',
			confirmed_at timestamptz,
			cancelled_at timestamptz,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS appointments_start_time_idx ON appointments (start_time)`,
		`CREATE INDEX IF NOT EXISTS appointments_status_idx ON appointments (status)`,
		`CREATE INDEX IF NOT EXISTS appointments_created_at_idx ON appointments (created_at)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id uuid PRIMARY KEY,
			customer_phone text NOT NULL,
			customer_name text NOT NULL DEFAULT '',
			direction text NOT NULL,
			body text NOT NULL,
			provider_sid text NOT NULL DEFAULT '',
			provider_status text NOT NULL DEFAULT '',
			read_at timestamptz,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS messages_phone_created_idx ON messages (customer_phone, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS admin_otps (
			id uuid PRIMARY KEY,
			email text NOT NULL,
			code_hash text NOT NULL,
			expires_at timestamptz NOT NULL,
			used_at timestamptz,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS admin_otps_email_created_idx ON admin_otps (email, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}
