package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const messageColumns = `id, customer_phone, customer_name, direction, body,
	provider_sid, provider_status, read_at, created_at`

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	var readAt *time.Time

	err := row.Scan(
		&m.ID,
		&m.CustomerPhone,
		&m.CustomerName,
		&m.Direction,
		&m.Body,
		&m.ProviderSID,
		&m.ProviderStatus,
		&readAt,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}

	m.ReadAt = readAt
	return &m, nil
}

func (r *PgRepository) Create(ctx context.Context, msg *Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO messages
			(id, customer_phone, customer_name, direction, body, provider_sid, provider_status, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING `+messageColumns+`
	`, msg.ID, msg.CustomerPhone, msg.CustomerName, msg.Direction, msg.Body,
		msg.ProviderSID, msg.ProviderStatus, msg.ReadAt)

	created, err := scanMessage(row)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	*msg = *created
	return nil
}

func (r *PgRepository) ListByPhone(ctx context.Context, phone string) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE customer_phone = $1
		ORDER BY created_at ASC
	`, phone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) LatestNameForPhone(ctx context.Context, phone string) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `
		SELECT customer_name
		FROM messages
		WHERE customer_phone = $1
		  AND customer_name <> ''
		ORDER BY created_at DESC
		LIMIT 1
	`, phone).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return name, nil
}

func (r *PgRepository) MarkInboundRead(ctx context.Context, phone string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE messages
		SET read_at = $2
		WHERE customer_phone = $1
		  AND direction = 'inbound'
		  AND read_at IS NULL
	`, phone, at)
	if err != nil {
		return fmt.Errorf("mark inbound read: %w", err)
	}
	return nil
}

func (r *PgRepository) SetThreadName(ctx context.Context, phone, name string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE messages
		SET customer_name = $2
		WHERE customer_phone = $1
	`, phone, name)
	if err != nil {
		return fmt.Errorf("set thread name: %w", err)
	}
	return nil
}

func (r *PgRepository) ListThreads(ctx context.Context) ([]ThreadSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.customer_phone, t.customer_name, t.created_at, t.body, t.direction, t.unread_count
		FROM (
			SELECT DISTINCT ON (customer_phone)
				customer_phone,
				customer_name,
				created_at,
				body,
				direction,
				(SELECT count(*)
				 FROM messages u
				 WHERE u.customer_phone = m.customer_phone
				   AND u.direction = 'inbound'
				   AND u.read_at IS NULL) AS unread_count
			FROM messages m
			ORDER BY customer_phone, created_at DESC
		) t
		ORDER BY t.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ThreadSummary
	for rows.Next() {
		var s ThreadSummary
		if err := rows.Scan(&s.CustomerPhone, &s.CustomerName, &s.LatestMessageAt, &s.LastMessageBody, &s.LastDirection, &s.UnreadCount); err != nil {
			return nil, err
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
