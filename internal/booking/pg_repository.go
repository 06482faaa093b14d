package booking

import (
	"context"
	"encoding/json"
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

const appointmentColumns = `id, customer_name, customer_email, customer_phone, service,
	selected_services, start_time, end_time, duration_minutes, notes, status,
	confirmed_at, cancelled_at, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var services []byte
	var confirmedAt, cancelledAt *time.Time

	err := row.Scan(
		&a.ID,
		&a.CustomerName,
		&a.CustomerEmail,
		&a.CustomerPhone,
		&a.Service,
		&services,
		&a.StartTime,
		&a.EndTime,
		&a.DurationMinutes,
		&a.Notes,
		&a.Status,
		&confirmedAt,
		&cancelledAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	if len(services) > 0 {
		if err := json.Unmarshal(services, &a.SelectedServices); err != nil {
			return nil, fmt.Errorf("decode selected services: %w", err)
		}
	}
	a.ConfirmedAt = confirmedAt
	a.CancelledAt = cancelledAt
	return &a, nil
}

func (r *PgRepository) Create(ctx context.Context, appt *Appointment) error {
	services := appt.SelectedServices
	if services == nil {
		services = []SelectedService{}
	}
	encoded, err := json.Marshal(services)
	if err != nil {
		return fmt.Errorf("encode selected services: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(id, customer_name, customer_email, customer_phone, service, selected_services,
			 start_time, end_time, duration_minutes, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'pending', now(), now())
		RETURNING `+appointmentColumns+`
	`, appt.ID, appt.CustomerName, appt.CustomerEmail, appt.CustomerPhone, appt.Service,
		encoded, appt.StartTime, appt.EndTime, appt.DurationMinutes, appt.Notes)

	created, err := scanAppointment(row)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	*appt = *created
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) AnyOverlapping(ctx context.Context, start, end time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE status <> 'cancelled'
			  AND start_time < $2
			  AND end_time > $1
		)
	`, start, end).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}
	return exists, nil
}

func (r *PgRepository) ListIntersecting(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status <> 'cancelled'
		  AND start_time < $2
		  AND end_time > $1
		ORDER BY start_time ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) ListAll(ctx context.Context) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY start_time DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, statusAt time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    confirmed_at = CASE WHEN $2 = 'confirmed' THEN $4 ELSE confirmed_at END,
		    cancelled_at = CASE WHEN $2 = 'cancelled' THEN $4 ELSE cancelled_at END,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from, statusAt)

	return scanAppointment(row)
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge appointments: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) LatestNameForPhone(ctx context.Context, normalizedPhone string) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `
		SELECT customer_name
		FROM appointments
		WHERE customer_phone = $1
		  AND customer_name <> ''
		ORDER BY created_at DESC
		LIMIT 1
	`, normalizedPhone).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return name, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
