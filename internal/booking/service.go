package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nailtimes/salon-backend/internal/phone"
	redisclient "github.com/nailtimes/salon-backend/internal/redis"
)

var (
	ErrSlotUnavailable  = errors.New("time slot overlaps with another appointment")
	ErrSlotBusy         = errors.New("time slot is currently being booked, please retry")
	ErrAlreadyCancelled = errors.New("cancelled booking cannot be confirmed")
	ErrInvalidBooking   = errors.New("invalid booking request")
)

type Service struct {
	repo           Repository
	locker         redisclient.Locker
	loc            *time.Location
	defaultMinutes int
	logger         *slog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, loc *time.Location, defaultMinutes int, logger *slog.Logger) *Service {
	if defaultMinutes <= 0 {
		defaultMinutes = 60
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:           repo,
		locker:         locker,
		loc:            loc,
		defaultMinutes: defaultMinutes,
		logger:         logger,
	}
}

// TryBook validates a booking request and inserts it if its interval is free.
// The overlap check and the insert run under a Redis lock covering the
// booking's calendar day(s), so two concurrent requests for intersecting
// intervals can never both succeed. The server-side check is authoritative:
// the client's view of booked slots may be stale between page load and
// submission.
func (s *Service) TryBook(ctx context.Context, req Request) (*Appointment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	minutes := ResolveDuration(req, s.defaultMinutes)
	start := req.StartTime
	end := start.Add(time.Duration(minutes) * time.Minute)

	appt := &Appointment{
		ID:               uuid.New(),
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerPhone:    phone.Normalize(req.CustomerPhone),
		Service:          req.Service,
		SelectedServices: req.SelectedServices,
		StartTime:        start,
		EndTime:          end,
		DurationMinutes:  minutes,
		Notes:            req.Notes,
		Status:           StatusPending,
	}

	windows := LockWindows(start, end, s.loc)

	err := s.locker.WithBookingLock(ctx, windows, func(lockCtx context.Context) error {
		// Re-check inside the critical section; only this check counts.
		taken, err := s.repo.AnyOverlapping(lockCtx, start, end)
		if err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}
		if taken {
			return ErrSlotUnavailable
		}

		return s.repo.Create(lockCtx, appt)
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBusy
		}
		return nil, err
	}

	s.logger.Info("booking created",
		"appointment_id", appt.ID,
		"start_time", appt.StartTime,
		"duration_minutes", appt.DurationMinutes,
	)

	return appt, nil
}

// CheckAvailability lists the booked intervals of a local calendar day so the
// client can grey out taken times.
func (s *Service) CheckAvailability(ctx context.Context, date string) (*DayAvailability, error) {
	dayStart, dayEnd, err := DayBounds(date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBooking, err)
	}

	appts, err := s.repo.ListIntersecting(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list day appointments: %w", err)
	}

	slots := make([]AvailabilitySlot, 0, len(appts))
	for _, a := range appts {
		slots = append(slots, AvailabilitySlot{
			StartTime:       a.StartTime,
			EndTime:         a.EndTime,
			DurationMinutes: a.DurationMinutes,
			Status:          a.Status,
		})
	}

	return &DayAvailability{Date: date, Appointments: slots}, nil
}

// Confirm moves a pending appointment to confirmed. Confirming an already
// confirmed appointment is a no-op success; a cancelled one cannot come back.
// The returned flag reports whether this call performed the transition, so
// callers notify the customer once, not on every retry.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, bool, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	switch appt.Status {
	case StatusConfirmed:
		return appt, false, nil
	case StatusCancelled:
		return nil, false, ErrAlreadyCancelled
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusPending, StatusConfirmed, time.Now())
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost a race; the current state decides the answer. The winner
			// of the race owns the notification.
			return s.reReadAfterConfirmRace(ctx, id)
		}
		return nil, false, fmt.Errorf("confirm appointment: %w", err)
	}

	s.logger.Info("booking confirmed", "appointment_id", updated.ID)
	return updated, true, nil
}

func (s *Service) reReadAfterConfirmRace(ctx context.Context, id uuid.UUID) (*Appointment, bool, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if appt.Status == StatusConfirmed {
		return appt, false, nil
	}
	return nil, false, ErrAlreadyCancelled
}

// Cancel marks an appointment cancelled, permanently excluding it from
// conflict checks. Cancelling an already cancelled appointment is a no-op
// success. Confirmed appointments may still be cancelled. The returned flag
// reports whether this call performed the transition.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, bool, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}

	if appt.Status == StatusCancelled {
		return appt, false, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, id, appt.Status, StatusCancelled, time.Now())
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Status moved underneath us; read back and settle.
			current, getErr := s.repo.GetByID(ctx, id)
			if getErr != nil {
				return nil, false, getErr
			}
			if current.Status == StatusCancelled {
				return current, false, nil
			}
			settled, setErr := s.repo.UpdateStatus(ctx, id, current.Status, StatusCancelled, time.Now())
			if setErr != nil {
				return nil, false, setErr
			}
			return settled, true, nil
		}
		return nil, false, fmt.Errorf("cancel appointment: %w", err)
	}

	s.logger.Info("booking cancelled", "appointment_id", updated.ID)
	return updated, true, nil
}

// HardDelete irreversibly removes an appointment record.
func (s *Service) HardDelete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("booking hard-deleted", "appointment_id", id)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAll(ctx context.Context) ([]Appointment, error) {
	return s.repo.ListAll(ctx)
}

// PurgeOlderThan deletes appointments created before now minus the retention
// window. Booking history is time-bounded and must not be relied upon for
// long-term records.
func (s *Service) PurgeOlderThan(ctx context.Context, window time.Duration) (int64, error) {
	cutoff := time.Now().Add(-window)
	purged, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		s.logger.Info("purged expired bookings", "count", purged, "cutoff", cutoff)
	}
	return purged, nil
}

func validateRequest(req Request) error {
	switch {
	case req.CustomerName == "":
		return fmt.Errorf("%w: customer name is required", ErrInvalidBooking)
	case req.CustomerEmail == "":
		return fmt.Errorf("%w: customer email is required", ErrInvalidBooking)
	case req.Service == "" && len(req.SelectedServices) == 0:
		return fmt.Errorf("%w: at least one service is required", ErrInvalidBooking)
	case req.StartTime.IsZero():
		return fmt.Errorf("%w: start time is required", ErrInvalidBooking)
	case req.DurationMinutes < 0:
		return fmt.Errorf("%w: duration must be positive", ErrInvalidBooking)
	}
	return nil
}
