package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/nailtimes/salon-backend/internal/booking"
)

type CreateBookingRequest struct {
	CustomerName     string                    `json:"customer_name"`
	CustomerEmail    string                    `json:"customer_email"`
	CustomerPhone    string                    `json:"customer_phone"`
	Service          string                    `json:"service,omitempty"`
	SelectedServices []booking.SelectedService `json:"selected_services,omitempty"`
	StartTime        time.Time                 `json:"start_time"`
	DurationMinutes  int                       `json:"duration_minutes,omitempty"`
	Notes            string                    `json:"notes,omitempty"`
}

type BookingResponse struct {
	ID               uuid.UUID                 `json:"id"`
	CustomerName     string                    `json:"customer_name"`
	CustomerEmail    string                    `json:"customer_email"`
	CustomerPhone    string                    `json:"customer_phone"`
	Service          string                    `json:"service,omitempty"`
	SelectedServices []booking.SelectedService `json:"selected_services,omitempty"`
	StartTime        time.Time                 `json:"start_time"`
	EndTime          time.Time                 `json:"end_time"`
	DurationMinutes  int                       `json:"duration_minutes"`
	Notes            string                    `json:"notes,omitempty"`
	Status           string                    `json:"status"`
	ConfirmedAt      *time.Time                `json:"confirmed_at,omitempty"`
	CancelledAt      *time.Time                `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
}

func toBookingResponse(appt *booking.Appointment) BookingResponse {
	return BookingResponse{
		ID:               appt.ID,
		CustomerName:     appt.CustomerName,
		CustomerEmail:    appt.CustomerEmail,
		CustomerPhone:    appt.CustomerPhone,
		Service:          appt.Service,
		SelectedServices: appt.SelectedServices,
		StartTime:        appt.StartTime,
		EndTime:          appt.EndTime,
		DurationMinutes:  appt.DurationMinutes,
		Notes:            appt.Notes,
		Status:           string(appt.Status),
		ConfirmedAt:      appt.ConfirmedAt,
		CancelledAt:      appt.CancelledAt,
		CreatedAt:        appt.CreatedAt,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token       string `json:"token,omitempty"`
	Requires2FA bool   `json:"requires_2fa,omitempty"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type RenameThreadRequest struct {
	Name string `json:"name"`
}

type ReplyRequest struct {
	Body string `json:"body"`
}

type PresenceRequest struct {
	Phone  string `json:"phone"`
	Active bool   `json:"active"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
