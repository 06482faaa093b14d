package booking

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// SelectedService is one line item on a booking, as chosen on the services
// page. Technician and duration are optional; a missing duration falls back
// to the configured default when the authoritative duration is resolved.
type SelectedService struct {
	Name            string  `json:"name"`
	Category        string  `json:"category,omitempty"`
	Technician      string  `json:"technician,omitempty"`
	Price           float64 `json:"price,omitempty"`
	DurationMinutes int     `json:"duration_minutes,omitempty"`
}

type Appointment struct {
	ID               uuid.UUID
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string // canonical +<cc><digits>, may be empty
	Service          string
	SelectedServices []SelectedService
	StartTime        time.Time
	EndTime          time.Time
	DurationMinutes  int
	Notes            string
	Status           Status
	ConfirmedAt      *time.Time
	CancelledAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ServiceSummary is the comma-joined service list used in notification
// bodies, falling back to the single legacy service field.
func (a *Appointment) ServiceSummary() string {
	if len(a.SelectedServices) == 0 {
		if a.Service != "" {
			return a.Service
		}
		return "your service"
	}

	summary := ""
	for i, item := range a.SelectedServices {
		if i > 0 {
			summary += ", "
		}
		summary += item.Name
	}
	return summary
}

// Request is a validated booking submission. CustomerPhone is raw input;
// the service normalizes it before storage.
type Request struct {
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    string
	Service          string
	SelectedServices []SelectedService
	DurationMinutes  int // 0 means unspecified
	StartTime        time.Time
	Notes            string
}

// AvailabilitySlot is one booked interval on the public availability
// calendar. Customer identity is deliberately absent.
type AvailabilitySlot struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          Status    `json:"status"`
}

type DayAvailability struct {
	Date         string             `json:"date"`
	Appointments []AvailabilitySlot `json:"appointments"`
}
