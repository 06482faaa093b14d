// Package notify fans booking and messaging events out to email and SMS.
// Delivery is best effort: the durable state transition has already happened
// by the time a dispatch runs, so a channel failure is logged and never
// surfaced to the triggering operation.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nailtimes/salon-backend/internal/booking"
	"github.com/nailtimes/salon-backend/internal/message"
	"github.com/nailtimes/salon-backend/internal/twilio"
)

// Texter sends one SMS and reports the provider's ledger entry.
type Texter interface {
	SendSMS(ctx context.Context, to, body string) (*twilio.SendResult, error)
}

// MessageStore records transmitted customer texts so the conversation
// transcript reflects the provider's ledger, not just application intent.
type MessageStore interface {
	Record(ctx context.Context, msg *message.Message) error
}

// Presence answers whether the operator currently has a conversation open.
type Presence interface {
	IsActive(phone string) bool
}

type Dispatcher struct {
	mailer   Mailer
	texter   Texter
	store    MessageStore
	presence Presence
	loc      *time.Location
	logger   *slog.Logger

	adminNotifyEmail string
	adminNotifyPhone string // canonical

	timeout time.Duration
	wg      sync.WaitGroup
}

type Config struct {
	AdminNotifyEmail string
	AdminNotifyPhone string // already normalized
	Location         *time.Location
	Timeout          time.Duration // per-channel send budget
}

func NewDispatcher(mailer Mailer, texter Texter, store MessageStore, presence Presence, cfg Config, logger *slog.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Dispatcher{
		mailer:           mailer,
		texter:           texter,
		store:            store,
		presence:         presence,
		loc:              cfg.Location,
		logger:           logger,
		adminNotifyEmail: cfg.AdminNotifyEmail,
		adminNotifyPhone: cfg.AdminNotifyPhone,
		timeout:          cfg.Timeout,
	}
}

// Wait blocks until every in-flight dispatch finishes. Used by graceful
// shutdown and tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// BookingCreated notifies the customer (email + SMS) and the operator
// (email + SMS) about a new booking request.
func (d *Dispatcher) BookingCreated(appt *booking.Appointment) {
	d.email(appt.CustomerEmail, "Appointment Request Confirmation", customerBookingHTML(appt, d.loc))
	d.email(d.adminNotifyEmail, "New Appointment Request", adminBookingHTML(appt, d.loc))
	d.customerSMS(appt, bookingReceivedSMS(appt, d.loc))
	d.sms(d.adminNotifyPhone, adminBookingSMS(appt, d.loc))
}

// BookingConfirmed notifies the customer their appointment is locked in.
func (d *Dispatcher) BookingConfirmed(appt *booking.Appointment) {
	d.email(appt.CustomerEmail, "Your Appointment Is Confirmed", bookingConfirmedHTML(appt, d.loc))
	d.customerSMS(appt, bookingConfirmedSMS(appt, d.loc))
}

// BookingCancelled texts the customer about the cancellation.
func (d *Dispatcher) BookingCancelled(appt *booking.Appointment) {
	d.customerSMS(appt, bookingCancelledSMS(appt, d.loc))
}

// InboundMessage alerts the operator about a new customer text, unless they
// already have that conversation open. This suppression is the point: no
// alert spam while the operator is reading the live thread.
func (d *Dispatcher) InboundMessage(from, customerName, body string) {
	if d.presence.IsActive(from) {
		d.logger.Debug("operator viewing conversation, alert suppressed", "from", from)
		return
	}

	d.sms(d.adminNotifyPhone, inboundAlertSMS(from, customerName, body))
	d.email(d.adminNotifyEmail, "New Customer Text", inboundAlertHTML(from, customerName, body))
}

// SendOTPEmail delivers a two-factor login code. Unlike event dispatches
// this is synchronous: a login attempt without its code is useless.
func (d *Dispatcher) SendOTPEmail(ctx context.Context, to, code string) error {
	_, err := d.mailer.Send(ctx, to, "Your Admin Login Code", OTPEmailHTML(code))
	if errors.Is(err, ErrMailerNotConfigured) {
		d.logger.Warn("email not configured, OTP not sent", "to", to)
		return nil
	}
	return err
}

// email fires one email channel in the background.
func (d *Dispatcher) email(to, subject, html string) {
	if to == "" {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		// Detached from the request context: the caller's response must not
		// wait on, or be cancelled by, notification delivery.
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if _, err := d.mailer.Send(ctx, to, subject, html); err != nil {
			if errors.Is(err, ErrMailerNotConfigured) {
				return
			}
			d.logger.Warn("email notification failed", "to", to, "subject", subject, "error", err)
		}
	}()
}

// sms fires one alert SMS in the background without recording it; operator
// alerts are not part of any customer conversation.
func (d *Dispatcher) sms(to, body string) {
	if to == "" || body == "" {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if _, err := d.texter.SendSMS(ctx, to, body); err != nil {
			if errors.Is(err, twilio.ErrNotConfigured) {
				return
			}
			d.logger.Warn("sms notification failed", "to", to, "error", err)
		}
	}()
}

// customerSMS sends a text to the booking's customer and records the
// transmitted message on their thread with the provider's sid and status.
func (d *Dispatcher) customerSMS(appt *booking.Appointment, body string) {
	to := appt.CustomerPhone
	if to == "" || body == "" {
		return
	}

	name := appt.CustomerName

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		sent, err := d.texter.SendSMS(ctx, to, body)
		if err != nil {
			if errors.Is(err, twilio.ErrNotConfigured) {
				return
			}
			d.logger.Warn("customer sms failed", "to", to, "error", err)
			return
		}

		now := time.Now()
		msg := &message.Message{
			CustomerPhone:  to,
			CustomerName:   name,
			Direction:      message.DirectionOutbound,
			Body:           body,
			ProviderSID:    sent.SID,
			ProviderStatus: sent.Status,
			ReadAt:         &now,
		}
		if err := d.store.Record(ctx, msg); err != nil {
			d.logger.Warn("failed to record outbound sms", "to", to, "sid", sent.SID, "error", err)
		}
	}()
}
