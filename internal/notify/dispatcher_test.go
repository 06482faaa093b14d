package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nailtimes/salon-backend/internal/booking"
	"github.com/nailtimes/salon-backend/internal/message"
	"github.com/nailtimes/salon-backend/internal/twilio"
)

type sentEmail struct {
	To      string
	Subject string
	HTML    string
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []sentEmail
	fail  bool
	calls int
}

func (m *fakeMailer) Send(_ context.Context, to, subject, html string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail {
		return "", errors.New("provider down")
	}
	m.sent = append(m.sent, sentEmail{To: to, Subject: subject, HTML: html})
	return "email-1", nil
}

type sentSMS struct {
	To   string
	Body string
}

type fakeTexter struct {
	mu   sync.Mutex
	sent []sentSMS
	fail bool
}

func (t *fakeTexter) SendSMS(_ context.Context, to, body string) (*twilio.SendResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail {
		return nil, errors.New("provider down")
	}
	t.sent = append(t.sent, sentSMS{To: to, Body: body})
	return &twilio.SendResult{SID: "SM123", Status: "queued"}, nil
}

type fakeStore struct {
	mu   sync.Mutex
	msgs []message.Message
}

func (s *fakeStore) Record(_ context.Context, msg *message.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, *msg)
	return nil
}

type fakePresence struct {
	active map[string]bool
}

func (p *fakePresence) IsActive(phone string) bool {
	return p.active[phone]
}

const (
	customerPhone = "+13125550142"
	adminPhone    = "+13125550100"
	adminEmail    = "owner@nailtimes.example"
)

func testAppointment() *booking.Appointment {
	return &booking.Appointment{
		ID:            uuid.New(),
		CustomerName:  "Dana Reyes",
		CustomerEmail: "dana@example.com",
		CustomerPhone: customerPhone,
		Service:       "Gel Manicure",
		StartTime:     time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC),
		EndTime:       time.Date(2024, 6, 1, 16, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          booking.StatusPending,
	}
}

func newTestDispatcher(mailer *fakeMailer, texter *fakeTexter, store *fakeStore, presence *fakePresence) *Dispatcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatcher(mailer, texter, store, presence, Config{
		AdminNotifyEmail: adminEmail,
		AdminNotifyPhone: adminPhone,
		Location:         time.UTC,
		Timeout:          time.Second,
	}, logger)
}

func TestBookingCreatedFansOutAllChannels(t *testing.T) {
	mailer := &fakeMailer{}
	texter := &fakeTexter{}
	store := &fakeStore{}
	d := newTestDispatcher(mailer, texter, store, &fakePresence{active: map[string]bool{}})

	d.BookingCreated(testAppointment())
	d.Wait()

	if len(mailer.sent) != 2 {
		t.Fatalf("emails = %d, want customer + admin", len(mailer.sent))
	}
	if len(texter.sent) != 2 {
		t.Fatalf("texts = %d, want customer + admin", len(texter.sent))
	}

	// The customer text, and only the customer text, lands on the thread.
	if len(store.msgs) != 1 {
		t.Fatalf("recorded messages = %d, want 1", len(store.msgs))
	}
	recorded := store.msgs[0]
	if recorded.CustomerPhone != customerPhone {
		t.Errorf("recorded phone = %q", recorded.CustomerPhone)
	}
	if recorded.Direction != message.DirectionOutbound {
		t.Errorf("recorded direction = %q", recorded.Direction)
	}
	if recorded.ProviderSID != "SM123" || recorded.ProviderStatus != "queued" {
		t.Errorf("recorded provider ledger = %q/%q", recorded.ProviderSID, recorded.ProviderStatus)
	}
	if recorded.ReadAt == nil {
		t.Error("outbound message should be born read")
	}
}

func TestInboundMessageSuppressedWhilePresent(t *testing.T) {
	mailer := &fakeMailer{}
	texter := &fakeTexter{}
	presence := &fakePresence{active: map[string]bool{customerPhone: true}}
	d := newTestDispatcher(mailer, texter, &fakeStore{}, presence)

	d.InboundMessage(customerPhone, "Dana", "are you open today?")
	d.Wait()

	if len(mailer.sent) != 0 || len(texter.sent) != 0 {
		t.Fatalf("got %d emails, %d texts while operator was viewing thread, want 0 each",
			len(mailer.sent), len(texter.sent))
	}
}

func TestInboundMessageAlertsWhenNotPresent(t *testing.T) {
	mailer := &fakeMailer{}
	texter := &fakeTexter{}
	d := newTestDispatcher(mailer, texter, &fakeStore{}, &fakePresence{active: map[string]bool{}})

	d.InboundMessage(customerPhone, "Dana", "are you open today?")
	d.Wait()

	if len(texter.sent) != 1 {
		t.Fatalf("admin texts = %d, want exactly 1", len(texter.sent))
	}
	if texter.sent[0].To != adminPhone {
		t.Errorf("alert went to %q, want admin phone", texter.sent[0].To)
	}
	if !strings.Contains(texter.sent[0].Body, "Dana") {
		t.Errorf("alert body %q should carry the customer name", texter.sent[0].Body)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("admin emails = %d, want exactly 1", len(mailer.sent))
	}
}

func TestInboundAlertTruncatesPreview(t *testing.T) {
	texter := &fakeTexter{}
	d := newTestDispatcher(&fakeMailer{}, texter, &fakeStore{}, &fakePresence{active: map[string]bool{}})

	long := strings.Repeat("word ", 100)
	d.InboundMessage(customerPhone, "", long)
	d.Wait()

	if len(texter.sent) != 1 {
		t.Fatalf("texts = %d", len(texter.sent))
	}
	body := texter.sent[0].Body
	if len(body) > len("New customer text from  (): ")+2*len(customerPhone)+smsPreviewLength {
		t.Errorf("alert body too long: %d chars", len(body))
	}
	if strings.Contains(body, "  ") {
		t.Errorf("whitespace runs should be collapsed: %q", body)
	}
}

func TestInboundAlertPreviewKeepsValidUTF8(t *testing.T) {
	texter := &fakeTexter{}
	d := newTestDispatcher(&fakeMailer{}, texter, &fakeStore{}, &fakePresence{active: map[string]bool{}})

	// The leading "a" misaligns the emoji runes against the preview cap so
	// the cut lands mid-rune unless truncation walks back to a boundary.
	d.InboundMessage(customerPhone, "", "a"+strings.Repeat("\U0001F485", 50))
	d.Wait()

	if len(texter.sent) != 1 {
		t.Fatalf("texts = %d", len(texter.sent))
	}
	if !utf8.ValidString(texter.sent[0].Body) {
		t.Errorf("alert body is not valid UTF-8: %q", texter.sent[0].Body)
	}
}

func TestChannelFailureIsIsolated(t *testing.T) {
	mailer := &fakeMailer{fail: true}
	texter := &fakeTexter{}
	store := &fakeStore{}
	d := newTestDispatcher(mailer, texter, store, &fakePresence{active: map[string]bool{}})

	// Email failing must not stop the texts from going out.
	d.BookingCreated(testAppointment())
	d.Wait()

	if len(texter.sent) != 2 {
		t.Fatalf("texts = %d despite email failure, want 2", len(texter.sent))
	}
	if len(store.msgs) != 1 {
		t.Fatalf("recorded = %d despite email failure, want 1", len(store.msgs))
	}
}

func TestFailedSMSIsNotRecorded(t *testing.T) {
	texter := &fakeTexter{fail: true}
	store := &fakeStore{}
	d := newTestDispatcher(&fakeMailer{}, texter, store, &fakePresence{active: map[string]bool{}})

	d.BookingConfirmed(testAppointment())
	d.Wait()

	if len(store.msgs) != 0 {
		t.Fatalf("recorded = %d for a failed send, want 0; the transcript mirrors the provider ledger", len(store.msgs))
	}
}

func TestNoAdminContactConfigured(t *testing.T) {
	mailer := &fakeMailer{}
	texter := &fakeTexter{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDispatcher(mailer, texter, &fakeStore{}, &fakePresence{active: map[string]bool{}}, Config{
		Location: time.UTC,
		Timeout:  time.Second,
	}, logger)

	d.InboundMessage(customerPhone, "Dana", "hello")
	d.Wait()

	if len(mailer.sent) != 0 || len(texter.sent) != 0 {
		t.Fatal("nothing should be sent without configured admin contacts")
	}
}

func TestSendOTPEmailSynchronous(t *testing.T) {
	mailer := &fakeMailer{}
	d := newTestDispatcher(mailer, &fakeTexter{}, &fakeStore{}, &fakePresence{active: map[string]bool{}})

	if err := d.SendOTPEmail(context.Background(), "owner@nailtimes.example", "123456"); err != nil {
		t.Fatalf("SendOTPEmail: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("emails = %d, want 1 sent synchronously", len(mailer.sent))
	}
	if !strings.Contains(mailer.sent[0].HTML, "123456") {
		t.Error("OTP email must carry the code")
	}

	failing := newTestDispatcher(&fakeMailer{fail: true}, &fakeTexter{}, &fakeStore{}, &fakePresence{active: map[string]bool{}})
	if err := failing.SendOTPEmail(context.Background(), "owner@nailtimes.example", "123456"); err == nil {
		t.Fatal("OTP email failure must propagate; the login flow depends on delivery")
	}
}
