package notify

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nailtimes/salon-backend/internal/booking"
	"github.com/nailtimes/salon-backend/internal/phone"
)

// Message and email wording for every notification event. These are dumb
// formatting helpers over well-defined inputs; no sending happens here.

const smsPreviewLength = 120

var whitespaceRun = regexp.MustCompile(`\s+`)

func bookingReceivedSMS(appt *booking.Appointment, loc *time.Location) string {
	return fmt.Sprintf(
		"Nail Times: Hi %s, we received your booking request for %s. Services: %s. We'll text you once it is confirmed.",
		appt.CustomerName,
		phone.FormatLocal(appt.StartTime, loc),
		appt.ServiceSummary(),
	)
}

func bookingConfirmedSMS(appt *booking.Appointment, loc *time.Location) string {
	return fmt.Sprintf(
		"Nail Times: Hi %s, your appointment is confirmed for %s. See you soon!",
		appt.CustomerName,
		phone.FormatLocal(appt.StartTime, loc),
	)
}

func bookingCancelledSMS(appt *booking.Appointment, loc *time.Location) string {
	return fmt.Sprintf(
		"Nail Times: Hi %s, your appointment for %s has been cancelled. Please text us or rebook online if you need another time.",
		appt.CustomerName,
		phone.FormatLocal(appt.StartTime, loc),
	)
}

func adminBookingSMS(appt *booking.Appointment, loc *time.Location) string {
	contact := appt.CustomerPhone
	if contact == "" {
		contact = appt.CustomerEmail
	}
	return fmt.Sprintf(
		"New booking request: %s (%s) for %s. Services: %s.",
		appt.CustomerName,
		contact,
		phone.FormatLocal(appt.StartTime, loc),
		appt.ServiceSummary(),
	)
}

func inboundAlertSMS(from, customerName, body string) string {
	preview := strings.TrimSpace(whitespaceRun.ReplaceAllString(body, " "))
	if len(preview) > smsPreviewLength {
		// Cut on a rune boundary so a multibyte character at the edge is
		// dropped whole, not split.
		cut := smsPreviewLength
		for cut > 0 && !utf8.RuneStart(preview[cut]) {
			cut--
		}
		preview = preview[:cut]
	}
	label := customerName
	if label == "" {
		label = from
	}
	return fmt.Sprintf("New customer text from %s (%s): %s", label, from, preview)
}

func servicesHTML(appt *booking.Appointment) string {
	if len(appt.SelectedServices) == 0 {
		return fmt.Sprintf("<li>%s</li>", appt.Service)
	}

	var b strings.Builder
	for _, item := range appt.SelectedServices {
		minutes := "?"
		if item.DurationMinutes > 0 {
			minutes = fmt.Sprintf("%d", item.DurationMinutes)
		}
		tech := ""
		if item.Technician != "" {
			tech = ", Tech: " + item.Technician
		}
		fmt.Fprintf(&b, "<li>%s (%s min%s)</li>", item.Name, minutes, tech)
	}
	return b.String()
}

func customerBookingHTML(appt *booking.Appointment, loc *time.Location) string {
	return fmt.Sprintf(`
		<h2>Appointment Request Received</h2>
		<p>Hi %s,</p>
		<p>We received your appointment request. Here are the details:</p>
		<ul>
			<li>Date/Time: %s</li>
			<li>Total Duration: %d minutes</li>
			<li>Services:</li>
			<ul>%s</ul>
		</ul>
		<p>We will confirm shortly. Thank you!</p>
	`, appt.CustomerName, phone.FormatLocal(appt.StartTime, loc), appt.DurationMinutes, servicesHTML(appt))
}

func adminBookingHTML(appt *booking.Appointment, loc *time.Location) string {
	notes := appt.Notes
	if notes == "" {
		notes = "N/A"
	}
	phoneText := appt.CustomerPhone
	if phoneText == "" {
		phoneText = "N/A"
	}
	return fmt.Sprintf(`
		<h2>New Appointment Request</h2>
		<ul>
			<li>Name: %s</li>
			<li>Email: %s</li>
			<li>Phone: %s</li>
			<li>Date/Time: %s</li>
			<li>Total Duration: %d minutes</li>
			<li>Services:</li>
			<ul>%s</ul>
			<li>Notes: %s</li>
		</ul>
	`, appt.CustomerName, appt.CustomerEmail, phoneText,
		phone.FormatLocal(appt.StartTime, loc), appt.DurationMinutes, servicesHTML(appt), notes)
}

func bookingConfirmedHTML(appt *booking.Appointment, loc *time.Location) string {
	return fmt.Sprintf(`
		<h2>Your appointment is confirmed</h2>
		<p>Hi %s,</p>
		<p>Your appointment at Nail Times has been confirmed.</p>
		<ul>
			<li>Date/Time: %s</li>
			<li>Total Duration: %d minutes</li>
			<li>Services:</li>
			<ul>%s</ul>
		</ul>
		<p>We look forward to seeing you.</p>
	`, appt.CustomerName, phone.FormatLocal(appt.StartTime, loc), appt.DurationMinutes, servicesHTML(appt))
}

func inboundAlertHTML(from, customerName, body string) string {
	label := customerName
	if label == "" {
		label = from
	}
	return fmt.Sprintf(`
		<h2>New Customer Text</h2>
		<p>From: %s (%s)</p>
		<blockquote>%s</blockquote>
	`, label, from, body)
}

// OTPEmailHTML renders the two-factor login code email.
func OTPEmailHTML(code string) string {
	return fmt.Sprintf(
		"<p>Your admin login code is:</p><h2>%s</h2><p>This code expires in 10 minutes.</p>",
		code,
	)
}
