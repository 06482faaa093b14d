// Package phone canonicalizes customer phone numbers so that every variant a
// customer types (dashes, parentheses, missing country code) collapses to one
// conversation key, and formats appointment times in the salon's timezone.
package phone

import (
	"strings"
	"time"
)

// Normalize returns the canonical +<countrycode><digits> form of a phone
// number, or "" when the input contains no digits. Bare 10-digit numbers are
// assumed to be US/Canada and get a +1 prefix.
func Normalize(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "+") {
		digits := keepDigits(trimmed[1:])
		if digits == "" {
			return ""
		}
		return "+" + digits
	}

	digits := keepDigits(trimmed)
	if digits == "" {
		return ""
	}
	if len(digits) == 10 {
		return "+1" + digits
	}
	return "+" + digits
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatLocal renders t in the business timezone the way it appears in
// customer-facing texts and emails, e.g. "Jan 2, 2026 at 3:04 PM".
func FormatLocal(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("Jan 2, 2006 at 3:04 PM")
}
