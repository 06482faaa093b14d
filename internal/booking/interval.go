package booking

import (
	"fmt"
	"time"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share at least one instant. Back-to-back bookings with an
// equal boundary do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ResolveDuration produces the authoritative appointment duration for a
// request. Precedence: explicit request duration, then the sum of the
// selected services' durations when every line item carries one, then the
// configured default.
func ResolveDuration(req Request, defaultMinutes int) int {
	if req.DurationMinutes > 0 {
		return req.DurationMinutes
	}

	sum := 0
	for _, item := range req.SelectedServices {
		if item.DurationMinutes <= 0 {
			sum = 0
			break
		}
		sum += item.DurationMinutes
	}
	if sum > 0 {
		return sum
	}

	return defaultMinutes
}

// DayBounds returns the half-open [midnight, next midnight) window for a
// YYYY-MM-DD date in the business timezone. Day boundaries follow local wall
// clock, not UTC, so availability matches business hours.
func DayBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", date)
	}
	return start, start.AddDate(0, 0, 1), nil
}

// LockWindows lists the local calendar days an interval touches, as
// YYYY-MM-DD keys. A booking crossing midnight yields both days.
func LockWindows(start, end time.Time, loc *time.Location) []string {
	var windows []string

	day := start.In(loc)
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	for day.Before(end.In(loc)) {
		windows = append(windows, day.Format("2006-01-02"))
		day = day.AddDate(0, 0, 1)
	}

	if len(windows) == 0 {
		// Zero-length interval still locks its own day.
		windows = append(windows, start.In(loc).Format("2006-01-02"))
	}

	return windows
}
