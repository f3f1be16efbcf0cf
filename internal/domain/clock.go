package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// DateLayout is the calendar-date wire format used in cache keys, HTTP
// payloads and logs.
const DateLayout = "2006-01-02"

// DateOf truncates t to midnight UTC of its UTC calendar date.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current UTC calendar date according to c.
func Today(c clockwork.Clock) time.Time {
	return DateOf(c.Now())
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
