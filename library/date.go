package library

import (
	"errors"
	"time"
)

// DateLayout is the calendar date format accepted by ParseDate.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar date like "2024-01-31".
func ParseDate(value string) (time.Time, error) {
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, errors.Join(ErrInvalidDate, err)
	}

	return date, nil
}

// MustParseDate is like ParseDate but panics on invalid input. It is intended for tests and fixtures.
func MustParseDate(value string) time.Time {
	date, err := ParseDate(value)
	if err != nil {
		panic(err)
	}

	return date
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}

	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// isEarlier reports whether date lies on a calendar day strictly before reference.
func isEarlier(date, reference time.Time) bool {
	return Day(date).Before(Day(reference))
}
