package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// MinutesOfDay parses a "HH:MM" time of day into minutes since midnight.
func MinutesOfDay(hhmm string) (int, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", hhmm)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", hhmm)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", hhmm)
	}
	return h*60 + m, nil
}

// NormalizeSpan converts departure and arrival times of day into
// minutes since midnight of the departure day. An arrival at or before
// the departure is treated as next-day (overnight trip).
func NormalizeSpan(departure, arrival string) (depMin, arrMin int, err error) {
	depMin, err = MinutesOfDay(departure)
	if err != nil {
		return 0, 0, err
	}
	arrMin, err = MinutesOfDay(arrival)
	if err != nil {
		return 0, 0, err
	}
	if arrMin <= depMin {
		arrMin += minutesPerDay
	}
	return depMin, arrMin, nil
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "2006-01-02" calendar day.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
