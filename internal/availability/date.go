package availability

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// weekdayNames is indexed by time.Weekday.
var weekdayNames = [7]string{
	"Sunday",
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
}

// Weekday returns the English weekday name of date's calendar day.
func Weekday(date time.Time) string {
	return weekdayNames[date.Weekday()]
}

// IsWeekday reports whether name is one of the seven weekday names.
func IsWeekday(name string) bool {
	for _, n := range weekdayNames {
		if n == name {
			return true
		}
	}
	return false
}

// weekdayOrder returns the Monday-first position of a weekday name, or -1.
func weekdayOrder(name string) int {
	for i, n := range weekdayNames {
		if n == name {
			return (i + 6) % 7
		}
	}
	return -1
}

// ParseDate reads a calendar date given as YYYY-MM-DD or RFC3339 and returns
// it at midnight UTC. For RFC3339 input the calendar day is taken in the
// offset the caller wrote, so "2024-08-19T23:30:00-05:00" is a Monday.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return CivilDate(t), nil
}

// CivilDate drops the clock part of t, keeping its calendar day, at UTC.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a civil date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// clockMinutes parses an HH:MM time of day into minutes after midnight.
func clockMinutes(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil || len(s) != 5 {
		return 0, fmt.Errorf("time %q is not HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}
