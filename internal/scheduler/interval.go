package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the canonical calendar-day format used across the scheduler.
// Dates in this form compare correctly as plain strings.
const DateLayout = "2006-01-02"

// ErrInvalidTimeFormat indicates a wall-clock string is not a valid "HH:MM" value.
var ErrInvalidTimeFormat = errors.New("scheduler: invalid time format")

// ErrInvalidDate indicates a calendar-day string is not a valid "YYYY-MM-DD" value.
var ErrInvalidDate = errors.New("scheduler: invalid date")

// ToMinutes converts a "HH:MM" wall-clock string to minutes since midnight.
func ToMinutes(hhmm string) (int, error) {
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if hhmm[i] < '0' || hhmm[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
		}
	}
	hours := int(hhmm[0]-'0')*10 + int(hhmm[1]-'0')
	minutes := int(hhmm[3]-'0')*10 + int(hhmm[4]-'0')
	if hours > 23 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
	}
	return hours*60 + minutes, nil
}

// Overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) share any point. Boundary-adjacent intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// ParseDate parses a canonical "YYYY-MM-DD" calendar-day string.
func ParseDate(value string) (time.Time, error) {
	day, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return day, nil
}

// FormatDate renders the calendar day of t in the canonical form.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// MinuteOfDay returns the wall-clock minute offset of t within its day.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
